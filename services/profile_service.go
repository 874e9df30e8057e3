package services

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/mbrth/iasante/models"
	"github.com/mbrth/iasante/utils"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProfileService is the profile store: one clinical profile row per
// authenticated identity, loaded on session start and replaced whole on every
// save. It also tracks a per-user generation counter so slow asynchronous
// results (risk calls, chat replies) can be discarded when a profile change
// supersedes them.
type ProfileService struct {
	db *gorm.DB

	mu          sync.Mutex
	generations map[uint]uint64
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db, generations: make(map[uint]uint64)}
}

// Generation returns the current profile generation for a user. Any result
// computed under an older generation must be discarded.
func (s *ProfileService) Generation(userID uint) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[userID]
}

func (s *ProfileService) bumpGeneration(userID uint) {
	s.mu.Lock()
	s.generations[userID]++
	s.mu.Unlock()
}

// Load fetches the profile for a user. Any lookup failure — missing row, not
// yet onboarded, driver error — downgrades to "no profile": the caller sees
// nil and routes to onboarding.
func (s *ProfileService) Load(userID uint) *models.Profile {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("profile load failed for user %d: %v", userID, err)
		}
		return nil
	}
	if !user.Onboarded {
		return nil
	}
	return profileFromUser(&user)
}

// Save replaces the whole profile row. Last writer wins: there is no merge
// and no conflict detection, matching the client's replace-on-update shell.
// The stored BMI is written as given — edits never recompute it here.
func (s *ProfileService) Save(userID uint, p *models.Profile) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return errors.New("user not found")
	}

	applyProfile(&user, p)
	user.Onboarded = true
	if err := s.db.Save(&user).Error; err != nil {
		return err
	}
	s.bumpGeneration(userID)
	return nil
}

// OnboardingInput is the payload from the onboarding wizard.
type OnboardingInput struct {
	Age         int      `json:"age"`
	Sex         string   `json:"sex"`
	Height      float64  `json:"height"`
	Weight      float64  `json:"weight"`
	BirthDate   string   `json:"birthDate"`
	Pathologies []string `json:"pathologies"`
	Treatments  []string `json:"treatments"`
	Allergies   []string `json:"allergies"`
	Preferences []string `json:"preferences"`
	Goals       []string `json:"goals"`
}

// CompleteOnboarding creates the profile and computes BMI exactly once from
// the submitted height and weight. This is the only implicit BMI write.
func (s *ProfileService) CompleteOnboarding(userID uint, in OnboardingInput) (*models.Profile, error) {
	bmi, err := utils.CalculateBMI(in.Height, in.Weight)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, errors.New("user not found")
	}

	age := in.Age
	if age <= 0 && in.BirthDate != "" {
		if birth, err := time.Parse("2006-01-02", in.BirthDate); err == nil {
			age = utils.CalculateAge(birth)
		}
	}

	p := &models.Profile{
		Age:         age,
		Sex:         in.Sex,
		Height:      in.Height,
		Weight:      in.Weight,
		BMI:         bmi,
		BirthDate:   in.BirthDate,
		Pathologies: in.Pathologies,
		Treatments:  in.Treatments,
		Allergies:   in.Allergies,
		Preferences: in.Preferences,
		Goals:       in.Goals,
	}

	applyProfile(&user, p)
	user.Onboarded = true
	if err := s.db.Save(&user).Error; err != nil {
		return nil, err
	}
	s.bumpGeneration(userID)
	return profileFromUser(&user), nil
}

// RecomputeBMI re-derives the stored BMI from the current height and weight.
// Deliberately a separate operation: profile edits alone never touch BMI.
func (s *ProfileService) RecomputeBMI(userID uint) (*models.Profile, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, errors.New("user not found")
	}
	if !user.Onboarded {
		return nil, errors.New("profile not found")
	}

	bmi, err := utils.CalculateBMI(user.Height, user.Weight)
	if err != nil {
		return nil, err
	}
	user.BMI = bmi
	if err := s.db.Save(&user).Error; err != nil {
		return nil, err
	}
	s.bumpGeneration(userID)
	return profileFromUser(&user), nil
}

// ---- row <-> wire conversion ----

func profileFromUser(u *models.User) *models.Profile {
	birth := ""
	if !u.BirthDate.IsZero() {
		birth = u.BirthDate.Format("2006-01-02")
	}
	return &models.Profile{
		Age:         u.Age,
		Sex:         u.Sex,
		Height:      u.Height,
		Weight:      u.Weight,
		BMI:         u.BMI,
		BirthDate:   birth,
		Pathologies: stringsFromJSON(u.Pathologies),
		Treatments:  stringsFromJSON(u.Treatments),
		Allergies:   stringsFromJSON(u.Allergies),
		Preferences: stringsFromJSON(u.Preferences),
		Goals:       stringsFromJSON(u.Goals),
	}
}

func applyProfile(u *models.User, p *models.Profile) {
	u.Age = p.Age
	u.Sex = p.Sex
	u.Height = p.Height
	u.Weight = p.Weight
	u.BMI = p.BMI
	if p.BirthDate != "" {
		if birth, err := time.Parse("2006-01-02", p.BirthDate); err == nil {
			u.BirthDate = birth
		}
	}
	u.Pathologies = jsonFromStrings(p.Pathologies)
	u.Treatments = jsonFromStrings(p.Treatments)
	u.Allergies = jsonFromStrings(p.Allergies)
	u.Preferences = jsonFromStrings(p.Preferences)
	u.Goals = jsonFromStrings(p.Goals)
}

func jsonFromStrings(values []string) datatypes.JSON {
	if values == nil {
		values = []string{}
	}
	b, _ := json.Marshal(values)
	return datatypes.JSON(b)
}

func stringsFromJSON(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var values []string
	if err := json.Unmarshal(raw, &values); err != nil || values == nil {
		return []string{}
	}
	return values
}
