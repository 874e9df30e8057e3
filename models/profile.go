package models

// Chronic conditions known to the platform. Stored and exchanged as their
// display labels, exactly as the clients render them.
const (
	PathologyDiabetesT1           = "Diabetes Type 1"
	PathologyDiabetesT2           = "Diabetes Type 2"
	PathologyHypertension         = "Hypertension"
	PathologyCardiovascular       = "Cardiovascular Disease"
	PathologyObesity              = "Obesity"
	PathologyHypercholesterolemia = "Hypercholesterolemia"
	PathologyMetabolicSyndrome    = "Metabolic Syndrome"
)

// Profile is the wire form of a user's clinical profile.
type Profile struct {
	Age         int      `json:"age"`
	Sex         string   `json:"sex"` // "Male" | "Female" | "Other"
	Height      float64  `json:"height"`
	Weight      float64  `json:"weight"`
	BMI         float64  `json:"bmi"`
	BirthDate   string   `json:"birthDate"` // YYYY-MM-DD
	Pathologies []string `json:"pathologies"`
	Treatments  []string `json:"treatments"`
	Allergies   []string `json:"allergies"`
	Preferences []string `json:"preferences"`
	Goals       []string `json:"goals"`
}

// HasPathology reports whether the profile lists the given condition.
func (p *Profile) HasPathology(name string) bool {
	for _, c := range p.Pathologies {
		if c == name {
			return true
		}
	}
	return false
}
