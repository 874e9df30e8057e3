package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User is the auth identity plus the clinical profile row: one row per
// authenticated identity, replaced whole on every profile save.
type User struct {
	gorm.Model
	Email    string `gorm:"uniqueIndex;not null"`
	Password string `gorm:"not null"`
	FullName string

	// Clinical profile. List-valued fields are JSON arrays so that an
	// absent value reads back as an empty list, never null.
	Age         int
	Sex         string
	Height      float64 // cm
	Weight      float64 // kg
	BMI         float64 // written at onboarding, never silently re-derived
	BirthDate   time.Time
	Pathologies datatypes.JSON
	Treatments  datatypes.JSON
	Allergies   datatypes.JSON
	Preferences datatypes.JSON
	Goals       datatypes.JSON

	Onboarded      bool
	ProfilePicture string

	MFAEnabled    bool
	MFACode       string
	ResetToken    string
	ResetTokenExp time.Time
}
