package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PlanDay is one day of the weekly nutrition plan.
type PlanDay struct {
	Day           string  `json:"day"`
	Meals         []Meal  `json:"meals"`
	TotalCalories float64 `json:"totalCalories"`
}

// PlanCache is the single "current plan" row per user: overwritten on
// regeneration, no history, no expiry.
type PlanCache struct {
	gorm.Model
	UserID  uint           `gorm:"uniqueIndex;not null"`
	Payload datatypes.JSON `gorm:"not null"`
}
