package models

import (
	"time"

	"gorm.io/gorm"
)

// Meal is one meal of a plan day. Ephemeral: lives inside a cached plan
// payload or a meal-log entry, never as its own row.
type Meal struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"` // "Breakfast" | "Lunch" | "Dinner" | "Snack"
	Name     string  `json:"name"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Sodium   float64 `json:"sodium"`
	Sugar    float64 `json:"sugar"`
	Analysis string  `json:"analysis,omitempty"`
}

// MealEntry is one analyzed meal in the user's log.
type MealEntry struct {
	gorm.Model
	UserID   uint `gorm:"index;not null"`
	EntryID  string
	Name     string
	Calories float64
	Protein  float64
	Carbs    float64
	Fat      float64
	Sodium   float64
	Sugar    float64
	Summary  string `gorm:"type:text"`
	PhotoURL string
	AteAt    time.Time
}
