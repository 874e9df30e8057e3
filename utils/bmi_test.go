package utils

import (
	"math"
	"testing"
	"time"
)

func TestCalculateBMI(t *testing.T) {
	bmi, err := CalculateBMI(175, 70)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 70.0 / (1.75 * 1.75)
	if math.Abs(bmi-want) > 1e-9 {
		t.Fatalf("bmi = %v, want %v", bmi, want)
	}
}

func TestCalculateBMIRejectsBadInput(t *testing.T) {
	cases := []struct {
		name   string
		height float64
		weight float64
	}{
		{"zero height", 0, 70},
		{"zero weight", 175, 0},
		{"negative height", -175, 70},
		{"height too small", 40, 70},
		{"height too large", 300, 70},
		{"weight too small", 175, 5},
		{"weight too large", 175, 500},
	}
	for _, tc := range cases {
		if _, err := CalculateBMI(tc.height, tc.weight); err == nil {
			t.Errorf("%s: expected error, got nil", tc.name)
		}
	}
}

func TestFormatBMI(t *testing.T) {
	bmi, err := CalculateBMI(175, 70)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := FormatBMI(bmi); got != "22.9" {
		t.Fatalf("FormatBMI = %q, want %q", got, "22.9")
	}
}

func TestBMICategory(t *testing.T) {
	cases := []struct {
		bmi  float64
		want string
	}{
		{17.0, "Underweight"},
		{22.0, "Normal weight"},
		{27.0, "Overweight"},
		{32.0, "Obesity class I"},
		{37.0, "Obesity class II"},
		{45.0, "Obesity class III"},
	}
	for _, tc := range cases {
		if got := BMICategory(tc.bmi); got != tc.want {
			t.Errorf("BMICategory(%v) = %q, want %q", tc.bmi, got, tc.want)
		}
	}
}

func TestCalculateAge(t *testing.T) {
	birth := time.Now().AddDate(-30, 0, -1)
	if got := CalculateAge(birth); got != 30 {
		t.Fatalf("age = %d, want 30", got)
	}

	future := time.Now().AddDate(1, 0, 0)
	if got := CalculateAge(future); got != 0 {
		t.Fatalf("age for future birthday = %d, want 0", got)
	}
}
