package models

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// BMIRecord is a raw height/weight measurement for a student.
type BMIRecord struct {
	StudentID   int64        `json:"student_id"`
	StudentName string       `json:"student_name"`
	HeightCM    null.Float64 `json:"height_cm"`
	WeightKG    null.Float64 `json:"weight_kg"`
	RecordedAt  *time.Time   `json:"recorded_at,omitempty"`
}

// BMICategory is the nutritional status band.
type BMICategory string

const (
	BMIUnknown        BMICategory = "Unknown"
	BMISeverelyWasted BMICategory = "Severely Wasted"
	BMIWasted         BMICategory = "Wasted"
	BMINormal         BMICategory = "Normal"
	BMIOverweight     BMICategory = "Overweight"
	BMIObese          BMICategory = "Obese"
)

// BMIResult is the derived BMI for a student.
type BMIResult struct {
	StudentID   int64        `json:"student_id"`
	StudentName string       `json:"student_name"`
	BMI         null.Float64 `json:"bmi"`
	Category    BMICategory  `json:"category"`
}
