package models

import "github.com/volatiletech/null/v8"

// PromotionStatus is the state of a student's promotion classification.
type PromotionStatus string

const (
	PromotionUnclassified PromotionStatus = "Unclassified"
	PromotionPromoted     PromotionStatus = "Promoted"
	PromotionRetained     PromotionStatus = "Retained"
	PromotionPending      PromotionStatus = "Pending"
)

// PromotionInput is one student row of a section promotion report.
type PromotionInput struct {
	StudentID            int64        `json:"student_id"`
	StudentName          string       `json:"student_name"`
	FinalAverage         null.Float64 `json:"final_average"`
	AttendancePercentage null.Float64 `json:"attendance_percentage"`
}

// PromotionReport is the section report the classifier consumes.
type PromotionReport struct {
	CompletionPercentage float64          `json:"completion_percentage"`
	Students             []PromotionInput `json:"students"`
}

// PromotionRecord is derived per student and never edited by hand.
type PromotionRecord struct {
	StudentID            int64           `json:"student_id"`
	StudentName          string          `json:"student_name"`
	FinalAverage         null.Float64    `json:"final_average"`
	AttendancePercentage null.Float64    `json:"attendance_percentage"`
	HonorClassification  HonorTier       `json:"honor_classification"`
	PromotionStatus      PromotionStatus `json:"promotion_status"`
}
