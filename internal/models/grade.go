package models

import "github.com/volatiletech/null/v8"

// SubjectGradeEntry is one subject's grade for a student in a quarter. An
// invalid Grade means "not yet recorded" and is never read as zero.
type SubjectGradeEntry struct {
	SubjectID   int64        `json:"subject_id"`
	SubjectName string       `json:"subject_name,omitempty"`
	Grade       null.Float64 `json:"grade"`
}

// GradeUpdate changes one subject grade for one student.
type GradeUpdate struct {
	StudentID int64        `json:"student_id" validate:"required,gt=0"`
	SubjectID int64        `json:"subject_id" validate:"required,gt=0"`
	Grade     null.Float64 `json:"grade"`
}

// BulkGradeRequest writes many grade updates for the active selection.
type BulkGradeRequest struct {
	Items []GradeUpdate `json:"items" validate:"required,min=1,dive"`
}

// GradeStatus is the derived standing of a student grade set.
type GradeStatus string

const (
	GradeStatusPassing    GradeStatus = "Passing"
	GradeStatusFailing    GradeStatus = "Failing"
	GradeStatusIncomplete GradeStatus = "Incomplete"
)

// HonorTier is a declarative classification derived from an average.
type HonorTier string

const (
	HonorNone        HonorTier = ""
	HonorWith        HonorTier = "With Honors"
	HonorWithHigh    HonorTier = "With High Honors"
	HonorWithHighest HonorTier = "With Highest Honors"
)
