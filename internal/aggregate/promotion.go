package aggregate

import (
	"fmt"
	"math"
	"sort"

	"github.com/noah-isme/sma-portal-sync/internal/models"
	appErrors "github.com/noah-isme/sma-portal-sync/pkg/errors"
)

// PromotionPolicy holds the thresholds the classifier applies.
type PromotionPolicy struct {
	PassingAverage     float64
	MinAttendance      float64
	RequiredCompletion float64
}

// DefaultPromotionPolicy promotes at a 75 average with 75% attendance once
// grade data is fully entered.
func DefaultPromotionPolicy() PromotionPolicy {
	return PromotionPolicy{PassingAverage: DefaultPassingAverage, MinAttendance: 75, RequiredCompletion: 100}
}

func (p PromotionPolicy) normalized() PromotionPolicy {
	d := DefaultPromotionPolicy()
	if p.PassingAverage <= 0 {
		p.PassingAverage = d.PassingAverage
	}
	if p.MinAttendance <= 0 {
		p.MinAttendance = d.MinAttendance
	}
	if p.RequiredCompletion <= 0 {
		p.RequiredCompletion = d.RequiredCompletion
	}
	return p
}

// Gate refuses classification until the section's grade data is complete.
func (p PromotionPolicy) Gate(completion float64) error {
	p = p.normalized()
	if math.IsNaN(completion) || completion < 0 || completion > 100 {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("completion percentage %v is out of range", completion))
	}
	if completion < p.RequiredCompletion {
		return appErrors.IncompleteData(completion)
	}
	return nil
}

// ClassifyStudent decides one student's status. A row missing either the
// final average or the attendance percentage stays Pending.
func (p PromotionPolicy) ClassifyStudent(in models.PromotionInput) (models.PromotionRecord, error) {
	p = p.normalized()
	rec := models.PromotionRecord{
		StudentID:            in.StudentID,
		StudentName:          in.StudentName,
		FinalAverage:         in.FinalAverage,
		AttendancePercentage: in.AttendancePercentage,
		PromotionStatus:      models.PromotionPending,
	}
	if err := ValidateGrade(in.FinalAverage); err != nil {
		return models.PromotionRecord{}, err
	}
	if a := in.AttendancePercentage; a.Valid && (math.IsNaN(a.Float64) || a.Float64 < 0 || a.Float64 > 100) {
		return models.PromotionRecord{}, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("attendance percentage %v is out of range", a.Float64))
	}
	if !in.FinalAverage.Valid || !in.AttendancePercentage.Valid {
		return rec, nil
	}
	if in.FinalAverage.Float64 >= p.PassingAverage && in.AttendancePercentage.Float64 >= p.MinAttendance {
		rec.PromotionStatus = models.PromotionPromoted
		rec.HonorClassification = HonorFor(in.FinalAverage.Float64)
	} else {
		rec.PromotionStatus = models.PromotionRetained
	}
	return rec, nil
}

// Classify gates the report on completion and classifies every student. No
// record is produced when the gate is closed.
func (p PromotionPolicy) Classify(report models.PromotionReport) ([]models.PromotionRecord, error) {
	if err := p.Gate(report.CompletionPercentage); err != nil {
		return nil, err
	}
	records := make([]models.PromotionRecord, 0, len(report.Students))
	for _, in := range report.Students {
		rec, err := p.ClassifyStudent(in)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].StudentID < records[j].StudentID })
	return records, nil
}

// PromotionCounts tallies statuses and honor tiers.
type PromotionCounts struct {
	Promoted int                      `json:"promoted"`
	Retained int                      `json:"retained"`
	Pending  int                      `json:"pending"`
	Honors   map[models.HonorTier]int `json:"honors"`
}

// CountPromotion tallies classified records.
func CountPromotion(records []models.PromotionRecord) PromotionCounts {
	counts := PromotionCounts{Honors: map[models.HonorTier]int{}}
	for _, band := range HonorBands {
		counts.Honors[band.Tier] = 0
	}
	for _, r := range records {
		switch r.PromotionStatus {
		case models.PromotionPromoted:
			counts.Promoted++
		case models.PromotionRetained:
			counts.Retained++
		case models.PromotionPending:
			counts.Pending++
		}
		if r.HonorClassification != models.HonorNone {
			counts.Honors[r.HonorClassification]++
		}
	}
	return counts
}
