package dto

import (
	"github.com/noah-isme/sma-portal-sync/internal/models"
)

// SessionRequest carries the bearer token issued by the school records API.
type SessionRequest struct {
	Token string `json:"token" binding:"required"`
}

// MarkAttendanceBatch is the body of POST /attendance.
type MarkAttendanceBatch struct {
	Items []models.MarkAttendanceRequest `json:"items" binding:"required,min=1"`
}

// MonthQuery captures ?month=&year=&force= parameters.
type MonthQuery struct {
	Month int
	Year  int
	Force bool
}

// QuarterlyQuery lists months as YYYY-MM values.
type QuarterlyQuery struct {
	Months []string
}

// DailyRateResponse wraps the class rate for one day.
type DailyRateResponse struct {
	DateKey  string  `json:"date_key"`
	Rate     float64 `json:"rate"`
	Excluded bool    `json:"excluded"`
	Present  int     `json:"present"`
	Late     int     `json:"late"`
	Absent   int     `json:"absent"`
	Excused  int     `json:"excused"`
}

// HealthResponse reports process and dependency status.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
