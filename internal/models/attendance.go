package models

import "fmt"

// AttendanceStatus is the four-state daily taxonomy.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceExcused AttendanceStatus = "excused"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceLate, AttendanceAbsent, AttendanceExcused:
		return true
	default:
		return false
	}
}

// AttendanceRecord is one student's attendance for one day, optionally bound
// to a scheduled class.
type AttendanceRecord struct {
	StudentID  int64            `json:"student_id"`
	ScheduleID *int64           `json:"schedule_id,omitempty"`
	Date       string           `json:"date"`
	Status     AttendanceStatus `json:"status"`
	TimeIn     *string          `json:"time_in,omitempty"`
	TimeOut    *string          `json:"time_out,omitempty"`
	Remarks    *string          `json:"remarks,omitempty"`
}

// UniqueKey identifies the (student|schedule, date) pair a record occupies.
func (r AttendanceRecord) UniqueKey() string {
	if r.ScheduleID != nil {
		return fmt.Sprintf("sched:%d|stu:%d|%s", *r.ScheduleID, r.StudentID, r.Date)
	}
	return fmt.Sprintf("stu:%d|%s", r.StudentID, r.Date)
}

// MonthlySummary uses the monthly reporting taxonomy: present, absent and
// half-day counts.
type MonthlySummary struct {
	PresentDays int `json:"present_days"`
	AbsentDays  int `json:"absent_days"`
	HalfDays    int `json:"half_days"`
}

// Total is the number of recorded days.
func (m MonthlySummary) Total() int {
	return m.PresentDays + m.AbsentDays + m.HalfDays
}

// Add sums two summaries.
func (m MonthlySummary) Add(o MonthlySummary) MonthlySummary {
	return MonthlySummary{
		PresentDays: m.PresentDays + o.PresentDays,
		AbsentDays:  m.AbsentDays + o.AbsentDays,
		HalfDays:    m.HalfDays + o.HalfDays,
	}
}

// StudentMonthlyAttendance is one student's entry in a monthly response.
type StudentMonthlyAttendance struct {
	StudentID   int64          `json:"student_id"`
	StudentName string         `json:"student_name"`
	Summary     MonthlySummary `json:"monthly_summary"`
}

// MonthlyAttendanceRequest scopes a monthly aggregation.
type MonthlyAttendanceRequest struct {
	SectionID      int64 `validate:"required,gt=0"`
	AcademicYearID int64 `validate:"omitempty,gt=0"`
	Month          int   `validate:"min=1,max=12"`
	Year           int   `validate:"min=2000"`
}

// MarkAttendanceRequest records a single daily attendance entry.
type MarkAttendanceRequest struct {
	StudentID  int64   `json:"student_id" validate:"required,gt=0"`
	ScheduleID *int64  `json:"schedule_id" validate:"omitempty,gt=0"`
	Date       string  `json:"date" validate:"required"`
	Status     string  `json:"status" validate:"required,attendance_status"`
	TimeIn     *string `json:"time_in"`
	TimeOut    *string `json:"time_out"`
	Remarks    *string `json:"remarks"`
}
