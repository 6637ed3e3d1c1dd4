package models

// ScheduleEntry is one class session on a day.
type ScheduleEntry struct {
	ScheduleID  int64  `json:"schedule_id"`
	SubjectID   int64  `json:"subject_id"`
	SubjectName string `json:"subject_name"`
	TeacherName string `json:"teacher_name,omitempty"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Room        string `json:"room,omitempty"`
}

// DayScheduleEntry is a day of the section's schedule indexed by date key.
type DayScheduleEntry struct {
	DateKey       string          `json:"date_key"`
	Classes       []ScheduleEntry `json:"classes"`
	IsClassDay    bool            `json:"is_class_day"`
	CalendarEvent *CalendarEvent  `json:"calendar_event,omitempty"`
}

// ScheduleMonthRequest scopes a month of schedule data.
type ScheduleMonthRequest struct {
	SectionID      int64 `validate:"required,gt=0"`
	AcademicYearID int64 `validate:"omitempty,gt=0"`
	Month          int   `validate:"min=1,max=12"`
	Year           int   `validate:"min=2000"`
}

// ScheduleDayPayload is a schedule day as sent by the API. IsClassDay may be
// absent.
type ScheduleDayPayload struct {
	Classes       []ScheduleEntry `json:"classes"`
	IsClassDay    *bool           `json:"is_class_day"`
	CalendarEvent *CalendarEvent  `json:"calendar_event"`
}
