package models

// CalendarEventType classifies calendar entries attached to a day.
type CalendarEventType string

const (
	CalendarHoliday  CalendarEventType = "holiday"
	CalendarWeekend  CalendarEventType = "weekend"
	CalendarNoClass  CalendarEventType = "no_class"
	CalendarActivity CalendarEventType = "activity"
)

// CalendarEvent is an academic calendar entry attached to a schedule day.
type CalendarEvent struct {
	Title string            `json:"title"`
	Type  CalendarEventType `json:"type"`
}

// SuspendsClasses reports whether the event cancels regular classes.
func (e *CalendarEvent) SuspendsClasses() bool {
	if e == nil {
		return false
	}
	switch e.Type {
	case CalendarHoliday, CalendarWeekend, CalendarNoClass:
		return true
	default:
		return false
	}
}
