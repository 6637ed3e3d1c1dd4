package aggregate

import (
	"sort"

	"github.com/noah-isme/sma-portal-sync/internal/models"
	"github.com/noah-isme/sma-portal-sync/pkg/datekey"
	appErrors "github.com/noah-isme/sma-portal-sync/pkg/errors"
)

// BuildSchedule re-keys raw schedule days by canonical date key. IsClassDay
// defaults to true unless the source explicitly says false. Two raw keys that
// name the same calendar day are rejected.
func BuildSchedule(n *datekey.Normalizer, raw map[string]models.ScheduleDayPayload) (map[string]models.DayScheduleEntry, error) {
	out := make(map[string]models.DayScheduleEntry, len(raw))
	for rawKey, payload := range raw {
		key, err := n.FromString(rawKey)
		if err != nil {
			return nil, err
		}
		if _, dup := out[key]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, "schedule contains the same day twice: "+key)
		}
		isClassDay := true
		if payload.IsClassDay != nil {
			isClassDay = *payload.IsClassDay
		}
		classes := payload.Classes
		if classes == nil {
			classes = []models.ScheduleEntry{}
		}
		sort.SliceStable(classes, func(i, j int) bool { return classes[i].StartTime < classes[j].StartTime })
		out[key] = models.DayScheduleEntry{
			DateKey:       key,
			Classes:       classes,
			IsClassDay:    isClassDay,
			CalendarEvent: payload.CalendarEvent,
		}
	}
	return out, nil
}

// ScheduleDays returns the schedule ordered by date key.
func ScheduleDays(schedule map[string]models.DayScheduleEntry) []models.DayScheduleEntry {
	days := make([]models.DayScheduleEntry, 0, len(schedule))
	for _, d := range schedule {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].DateKey < days[j].DateKey })
	return days
}

// Lookup finds the schedule day for key, or nil.
func Lookup(schedule map[string]models.DayScheduleEntry, key string) *models.DayScheduleEntry {
	day, ok := schedule[key]
	if !ok {
		return nil
	}
	return &day
}
