// Package datekey converts calendar dates into the canonical YYYY-MM-DD keys
// used to index schedule and attendance maps.
//
// Keys are always built from the local calendar fields of a time in the
// normaliser's location. A time is never converted to UTC first, so a class
// held at 00:30 local time keys to its own day rather than the previous one.
package datekey

import (
	"fmt"
	"strings"
	"time"

	appErrors "github.com/noah-isme/sma-portal-sync/pkg/errors"
)

// Layout is the canonical key layout.
const Layout = "2006-01-02"

// Accepted input layouts, tried in order. Layouts without a zone are read in
// the normaliser's location.
var layouts = []string{
	Layout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
}

// Normalizer produces date keys in a fixed location.
type Normalizer struct {
	loc *time.Location
}

// New returns a Normalizer for loc. A nil loc means the host's local zone.
func New(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.Local
	}
	return &Normalizer{loc: loc}
}

var local = New(nil)

// Location returns the zone keys are computed in.
func (n *Normalizer) Location() *time.Location {
	return n.loc
}

// Key returns the YYYY-MM-DD key for t. The zero time is rejected rather than
// silently mapped to some default day.
func (n *Normalizer) Key(t time.Time) (string, error) {
	if t.IsZero() {
		return "", appErrors.Clone(appErrors.ErrInvalidDate, "date is not set")
	}
	y, m, d := t.In(n.loc).Date()
	return fmt.Sprintf("%04d-%02d-%02d", y, int(m), d), nil
}

// MustKey is Key for callers that already hold a validated time.
func (n *Normalizer) MustKey(t time.Time) string {
	key, err := n.Key(t)
	if err != nil {
		panic(err)
	}
	return key
}

// Parse reads raw into a time in the normaliser's location.
func (n *Normalizer) Parse(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, appErrors.Clone(appErrors.ErrInvalidDate, "date is empty")
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, trimmed, n.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, appErrors.Wrap(fmt.Errorf("unrecognised date %q", raw), appErrors.CodeInvalidDate,
		appErrors.ErrInvalidDate.Status, "invalid date, expected YYYY-MM-DD")
}

// FromString normalises a raw date string to its key. Feeding a key back in
// returns the same key.
func (n *Normalizer) FromString(raw string) (string, error) {
	t, err := n.Parse(raw)
	if err != nil {
		return "", err
	}
	return n.Key(t)
}

// Start returns midnight of the key's day in the normaliser's location.
func (n *Normalizer) Start(key string) (time.Time, error) {
	t, err := time.ParseInLocation(Layout, key, n.loc)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.CodeInvalidDate, appErrors.ErrInvalidDate.Status, "invalid date key")
	}
	return t, nil
}

// MonthKeys lists every key of the given month in order.
func (n *Normalizer) MonthKeys(year int, month time.Month) []string {
	first := time.Date(year, month, 1, 12, 0, 0, 0, n.loc)
	keys := make([]string, 0, 31)
	for d := first; d.Month() == month; d = d.AddDate(0, 0, 1) {
		keys = append(keys, n.MustKey(d))
	}
	return keys
}

// Key normalises t using the host's local zone.
func Key(t time.Time) (string, error) {
	return local.Key(t)
}

// FromString normalises raw using the host's local zone.
func FromString(raw string) (string, error) {
	return local.FromString(raw)
}

// IsWeekend reports whether the key falls on a Saturday or Sunday.
func IsWeekend(key string) bool {
	t, err := time.Parse(Layout, key)
	if err != nil {
		return false
	}
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
