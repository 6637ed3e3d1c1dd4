package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/noah-isme/sma-portal-sync/internal/models"
	"github.com/noah-isme/sma-portal-sync/internal/repository"
	appErrors "github.com/noah-isme/sma-portal-sync/pkg/errors"
)

type memoryKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryKV() *memoryKV {
	return &memoryKV{data: map[string][]byte{}}
}

func (m *memoryKV) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return appErrors.ErrKeyNotFound
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryKV) Set(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = raw
	return nil
}

func (m *memoryKV) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memoryKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (m *memoryKV) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

type fakeGradeRemote struct {
	mu        sync.Mutex
	rows      []repository.GradeRow
	listErr   error
	saveErr   error
	listCalls int
	saved     [][]models.GradeUpdate
}

func (f *fakeGradeRemote) List(ctx context.Context, sel models.Selection) ([]repository.GradeRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.rows, nil
}

func (f *fakeGradeRemote) Save(ctx context.Context, sel models.Selection, updates []models.GradeUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, updates)
	return nil
}

func gradeRow(studentID int64, name string, grades ...string) repository.GradeRow {
	row := repository.GradeRow{StudentID: studentID, StudentName: name}
	for i, g := range grades {
		row.Grades = append(row.Grades, repository.GradeCell{SubjectID: int64(i + 1), Grade: json.RawMessage(g)})
	}
	return row
}

type fakeAttendanceRemote struct {
	mu           sync.Mutex
	monthly      []models.StudentMonthlyAttendance
	daily        []models.AttendanceRecord
	monthlyErr   error
	markErr      error
	monthlyCalls int
	dailyCalls   int
	marked       [][]models.AttendanceRecord
}

func (f *fakeAttendanceRemote) Daily(ctx context.Context, sectionID int64, from, to string) ([]models.AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dailyCalls++
	return f.daily, nil
}

func (f *fakeAttendanceRemote) Monthly(ctx context.Context, req models.MonthlyAttendanceRequest) ([]models.StudentMonthlyAttendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.monthlyCalls++
	if f.monthlyErr != nil {
		return nil, f.monthlyErr
	}
	return f.monthly, nil
}

func (f *fakeAttendanceRemote) Mark(ctx context.Context, sectionID int64, records []models.AttendanceRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	f.marked = append(f.marked, records)
	return nil
}

func (f *fakeAttendanceRemote) calls() (monthly, daily int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.monthlyCalls, f.dailyCalls
}

type fakeScheduleRemote struct {
	days  map[string]models.ScheduleDayPayload
	calls int
}

func (f *fakeScheduleRemote) Month(ctx context.Context, req models.ScheduleMonthRequest) (map[string]models.ScheduleDayPayload, error) {
	f.calls++
	if f.days == nil {
		return map[string]models.ScheduleDayPayload{}, nil
	}
	return f.days, nil
}

type fakePromotionRemote struct {
	report   models.PromotionReport
	err      error
	calls    int
	official []byte
}

func (f *fakePromotionRemote) Report(ctx context.Context, sel models.Selection) (models.PromotionReport, error) {
	f.calls++
	if f.err != nil {
		return models.PromotionReport{}, f.err
	}
	return f.report, nil
}

func (f *fakePromotionRemote) OfficialReport(ctx context.Context, sel models.Selection, format string) ([]byte, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	return f.official, "", nil
}

type fakeRosterRemote struct {
	bmi       []models.BMIRecord
	textbooks []models.TextbookIssue
	err       error
}

func (f *fakeRosterRemote) BMI(ctx context.Context, sel models.Selection) ([]models.BMIRecord, error) {
	return f.bmi, f.err
}

func (f *fakeRosterRemote) Textbooks(ctx context.Context, sel models.Selection) ([]models.TextbookIssue, error) {
	return f.textbooks, f.err
}

func fullSelection(ay, q, sec int64) models.Selection {
	return models.Selection{
		AcademicYearID: null.Int64From(ay),
		QuarterID:      null.Int64From(q),
		SectionID:      null.Int64From(sec),
		Version:        1,
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type steppingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *steppingClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
