package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sma-portal-sync/internal/aggregate"
	"github.com/noah-isme/sma-portal-sync/internal/models"
	"github.com/noah-isme/sma-portal-sync/pkg/datekey"
	appErrors "github.com/noah-isme/sma-portal-sync/pkg/errors"
)

const (
	attendanceContainer = "attendance"
	monthlyCacheName    = "attendance_monthly"
)

type attendanceRemote interface {
	Daily(ctx context.Context, sectionID int64, from, to string) ([]models.AttendanceRecord, error)
	Monthly(ctx context.Context, req models.MonthlyAttendanceRequest) ([]models.StudentMonthlyAttendance, error)
	Mark(ctx context.Context, sectionID int64, records []models.AttendanceRecord) error
}

type scheduleRemote interface {
	Month(ctx context.Context, req models.ScheduleMonthRequest) (map[string]models.ScheduleDayPayload, error)
}

// MonthRef names a calendar month.
type MonthRef struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// AttendanceView is the attendance container's derived state: the monthly
// aggregation last loaded for the active selection.
type AttendanceView struct {
	Monthly   *aggregate.MonthlyAttendance `json:"monthly"`
	CachedAt  *time.Time                   `json:"cached_at,omitempty"`
	FromCache bool                         `json:"from_cache"`
}

// QuarterlyAttendance sums several months per student.
type QuarterlyAttendance struct {
	SectionID int64                          `json:"section_id"`
	Months    []MonthRef                     `json:"months"`
	Students  []aggregate.StudentMonthlyRate `json:"students"`
	Totals    models.MonthlySummary          `json:"totals"`
	Rate      float64                        `json:"rate"`
}

// AttendanceService is the attendance feature container.
type AttendanceService struct {
	scope      *Scope[AttendanceView]
	remote     attendanceRemote
	schedules  scheduleRemote
	normalizer *datekey.Normalizer
	cache      *aggregate.MonthlyCache
	validator  *validator.Validate
	metrics    *MetricsService
	notifier   notifier
	now        func() time.Time
}

// NewAttendanceService constructs the container for role. cache is owned by
// the container and cleared on unauthorized.
func NewAttendanceService(role models.Role, remote attendanceRemote, schedules scheduleRemote, normalizer *datekey.Normalizer, cache *aggregate.MonthlyCache, validate *validator.Validate, opts ScopeOptions) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if normalizer == nil {
		normalizer = datekey.New(nil)
	}
	if cache == nil {
		cache = aggregate.NewMonthlyCache(aggregate.DefaultMonthlyCacheTTL, opts.Now)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	svc := &AttendanceService{
		scope:      NewScope(attendanceContainer, role, func() AttendanceView { return AttendanceView{} }, opts),
		remote:     remote,
		schedules:  schedules,
		normalizer: normalizer,
		cache:      cache,
		validator:  validate,
		metrics:    opts.Metrics,
		notifier:   opts.Notifier,
		now:        now,
	}
	svc.validator.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		return models.AttendanceStatus(fl.Field().String()).Valid()
	})
	return svc
}

// Scope exposes the container's selection-scoped state.
func (s *AttendanceService) Scope() *Scope[AttendanceView] { return s.scope }

// Name implements Container.
func (s *AttendanceService) Name() string { return attendanceContainer }

// Snapshot returns the current view.
func (s *AttendanceService) Snapshot() Snapshot[AttendanceView] { return s.scope.Snapshot() }

// ClearCache drops every cached monthly aggregation.
func (s *AttendanceService) ClearCache() { s.cache.Clear() }

// CurrentMonth is the month containing now in the normaliser's zone.
func (s *AttendanceService) CurrentMonth() MonthRef {
	y, m, _ := s.now().In(s.normalizer.Location()).Date()
	return MonthRef{Year: y, Month: int(m)}
}

// Refresh loads the current month for the active selection.
func (s *AttendanceService) Refresh(ctx context.Context) error {
	ref := s.CurrentMonth()
	_, err := s.Monthly(ctx, ref.Month, ref.Year, false)
	return err
}

// MonthlyRequest builds and validates the request for sel. A selection without
// a section fails before any network call.
func (s *AttendanceService) MonthlyRequest(sel models.Selection, month, year int) (models.MonthlyAttendanceRequest, error) {
	if err := RequireSection(sel); err != nil {
		return models.MonthlyAttendanceRequest{}, err
	}
	req := models.MonthlyAttendanceRequest{
		SectionID:      sel.SectionID.Int64,
		AcademicYearID: sel.AcademicYearID.Int64,
		Month:          month,
		Year:           year,
	}
	if err := s.validator.Struct(req); err != nil {
		return models.MonthlyAttendanceRequest{}, appErrors.Wrap(err, appErrors.CodeValidation, appErrors.ErrValidation.Status,
			fmt.Sprintf("invalid month %d/%d", month, year))
	}
	return req, nil
}

// Monthly returns the monthly aggregation for the active selection, serving a
// cached result only while it is inside the validity window. force skips the
// cache.
func (s *AttendanceService) Monthly(ctx context.Context, month, year int, force bool) (Snapshot[AttendanceView], error) {
	require := func(sel models.Selection) error {
		_, err := s.MonthlyRequest(sel, month, year)
		return err
	}
	return s.scope.Fetch(ctx, require, func(ctx context.Context, sel models.Selection) (AttendanceView, error) {
		req, err := s.MonthlyRequest(sel, month, year)
		if err != nil {
			return AttendanceView{}, err
		}
		entry, fromCache, err := s.loadMonthly(ctx, req, force)
		if err != nil {
			return AttendanceView{}, err
		}
		data := entry.Data
		cachedAt := entry.Timestamp
		return AttendanceView{Monthly: &data, CachedAt: &cachedAt, FromCache: fromCache}, nil
	})
}

func (s *AttendanceService) loadMonthly(ctx context.Context, req models.MonthlyAttendanceRequest, force bool) (aggregate.CachedMonthly, bool, error) {
	key := aggregate.MonthlyKey{SectionID: req.SectionID, AcademicYearID: req.AcademicYearID, Month: req.Month, Year: req.Year}
	if !force {
		if entry, ok := s.cache.Get(key); ok {
			s.metrics.RecordCacheLookup(monthlyCacheName, true)
			return entry, true, nil
		}
		s.metrics.RecordCacheLookup(monthlyCacheName, false)
	}
	rows, err := s.remote.Monthly(ctx, req)
	if err != nil {
		return aggregate.CachedMonthly{}, false, err
	}
	result, err := aggregate.AggregateMonthly(req, rows)
	if err != nil {
		return aggregate.CachedMonthly{}, false, err
	}
	return s.cache.Put(key, result), false, nil
}

// Quarterly sums the given months per student for the active selection.
func (s *AttendanceService) Quarterly(ctx context.Context, months []MonthRef) (QuarterlyAttendance, error) {
	sel := s.scope.Selection()
	if len(months) == 0 {
		return QuarterlyAttendance{}, appErrors.Clone(appErrors.ErrValidation, "at least one month is required")
	}
	byStudent := map[int64]*aggregate.StudentMonthlyRate{}
	var totals []models.MonthlySummary
	for _, ref := range months {
		req, err := s.MonthlyRequest(sel, ref.Month, ref.Year)
		if err != nil {
			return QuarterlyAttendance{}, err
		}
		entry, _, err := s.loadMonthly(ctx, req, false)
		if err != nil {
			return QuarterlyAttendance{}, err
		}
		totals = append(totals, entry.Data.Totals)
		for _, st := range entry.Data.Students {
			acc, ok := byStudent[st.StudentID]
			if !ok {
				acc = &aggregate.StudentMonthlyRate{StudentID: st.StudentID, StudentName: st.StudentName}
				byStudent[st.StudentID] = acc
			}
			acc.Summary = acc.Summary.Add(st.Summary)
		}
	}
	if !s.scope.Selection().SameScope(sel) {
		s.metrics.RecordStaleDiscard(string(s.scope.role), attendanceContainer)
		return QuarterlyAttendance{}, appErrors.ErrStale
	}

	out := QuarterlyAttendance{SectionID: sel.SectionID.Int64, Months: months, Students: make([]aggregate.StudentMonthlyRate, 0, len(byStudent))}
	for _, acc := range byStudent {
		acc.Rate = aggregate.AttendanceRate(acc.Summary)
		out.Students = append(out.Students, *acc)
	}
	sort.Slice(out.Students, func(i, j int) bool { return out.Students[i].StudentID < out.Students[j].StudentID })
	out.Totals, out.Rate = aggregate.QuarterlyRate(totals)
	return out, nil
}

// Schedule returns the month schedule ordered by date key.
func (s *AttendanceService) Schedule(ctx context.Context, month, year int) ([]models.DayScheduleEntry, error) {
	sel := s.scope.Selection()
	schedule, err := loadSchedule(ctx, s.schedules, s.normalizer, sel, month, year, s.validator)
	if err != nil {
		return nil, err
	}
	return aggregate.ScheduleDays(schedule), nil
}

// ClassDailyRate computes the class attendance rate for one day of the active
// selection.
func (s *AttendanceService) ClassDailyRate(ctx context.Context, rawDate string) (aggregate.ClassDayRate, error) {
	return classDayRate(ctx, s.remote, s.schedules, s.normalizer, s.validator, s.scope.Selection(), rawDate)
}

// Mark validates and records daily attendance, then forces the affected
// months to be fetched again. Duplicate (student|schedule, date) entries in
// one payload collapse to the last one.
func (s *AttendanceService) Mark(ctx context.Context, reqs []models.MarkAttendanceRequest) (Snapshot[AttendanceView], error) {
	sel := s.scope.Selection()
	if err := RequireSection(sel); err != nil {
		return s.scope.Snapshot(), err
	}
	if len(reqs) == 0 {
		return s.scope.Snapshot(), appErrors.Clone(appErrors.ErrValidation, "no attendance records supplied")
	}
	records := make([]models.AttendanceRecord, 0, len(reqs))
	for _, req := range reqs {
		if err := s.validator.Struct(req); err != nil {
			return s.scope.Snapshot(), appErrors.Wrap(err, appErrors.CodeValidation, appErrors.ErrValidation.Status, "invalid attendance payload")
		}
		records = append(records, models.AttendanceRecord{
			StudentID:  req.StudentID,
			ScheduleID: req.ScheduleID,
			Date:       req.Date,
			Status:     models.AttendanceStatus(req.Status),
			TimeIn:     req.TimeIn,
			TimeOut:    req.TimeOut,
			Remarks:    req.Remarks,
		})
	}
	records, err := aggregate.NormalizeRecords(s.normalizer, records)
	if err != nil {
		return s.scope.Snapshot(), err
	}
	if err := s.remote.Mark(ctx, sel.SectionID.Int64, records); err != nil {
		if !appErrors.Is(err, appErrors.CodeUnauthorized) && s.notifier != nil {
			s.notifier.Error(attendanceContainer, err)
		}
		return s.scope.Snapshot(), err
	}
	s.scope.Wrote(sel)

	touched := map[MonthRef]struct{}{}
	for _, r := range records {
		t, err := s.normalizer.Start(r.Date)
		if err != nil {
			return s.scope.Snapshot(), err
		}
		ref := MonthRef{Year: t.Year(), Month: int(t.Month())}
		touched[ref] = struct{}{}
		s.cache.Invalidate(aggregate.MonthlyKey{SectionID: sel.SectionID.Int64, AcademicYearID: sel.AcademicYearID.Int64, Month: ref.Month, Year: ref.Year})
	}
	if s.notifier != nil {
		s.notifier.Success(attendanceContainer, fmt.Sprintf("%d attendance record(s) saved", len(records)))
	}

	current := s.scope.Snapshot()
	if current.Data.Monthly != nil {
		ref := MonthRef{Year: current.Data.Monthly.Year, Month: current.Data.Monthly.Month}
		if _, ok := touched[ref]; ok {
			return s.Monthly(ctx, ref.Month, ref.Year, true)
		}
	}
	return current, nil
}

func loadSchedule(ctx context.Context, remote scheduleRemote, n *datekey.Normalizer, sel models.Selection, month, year int, validate *validator.Validate) (map[string]models.DayScheduleEntry, error) {
	if err := RequireSection(sel); err != nil {
		return nil, err
	}
	req := models.ScheduleMonthRequest{SectionID: sel.SectionID.Int64, AcademicYearID: sel.AcademicYearID.Int64, Month: month, Year: year}
	if err := validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.CodeValidation, appErrors.ErrValidation.Status, fmt.Sprintf("invalid month %d/%d", month, year))
	}
	raw, err := remote.Month(ctx, req)
	if err != nil {
		return nil, err
	}
	return aggregate.BuildSchedule(n, raw)
}

func classDayRate(ctx context.Context, remote attendanceRemote, schedules scheduleRemote, n *datekey.Normalizer, validate *validator.Validate, sel models.Selection, rawDate string) (aggregate.ClassDayRate, error) {
	if err := RequireSection(sel); err != nil {
		return aggregate.ClassDayRate{}, err
	}
	key, err := n.FromString(rawDate)
	if err != nil {
		return aggregate.ClassDayRate{}, err
	}
	day, err := n.Start(key)
	if err != nil {
		return aggregate.ClassDayRate{}, err
	}
	schedule, err := loadSchedule(ctx, schedules, n, sel, int(day.Month()), day.Year(), validate)
	if err != nil {
		return aggregate.ClassDayRate{}, err
	}
	entry := aggregate.Lookup(schedule, key)
	if !aggregate.IsClassDay(key, entry) {
		return aggregate.ClassDailyRate(key, entry, nil), nil
	}
	records, err := remote.Daily(ctx, sel.SectionID.Int64, key, key)
	if err != nil {
		return aggregate.ClassDayRate{}, err
	}
	records, err = aggregate.NormalizeRecords(n, records)
	if err != nil {
		return aggregate.ClassDayRate{}, err
	}
	return aggregate.ClassDailyRate(key, entry, records), nil
}
