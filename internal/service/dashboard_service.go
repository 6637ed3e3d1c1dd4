package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-portal-sync/internal/aggregate"
	"github.com/noah-isme/sma-portal-sync/internal/models"
	"github.com/noah-isme/sma-portal-sync/pkg/datekey"
)

const dashboardContainer = "dashboard"

// DashboardView summarises the active selection: grade standings, honor tier
// counts and today's class attendance.
type DashboardView struct {
	Grades      aggregate.GradeSummary `json:"grades"`
	Today       aggregate.ClassDayRate `json:"today"`
	GeneratedAt time.Time              `json:"generated_at"`
	CacheHit    bool                   `json:"cache_hit"`
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Role       models.Role
	Grades     gradeRemote
	Attendance attendanceRemote
	Schedules  scheduleRemote
	Normalizer *datekey.Normalizer
	Policy     aggregate.GradePolicy
	Cache      *CacheService
	CacheTTL   time.Duration
	Validator  *validator.Validate
	Options    ScopeOptions
}

// DashboardService is the dashboard feature container. It reads the remote
// API itself rather than other containers.
type DashboardService struct {
	scope      *Scope[DashboardView]
	role       models.Role
	grades     gradeRemote
	attendance attendanceRemote
	schedules  scheduleRemote
	normalizer *datekey.Normalizer
	policy     aggregate.GradePolicy
	cache      *CacheService
	cacheTTL   time.Duration
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewDashboardService constructs the container.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	opts := params.Options
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if params.Normalizer == nil {
		params.Normalizer = datekey.New(nil)
	}
	if params.Validator == nil {
		params.Validator = validator.New()
	}
	empty := func() DashboardView {
		return DashboardView{Grades: aggregate.Summarize(nil)}
	}
	return &DashboardService{
		scope:      NewScope(dashboardContainer, params.Role, empty, opts),
		role:       params.Role,
		grades:     params.Grades,
		attendance: params.Attendance,
		schedules:  params.Schedules,
		normalizer: params.Normalizer,
		policy:     params.Policy,
		cache:      params.Cache,
		cacheTTL:   params.CacheTTL,
		validator:  params.Validator,
		logger:     logger,
		now:        opts.Now,
	}
}

// Scope exposes the container's selection-scoped state.
func (s *DashboardService) Scope() *Scope[DashboardView] { return s.scope }

// Name implements Container.
func (s *DashboardService) Name() string { return dashboardContainer }

// Snapshot returns the current view.
func (s *DashboardService) Snapshot() Snapshot[DashboardView] { return s.scope.Snapshot() }

// Refresh composes the dashboard, serving the cached copy when present.
func (s *DashboardService) Refresh(ctx context.Context) error {
	_, err := s.scope.Fetch(ctx, RequireFull, func(ctx context.Context, sel models.Selection) (DashboardView, error) {
		key := DashboardKey(s.role, sel)
		var cached DashboardView
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			cached.CacheHit = true
			return cached, nil
		}

		rows, err := s.grades.List(ctx, sel)
		if err != nil {
			return DashboardView{}, err
		}
		sheet, err := BuildGradeSheet(s.policy, rows)
		if err != nil {
			return DashboardView{}, err
		}
		today, err := s.normalizer.Key(s.now())
		if err != nil {
			return DashboardView{}, err
		}
		rate, err := classDayRate(ctx, s.attendance, s.schedules, s.normalizer, s.validator, sel, today)
		if err != nil {
			return DashboardView{}, err
		}
		view := DashboardView{Grades: sheet.Summary, Today: rate, GeneratedAt: s.now().UTC()}
		if err := s.cache.Set(ctx, key, view, s.cacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
		}
		return view, nil
	})
	return err
}

// Invalidate drops the role's cached dashboards.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if err := s.cache.InvalidateRole(ctx, s.role); err != nil {
		s.logger.Warn("dashboard cache invalidate failed", zap.Error(err))
	}
}
