package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-portal-sync/internal/aggregate"
	"github.com/noah-isme/sma-portal-sync/internal/bus"
	"github.com/noah-isme/sma-portal-sync/internal/models"
	"github.com/noah-isme/sma-portal-sync/internal/repository"
	"github.com/noah-isme/sma-portal-sync/internal/selection"
	"github.com/noah-isme/sma-portal-sync/pkg/config"
	"github.com/noah-isme/sma-portal-sync/pkg/datekey"
	appErrors "github.com/noah-isme/sma-portal-sync/pkg/errors"
	"github.com/noah-isme/sma-portal-sync/pkg/jobs"
	"github.com/noah-isme/sma-portal-sync/pkg/sealed"
	"github.com/noah-isme/sma-portal-sync/pkg/transport"
)

// RefreshJobType is the job type carried by container refresh jobs.
const RefreshJobType = "container_refresh"

// Container is a feature container that can reload itself for the active
// selection.
type Container interface {
	Name() string
	Refresh(ctx context.Context) error
}

// RefreshRequest is the payload of a refresh job.
type RefreshRequest struct {
	Role      models.Role
	Container string
}

type refreshDispatcher interface {
	Enqueue(job jobs.Job) (string, error)
}

// WorkspaceParams groups the collaborators a role workspace is built from.
type WorkspaceParams struct {
	Role       models.Role
	Config     *config.Config
	KV         kvStore
	Cache      *CacheService
	Metrics    *MetricsService
	Notifier   *NotifierService
	Dispatcher refreshDispatcher
	Validator  *validator.Validate
	HTTPClient *http.Client
	Logger     *zap.Logger
	Now        func() time.Time
}

// Workspace is everything one role owns: its channels, selection, session,
// transport and feature containers. Roles share nothing but storage backends,
// where keys are prefixed by role.
type Workspace struct {
	Role       models.Role
	Channels   *bus.Channels
	Selection  *selection.Store
	Session    *SessionService
	Grades     *GradeService
	Attendance *AttendanceService
	Promotion  *PromotionService
	BMI        *BMIService
	Textbooks  *TextbookService
	Dashboard  *DashboardService
	Notifier   *NotifierService
	Exports    *ExportService

	containers []Container
	dispatcher refreshDispatcher
	logger     *zap.Logger
	detach     []func()
}

// NewWorkspace wires a role workspace.
func NewWorkspace(params WorkspaceParams) (*Workspace, error) {
	if !params.Role.Valid() {
		return nil, fmt.Errorf("unsupported role %q", params.Role)
	}
	cfg := params.Config
	if cfg == nil {
		return nil, errors.New("workspace config is required")
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("role", string(params.Role)))
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	notifier := params.Notifier
	if notifier == nil {
		notifier = NewNotifierService(logger, 0)
	}

	box, err := sealed.New(cfg.Session.Secret, params.Role.KeyPrefix()+"session")
	if err != nil {
		return nil, err
	}

	channels := bus.NewChannels(params.Role, logger)
	store := selection.NewStore(params.KV, channels, validate, logger)
	session := NewSessionService(params.KV, box, channels, logger)

	opts := []transport.Option{
		transport.WithTokenSource(session),
		transport.WithUnauthorizedHandler(func(status int, reason string) {
			channels.Unauthorized.Publish(bus.Unauthorized{Status: status, Reason: reason})
		}),
		transport.WithObserver(params.Metrics),
		transport.WithLogger(logger),
	}
	if params.HTTPClient != nil {
		opts = append(opts, transport.WithHTTPClient(params.HTTPClient))
	}
	client, err := transport.New(transport.Config{
		BaseURL:       cfg.Remote.BaseURL,
		ReadTimeout:   cfg.Remote.ReadTimeout,
		ExportTimeout: cfg.Remote.ExportTimeout,
	}, opts...)
	if err != nil {
		return nil, err
	}

	gradesRemote := repository.NewGradeRemoteRepository(client)
	attendanceRemote := repository.NewAttendanceRemoteRepository(client)
	scheduleRemote := repository.NewScheduleRemoteRepository(client)
	rosterRemote := repository.NewRosterRemoteRepository(client)

	normalizer := datekey.New(cfg.Location())
	gradePolicy := aggregate.GradePolicy{PassingAverage: cfg.Grades.PassingAverage}
	promotionPolicy := aggregate.PromotionPolicy{
		PassingAverage:     cfg.Grades.PassingAverage,
		MinAttendance:      cfg.Promotion.MinAttendance,
		RequiredCompletion: cfg.Promotion.RequiredCompletion,
	}
	scopeOpts := ScopeOptions{Logger: logger, Metrics: params.Metrics, Notifier: notifier, Now: params.Now, Writes: channels.Writes}

	w := &Workspace{
		Role:       params.Role,
		Channels:   channels,
		Selection:  store,
		Session:    session,
		Notifier:   notifier,
		Exports:    NewExportService(nil, logger),
		dispatcher: params.Dispatcher,
		logger:     logger,
	}
	w.Grades = NewGradeService(params.Role, gradesRemote, gradePolicy, validate, scopeOpts)
	w.Attendance = NewAttendanceService(params.Role, attendanceRemote, scheduleRemote, normalizer,
		aggregate.NewMonthlyCache(cfg.Attendance.CacheTTL, params.Now), validate, scopeOpts)
	w.Promotion = NewPromotionService(params.Role, repository.NewPromotionRemoteRepository(client), promotionPolicy,
		w.Exports, scopeOpts)
	w.BMI = NewBMIService(params.Role, rosterRemote, scopeOpts)
	w.Textbooks = NewTextbookService(params.Role, rosterRemote, scopeOpts)
	w.Dashboard = NewDashboardService(DashboardServiceParams{
		Role:       params.Role,
		Grades:     gradesRemote,
		Attendance: attendanceRemote,
		Schedules:  scheduleRemote,
		Normalizer: normalizer,
		Policy:     gradePolicy,
		Cache:      params.Cache,
		CacheTTL:   cfg.Dashboard.CacheTTL,
		Validator:  validate,
		Options:    scopeOpts,
	})

	w.detach = append(w.detach,
		w.Grades.Scope().Attach(channels, w.scheduler(w.Grades), nil),
		w.Attendance.Scope().Attach(channels, w.scheduler(w.Attendance), w.Attendance.ClearCache),
		w.Promotion.Scope().Attach(channels, w.scheduler(w.Promotion), nil),
		w.BMI.Scope().Attach(channels, w.scheduler(w.BMI), nil),
		w.Textbooks.Scope().Attach(channels, w.scheduler(w.Textbooks), nil),
		w.Dashboard.Scope().Attach(channels, w.scheduler(w.Dashboard), func() {
			w.Dashboard.Invalidate(context.Background())
		}),
		channels.Writes.Subscribe(w.dropDerived),
	)
	w.containers = []Container{w.Grades, w.Attendance, w.Promotion, w.BMI, w.Textbooks, w.Dashboard}
	return w, nil
}

// scheduler enqueues a background refresh of c after each non-empty
// selection change.
func (w *Workspace) scheduler(c Container) func(models.Selection) {
	return func(sel models.Selection) {
		if w.dispatcher == nil || sel.Empty() {
			return
		}
		job := jobs.Job{Type: RefreshJobType, Payload: RefreshRequest{Role: w.Role, Container: c.Name()}}
		if _, err := w.dispatcher.Enqueue(job); err != nil {
			w.logger.Warn("refresh not scheduled", zap.String("container", c.Name()), zap.Error(err))
		}
	}
}

// dropDerived discards promotion and dashboard state computed from inputs
// that were just written and schedules their reload.
func (w *Workspace) dropDerived(write bus.Write) {
	w.Dashboard.Invalidate(context.Background())
	w.logger.Debug("derived state dropped", zap.String("source", write.Container))
	if w.Promotion.Scope().Selection().SameScope(write.Selection) {
		w.Promotion.Scope().Reset("mutation")
		w.scheduler(w.Promotion)(write.Selection)
	}
	if w.Dashboard.Scope().Selection().SameScope(write.Selection) {
		w.Dashboard.Scope().Reset("mutation")
		w.scheduler(w.Dashboard)(write.Selection)
	}
}

// Containers lists the feature containers in subscription order.
func (w *Workspace) Containers() []Container {
	out := make([]Container, len(w.containers))
	copy(out, w.containers)
	return out
}

// Container finds a container by name.
func (w *Workspace) Container(name string) (Container, bool) {
	for _, c := range w.containers {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// Load restores the persisted session and selection. Restoring a selection
// publishes it, which schedules container refreshes.
func (w *Workspace) Load(ctx context.Context) error {
	if _, err := w.Session.Load(ctx); err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if _, err := w.Selection.Load(ctx); err != nil {
		return fmt.Errorf("load selection: %w", err)
	}
	return nil
}

// RefreshAll refreshes every container in turn. Stale results are not
// reported as failures.
func (w *Workspace) RefreshAll(ctx context.Context) error {
	var errs []error
	for _, c := range w.containers {
		if err := c.Refresh(ctx); err != nil && !errors.Is(err, appErrors.ErrStale) {
			errs = append(errs, fmt.Errorf("%s: %w", c.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Logout raises the unauthorized signal so every subscriber resets.
func (w *Workspace) Logout() {
	w.Channels.Unauthorized.Publish(bus.Unauthorized{Reason: "logout"})
}

// Close detaches every subscriber.
func (w *Workspace) Close() {
	for _, fn := range w.detach {
		fn()
	}
	w.Selection.Close()
	w.Session.Close()
}

// Workspaces indexes the role workspaces of one process.
type Workspaces map[models.Role]*Workspace

// Get returns the workspace for role.
func (ws Workspaces) Get(role models.Role) (*Workspace, bool) {
	w, ok := ws[role]
	return w, ok
}

// RefreshHandler runs refresh jobs against the matching workspace.
func (ws Workspaces) RefreshHandler() jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		req, ok := job.Payload.(RefreshRequest)
		if job.Type != RefreshJobType || !ok {
			return fmt.Errorf("unexpected job %s", job.Type)
		}
		w, ok := ws.Get(req.Role)
		if !ok {
			return fmt.Errorf("unknown role %q", req.Role)
		}
		c, ok := w.Container(req.Container)
		if !ok {
			return fmt.Errorf("unknown container %q", req.Container)
		}
		if err := c.Refresh(ctx); err != nil && !errors.Is(err, appErrors.ErrStale) {
			return err
		}
		return nil
	}
}
