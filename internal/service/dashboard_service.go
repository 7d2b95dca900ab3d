package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/docflow-api/internal/dto"
	"github.com/noah-isme/docflow-api/internal/models"
	"github.com/noah-isme/docflow-api/internal/workflow"
	appErrors "github.com/noah-isme/docflow-api/pkg/errors"
)

type dashboardDocumentStore interface {
	ListActive(ctx context.Context) ([]models.Document, error)
}

// DashboardService aggregates document workload views: the personal queue,
// the status distribution and the department monitor. Results are cached
// per user since the underlying scan covers every active document.
type DashboardService struct {
	docs     dashboardDocumentStore
	users    userDirectory
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewDashboardService constructs the service.
func NewDashboardService(docs dashboardDocumentStore, users userDirectory, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 2 * time.Minute
	}
	return &DashboardService{
		docs:     docs,
		users:    users,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Summary builds the personalised dashboard: the actor's actionable queue
// plus the status distribution over the documents they may see.
func (s *DashboardService) Summary(ctx context.Context, actor *models.JWTClaims) (*dto.DashboardResponse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	cacheKey := fmt.Sprintf("dashboard:summary:%s", actor.UserID)
	if s.cache != nil {
		var cached dto.DashboardResponse
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return &cached, nil
		}
	}

	user, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	docs, err := s.docs.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load documents")
	}

	today := s.now()
	queue := workflow.Queue(*user, docs)
	responses := make([]dto.DocumentResponse, 0, len(queue))
	for _, doc := range queue {
		responses = append(responses, dto.DocumentResponse{
			Document:            doc,
			DaysLate:            workflow.DaysLate(doc, today),
			DaysInCurrentStatus: workflow.DaysInCurrentStatus(doc, today),
			Actionable:          true,
		})
	}

	visible := workflow.Visible(*user, docs)
	resp := &dto.DashboardResponse{
		Queue:        responses,
		StatusCounts: workflow.CountByStatus(visible),
		GeneratedAt:  today,
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, resp, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache dashboard summary", zap.Error(err))
		}
	}
	return resp, nil
}

// DepartmentMonitor reports how many documents each department currently
// holds, in a fixed display order so empty departments still appear.
func (s *DashboardService) DepartmentMonitor(ctx context.Context, statusFilter *models.DocStatus) (*dto.DepartmentMonitorResponse, error) {
	cacheKey := "dashboard:departments"
	if statusFilter != nil {
		cacheKey = fmt.Sprintf("dashboard:departments:%s", *statusFilter)
	}
	if s.cache != nil {
		var cached dto.DepartmentMonitorResponse
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return &cached, nil
		}
	}

	docs, err := s.docs.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load documents")
	}

	counts := workflow.CountByDepartment(docs, statusFilter)
	loads := make([]dto.DepartmentLoad, 0, len(models.Departments()))
	for _, dept := range models.Departments() {
		loads = append(loads, dto.DepartmentLoad{Department: dept, Pending: counts[dept]})
	}

	resp := &dto.DepartmentMonitorResponse{
		Departments: loads,
		GeneratedAt: s.now(),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, resp, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache department monitor", zap.Error(err))
		}
	}
	return resp, nil
}
