package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-substitution-api/internal/dto"
	"github.com/noah-isme/sma-substitution-api/internal/models"
	"github.com/noah-isme/sma-substitution-api/internal/repository"
	"github.com/noah-isme/sma-substitution-api/pkg/config"
	appErrors "github.com/noah-isme/sma-substitution-api/pkg/errors"
)

type assignmentConfigRepository interface {
	Get(ctx context.Context, tenantID string) (*models.AssignmentConfig, error)
	Upsert(ctx context.Context, cfg *models.AssignmentConfig) error
}

type configCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// AssignmentConfigService reads and updates the per-tenant ranking configuration.
// Reads go through the cache; tenants without a stored row get the process defaults.
type AssignmentConfigService struct {
	repo      assignmentConfigRepository
	cache     configCache
	audit     auditLogger
	metrics   *MetricsService
	defaults  config.AssignmentDefaults
	ttl       time.Duration
	validator *validator.Validate
	logger    *zap.Logger
	clock     Clock
}

// AssignmentConfigServiceOptions bundles the optional collaborators.
type AssignmentConfigServiceOptions struct {
	Cache     configCache
	Audit     auditLogger
	Metrics   *MetricsService
	Defaults  config.AssignmentDefaults
	CacheTTL  time.Duration
	Validator *validator.Validate
	Logger    *zap.Logger
	Clock     Clock
}

// NewAssignmentConfigService constructs the service.
func NewAssignmentConfigService(repo assignmentConfigRepository, opts AssignmentConfigServiceOptions) *AssignmentConfigService {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Validator == nil {
		opts.Validator = validator.New()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	return &AssignmentConfigService{
		repo:      repo,
		cache:     opts.Cache,
		audit:     opts.Audit,
		metrics:   opts.Metrics,
		defaults:  opts.Defaults,
		ttl:       opts.CacheTTL,
		validator: opts.Validator,
		logger:    opts.Logger,
		clock:     opts.Clock,
	}
}

// Defaults returns the configuration used for tenants without a stored row.
func (s *AssignmentConfigService) Defaults(tenantID string) models.AssignmentConfig {
	return models.AssignmentConfig{
		TenantID:            tenantID,
		SubjectMatchWeight:  s.defaults.SubjectMatchWeight,
		ClassTeacherWeight:  s.defaults.ClassTeacherWeight,
		FairnessBase:        s.defaults.FairnessBase,
		FairnessStep:        s.defaults.FairnessStep,
		SubstitutionPenalty: s.defaults.SubstitutionPenalty,
		MinSubstitutions:    s.defaults.MinSubstitutions,
		MaxSubstitutions:    s.defaults.MaxSubstitutions,
		MaxDailyPeriods:     s.defaults.MaxDailyPeriods,
		ExcludedTeacherIDs:  []string{},
		ReleaseOnComplete:   s.defaults.ReleaseOnComplete,
	}
}

// Get returns the tenant's assignment configuration.
func (s *AssignmentConfigService) Get(ctx context.Context, tenantID string) (models.AssignmentConfig, error) {
	key := repository.AssignmentConfigKey(tenantID)

	if s.cache != nil {
		var cached models.AssignmentConfig
		err := s.cache.Get(ctx, key, &cached)
		switch {
		case err == nil:
			s.metrics.RecordCacheLookup(true)
			return cached, nil
		case !errors.Is(err, appErrors.ErrCacheMiss):
			s.logger.Warn("assignment config cache unavailable", zap.String("tenant_id", tenantID), zap.Error(err))
		}
		s.metrics.RecordCacheLookup(false)
	}

	stored, err := retryRead(ctx, s.logger, "assignment_config", func() (*models.AssignmentConfig, error) {
		return s.repo.Get(ctx, tenantID)
	})
	var cfg models.AssignmentConfig
	switch {
	case errors.Is(err, sql.ErrNoRows):
		cfg = s.Defaults(tenantID)
	case err != nil:
		return models.AssignmentConfig{}, appErrors.Persistence(err, "failed to load assignment config")
	default:
		cfg = *stored
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, cfg, s.ttl); err != nil {
			s.logger.Warn("failed to cache assignment config", zap.String("tenant_id", tenantID), zap.Error(err))
		}
	}
	return cfg, nil
}

// Update replaces the tenant's configuration and drops the cached copy.
func (s *AssignmentConfigService) Update(ctx context.Context, tenantID string, req dto.UpdateAssignmentConfigRequest, actor *models.JWTClaims) (*models.AssignmentConfig, error) {
	if !actor.IsManager() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only managers may change assignment settings")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment config payload")
	}

	previous, err := s.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	excluded := req.ExcludedTeacherIDs
	if excluded == nil {
		excluded = []string{}
	}
	cfg := &models.AssignmentConfig{
		TenantID:            tenantID,
		SubjectMatchWeight:  req.SubjectMatchWeight,
		ClassTeacherWeight:  req.ClassTeacherWeight,
		FairnessBase:        req.FairnessBase,
		FairnessStep:        req.FairnessStep,
		SubstitutionPenalty: req.SubstitutionPenalty,
		MinSubstitutions:    req.MinSubstitutions,
		MaxSubstitutions:    req.MaxSubstitutions,
		MaxDailyPeriods:     req.MaxDailyPeriods,
		ExcludedTeacherIDs:  excluded,
		ReleaseOnComplete:   req.ReleaseOnComplete,
		UpdatedBy:           optionalString(actor.UserID),
		UpdatedAt:           s.clock.now().UTC(),
	}
	if err := s.repo.Upsert(ctx, cfg); err != nil {
		return nil, appErrors.Persistence(err, "failed to save assignment config")
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, repository.AssignmentConfigKey(tenantID)); err != nil {
			s.logger.Warn("failed to invalidate assignment config cache", zap.String("tenant_id", tenantID), zap.Error(err))
		}
	}

	emitAudit(ctx, s.audit, s.logger, &models.AuditLog{
		TenantID:   tenantID,
		UserID:     optionalString(actor.UserID),
		Action:     models.AuditActionAssignmentConfigUpdate,
		Resource:   "assignment_config",
		ResourceID: strPtr(tenantID),
		OldValues:  auditPayload(previous),
		NewValues:  auditPayload(cfg),
	})
	return cfg, nil
}
