// FILE: internal/service/feature_flag_service.go
// Feature flag catalog and the cached enabled-flag lookup used by chat turns
package service

import (
	"context"
	"strings"
	"time"

	"soulscript-chat-be/internal/constant"
	"soulscript-chat-be/internal/dto"
	"soulscript-chat-be/internal/entity"
	"soulscript-chat-be/internal/pkg/apperror"
	"soulscript-chat-be/internal/pkg/logger"
	"soulscript-chat-be/internal/repository/specification"
	"soulscript-chat-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const enabledFlagsCacheKey = "flags:enabled"

// FlagSource is the read side the orchestrator needs.
type FlagSource interface {
	ListEnabled(ctx context.Context, group string) ([]*entity.FeatureFlag, error)
}

type IFeatureFlagService interface {
	FlagSource

	// SeedPredefined creates missing predefined flags and corrects drifted
	// descriptions. It returns how many flags were created.
	SeedPredefined(ctx context.Context) (int, error)

	List(ctx context.Context) (*dto.FeatureFlagListResponse, error)
	ListActive(ctx context.Context) ([]*dto.FeatureFlagResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.FeatureFlagResponse, error)
	Create(ctx context.Context, req *dto.CreateFeatureFlagRequest) (*dto.FeatureFlagResponse, error)
	Update(ctx context.Context, id uuid.UUID, req *dto.UpdateFeatureFlagRequest) (*dto.FeatureFlagResponse, error)
	Toggle(ctx context.Context, id uuid.UUID) (*dto.FeatureFlagResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type featureFlagService struct {
	uowFactory unitofwork.RepositoryFactory
	cache      *cache.Cache
	logger     logger.ILogger
}

// NewFeatureFlagService caches the enabled set for ttl. Every write through
// this service drops the cached set; other instances see it after ttl.
func NewFeatureFlagService(uowFactory unitofwork.RepositoryFactory, ttl time.Duration, logger logger.ILogger) IFeatureFlagService {
	return &featureFlagService{
		uowFactory: uowFactory,
		cache:      cache.New(ttl, 2*ttl),
		logger:     logger,
	}
}

func (s *featureFlagService) SeedPredefined(ctx context.Context) (int, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return 0, err
	}
	defer uow.Rollback()

	repo := uow.FeatureFlagRepository()
	created := 0
	for _, def := range constant.PredefinedFeatureFlags {
		existing, err := repo.FindByName(ctx, def.Name)
		if err != nil {
			return 0, err
		}

		if existing == nil {
			flag := &entity.FeatureFlag{
				Id:           uuid.New(),
				Name:         def.Name,
				Description:  def.Description,
				IsEnabled:    false,
				IsPredefined: true,
			}
			if err := repo.Create(ctx, flag); err != nil {
				return 0, err
			}
			created++
			s.logger.Info("FEATURE_FLAG", "Created predefined flag", map[string]interface{}{"name": def.Name})
			continue
		}

		if existing.Description != def.Description {
			existing.Description = def.Description
			if err := repo.Update(ctx, existing); err != nil {
				return 0, err
			}
			s.logger.Info("FEATURE_FLAG", "Updated predefined flag description", map[string]interface{}{"name": def.Name})
		}
	}

	if err := uow.Commit(); err != nil {
		return 0, err
	}

	s.cache.Flush()
	return created, nil
}

func (s *featureFlagService) List(ctx context.Context) (*dto.FeatureFlagListResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	flags, err := uow.FeatureFlagRepository().FindAll(ctx)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.FeatureFlagResponse, 0, len(flags))
	for _, f := range flags {
		res = append(res, toFeatureFlagResponse(f))
	}
	return &dto.FeatureFlagListResponse{Data: res, Count: len(res)}, nil
}

func (s *featureFlagService) ListActive(ctx context.Context) ([]*dto.FeatureFlagResponse, error) {
	flags, err := s.ListEnabled(ctx, "")
	if err != nil {
		return nil, err
	}

	res := make([]*dto.FeatureFlagResponse, 0, len(flags))
	for _, f := range flags {
		res = append(res, toFeatureFlagResponse(f))
	}
	return res, nil
}

// ListEnabled returns the enabled flags. Flags are global, so group only
// documents the caller's scope.
func (s *featureFlagService) ListEnabled(ctx context.Context, group string) ([]*entity.FeatureFlag, error) {
	if cached, ok := s.cache.Get(enabledFlagsCacheKey); ok {
		return cached.([]*entity.FeatureFlag), nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	flags, err := uow.FeatureFlagRepository().FindAll(ctx, specification.EnabledFlags{})
	if err != nil {
		return nil, err
	}

	s.cache.SetDefault(enabledFlagsCacheKey, flags)
	return flags, nil
}

func (s *featureFlagService) Get(ctx context.Context, id uuid.UUID) (*dto.FeatureFlagResponse, error) {
	flag, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return toFeatureFlagResponse(flag), nil
}

func (s *featureFlagService) Create(ctx context.Context, req *dto.CreateFeatureFlagRequest) (*dto.FeatureFlagResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("Flag name is required")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.FeatureFlagRepository()

	existing, err := repo.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.Conflict("Feature flag with this name already exists")
	}

	// User-defined flags start enabled.
	flag := &entity.FeatureFlag{
		Id:           uuid.New(),
		Name:         name,
		Description:  req.Description,
		IsEnabled:    true,
		IsPredefined: false,
	}
	if err := repo.Create(ctx, flag); err != nil {
		return nil, err
	}

	s.cache.Flush()
	s.logger.Info("FEATURE_FLAG", "Created feature flag", map[string]interface{}{"name": name})
	return toFeatureFlagResponse(flag), nil
}

func (s *featureFlagService) Update(ctx context.Context, id uuid.UUID, req *dto.UpdateFeatureFlagRequest) (*dto.FeatureFlagResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.FeatureFlagRepository()

	flag, err := repo.FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if flag == nil {
		return nil, apperror.NotFound("Feature flag not found")
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperror.Validation("Flag name is required")
		}
		if name != flag.Name {
			clash, err := repo.FindByName(ctx, name)
			if err != nil {
				return nil, err
			}
			if clash != nil {
				return nil, apperror.Conflict("Feature flag with this name already exists")
			}
		}
		flag.Name = name
	}
	if req.Description != nil {
		flag.Description = *req.Description
	}
	if req.IsEnabled != nil {
		flag.IsEnabled = *req.IsEnabled
	}

	if err := repo.Update(ctx, flag); err != nil {
		return nil, err
	}

	s.cache.Flush()
	s.logger.Info("FEATURE_FLAG", "Updated feature flag", map[string]interface{}{"id": id, "name": flag.Name})
	return toFeatureFlagResponse(flag), nil
}

func (s *featureFlagService) Toggle(ctx context.Context, id uuid.UUID) (*dto.FeatureFlagResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.FeatureFlagRepository()

	flag, err := repo.FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if flag == nil {
		return nil, apperror.NotFound("Feature flag not found")
	}

	flag.IsEnabled = !flag.IsEnabled
	if err := repo.Update(ctx, flag); err != nil {
		return nil, err
	}

	s.cache.Flush()
	s.logger.Info("FEATURE_FLAG", "Toggled feature flag", map[string]interface{}{"name": flag.Name, "enabled": flag.IsEnabled})
	return toFeatureFlagResponse(flag), nil
}

func (s *featureFlagService) Delete(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.FeatureFlagRepository()

	flag, err := repo.FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if flag == nil {
		return apperror.NotFound("Feature flag not found")
	}
	if flag.IsPredefined {
		return apperror.Forbidden("Predefined feature flags cannot be deleted")
	}

	if err := repo.Delete(ctx, id); err != nil {
		return err
	}

	s.cache.Flush()
	s.logger.Info("FEATURE_FLAG", "Deleted feature flag", map[string]interface{}{"name": flag.Name})
	return nil
}

func (s *featureFlagService) find(ctx context.Context, id uuid.UUID) (*entity.FeatureFlag, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	flag, err := uow.FeatureFlagRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if flag == nil {
		return nil, apperror.NotFound("Feature flag not found")
	}
	return flag, nil
}

func toFeatureFlagResponse(f *entity.FeatureFlag) *dto.FeatureFlagResponse {
	return &dto.FeatureFlagResponse{
		Id:           f.Id,
		Name:         f.Name,
		Description:  f.Description,
		IsEnabled:    f.IsEnabled,
		IsPredefined: f.IsPredefined,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}
