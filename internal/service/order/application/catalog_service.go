package application

import (
	"context"

	"gamestore/internal/pkg/logger"
	"gamestore/internal/service/order/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CatalogService 提供游戏目录的查询和管理 (写操作仅限管理员)
type CatalogService struct {
	repo   domain.CatalogRepository
	tracer trace.Tracer
}

func NewCatalogService(repo domain.CatalogRepository, tracer trace.Tracer) *CatalogService {
	return &CatalogService{repo: repo, tracer: tracer}
}

func (s *CatalogService) ListGames(ctx context.Context, filter domain.GameFilter) ([]*GameDTO, error) {
	ctx, span := s.tracer.Start(ctx, "app.ListGames")
	defer span.End()

	games, err := s.repo.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	out := make([]*GameDTO, 0, len(games))
	for _, g := range games {
		out = append(out, ToGameDTO(g))
	}
	return out, nil
}

func (s *CatalogService) GetGame(ctx context.Context, id uint) (*GameDTO, error) {
	ctx, span := s.tracer.Start(ctx, "app.GetGame")
	defer span.End()

	g, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToGameDTO(g), nil
}

func (s *CatalogService) CreateGame(ctx context.Context, caller domain.Caller, req *GameRequest) (*GameDTO, error) {
	if !caller.IsPrivileged() {
		return nil, &domain.AuthorizationError{Action: "create games"}
	}
	ctx, span := s.tracer.Start(ctx, "app.CreateGame")
	defer span.End()

	g := req.ToGame(0)
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, g); err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("game.id", int(g.ID)))
	logger.Ctx(ctx).Info().Uint("game_id", g.ID).Str("title", g.Title).Msg("Game created")
	return ToGameDTO(g), nil
}

func (s *CatalogService) UpdateGame(ctx context.Context, caller domain.Caller, id uint, req *GameRequest) (*GameDTO, error) {
	if !caller.IsPrivileged() {
		return nil, &domain.AuthorizationError{Action: "update games"}
	}
	ctx, span := s.tracer.Start(ctx, "app.UpdateGame")
	defer span.End()

	g := req.ToGame(id)
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, g); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return s.GetGame(ctx, id)
}

func (s *CatalogService) DeleteGame(ctx context.Context, caller domain.Caller, id uint) error {
	if !caller.IsPrivileged() {
		return &domain.AuthorizationError{Action: "delete games"}
	}
	ctx, span := s.tracer.Start(ctx, "app.DeleteGame")
	defer span.End()

	if err := s.repo.Delete(ctx, id); err != nil {
		span.RecordError(err)
		return err
	}
	logger.Ctx(ctx).Info().Uint("game_id", id).Msg("Game deleted")
	return nil
}

func (s *CatalogService) Categories(ctx context.Context) ([]string, error) {
	return s.repo.Categories(ctx)
}

func (s *CatalogService) Platforms(ctx context.Context) ([]string, error) {
	return s.repo.Platforms(ctx)
}
