package infrastructure

import (
	"context"

	"gamestore/internal/service/order/domain"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// GormCatalogRepository 是 CatalogRepository 的 GORM 实现
type GormCatalogRepository struct {
	db *gorm.DB
}

func NewGormCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

func (r *GormCatalogRepository) FindByID(ctx context.Context, id uint) (*domain.Game, error) {
	var m GameModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &domain.NotFoundError{Entity: "game", ID: id}
		}
		return nil, errors.Wrapf(err, "find game %d", id)
	}
	return ToDomainGame(&m), nil
}

func (r *GormCatalogRepository) List(ctx context.Context, filter domain.GameFilter) ([]*domain.Game, error) {
	q := r.db.WithContext(ctx).Model(&GameModel{})
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Platform != "" {
		q = q.Where("platform = ?", filter.Platform)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("title LIKE ? OR publisher LIKE ?", like, like)
	}
	if filter.Featured != nil {
		q = q.Where("featured = ?", *filter.Featured)
	}

	var models []GameModel
	if err := q.Order("title, id").Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "list games")
	}
	out := make([]*domain.Game, 0, len(models))
	for i := range models {
		out = append(out, ToDomainGame(&models[i]))
	}
	return out, nil
}

func (r *GormCatalogRepository) Create(ctx context.Context, game *domain.Game) error {
	m := FromDomainGame(game)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return errors.Wrap(err, "create game")
	}
	game.ID = m.ID
	game.CreatedAt, game.UpdatedAt = m.CreatedAt, m.UpdatedAt
	return nil
}

// Update 整体替换游戏的可编辑字段
func (r *GormCatalogRepository) Update(ctx context.Context, game *domain.Game) error {
	if _, err := r.FindByID(ctx, game.ID); err != nil {
		return err
	}
	m := FromDomainGame(game)
	err := r.db.WithContext(ctx).Model(&GameModel{ID: game.ID}).
		Select("*").Omit("id", "created_at").
		Updates(m).Error
	return errors.Wrapf(err, "update game %d", game.ID)
}

// Delete 删除游戏。已经被订单引用的游戏不能删除。
func (r *GormCatalogRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var refs int64
		if err := tx.Model(&OrderLineModel{}).Where("game_id = ?", id).Count(&refs).Error; err != nil {
			return errors.Wrapf(err, "count order lines of game %d", id)
		}
		if refs > 0 {
			return &domain.ValidationError{Field: "id", Message: "game is referenced by existing orders and cannot be deleted"}
		}
		res := tx.Delete(&GameModel{}, id)
		if res.Error != nil {
			return errors.Wrapf(res.Error, "delete game %d", id)
		}
		if res.RowsAffected == 0 {
			return &domain.NotFoundError{Entity: "game", ID: id}
		}
		return nil
	})
}

func (r *GormCatalogRepository) Categories(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "category")
}

func (r *GormCatalogRepository) Platforms(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "platform")
}

func (r *GormCatalogRepository) distinct(ctx context.Context, column string) ([]string, error) {
	out := make([]string, 0)
	err := r.db.WithContext(ctx).Model(&GameModel{}).
		Distinct(column).
		Where(column+" <> ''").
		Order(column).
		Pluck(column, &out).Error
	return out, errors.Wrapf(err, "list distinct %s", column)
}
