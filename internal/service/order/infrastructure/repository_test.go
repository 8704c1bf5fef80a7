package infrastructure

import (
	"context"
	"path/filepath"
	"testing"

	"gamestore/internal/service/order/domain"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() { _ = CloseDatabase(db) })
	return db
}

func seedGame(t *testing.T, db *gorm.DB, stock int) *GameModel {
	t.Helper()
	m := &GameModel{
		Title:       "Hollow Knight",
		Price:       decimal.NewFromInt(90000),
		Currency:    domain.DefaultCurrency,
		Platform:    "Switch",
		HasPhysical: true,
		Stock:       stock,
	}
	require.NoError(t, db.Create(m).Error)
	return m
}

func TestInventoryRepository_ConditionalDecrement(t *testing.T) {
	db := openTestDB(t)
	game := seedGame(t, db, 3)
	ctx := context.Background()
	uow := NewGormUnitOfWork(db)

	err := uow.Within(ctx, func(ctx context.Context, tx domain.Tx) error {
		return tx.Games().DecrementStock(ctx, game.ID, 2)
	})
	require.NoError(t, err)

	err = uow.Within(ctx, func(ctx context.Context, tx domain.Tx) error {
		return tx.Games().DecrementStock(ctx, game.ID, 2)
	})
	assert.ErrorIs(t, err, domain.ErrStockConflict)

	var reloaded GameModel
	require.NoError(t, db.First(&reloaded, game.ID).Error)
	assert.Equal(t, 1, reloaded.Stock)
}

func TestInventoryRepository_IncrementUnknownGame(t *testing.T) {
	db := openTestDB(t)
	err := NewGormUnitOfWork(db).Within(context.Background(), func(ctx context.Context, tx domain.Tx) error {
		return tx.Games().IncrementStock(ctx, 404, 1)
	})
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestUnitOfWork_RollsBackOnError(t *testing.T) {
	db := openTestDB(t)
	game := seedGame(t, db, 5)

	err := NewGormUnitOfWork(db).Within(context.Background(), func(ctx context.Context, tx domain.Tx) error {
		require.NoError(t, tx.Games().DecrementStock(ctx, game.ID, 4))
		return &domain.ValidationError{Field: "games", Message: "boom"}
	})
	require.Error(t, err)

	var reloaded GameModel
	require.NoError(t, db.First(&reloaded, game.ID).Error)
	assert.Equal(t, 5, reloaded.Stock)
}

func TestOrderRepository_CreateAndLoad(t *testing.T) {
	db := openTestDB(t)
	game := seedGame(t, db, 5)
	ctx := context.Background()

	order := &domain.Order{
		UserID:        7,
		TotalAmount:   decimal.NewFromInt(180000),
		Currency:      domain.DefaultCurrency,
		Status:        domain.StatusPending,
		DeliveryMode:  domain.DeliveryPhysical,
		PaymentMethod: "cod",
		ShippingAddress: &domain.Address{
			Street: "Jl. Malioboro 5", City: "Yogyakarta", ZipCode: "55213", Country: "Indonesia",
		},
		Lines: []domain.OrderLine{{
			GameID:    game.ID,
			Quantity:  2,
			UnitPrice: decimal.NewFromInt(90000),
			Format:    domain.FormatPhysical,
			Subtotal:  decimal.NewFromInt(180000),
		}},
	}
	err := NewGormUnitOfWork(db).Within(ctx, func(ctx context.Context, tx domain.Tx) error {
		return tx.Orders().Create(ctx, order)
	})
	require.NoError(t, err)
	require.NotZero(t, order.ID)
	require.NotZero(t, order.Lines[0].ID)

	// 目录价格变化不影响已下单的价格快照
	require.NoError(t, db.Model(&GameModel{}).Where("id = ?", game.ID).Update("price", decimal.NewFromInt(1)).Error)

	loaded, err := NewGormOrderReader(db).FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Lines, 1)
	assert.True(t, decimal.NewFromInt(90000).Equal(loaded.Lines[0].UnitPrice))
	assert.Equal(t, "Hollow Knight", loaded.Lines[0].GameTitle)
	require.NotNil(t, loaded.ShippingAddress)
	assert.Equal(t, "Yogyakarta", loaded.ShippingAddress.City)
	assert.Empty(t, loaded.PlatformAccountID)

	_, err = NewGormOrderReader(db).FindByID(ctx, order.ID+1)
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestCatalogRepository_Filters(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewGormCatalogRepository(db)

	for _, g := range []*domain.Game{
		{Title: "Halo Infinite", Price: decimal.NewFromInt(500000), Category: "Shooter", Platform: "Xbox", Featured: true, HasDigital: true},
		{Title: "Zelda", Price: decimal.NewFromInt(700000), Category: "Adventure", Platform: "Switch", HasPhysical: true, Stock: 3},
		{Title: "Mario Kart", Price: decimal.NewFromInt(650000), Category: "Racing", Platform: "Switch", HasPhysical: true, Stock: 1},
	} {
		require.NoError(t, g.Validate())
		require.NoError(t, repo.Create(ctx, g))
	}

	switchGames, err := repo.List(ctx, domain.GameFilter{Platform: "Switch"})
	require.NoError(t, err)
	assert.Len(t, switchGames, 2)

	featured := true
	list, err := repo.List(ctx, domain.GameFilter{Featured: &featured})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Halo Infinite", list[0].Title)

	list, err = repo.List(ctx, domain.GameFilter{Search: "Kart"})
	require.NoError(t, err)
	require.Len(t, list, 1)

	platforms, err := repo.Platforms(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Switch", "Xbox"}, platforms)

	var notFound *domain.NotFoundError
	assert.ErrorAs(t, repo.Delete(ctx, 999), &notFound)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(&mysql.MySQLError{Number: mysqlDeadlock}))
	assert.True(t, isRetryable(&mysql.MySQLError{Number: mysqlLockWaitTimeout}))
	assert.False(t, isRetryable(&mysql.MySQLError{Number: 1062}))
	assert.False(t, isRetryable(domain.ErrStockConflict))
}

func TestBuildDSN(t *testing.T) {
	dsn := BuildDSN(testMySQLConfig())
	cfg, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.True(t, cfg.ClientFoundRows)
	assert.True(t, cfg.ParseTime)
	assert.Equal(t, "db:3306", cfg.Addr)
	assert.Equal(t, "gamestore", cfg.DBName)
}
