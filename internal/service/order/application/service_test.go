package application_test

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gamestore/internal/service/order/application"
	"gamestore/internal/service/order/domain"
	"gamestore/internal/service/order/infrastructure"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	alice = domain.Caller{UserID: 1, Role: "user"}
	bob   = domain.Caller{UserID: 2, Role: "user"}
	admin = domain.Caller{UserID: 99, Role: domain.RoleAdmin}
)

type testEnv struct {
	db      *gorm.DB
	orders  *application.OrderApplicationService
	catalog *application.CatalogService
	inbox   *application.NotificationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	// immediate 事务让并发写串行化，busy_timeout 避免直接返回 database is locked
	dsn := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000&_txlock=immediate"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, infrastructure.Migrate(db))
	t.Cleanup(func() { _ = infrastructure.CloseDatabase(db) })

	tracer := otel.Tracer("test")
	return &testEnv{
		db: db,
		orders: application.NewOrderApplicationService(
			infrastructure.NewGormUnitOfWork(db),
			infrastructure.NewGormOrderReader(db),
			nil,
			tracer,
			5*time.Second,
		),
		catalog: application.NewCatalogService(infrastructure.NewGormCatalogRepository(db), tracer),
		inbox:   application.NewNotificationService(infrastructure.NewGormNotificationRepository(db), tracer),
	}
}

// withTx 返回一个订单服务，它在每个工作单元里用 wrap 包装真实的 Tx
func (e *testEnv) withTx(wrap func(domain.Tx) domain.Tx) *application.OrderApplicationService {
	uow := &wrappedUnitOfWork{inner: infrastructure.NewGormUnitOfWork(e.db), wrap: wrap}
	return application.NewOrderApplicationService(uow, infrastructure.NewGormOrderReader(e.db), nil, otel.Tracer("test"), 5*time.Second)
}

type wrappedUnitOfWork struct {
	inner domain.UnitOfWork
	wrap  func(domain.Tx) domain.Tx
}

func (u *wrappedUnitOfWork) Within(ctx context.Context, fn func(ctx context.Context, tx domain.Tx) error) error {
	return u.inner.Within(ctx, func(ctx context.Context, tx domain.Tx) error {
		return fn(ctx, u.wrap(tx))
	})
}

// faultyTx 替换部分仓储，其余委托给真实的 Tx
type faultyTx struct {
	domain.Tx
	games         domain.InventoryRepository
	notifications domain.NotificationSink
	outbox        domain.OutboxSink
}

func (t *faultyTx) Games() domain.InventoryRepository {
	if t.games != nil {
		return t.games
	}
	return t.Tx.Games()
}

func (t *faultyTx) Notifications() domain.NotificationSink {
	if t.notifications != nil {
		return t.notifications
	}
	return t.Tx.Notifications()
}

func (t *faultyTx) Outbox() domain.OutboxSink {
	if t.outbox != nil {
		return t.outbox
	}
	return t.Tx.Outbox()
}

var errSinkDown = errors.New("sink unavailable")

type failingNotifications struct{}

func (failingNotifications) Append(context.Context, *domain.Notification) error { return errSinkDown }

type failingOutbox struct{}

func (failingOutbox) Append(context.Context, *domain.OrderEvent) error { return errSinkDown }

// failingRestock 让归还库存失败
type failingRestock struct {
	domain.InventoryRepository
}

func (failingRestock) IncrementStock(context.Context, uint, int) error { return errSinkDown }

// racingInventory 在条件扣减前模拟另一个事务抢走 stolen 件库存
type racingInventory struct {
	domain.InventoryRepository
	stolen int
}

func (r racingInventory) DecrementStock(ctx context.Context, id uint, qty int) error {
	if err := r.InventoryRepository.DecrementStock(ctx, id, r.stolen); err != nil {
		return err
	}
	return r.InventoryRepository.DecrementStock(ctx, id, qty)
}

func (e *testEnv) seedGame(t *testing.T, title string, price int64, stock int, physical, digital bool) uint {
	t.Helper()
	m := &infrastructure.GameModel{
		Title:       title,
		Price:       decimal.NewFromInt(price),
		Currency:    domain.DefaultCurrency,
		Platform:    "PS5",
		Category:    "Action",
		HasPhysical: physical,
		HasDigital:  digital,
		Stock:       stock,
	}
	require.NoError(t, e.db.Create(m).Error)
	return m.ID
}

func (e *testEnv) stockOf(t *testing.T, id uint) int {
	t.Helper()
	var m infrastructure.GameModel
	require.NoError(t, e.db.First(&m, id).Error)
	return m.Stock
}

func (e *testEnv) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(model).Count(&n).Error)
	return n
}

func physicalRequest(lines ...application.LineItemRequest) *application.PlaceOrderRequest {
	return &application.PlaceOrderRequest{
		Games:         lines,
		PaymentMethod: "bank_transfer",
		DeliveryType:  "physical",
		Street:        "Jl. Sudirman 1",
		City:          "Jakarta",
		ZipCode:       "10220",
		Country:       "Indonesia",
	}
}

func TestPlaceOrder_DecrementsStockAndNotifies(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	gameID := env.seedGame(t, "Elden Ring", 100000, 5, true, true)

	order, err := env.orders.PlaceOrder(ctx, alice, physicalRequest(
		application.LineItemRequest{GameID: gameID, Quantity: 2, Type: "physical"},
	))
	require.NoError(t, err)

	assert.NotZero(t, order.ID)
	assert.Equal(t, "pending", order.Status)
	assert.True(t, decimal.NewFromInt(200000).Equal(order.TotalAmount), "total = %s", order.TotalAmount)
	require.Len(t, order.Lines, 1)
	assert.True(t, decimal.NewFromInt(100000).Equal(order.Lines[0].UnitPrice))
	assert.Equal(t, 3, env.stockOf(t, gameID))

	inbox, err := env.inbox.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, "New Order", inbox[0].Title)
	assert.Contains(t, inbox[0].Message, "order #")
	assert.False(t, inbox[0].IsRead)

	assert.EqualValues(t, 1, env.count(t, &infrastructure.OutboxModel{}))
}

func TestPlaceOrder_TotalIsSumOfSubtotals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g1 := env.seedGame(t, "Hades", 150000, 10, true, true)
	g2 := env.seedGame(t, "Celeste", 75000, 0, false, true)

	req := physicalRequest(
		application.LineItemRequest{GameID: g1, Quantity: 2, Type: "physical"},
		application.LineItemRequest{GameID: g2, Quantity: 3, Type: "digital"},
	)
	req.DeliveryType = "both"
	req.PlatformAccountID = "psn-alice"

	order, err := env.orders.PlaceOrder(ctx, alice, req)
	require.NoError(t, err)

	sum := decimal.Zero
	for _, l := range order.Lines {
		sum = sum.Add(l.Subtotal)
	}
	assert.True(t, sum.Equal(order.TotalAmount))
	assert.True(t, decimal.NewFromInt(525000).Equal(order.TotalAmount))
	assert.Equal(t, 8, env.stockOf(t, g1))
	// 数字版不占用库存
	assert.Equal(t, 0, env.stockOf(t, g2))
}

func TestPlaceOrder_InsufficientStockLeavesNoTrace(t *testing.T) {
	env := newTestEnv(t)
	gameID := env.seedGame(t, "Elden Ring", 100000, 2, true, false)

	_, err := env.orders.PlaceOrder(context.Background(), alice, physicalRequest(
		application.LineItemRequest{GameID: gameID, Quantity: 3, Type: "physical"},
	))

	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Len(t, insufficient.Shortages, 1)
	assert.Equal(t, domain.StockShortage{GameID: gameID, Title: "Elden Ring", Available: 2, Requested: 3}, insufficient.Shortages[0])

	assert.Equal(t, 2, env.stockOf(t, gameID))
	assert.Zero(t, env.count(t, &infrastructure.OrderModel{}))
	assert.Zero(t, env.count(t, &infrastructure.OrderLineModel{}))
	assert.Zero(t, env.count(t, &infrastructure.NotificationModel{}))
	assert.Zero(t, env.count(t, &infrastructure.OutboxModel{}))
}

func TestPlaceOrder_ReportsOnlyShortGames(t *testing.T) {
	env := newTestEnv(t)
	plenty := env.seedGame(t, "Hades", 150000, 10, true, false)
	scarce := env.seedGame(t, "Celeste", 75000, 1, true, false)

	_, err := env.orders.PlaceOrder(context.Background(), alice, physicalRequest(
		application.LineItemRequest{GameID: plenty, Quantity: 1, Type: "physical"},
		application.LineItemRequest{GameID: scarce, Quantity: 2, Type: "physical"},
	))

	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Len(t, insufficient.Shortages, 1)
	assert.Equal(t, scarce, insufficient.Shortages[0].GameID)
	assert.Equal(t, 10, env.stockOf(t, plenty))
}

func TestPlaceOrder_DuplicateLinesAreSummed(t *testing.T) {
	env := newTestEnv(t)
	gameID := env.seedGame(t, "Hades", 150000, 3, true, false)

	_, err := env.orders.PlaceOrder(context.Background(), alice, physicalRequest(
		application.LineItemRequest{GameID: gameID, Quantity: 2, Type: "physical"},
		application.LineItemRequest{GameID: gameID, Quantity: 2, Type: "physical"},
	))

	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Len(t, insufficient.Shortages, 1)
	assert.Equal(t, 4, insufficient.Shortages[0].Requested)
	assert.Equal(t, 3, env.stockOf(t, gameID))
}

func TestPlaceOrder_Rejections(t *testing.T) {
	env := newTestEnv(t)
	physicalOnly := env.seedGame(t, "Boxed Only", 50000, 5, true, false)

	t.Run("digital without platform account", func(t *testing.T) {
		req := &application.PlaceOrderRequest{
			Games:        []application.LineItemRequest{{GameID: physicalOnly, Quantity: 1, Type: "digital"}},
			DeliveryType: "digital",
		}
		_, err := env.orders.PlaceOrder(context.Background(), alice, req)

		var validation *domain.ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, "platformAccountId", validation.Field)
	})

	t.Run("unknown game", func(t *testing.T) {
		_, err := env.orders.PlaceOrder(context.Background(), alice, physicalRequest(
			application.LineItemRequest{GameID: 4242, Quantity: 1, Type: "physical"},
		))

		var notFound *domain.NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, uint(4242), notFound.ID)
	})

	t.Run("format not offered", func(t *testing.T) {
		req := physicalRequest(application.LineItemRequest{GameID: physicalOnly, Quantity: 1, Type: "digital"})
		req.DeliveryType = "both"
		req.PlatformAccountID = "steam-alice"
		_, err := env.orders.PlaceOrder(context.Background(), alice, req)

		var mismatch *domain.FormatMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, physicalOnly, mismatch.GameID)
	})

	t.Run("quantity above cap", func(t *testing.T) {
		_, err := env.orders.PlaceOrder(context.Background(), alice, physicalRequest(
			application.LineItemRequest{GameID: physicalOnly, Quantity: math.MaxInt64, Type: "physical"},
		))

		var validation *domain.ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, "games[0].quantity", validation.Field)
	})

	t.Run("duplicate lines summing above cap", func(t *testing.T) {
		_, err := env.orders.PlaceOrder(context.Background(), alice, physicalRequest(
			application.LineItemRequest{GameID: physicalOnly, Quantity: domain.MaxLineQuantity, Type: "physical"},
			application.LineItemRequest{GameID: physicalOnly, Quantity: 2, Type: "physical"},
		))

		var validation *domain.ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, "games[1].quantity", validation.Field)
	})

	assert.Zero(t, env.count(t, &infrastructure.OrderModel{}))
	assert.Zero(t, env.count(t, &infrastructure.NotificationModel{}))
	assert.Equal(t, 5, env.stockOf(t, physicalOnly))
}

func (e *testEnv) assertNothingPlaced(t *testing.T, gameID uint, stock int) {
	t.Helper()
	assert.Equal(t, stock, e.stockOf(t, gameID))
	assert.Zero(t, e.count(t, &infrastructure.OrderModel{}))
	assert.Zero(t, e.count(t, &infrastructure.OrderLineModel{}))
	assert.Zero(t, e.count(t, &infrastructure.NotificationModel{}))
	assert.Zero(t, e.count(t, &infrastructure.OutboxModel{}))
}

func TestPlaceOrder_LateFailureDiscardsEverything(t *testing.T) {
	t.Run("notification write fails", func(t *testing.T) {
		env := newTestEnv(t)
		gameID := env.seedGame(t, "Elden Ring", 100000, 5, true, false)
		orders := env.withTx(func(tx domain.Tx) domain.Tx {
			return &faultyTx{Tx: tx, notifications: failingNotifications{}}
		})

		_, err := orders.PlaceOrder(context.Background(), alice, physicalRequest(
			application.LineItemRequest{GameID: gameID, Quantity: 2, Type: "physical"},
		))
		require.ErrorIs(t, err, errSinkDown)
		env.assertNothingPlaced(t, gameID, 5)
	})

	t.Run("outbox write fails", func(t *testing.T) {
		env := newTestEnv(t)
		gameID := env.seedGame(t, "Elden Ring", 100000, 5, true, false)
		orders := env.withTx(func(tx domain.Tx) domain.Tx {
			return &faultyTx{Tx: tx, outbox: failingOutbox{}}
		})

		_, err := orders.PlaceOrder(context.Background(), alice, physicalRequest(
			application.LineItemRequest{GameID: gameID, Quantity: 2, Type: "physical"},
		))
		require.ErrorIs(t, err, errSinkDown)
		env.assertNothingPlaced(t, gameID, 5)
	})
}

func TestPlaceOrder_ConcurrentDecrementSurfacesAsShortage(t *testing.T) {
	env := newTestEnv(t)
	gameID := env.seedGame(t, "Elden Ring", 100000, 3, true, false)
	orders := env.withTx(func(tx domain.Tx) domain.Tx {
		return &faultyTx{Tx: tx, games: racingInventory{InventoryRepository: tx.Games(), stolen: 2}}
	})

	_, err := orders.PlaceOrder(context.Background(), alice, physicalRequest(
		application.LineItemRequest{GameID: gameID, Quantity: 2, Type: "physical"},
	))

	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Len(t, insufficient.Shortages, 1)
	assert.Equal(t, domain.StockShortage{GameID: gameID, Title: "Elden Ring", Available: 1, Requested: 2}, insufficient.Shortages[0])
	env.assertNothingPlaced(t, gameID, 3)
}

func TestPlaceOrder_ConcurrentBuyersNeverOversell(t *testing.T) {
	env := newTestEnv(t)
	gameID := env.seedGame(t, "Elden Ring", 100000, 1, true, false)

	const buyers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		failures  []error
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()
			_, err := env.orders.PlaceOrder(context.Background(), domain.Caller{UserID: userID, Role: "user"}, physicalRequest(
				application.LineItemRequest{GameID: gameID, Quantity: 1, Type: "physical"},
			))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			failures = append(failures, err)
		}(uint(i + 1))
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	require.Len(t, failures, buyers-1)
	for _, err := range failures {
		var insufficient *domain.InsufficientStockError
		assert.ErrorAs(t, err, &insufficient)
	}
	assert.Equal(t, 0, env.stockOf(t, gameID))
	assert.EqualValues(t, 1, env.count(t, &infrastructure.OrderModel{}))
}

func placeOne(t *testing.T, env *testEnv, caller domain.Caller, gameID uint, qty int) *application.OrderDTO {
	t.Helper()
	order, err := env.orders.PlaceOrder(context.Background(), caller, physicalRequest(
		application.LineItemRequest{GameID: gameID, Quantity: qty, Type: "physical"},
	))
	require.NoError(t, err)
	return order
}

func TestCancelOrder_RestoresStockOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	gameID := env.seedGame(t, "Elden Ring", 100000, 5, true, false)
	order := placeOne(t, env, alice, gameID, 3)
	require.Equal(t, 2, env.stockOf(t, gameID))

	cancelled, err := env.orders.CancelOrder(ctx, alice, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Equal(t, 5, env.stockOf(t, gameID))

	_, err = env.orders.CancelOrder(ctx, alice, order.ID)
	var conflict *domain.StateConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, domain.StatusCancelled, conflict.Current)
	assert.Equal(t, 5, env.stockOf(t, gameID))

	inbox, err := env.inbox.List(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, inbox, 2)
}

func TestCancelOrder_FailedWriteKeepsOrderPending(t *testing.T) {
	cases := []struct {
		name string
		wrap func(domain.Tx) domain.Tx
	}{
		{"restock fails", func(tx domain.Tx) domain.Tx {
			return &faultyTx{Tx: tx, games: failingRestock{InventoryRepository: tx.Games()}}
		}},
		{"notification fails", func(tx domain.Tx) domain.Tx {
			return &faultyTx{Tx: tx, notifications: failingNotifications{}}
		}},
		{"outbox fails", func(tx domain.Tx) domain.Tx {
			return &faultyTx{Tx: tx, outbox: failingOutbox{}}
		}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()
			gameID := env.seedGame(t, "Elden Ring", 100000, 5, true, false)
			order := placeOne(t, env, alice, gameID, 3)
			notifications := env.count(t, &infrastructure.NotificationModel{})

			_, err := env.withTx(c.wrap).CancelOrder(ctx, alice, order.ID)
			require.ErrorIs(t, err, errSinkDown)

			reloaded, err := env.orders.GetOrder(ctx, alice, order.ID)
			require.NoError(t, err)
			assert.Equal(t, "pending", reloaded.Status)
			assert.Equal(t, 2, env.stockOf(t, gameID))
			assert.Equal(t, notifications, env.count(t, &infrastructure.NotificationModel{}))
		})
	}
}

func TestCancelOrder_OtherUserForbidden(t *testing.T) {
	env := newTestEnv(t)
	gameID := env.seedGame(t, "Elden Ring", 100000, 5, true, false)
	order := placeOne(t, env, alice, gameID, 1)

	_, err := env.orders.CancelOrder(context.Background(), bob, order.ID)
	var forbidden *domain.AuthorizationError
	require.ErrorAs(t, err, &forbidden)
	assert.Equal(t, 4, env.stockOf(t, gameID))
}

func TestDeleteOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	gameID := env.seedGame(t, "Elden Ring", 100000, 5, true, false)

	t.Run("pending order is removed and restocked", func(t *testing.T) {
		order := placeOne(t, env, alice, gameID, 2)
		require.Equal(t, 3, env.stockOf(t, gameID))

		require.NoError(t, env.orders.DeleteOrder(ctx, alice, order.ID))
		assert.Equal(t, 5, env.stockOf(t, gameID))

		_, err := env.orders.GetOrder(ctx, alice, order.ID)
		var notFound *domain.NotFoundError
		assert.ErrorAs(t, err, &notFound)
		assert.Zero(t, env.count(t, &infrastructure.OrderLineModel{}))
	})

	t.Run("completed order is kept", func(t *testing.T) {
		order := placeOne(t, env, alice, gameID, 1)
		_, err := env.orders.UpdateStatus(ctx, admin, order.ID, "completed")
		require.NoError(t, err)

		err = env.orders.DeleteOrder(ctx, alice, order.ID)
		var conflict *domain.StateConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, 4, env.stockOf(t, gameID))
	})
}

func TestUpdateStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	gameID := env.seedGame(t, "Elden Ring", 100000, 5, true, false)

	t.Run("requires admin", func(t *testing.T) {
		order := placeOne(t, env, alice, gameID, 1)
		_, err := env.orders.UpdateStatus(ctx, alice, order.ID, "completed")
		var forbidden *domain.AuthorizationError
		assert.ErrorAs(t, err, &forbidden)
	})

	t.Run("rejects unknown and pending status", func(t *testing.T) {
		var validation *domain.ValidationError
		_, err := env.orders.UpdateStatus(ctx, admin, 1, "shipped")
		assert.ErrorAs(t, err, &validation)
		_, err = env.orders.UpdateStatus(ctx, admin, 1, "pending")
		assert.ErrorAs(t, err, &validation)
	})

	t.Run("completed is terminal", func(t *testing.T) {
		order := placeOne(t, env, alice, gameID, 1)
		before := env.stockOf(t, gameID)

		done, err := env.orders.UpdateStatus(ctx, admin, order.ID, "completed")
		require.NoError(t, err)
		assert.Equal(t, "completed", done.Status)
		assert.Equal(t, before, env.stockOf(t, gameID))

		_, err = env.orders.UpdateStatus(ctx, admin, order.ID, "cancelled")
		var conflict *domain.StateConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, domain.StatusCompleted, conflict.Current)
	})

	t.Run("cancelled restores stock", func(t *testing.T) {
		order := placeOne(t, env, alice, gameID, 2)
		before := env.stockOf(t, gameID)

		_, err := env.orders.UpdateStatus(ctx, admin, order.ID, "cancelled")
		require.NoError(t, err)
		assert.Equal(t, before+2, env.stockOf(t, gameID))
	})

	t.Run("owner is notified", func(t *testing.T) {
		inbox, err := env.inbox.List(ctx, alice)
		require.NoError(t, err)
		var updates int
		for _, n := range inbox {
			if n.Type == string(domain.NotificationStatusChanged) {
				updates++
			}
		}
		assert.Equal(t, 2, updates)

		adminInbox, err := env.inbox.List(ctx, admin)
		require.NoError(t, err)
		assert.Empty(t, adminInbox)
	})
}

func TestUpdateOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	gameID := env.seedGame(t, "Elden Ring", 100000, 5, true, false)
	order := placeOne(t, env, alice, gameID, 1)

	t.Run("partial address is rejected", func(t *testing.T) {
		_, err := env.orders.UpdateOrder(ctx, alice, order.ID, &application.UpdateOrderRequest{City: "Bandung"})
		var validation *domain.ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, "street", validation.Field)
	})

	t.Run("platform account ignored for physical orders", func(t *testing.T) {
		_, err := env.orders.UpdateOrder(ctx, alice, order.ID, &application.UpdateOrderRequest{PlatformAccountID: "psn"})
		var validation *domain.ValidationError
		assert.ErrorAs(t, err, &validation)
	})

	t.Run("full address and payment method", func(t *testing.T) {
		updated, err := env.orders.UpdateOrder(ctx, alice, order.ID, &application.UpdateOrderRequest{
			PaymentMethod: "credit_card",
			Street:        "Jl. Asia Afrika 8",
			City:          "Bandung",
			ZipCode:       "40111",
			Country:       "Indonesia",
		})
		require.NoError(t, err)
		assert.Equal(t, "credit_card", updated.PaymentMethod)
		require.NotNil(t, updated.ShippingAddress)
		assert.Equal(t, "Bandung", updated.ShippingAddress.City)
		assert.True(t, order.TotalAmount.Equal(updated.TotalAmount))

		reloaded, err := env.orders.GetOrder(ctx, alice, order.ID)
		require.NoError(t, err)
		assert.Equal(t, "40111", reloaded.ShippingAddress.ZipCode)
	})

	t.Run("cancelled orders are frozen", func(t *testing.T) {
		_, err := env.orders.CancelOrder(ctx, alice, order.ID)
		require.NoError(t, err)
		_, err = env.orders.UpdateOrder(ctx, alice, order.ID, &application.UpdateOrderRequest{PaymentMethod: "cash"})
		var conflict *domain.StateConflictError
		assert.ErrorAs(t, err, &conflict)
	})
}

func TestOrderVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	gameID := env.seedGame(t, "Elden Ring", 100000, 10, true, false)
	mine := placeOne(t, env, alice, gameID, 1)
	placeOne(t, env, bob, gameID, 1)

	_, err := env.orders.GetOrder(ctx, bob, mine.ID)
	var forbidden *domain.AuthorizationError
	assert.ErrorAs(t, err, &forbidden)

	got, err := env.orders.GetOrder(ctx, admin, mine.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "Elden Ring", got.Lines[0].GameTitle)

	list, err := env.orders.ListOrders(ctx, alice, false)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = env.orders.ListOrders(ctx, alice, true)
	assert.ErrorAs(t, err, &forbidden)

	all, err := env.orders.ListOrders(ctx, admin, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCatalogAdministration(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	req := &application.GameRequest{
		Title:       "Stardew Valley",
		Price:       decimal.NewFromInt(120000),
		Category:    "Simulation",
		Platform:    "Switch",
		HasPhysical: true,
		Stock:       4,
	}

	_, err := env.catalog.CreateGame(ctx, alice, req)
	var forbidden *domain.AuthorizationError
	require.ErrorAs(t, err, &forbidden)

	game, err := env.catalog.CreateGame(ctx, admin, req)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCurrency, game.Currency)

	platforms, err := env.catalog.Platforms(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Switch"}, platforms)

	placeOne(t, env, alice, game.ID, 1)
	err = env.catalog.DeleteGame(ctx, admin, game.ID)
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestNotificationInbox(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	gameID := env.seedGame(t, "Elden Ring", 100000, 10, true, false)
	placeOne(t, env, alice, gameID, 1)
	placeOne(t, env, alice, gameID, 1)

	inbox, err := env.inbox.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, inbox, 2)

	var notFound *domain.NotFoundError
	assert.ErrorAs(t, env.inbox.MarkRead(ctx, bob, inbox[0].ID), &notFound)
	require.NoError(t, env.inbox.MarkRead(ctx, alice, inbox[0].ID))

	n, err := env.inbox.MarkAllRead(ctx, alice)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
