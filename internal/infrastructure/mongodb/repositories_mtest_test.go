package mongodb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/shopfront/order-platform/internal/domain"
	"github.com/shopfront/order-platform/pkg/cloudevents"
)

func matched(n int) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: n}, bson.E{Key: "nModified", Value: n})
}

func ns(mt *mtest.T, collection string) string {
	return mt.DB.Name() + "." + collection
}

func newTestOrder(t *testing.T) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder(domain.NewOrderParams{
		UserID:        "user-1",
		Address:       domain.AddressSnapshot{ID: "addr-1", Name: "Asha"},
		Products:      []domain.ProductSnapshot{{ProductID: "P1", Name: "Kettle", Price: 150}},
		Carts:         []domain.CartLine{{ProductID: "P1", Quantity: 2}},
		TotalPrice:    300,
		SubTotal:      300,
		PaymentMethod: domain.PaymentWallet,
	})
	require.NoError(t, err)
	return order
}

func TestOrderRepository_MockOps(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("insert writes order and outbox", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.DB, cloudevents.NewEventFactory(cloudevents.SourceOrderService), nil)
		order := newTestOrder(t)

		mt.AddMockResponses(
			mtest.CreateSuccessResponse(), // orders insert
			mtest.CreateSuccessResponse(), // outbox insert
		)
		require.NoError(t, repo.Insert(context.Background(), order))
		assert.Len(t, order.DomainEvents(), 1, "events are cleared by the caller after commit")
	})

	mt.Run("insert failure skips outbox", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.DB, cloudevents.NewEventFactory(cloudevents.SourceOrderService), nil)

		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))
		err := repo.Insert(context.Background(), newTestOrder(t))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to insert order")
	})

	mt.Run("update status guard", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.DB, cloudevents.NewEventFactory(cloudevents.SourceOrderService), nil)
		order := newTestOrder(t)
		order.ClearDomainEvents()
		_, err := order.ChangeStatus(domain.StatusCancelled)
		require.NoError(t, err)

		mt.AddMockResponses(matched(0))
		err = repo.UpdateStatus(context.Background(), order, domain.StatusProcessing)
		assert.ErrorIs(t, err, domain.ErrConcurrentUpdate)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)

		mt.AddMockResponses(matched(1), mtest.CreateSuccessResponse())
		require.NoError(t, repo.UpdateStatus(context.Background(), order, domain.StatusProcessing))
	})

	mt.Run("update return on missing order", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.DB, cloudevents.NewEventFactory(cloudevents.SourceOrderService), nil)
		order := newTestOrder(t)
		order.ClearDomainEvents()
		require.NoError(t, order.RequestReturn("damaged", domain.ReturnPolicyAny))

		mt.AddMockResponses(matched(0))
		assert.ErrorIs(t, repo.UpdateReturn(context.Background(), order), domain.ErrOrderNotFound)
	})

	mt.Run("find by id", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.DB, cloudevents.NewEventFactory(cloudevents.SourceOrderService), nil)
		ctx := context.Background()

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, OrdersCollection), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "ORD-1a2b3c4d"},
			{Key: "userId", Value: "user-1"},
			{Key: "status", Value: "Shipped"},
			{Key: "paymentMethod", Value: "COD"},
			{Key: "carts", Value: bson.A{bson.D{{Key: "productId", Value: "P1"}, {Key: "quantity", Value: 2}}}},
		}))
		order, err := repo.FindByID(ctx, "ORD-1a2b3c4d")
		require.NoError(t, err)
		require.NotNil(t, order)
		assert.Equal(t, domain.StatusShipped, order.Status)
		assert.Equal(t, 2, order.Carts[0].Quantity)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, OrdersCollection), mtest.FirstBatch))
		order, err = repo.FindByID(ctx, "ORD-missing1")
		require.NoError(t, err)
		assert.Nil(t, order)
	})

	mt.Run("find by user pages", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.DB, cloudevents.NewEventFactory(cloudevents.SourceOrderService), nil)

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns(mt, OrdersCollection), mtest.FirstBatch, bson.D{{Key: "n", Value: int64(12)}}),
			mtest.CreateCursorResponse(0, ns(mt, OrdersCollection), mtest.FirstBatch,
				bson.D{{Key: "_id", Value: "ORD-00000001"}, {Key: "userId", Value: "user-1"}},
				bson.D{{Key: "_id", Value: "ORD-00000002"}, {Key: "userId", Value: "user-1"}},
			),
		)
		orders, total, err := repo.FindByUser(context.Background(), "user-1", domain.NewPagination(2, 8, 8), domain.SortRecent)
		require.NoError(t, err)
		assert.Equal(t, int64(12), total)
		assert.Len(t, orders, 2)
	})

	mt.Run("list by status", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.DB, cloudevents.NewEventFactory(cloudevents.SourceOrderService), nil)
		status := domain.StatusDelivered

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns(mt, OrdersCollection), mtest.FirstBatch, bson.D{{Key: "n", Value: int64(1)}}),
			mtest.CreateCursorResponse(0, ns(mt, OrdersCollection), mtest.FirstBatch,
				bson.D{{Key: "_id", Value: "ORD-00000001"}, {Key: "status", Value: "Delivered"}},
			),
		)
		orders, total, err := repo.List(context.Background(), domain.OrderFilter{Status: &status}, domain.NewPagination(1, 5, 5))
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, orders, 1)
		assert.Equal(t, domain.StatusDelivered, orders[0].Status)
	})

	mt.Run("find by status empty", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.DB, cloudevents.NewEventFactory(cloudevents.SourceOrderService), nil)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, OrdersCollection), mtest.FirstBatch))
		orders, err := repo.FindByStatus(context.Background(), domain.StatusCancelled)
		require.NoError(t, err)
		assert.NotNil(t, orders)
		assert.Empty(t, orders)
	})
}

func TestWalletRepository_MockOps(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("credit upserts", func(mt *mtest.T) {
		repo := NewWalletRepository(mt.DB, nil)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		require.NoError(t, repo.Credit(context.Background(), "user-1", 300))
	})

	mt.Run("debit guard", func(mt *mtest.T) {
		repo := NewWalletRepository(mt.DB, nil)
		ctx := context.Background()

		mt.AddMockResponses(matched(0))
		assert.ErrorIs(t, repo.Debit(ctx, "user-1", 300), domain.ErrInsufficientBalance)

		mt.AddMockResponses(matched(1))
		assert.NoError(t, repo.Debit(ctx, "user-1", 300))
	})

	mt.Run("find missing wallet", func(mt *mtest.T) {
		repo := NewWalletRepository(mt.DB, nil)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, WalletsCollection), mtest.FirstBatch))
		wallet, err := repo.FindByUserID(context.Background(), "user-1")
		require.NoError(t, err)
		assert.Nil(t, wallet)
	})

	mt.Run("find wallet", func(mt *mtest.T) {
		repo := NewWalletRepository(mt.DB, nil)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, WalletsCollection), mtest.FirstBatch, bson.D{
			{Key: "userId", Value: "user-1"},
			{Key: "amount", Value: 200.0},
		}))
		wallet, err := repo.FindByUserID(context.Background(), "user-1")
		require.NoError(t, err)
		require.NotNil(t, wallet)
		assert.Equal(t, 200.0, wallet.Amount)
	})
}

func TestProductRepository_MockOps(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("adjust stock", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB, nil)
		ctx := context.Background()

		mt.AddMockResponses(matched(1))
		require.NoError(t, repo.AdjustStock(ctx, "P1", 2))

		mt.AddMockResponses(matched(0))
		assert.ErrorIs(t, repo.AdjustStock(ctx, "missing", 2), domain.ErrProductNotFound)
	})

	mt.Run("find many", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB, nil)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, ProductsCollection), mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "P1"}, {Key: "name", Value: "Kettle"}, {Key: "price", Value: 150.0}, {Key: "stock", Value: 8}},
			bson.D{{Key: "_id", Value: "P2"}, {Key: "name", Value: "Mug"}, {Key: "price", Value: 50.0}, {Key: "stock", Value: 4}},
		))
		products, err := repo.FindManyByIDs(context.Background(), []string{"P1", "P2"})
		require.NoError(t, err)
		require.Len(t, products, 2)
		assert.Equal(t, 8, products[0].Stock)
	})
}

func TestCollaboratorRepositories_MockOps(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("cart", func(mt *mtest.T) {
		repo := NewCartRepository(mt.DB)
		ctx := context.Background()

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, CartsCollection), mtest.FirstBatch,
			bson.D{{Key: "userId", Value: "user-1"}, {Key: "productId", Value: "P1"}, {Key: "quantity", Value: 2}},
		))
		items, err := repo.FindByUser(ctx, "user-1")
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "P1", items[0].ProductID)

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		removed, err := repo.ClearByUser(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, 1, removed)
	})

	mt.Run("address", func(mt *mtest.T) {
		repo := NewAddressRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, AddressesCollection), mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "addr-1"}, {Key: "userId", Value: "user-1"}, {Key: "city", Value: "Pune"}},
		))
		address, err := repo.FindByID(context.Background(), "addr-1")
		require.NoError(t, err)
		require.NotNil(t, address)
		assert.Equal(t, "user-1", address.UserID)
	})

	mt.Run("users", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, UsersCollection), mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "user-1"}, {Key: "name", Value: "Asha"}, {Key: "email", Value: "asha@example.com"}},
		))
		users, err := repo.FindManyByIDs(context.Background(), []string{"user-1"})
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "Asha", users[0].Name)
	})

	mt.Run("admin credential", func(mt *mtest.T) {
		repo := NewAdminCredentialRepository(mt.DB)
		ctx := context.Background()

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, AdminCredentialsCollection), mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "ops"}, {Key: "passwordHash", Value: "$2a$10$hash"}, {Key: "disabled", Value: false}},
		))
		credential, err := repo.FindByUsername(ctx, "ops")
		require.NoError(t, err)
		require.NotNil(t, credential)
		assert.Equal(t, "ops", credential.Username)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, AdminCredentialsCollection), mtest.FirstBatch))
		credential, err = repo.FindByUsername(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, credential)
	})
}
