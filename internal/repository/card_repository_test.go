package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardshop/internal/model"
	"cardshop/internal/testutil"
)

func seedOrder(t *testing.T, s Store, productID uuid.UUID, qty int) *model.Order {
	t.Helper()
	order := &model.Order{
		OrderNo:      uuid.NewString(),
		ProductID:    productID,
		Email:        "buyer@example.com",
		PasswordHash: "hash",
		Quantity:     qty,
		Status:       model.OrderStatusPending,
	}
	require.NoError(t, s.Orders().Create(context.Background(), order))
	return order
}

func TestCardRepository_ClaimOldestFirst(t *testing.T) {
	gormDB := testutil.NewDB(t)
	s := NewStore(gormDB)
	ctx := context.Background()

	product := testutil.SeedProduct(t, gormDB)
	seeded := testutil.SeedCards(t, gormDB, product.ID, 3)
	order := seedOrder(t, s, product.ID, 2)

	claimed, err := s.Cards().ClaimAvailable(ctx, product.ID, order.ID, 2)
	require.NoError(t, err)
	require.Len(t, claimed, 2)
	assert.Equal(t, seeded[0].ID, claimed[0].ID)
	assert.Equal(t, seeded[1].ID, claimed[1].ID)

	available, err := s.Cards().CountAvailable(ctx, product.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, available)

	owned, err := s.Cards().ListByOrder(ctx, order.ID, model.CardStatusReserved)
	require.NoError(t, err)
	assert.Len(t, owned, 2)
	testutil.AssertCardInvariant(t, gormDB)
}

func TestCardRepository_ClaimShortLeavesStockUntouched(t *testing.T) {
	gormDB := testutil.NewDB(t)
	s := NewStore(gormDB)
	ctx := context.Background()

	product := testutil.SeedProduct(t, gormDB)
	testutil.SeedCards(t, gormDB, product.ID, 1)
	order := seedOrder(t, s, product.ID, 2)

	claimed, err := s.Cards().ClaimAvailable(ctx, product.ID, order.ID, 2)
	require.NoError(t, err)
	assert.Len(t, claimed, 1)
	assert.EqualValues(t, 1, testutil.CountCards(t, gormDB, product.ID, model.CardStatusUnsold))
}

func TestCardRepository_SellAndRelease(t *testing.T) {
	gormDB := testutil.NewDB(t)
	s := NewStore(gormDB)
	ctx := context.Background()

	product := testutil.SeedProduct(t, gormDB)
	testutil.SeedCards(t, gormDB, product.ID, 4)
	sold := seedOrder(t, s, product.ID, 2)
	released := seedOrder(t, s, product.ID, 2)

	_, err := s.Cards().ClaimAvailable(ctx, product.ID, sold.ID, 2)
	require.NoError(t, err)
	_, err = s.Cards().ClaimAvailable(ctx, product.ID, released.ID, 2)
	require.NoError(t, err)

	n, err := s.Cards().MarkSoldByOrder(ctx, sold.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = s.Cards().ReleaseByOrder(ctx, released.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	// releasing a sold order leaves its cards alone
	n, err = s.Cards().ReleaseByOrder(ctx, sold.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.EqualValues(t, 2, testutil.CountCards(t, gormDB, product.ID, model.CardStatusSold))
	assert.EqualValues(t, 2, testutil.CountCards(t, gormDB, product.ID, model.CardStatusUnsold))
	count, err := s.Cards().CountByOrder(ctx, released.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
	testutil.AssertCardInvariant(t, gormDB)
}

func TestCardRepository_DeleteUnsoldOnly(t *testing.T) {
	gormDB := testutil.NewDB(t)
	s := NewStore(gormDB)
	ctx := context.Background()

	product := testutil.SeedProduct(t, gormDB)
	cards := testutil.SeedCards(t, gormDB, product.ID, 2)
	order := seedOrder(t, s, product.ID, 1)
	_, err := s.Cards().ClaimAvailable(ctx, product.ID, order.ID, 1)
	require.NoError(t, err)

	n, err := s.Cards().DeleteUnsold(ctx, []uuid.UUID{cards[0].ID, cards[1].ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Len(t, testutil.Cards(t, gormDB, product.ID), 1)
}

func TestStore_WithTransactionRollsBack(t *testing.T) {
	gormDB := testutil.NewDB(t)
	s := NewStore(gormDB)
	ctx := context.Background()

	product := testutil.SeedProduct(t, gormDB)
	testutil.SeedCards(t, gormDB, product.ID, 2)

	boom := errors.New("boom")
	err := s.WithTransaction(ctx, func(ctx context.Context, tx Store) error {
		order := seedOrder(t, tx, product.ID, 2)
		if _, err := tx.Cards().ClaimAvailable(ctx, product.ID, order.ID, 2); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, testutil.CountOrders(t, gormDB))
	assert.EqualValues(t, 2, testutil.CountCards(t, gormDB, product.ID, model.CardStatusUnsold))
}

func TestOrderRepository_DuplicateOrderNo(t *testing.T) {
	gormDB := testutil.NewDB(t)
	s := NewStore(gormDB)
	ctx := context.Background()

	product := testutil.SeedProduct(t, gormDB)
	first := seedOrder(t, s, product.ID, 1)

	dup := &model.Order{OrderNo: first.OrderNo, ProductID: product.ID, Email: "x@example.com", PasswordHash: "h", Quantity: 1}
	err := s.Orders().Create(ctx, dup)
	require.Error(t, err)
	assert.True(t, IsDuplicateKey(err))
}

func TestOrderRepository_UpdateStatusIsCompareAndSet(t *testing.T) {
	gormDB := testutil.NewDB(t)
	s := NewStore(gormDB)
	ctx := context.Background()

	product := testutil.SeedProduct(t, gormDB)
	order := seedOrder(t, s, product.ID, 1)

	n, err := s.Orders().UpdateStatus(ctx, order.ID, model.OrderStatusPending, model.OrderStatusClosed, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = s.Orders().UpdateStatus(ctx, order.ID, model.OrderStatusPending, model.OrderStatusCompleted, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, model.OrderStatusClosed, testutil.Order(t, gormDB, order.ID).Status)
}
