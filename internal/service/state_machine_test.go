package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "cardshop/internal/errors"
	"cardshop/internal/model"
	"cardshop/internal/testutil"
)

func TestTransition_CompleteIsIdempotent(t *testing.T) {
	f := newFixture(t)
	product := testutil.SeedProduct(t, f.db)
	testutil.SeedCards(t, f.db, product.ID, 3)
	order := f.placeOrder(t, product.ID, 2)

	first, err := f.machine.Transition(context.Background(), order.ID, model.OrderStatusCompleted)
	require.NoError(t, err)
	assert.True(t, first.Changed)
	assert.Equal(t, model.OrderStatusPending, first.Previous)
	assert.Equal(t, int64(2), first.Sold)

	paid := testutil.Order(t, f.db, order.ID)
	require.NotNil(t, paid.PaidAt)

	time.Sleep(10 * time.Millisecond)
	second, err := f.machine.Transition(context.Background(), order.ID, model.OrderStatusCompleted)
	require.NoError(t, err)
	assert.False(t, second.Changed)

	again := testutil.Order(t, f.db, order.ID)
	assert.True(t, paid.PaidAt.Equal(*again.PaidAt))
	assert.Equal(t, int64(2), testutil.CountCards(t, f.db, product.ID, model.CardStatusSold))
	assert.Equal(t, int64(1), testutil.CountCards(t, f.db, product.ID, model.CardStatusUnsold))
	testutil.AssertCardInvariant(t, f.db)
}

func TestTransition_CloseReleasesCards(t *testing.T) {
	f := newFixture(t)
	product := testutil.SeedProduct(t, f.db)
	testutil.SeedCards(t, f.db, product.ID, 3)
	order := f.placeOrder(t, product.ID, 2)

	res, err := f.machine.Transition(context.Background(), order.ID, model.OrderStatusClosed)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, int64(2), res.Released)

	assert.Equal(t, model.OrderStatusClosed, testutil.Order(t, f.db, order.ID).Status)
	assert.Equal(t, int64(3), testutil.CountCards(t, f.db, product.ID, model.CardStatusUnsold))
	for _, card := range testutil.Cards(t, f.db, product.ID) {
		assert.Nil(t, card.OrderID)
	}

	res, err = f.machine.Transition(context.Background(), order.ID, model.OrderStatusClosed)
	require.NoError(t, err)
	assert.False(t, res.Changed)
}

func TestTransition_TerminalStatesAreFinal(t *testing.T) {
	tests := []struct {
		name  string
		first model.OrderStatus
		then  model.OrderStatus
	}{
		{"completed cannot close", model.OrderStatusCompleted, model.OrderStatusClosed},
		{"closed cannot complete", model.OrderStatusClosed, model.OrderStatusCompleted},
		{"completed cannot reopen", model.OrderStatusCompleted, model.OrderStatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			product := testutil.SeedProduct(t, f.db)
			testutil.SeedCards(t, f.db, product.ID, 2)
			order := f.placeOrder(t, product.ID, 2)

			_, err := f.machine.Transition(context.Background(), order.ID, tt.first)
			require.NoError(t, err)
			cardsBefore := testutil.Cards(t, f.db, product.ID)

			_, err = f.machine.Transition(context.Background(), order.ID, tt.then)
			var appErr *apperrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, apperrors.KindConflict, appErr.Kind)
			assert.Equal(t, apperrors.CodeInvalidTransition, appErr.Code)

			assert.Equal(t, tt.first, testutil.Order(t, f.db, order.ID).Status)
			assert.Equal(t, cardsBefore, testutil.Cards(t, f.db, product.ID))
		})
	}
}

func TestTransition_Errors(t *testing.T) {
	f := newFixture(t)

	_, err := f.machine.Transition(context.Background(), uuid.New(), model.OrderStatusClosed)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	_, err = f.machine.Transition(context.Background(), uuid.New(), model.OrderStatus("REFUNDED"))
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}
