package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "cardshop/internal/errors"
	"cardshop/internal/model"
	"cardshop/internal/payment"
	"cardshop/internal/testutil"
)

func notifyRequest(orderNo, amount, status, sign string) *http.Request {
	form := url.Values{}
	form.Set("out_trade_no", orderNo)
	form.Set("total_amount", amount)
	form.Set("trade_status", status)
	form.Set("sign", sign)
	req := httptest.NewRequest(http.MethodPost, "/api/payments/alipay/notify", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func paymentFixture(t *testing.T) (*fixture, *model.Product, *model.Order) {
	t.Helper()

	f := newFixture(t)
	f.gateways.Register(&formGateway{name: "alipay"})
	product := testutil.SeedProduct(t, f.db)
	testutil.SeedCards(t, f.db, product.ID, 3)
	return f, product, f.placeOrder(t, product.ID, 2)
}

func TestHandleNotify_CompletesOnceAndNotifiesOnce(t *testing.T) {
	f, product, order := paymentFixture(t)
	ctx := context.Background()

	require.NoError(t, f.payments.HandleNotify(ctx, "alipay", notifyRequest(order.OrderNo, "100.00", payment.TradeStatusSuccess, "ok")))

	paid := testutil.Order(t, f.db, order.ID)
	assert.Equal(t, model.OrderStatusCompleted, paid.Status)
	require.NotNil(t, paid.PaidAt)
	assert.Equal(t, int64(2), testutil.CountCards(t, f.db, product.ID, model.CardStatusSold))

	// provider redelivery
	require.NoError(t, f.payments.HandleNotify(ctx, "alipay", notifyRequest(order.OrderNo, "100.00", payment.TradeStatusFinished, "ok")))

	again := testutil.Order(t, f.db, order.ID)
	assert.True(t, paid.PaidAt.Equal(*again.PaidAt))
	assert.Equal(t, 1, f.notifier.completions(order.ID))
	testutil.AssertCardInvariant(t, f.db)
}

func TestHandleNotify_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		orderNo  string
		amount   string
		sign     string
		wantKind apperrors.Kind
	}{
		{name: "unknown provider", provider: "paypal", amount: "100.00", sign: "ok", wantKind: apperrors.KindNotFound},
		{name: "bad signature", provider: "alipay", amount: "100.00", sign: "forged", wantKind: apperrors.KindBadRequest},
		{name: "unknown order", provider: "alipay", orderNo: "NOPE", amount: "100.00", sign: "ok", wantKind: apperrors.KindNotFound},
		{name: "amount mismatch", provider: "alipay", amount: "99.99", sign: "ok", wantKind: apperrors.KindBadRequest},
		{name: "amount not two decimals", provider: "alipay", amount: "100", sign: "ok", wantKind: apperrors.KindBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _, order := paymentFixture(t)
			orderNo := tt.orderNo
			if orderNo == "" {
				orderNo = order.OrderNo
			}

			err := f.payments.HandleNotify(context.Background(), tt.provider, notifyRequest(orderNo, tt.amount, payment.TradeStatusSuccess, tt.sign))
			require.Error(t, err)
			assert.True(t, apperrors.IsKind(err, tt.wantKind), err)

			assert.Equal(t, model.OrderStatusPending, testutil.Order(t, f.db, order.ID).Status)
			assert.Empty(t, f.notifier.completed)
		})
	}
}

func TestHandleNotify_AcksWithoutChange(t *testing.T) {
	t.Run("unpaid status", func(t *testing.T) {
		f, _, order := paymentFixture(t)
		require.NoError(t, f.payments.HandleNotify(context.Background(), "alipay", notifyRequest(order.OrderNo, "100.00", "WAIT_BUYER_PAY", "ok")))
		assert.Equal(t, model.OrderStatusPending, testutil.Order(t, f.db, order.ID).Status)
	})

	t.Run("already closed", func(t *testing.T) {
		f, product, order := paymentFixture(t)
		_, err := f.machine.Transition(context.Background(), order.ID, model.OrderStatusClosed)
		require.NoError(t, err)

		require.NoError(t, f.payments.HandleNotify(context.Background(), "alipay", notifyRequest(order.OrderNo, "100.00", payment.TradeStatusSuccess, "ok")))
		assert.Equal(t, model.OrderStatusClosed, testutil.Order(t, f.db, order.ID).Status)
		assert.Equal(t, int64(3), testutil.CountCards(t, f.db, product.ID, model.CardStatusUnsold))
		assert.Empty(t, f.notifier.completed)
	})
}
