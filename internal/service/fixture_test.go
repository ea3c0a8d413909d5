package service

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"cardshop/internal/config"
	"cardshop/internal/model"
	"cardshop/internal/payment"
	"cardshop/internal/repository"
	"cardshop/internal/testutil"
)

type recordingNotifier struct {
	mu        sync.Mutex
	completed []uuid.UUID
	restocked map[uuid.UUID][]string
}

func (n *recordingNotifier) OrderCompleted(orderID uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed = append(n.completed, orderID)
}

func (n *recordingNotifier) RestockAvailable(product *model.Product, subs []model.RestockSubscription) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.restocked == nil {
		n.restocked = map[uuid.UUID][]string{}
	}
	for _, sub := range subs {
		n.restocked[product.ID] = append(n.restocked[product.ID], sub.Email)
	}
}

func (n *recordingNotifier) completions(orderID uuid.UUID) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, id := range n.completed {
		if id == orderID {
			count++
		}
	}
	return count
}

// formGateway trusts its form. It stands in for a provider whose signature already verified.
type formGateway struct {
	name   string
	payErr error
}

func (g *formGateway) Name() string { return g.name }

func (g *formGateway) BuildPayURL(_ context.Context, req payment.PayRequest) (string, error) {
	if g.payErr != nil {
		return "", g.payErr
	}
	return fmt.Sprintf("https://pay.example.com/%s?amount=%s", req.OrderNo, req.Amount.StringFixed(2)), nil
}

func (g *formGateway) ParseNotify(_ context.Context, r *http.Request) (*payment.Notification, error) {
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	if r.Form.Get("sign") != "ok" {
		return nil, payment.ErrInvalidSignature
	}
	return &payment.Notification{
		Provider:    g.name,
		OutTradeNo:  r.Form.Get("out_trade_no"),
		Amount:      r.Form.Get("total_amount"),
		TradeStatus: r.Form.Get("trade_status"),
	}, nil
}

type fixture struct {
	db       *gorm.DB
	store    repository.Store
	cfg      config.OrderConfig
	notifier *recordingNotifier
	gateways *payment.Registry
	machine  StateMachine
	restocks RestockService
	orders   OrderService
	payments PaymentService
	admin    AdminOrderService
	lookup   LookupService
	sweeper  Sweeper
	cards    CardService
	products ProductService
}

func newFixture(t *testing.T, opts ...func(*config.OrderConfig)) *fixture {
	t.Helper()

	cfg := config.Defaults().Order
	cfg.AmountCeiling = decimal.RequireFromString(cfg.AmountCeilingRaw)
	for _, opt := range opts {
		opt(&cfg)
	}

	gormDB := testutil.NewDB(t)
	store := repository.NewStore(gormDB)
	logger := zap.NewNop()
	notifier := &recordingNotifier{}

	gateways, err := payment.NewRegistry(context.Background(), config.Defaults(), logger)
	require.NoError(t, err)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	machine := NewStateMachine(store)
	restocks := NewRestockService(store, notifier, logger)
	return &fixture{
		db:       gormDB,
		store:    store,
		cfg:      cfg,
		notifier: notifier,
		gateways: gateways,
		machine:  machine,
		restocks: restocks,
		orders:   NewOrderService(store, gateways, nil, cfg, logger),
		payments: NewPaymentService(store, machine, gateways, notifier, logger),
		admin:    NewAdminOrderService(store, machine, restocks, notifier, logger),
		lookup:   NewLookupService(store, machine, cfg, logger),
		sweeper:  NewSweeper(store, machine, restocks, cfg, logger),
		cards:    NewCardService(store, restocks, node, logger),
		products: NewProductService(store, nil, logger),
	}
}

// placeOrder creates an order through the reservation path and returns it reloaded.
func (f *fixture) placeOrder(t *testing.T, productID uuid.UUID, quantity int) *model.Order {
	t.Helper()

	res, err := f.orders.CreateOrder(context.Background(), CreateOrderInput{
		ProductID: productID,
		Email:     "buyer@example.com",
		Password:  "secret-pass",
		Quantity:  quantity,
	})
	require.NoError(t, err)

	order, err := f.store.Orders().FindByOrderNo(context.Background(), res.OrderNo)
	require.NoError(t, err)
	return order
}
