// Package payment integrates with payment providers: pay URL creation and signed notification parsing.
package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cardshop/internal/config"
)

// ErrInvalidSignature is returned when a notification fails verification.
var ErrInvalidSignature = errors.New("invalid notification signature")

// Trade statuses that mean the buyer paid.
const (
	TradeStatusSuccess  = "TRADE_SUCCESS"
	TradeStatusFinished = "TRADE_FINISHED"
	TradeStateSuccess   = "SUCCESS"
)

// PayRequest describes what the buyer is asked to pay.
type PayRequest struct {
	OrderNo string
	Amount  decimal.Decimal
	Subject string
}

// Notification is a verified provider callback.
type Notification struct {
	Provider    string
	OutTradeNo  string
	TradeNo     string
	Amount      string
	TradeStatus string
}

// Paid reports whether the provider considers the trade paid.
func (n *Notification) Paid() bool {
	switch n.TradeStatus {
	case TradeStatusSuccess, TradeStatusFinished, TradeStateSuccess:
		return true
	}
	return false
}

// Gateway is one payment provider.
type Gateway interface {
	Name() string
	BuildPayURL(ctx context.Context, req PayRequest) (string, error)
	// ParseNotify verifies the provider signature over the raw callback and decodes it.
	ParseNotify(ctx context.Context, r *http.Request) (*Notification, error)
}

// Registry holds the enabled providers.
type Registry struct {
	gateways    map[string]Gateway
	defaultName string
}

// NewRegistry enables every configured provider.
func NewRegistry(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Registry, error) {
	r := &Registry{gateways: map[string]Gateway{}}

	if cfg.Payment.Alipay.AppID != "" {
		gw, err := NewAlipay(cfg.Payment.Alipay)
		if err != nil {
			return nil, fmt.Errorf("init alipay: %w", err)
		}
		r.Register(gw)
	}
	if cfg.Payment.Wechat.MchID != "" {
		gw, err := NewWechat(ctx, cfg.Payment.Wechat)
		if err != nil {
			return nil, fmt.Errorf("init wechat pay: %w", err)
		}
		r.Register(gw)
	}

	if name := cfg.Payment.DefaultProvider; name != "" {
		if _, ok := r.gateways[name]; !ok {
			return nil, fmt.Errorf("default payment provider %q is not configured", name)
		}
		r.defaultName = name
	}
	if len(r.gateways) == 0 {
		logger.Info("no payment provider configured, orders fall back to manual completion")
	}
	return r, nil
}

// Register adds a gateway. The first one registered becomes the default.
func (r *Registry) Register(gw Gateway) {
	r.gateways[gw.Name()] = gw
	if r.defaultName == "" {
		r.defaultName = gw.Name()
	}
}

// Get returns a provider by name.
func (r *Registry) Get(name string) (Gateway, bool) {
	if r == nil {
		return nil, false
	}
	gw, ok := r.gateways[name]
	return gw, ok
}

// Default returns the provider used for new orders, or nil when none is enabled.
func (r *Registry) Default() Gateway {
	if r == nil || r.defaultName == "" {
		return nil
	}
	return r.gateways[r.defaultName]
}
