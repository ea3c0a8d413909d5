package payment

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/wechatpay-apiv3/wechatpay-go/core"
	"github.com/wechatpay-apiv3/wechatpay-go/core/auth/verifiers"
	"github.com/wechatpay-apiv3/wechatpay-go/core/downloader"
	"github.com/wechatpay-apiv3/wechatpay-go/core/notify"
	"github.com/wechatpay-apiv3/wechatpay-go/core/option"
	"github.com/wechatpay-apiv3/wechatpay-go/services/payments"
	"github.com/wechatpay-apiv3/wechatpay-go/services/payments/native"
	"github.com/wechatpay-apiv3/wechatpay-go/utils"

	"cardshop/internal/config"
)

const wechatName = "wechat"

// Wechat implements WeChat Pay Native: the pay URL is a code_url rendered as a QR code.
type Wechat struct {
	cfg     config.WechatConfig
	client  *core.Client
	handler *notify.Handler
}

// NewWechat builds the API client and the notification handler.
func NewWechat(ctx context.Context, cfg config.WechatConfig) (*Wechat, error) {
	mchPrivateKey, err := utils.LoadPrivateKeyWithPath(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("load merchant private key: %w", err)
	}

	opts := []core.ClientOption{
		option.WithWechatPayAutoAuthCipher(cfg.MchID, cfg.SerialNo, mchPrivateKey, cfg.APIv3Key),
	}
	client, err := core.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("new wechat pay client: %w", err)
	}

	visitor := downloader.MgrInstance().GetCertificateVisitor(cfg.MchID)
	handler, err := notify.NewRSANotifyHandler(cfg.APIv3Key, verifiers.NewSHA256WithRSAVerifier(visitor))
	if err != nil {
		return nil, fmt.Errorf("new notify handler: %w", err)
	}

	return &Wechat{cfg: cfg, client: client, handler: handler}, nil
}

func (w *Wechat) Name() string { return wechatName }

// BuildPayURL places a Native prepay order and returns its code_url.
func (w *Wechat) BuildPayURL(ctx context.Context, req PayRequest) (string, error) {
	svc := native.NativeApiService{Client: w.client}
	resp, _, err := svc.Prepay(ctx, native.PrepayRequest{
		Appid:       core.String(w.cfg.AppID),
		Mchid:       core.String(w.cfg.MchID),
		Description: core.String(req.Subject),
		OutTradeNo:  core.String(req.OrderNo),
		NotifyUrl:   core.String(w.cfg.NotifyURL),
		Amount: &native.Amount{
			Total:    core.Int64(toCents(req.Amount)),
			Currency: core.String("CNY"),
		},
	})
	if err != nil {
		return "", fmt.Errorf("native prepay: %w", err)
	}
	if resp.CodeUrl == nil {
		return "", fmt.Errorf("native prepay: empty code_url")
	}
	return *resp.CodeUrl, nil
}

// ParseNotify verifies and decrypts a payment notification.
func (w *Wechat) ParseNotify(ctx context.Context, r *http.Request) (*Notification, error) {
	transaction := new(payments.Transaction)
	if _, err := w.handler.ParseNotifyRequest(ctx, r, transaction); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return transactionNotification(transaction), nil
}

func transactionNotification(tx *payments.Transaction) *Notification {
	n := &Notification{Provider: wechatName}
	if tx.OutTradeNo != nil {
		n.OutTradeNo = *tx.OutTradeNo
	}
	if tx.TransactionId != nil {
		n.TradeNo = *tx.TransactionId
	}
	if tx.TradeState != nil {
		n.TradeStatus = *tx.TradeState
	}
	if tx.Amount != nil && tx.Amount.Total != nil {
		n.Amount = decimal.New(*tx.Amount.Total, -2).StringFixed(2)
	}
	return n
}

func toCents(amount decimal.Decimal) int64 {
	return amount.Round(2).Shift(2).IntPart()
}
