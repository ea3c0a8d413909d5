package payment

import (
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/wechatpay-apiv3/wechatpay-go/utils"

	"cardshop/internal/config"
)

const (
	alipayName          = "alipay"
	alipayMethodPagePay = "alipay.trade.page.pay"
	alipayTimeLayout    = "2006-01-02 15:04:05"
)

// Alipay implements page pay with RSA2 signatures.
type Alipay struct {
	cfg        config.AlipayConfig
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	now        func() time.Time
}

// NewAlipay loads the merchant private key and the Alipay public key.
func NewAlipay(cfg config.AlipayConfig) (*Alipay, error) {
	privateKey, err := utils.LoadPrivateKey(pemBlock(cfg.PrivateKey, "PRIVATE KEY"))
	if err != nil {
		return nil, fmt.Errorf("load merchant private key: %w", err)
	}
	publicKey, err := utils.LoadPublicKey(pemBlock(cfg.PublicKey, "PUBLIC KEY"))
	if err != nil {
		return nil, fmt.Errorf("load alipay public key: %w", err)
	}
	return &Alipay{cfg: cfg, privateKey: privateKey, publicKey: publicKey, now: time.Now}, nil
}

func (a *Alipay) Name() string { return alipayName }

// BuildPayURL returns the signed page pay redirect.
func (a *Alipay) BuildPayURL(_ context.Context, req PayRequest) (string, error) {
	biz, err := json.Marshal(map[string]string{
		"out_trade_no": req.OrderNo,
		"total_amount": req.Amount.StringFixed(2),
		"subject":      req.Subject,
		"product_code": "FAST_INSTANT_TRADE_PAY",
	})
	if err != nil {
		return "", fmt.Errorf("marshal biz content: %w", err)
	}

	params := url.Values{}
	params.Set("app_id", a.cfg.AppID)
	params.Set("method", alipayMethodPagePay)
	params.Set("format", "JSON")
	params.Set("charset", "utf-8")
	params.Set("sign_type", "RSA2")
	params.Set("timestamp", a.now().Format(alipayTimeLayout))
	params.Set("version", "1.0")
	params.Set("biz_content", string(biz))
	if a.cfg.NotifyURL != "" {
		params.Set("notify_url", a.cfg.NotifyURL)
	}
	if a.cfg.ReturnURL != "" {
		params.Set("return_url", a.cfg.ReturnURL)
	}

	signature, err := utils.SignSHA256WithRSA(canonicalize(params), a.privateKey)
	if err != nil {
		return "", fmt.Errorf("sign pay request: %w", err)
	}
	params.Set("sign", signature)
	return a.cfg.Gateway + "?" + params.Encode(), nil
}

// ParseNotify verifies an asynchronous notification posted as a form.
func (a *Alipay) ParseNotify(_ context.Context, r *http.Request) (*Notification, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("parse notify form: %w", err)
	}
	form := r.PostForm
	if len(form) == 0 {
		form = r.Form
	}

	if err := a.verify(form); err != nil {
		return nil, err
	}
	if appID := form.Get("app_id"); appID != "" && appID != a.cfg.AppID {
		return nil, fmt.Errorf("notify for app %s: %w", appID, ErrInvalidSignature)
	}

	return &Notification{
		Provider:    alipayName,
		OutTradeNo:  form.Get("out_trade_no"),
		TradeNo:     form.Get("trade_no"),
		Amount:      form.Get("total_amount"),
		TradeStatus: form.Get("trade_status"),
	}, nil
}

func (a *Alipay) verify(form url.Values) error {
	raw := form.Get("sign")
	if raw == "" {
		return ErrInvalidSignature
	}
	signature, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return ErrInvalidSignature
	}

	unsigned := url.Values{}
	for k, v := range form {
		if k == "sign" || k == "sign_type" {
			continue
		}
		unsigned[k] = v
	}
	digest := sha256.Sum256([]byte(canonicalize(unsigned)))
	if err := rsa.VerifyPKCS1v15(a.publicKey, crypto.SHA256, digest[:], signature); err != nil {
		return ErrInvalidSignature
	}
	return nil
}

// canonicalize joins non-empty params as sorted k=v pairs, the string Alipay signs.
func canonicalize(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "sign" || params.Get(k) == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params.Get(k))
	}
	return b.String()
}

// pemBlock accepts either a PEM document or the bare base64 body Alipay's console hands out.
func pemBlock(key, kind string) string {
	key = strings.TrimSpace(key)
	if strings.HasPrefix(key, "-----BEGIN") {
		return key
	}
	var b strings.Builder
	b.WriteString("-----BEGIN " + kind + "-----\n")
	for len(key) > 64 {
		b.WriteString(key[:64] + "\n")
		key = key[64:]
	}
	if key != "" {
		b.WriteString(key + "\n")
	}
	b.WriteString("-----END " + kind + "-----\n")
	return b.String()
}
