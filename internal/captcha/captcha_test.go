package captcha

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardshop/internal/config"
)

func TestTurnstile_Verify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "secret", r.PostForm.Get("secret"))
		w.Header().Set("Content-Type", "application/json")
		if r.PostForm.Get("response") == "good" {
			_, _ = w.Write([]byte(`{"success":true,"hostname":"shop.test"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":false,"error-codes":["invalid-input-response"]}`))
	}))
	defer srv.Close()

	v := NewTurnstile("secret", srv.URL, srv.Client())
	ctx := context.Background()

	assert.NoError(t, v.Verify(ctx, "good", "1.2.3.4"))
	assert.ErrorIs(t, v.Verify(ctx, "bad", "1.2.3.4"), ErrChallengeFailed)
	assert.ErrorIs(t, v.Verify(ctx, "", "1.2.3.4"), ErrChallengeFailed)
}

func TestTurnstile_ProviderDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewTurnstile("secret", srv.URL, srv.Client()).Verify(context.Background(), "good", "")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrChallengeFailed)
}

func TestNew_DisabledWithoutSecret(t *testing.T) {
	cfg := config.Defaults()
	assert.Nil(t, New(cfg))

	cfg.Captcha.Secret = "s"
	assert.NotNil(t, New(cfg))
}
