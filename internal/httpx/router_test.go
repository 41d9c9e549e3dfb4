package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asad/userstate/internal/chain"
	"github.com/asad/userstate/internal/config"
	"github.com/asad/userstate/internal/core"
	"github.com/asad/userstate/internal/events"
	"github.com/asad/userstate/internal/logging"
	"github.com/asad/userstate/internal/origin"
)

// whoami echoes the resolved origin.
type whoami struct{}

func (whoami) Name() string { return "whoami" }

func (whoami) RegisterRoutes(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(origin.FromContext(r.Context()).String()))
	})
}

func setupRouter(t *testing.T) (http.Handler, *events.MemoryLog) {
	registry := core.NewRegistry()
	registry.Register(whoami{})

	log := events.NewMemoryLog()
	cfg := &config.Config{EnabledModules: []string{"whoami"}}
	return NewRouter(cfg, registry, Host{Clock: chain.NewClock(0), Events: log}, logging.NewNop()), log
}

func TestRouter_SignerOrigin(t *testing.T) {
	router, _ := setupRouter(t)
	signer := "0x" + strings.Repeat("01", origin.AccountIDLen)

	req := httptest.NewRequest(http.MethodGet, "/whoami/", nil)
	req.Header.Set(HeaderSigner, signer)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "signed("+signer+")", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/whoami/", nil)
	req.Header.Set(HeaderSigner, "garbage")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "none", w.Body.String())
}

type tick struct{}

func (tick) Module() string { return "clock" }
func (tick) Name() string   { return "Tick" }

func TestRouter_Events(t *testing.T) {
	router, log := setupRouter(t)
	ctx := context.Background()
	require.NoError(t, log.Append(ctx, events.Record{BlockNumber: 1, Module: "clock", Name: "Tick", Event: tick{}}))
	require.NoError(t, log.Append(ctx, events.Record{BlockNumber: 2, Module: "other", Name: "Tock"}))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events?module=clock", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"events":[{"block_number":1,"index":0,"module":"clock","name":"Tick","event":{}}]}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events?from=abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_ChainBlocksOverflow(t *testing.T) {
	clock := chain.NewClock(10)
	cfg := &config.Config{}
	router := NewRouter(cfg, core.NewRegistry(), Host{Clock: clock}, logging.NewNop())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chain/blocks?n=18446744073709551615", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, uint64(10), clock.BlockNumber())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chain/blocks?n=5", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"block_number":15}`, w.Body.String())
}
