package usermap

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asad/userstate/internal/chain"
	"github.com/asad/userstate/internal/events"
	"github.com/asad/userstate/internal/httpx"
	"github.com/asad/userstate/internal/logging"
	"github.com/asad/userstate/internal/origin"
	"github.com/asad/userstate/internal/runtime"
	"github.com/asad/userstate/internal/state"
)

func setupTestService(t *testing.T) http.Handler {
	logger := logging.NewNop()
	exec := runtime.NewExecutive(chain.NewClock(7), events.NewMemoryLog(), logger)
	pallet := NewPallet(state.NewMemoryMap[origin.AccountID, UserEntry](), exec, exec, logger)

	router := chi.NewRouter()
	router.Use(httpx.SignerOrigin)
	NewService(pallet, exec, logger).RegisterRoutes(router)
	return router
}

func serve(router http.Handler, method, path, signer, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if signer != "" {
		req.Header.Set(httpx.HeaderSigner, signer)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestService_Flow(t *testing.T) {
	router := setupTestService(t)
	alice := account(1).String()

	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodPut, "/users", alice, `{"x":"1","y":"2"}`).Code)
	assert.Equal(t, http.StatusCreated, serve(router, http.MethodPost, "/users", alice, "").Code)
	assert.Equal(t, http.StatusConflict, serve(router, http.MethodPost, "/users", alice, "").Code)

	w := serve(router, http.MethodGet, "/users/"+alice, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"who":"`+alice+`","entry":{"block_number":7,"coordinates":null}}`, w.Body.String())

	assert.Equal(t, http.StatusOK, serve(router, http.MethodPut, "/users", alice, `{"x":"-170141183460469231731687303715884105728","y":3}`).Code)

	w = serve(router, http.MethodGet, "/users/"+alice, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Entry UserEntry `json:"entry"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	require.NotNil(t, got.Entry.Coordinates)
	assert.Equal(t, "-170141183460469231731687303715884105728", got.Entry.Coordinates.X.String())
	assert.Equal(t, NewI128(3), got.Entry.Coordinates.Y)

	assert.Equal(t, http.StatusOK, serve(router, http.MethodDelete, "/users", alice, "").Code)
	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/users/"+alice, "", "").Code)
}

func TestService_Rejections(t *testing.T) {
	router := setupTestService(t)
	bob := account(2).String()

	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodPost, "/users", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodDelete, "/users", "0xdead", "").Code)

	require.Equal(t, http.StatusCreated, serve(router, http.MethodPost, "/users", bob, "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(router, http.MethodPut, "/users", bob, `{"x":"1"}`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(router, http.MethodPut, "/users", bob, `{"x":"170141183460469231731687303715884105728","y":"0"}`).Code)
}
