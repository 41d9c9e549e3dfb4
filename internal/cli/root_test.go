package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asad/userstate/internal/config"
	"github.com/asad/userstate/internal/httpx"
	"github.com/asad/userstate/internal/logging"
	"github.com/asad/userstate/internal/origin"
)

func testConfig(backend, dataDir string) *config.Config {
	return &config.Config{
		HTTPPort:       4590,
		DataDir:        dataDir,
		StorageBackend: backend,
		EnabledModules: []string{"userstate", "usermap"},
		LogLevel:       "error",
	}
}

func call(h http.Handler, method, path string, signer origin.AccountID, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(httpx.HeaderSigner, signer.String())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

type eventList struct {
	Events []struct {
		BlockNumber uint64          `json:"block_number"`
		Module      string          `json:"module"`
		Name        string          `json:"name"`
		Event       json.RawMessage `json:"event"`
	} `json:"events"`
}

func TestNode_Scenario(t *testing.T) {
	for _, backend := range []string{config.BackendMemory, config.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			n, err := newNode(context.Background(), testConfig(backend, t.TempDir()), logging.NewNop())
			require.NoError(t, err)
			defer n.close()

			var alice origin.AccountID
			alice[0] = 0xaa

			require.NoError(t, n.clock.SetBlockNumber(10))
			require.Equal(t, http.StatusCreated, call(n.handler, http.MethodPost, "/userstate/users", alice, `{"x":1,"y":2}`).Code)

			require.NoError(t, n.clock.SetBlockNumber(15))
			require.Equal(t, http.StatusOK, call(n.handler, http.MethodPut, "/userstate/users", alice, `{"x":5,"y":6}`).Code)

			require.NoError(t, n.clock.SetBlockNumber(20))
			require.Equal(t, http.StatusOK, call(n.handler, http.MethodDelete, "/userstate/users", alice, "").Code)

			w := call(n.handler, http.MethodGet, "/events?module=userstate", alice, "")
			require.Equal(t, http.StatusOK, w.Code)

			var list eventList
			require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
			require.Len(t, list.Events, 3)
			assert.Equal(t, "UserAdded", list.Events[0].Name)
			assert.Equal(t, "UserInfoChanged", list.Events[1].Name)
			assert.Equal(t, "UserRemoved", list.Events[2].Name)
			assert.Equal(t, uint64(20), list.Events[2].BlockNumber)
			assert.JSONEq(t,
				`{"who":"`+alice.String()+`","user_state":{"last_updated_block":20,"x":5,"y":6}}`,
				string(list.Events[2].Event))

			// the key is free again
			assert.Equal(t, http.StatusCreated, call(n.handler, http.MethodPost, "/userstate/users", alice, `{"x":0,"y":0}`).Code)
		})
	}
}

func TestNode_ChainEndpoints(t *testing.T) {
	cfg := testConfig(config.BackendMemory, "")
	cfg.GenesisBlock = 3
	n, err := newNode(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	defer n.close()

	var who origin.AccountID
	w := call(n.handler, http.MethodGet, "/chain/head", who, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"block_number":3}`, w.Body.String())

	w = call(n.handler, http.MethodPost, "/chain/blocks?n=4", who, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint64(7), n.clock.BlockNumber())

	assert.Equal(t, http.StatusBadRequest, call(n.handler, http.MethodPost, "/chain/blocks?n=0", who, "").Code)
	assert.Equal(t, http.StatusBadRequest, call(n.handler, http.MethodPost, "/chain/blocks?n=18446744073709551615", who, "").Code)
	assert.Equal(t, uint64(7), n.clock.BlockNumber())
	assert.Equal(t, http.StatusOK, call(n.handler, http.MethodGet, "/health", who, "").Code)
}

func TestNode_SQLiteRestartKeepsHead(t *testing.T) {
	dataDir := t.TempDir()
	var alice origin.AccountID
	alice[0] = 0xaa

	first, err := newNode(context.Background(), testConfig(config.BackendSQLite, dataDir), logging.NewNop())
	require.NoError(t, err)
	require.NoError(t, first.clock.SetBlockNumber(500))
	require.Equal(t, http.StatusCreated, call(first.handler, http.MethodPost, "/userstate/users", alice, `{"x":1,"y":2}`).Code)
	first.close()

	second, err := newNode(context.Background(), testConfig(config.BackendSQLite, dataDir), logging.NewNop())
	require.NoError(t, err)
	defer second.close()
	assert.Equal(t, uint64(500), second.clock.BlockNumber())

	require.Equal(t, http.StatusOK, call(second.handler, http.MethodPut, "/userstate/users", alice, `{"x":3,"y":4}`).Code)

	w := call(second.handler, http.MethodGet, "/userstate/users/"+alice.String(), alice, "")
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		UserState struct {
			LastUpdatedBlock uint64 `json:"last_updated_block"`
		} `json:"user_state"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, uint64(500), got.UserState.LastUpdatedBlock)
}

func TestNode_SQLiteGenesisAboveStoredHead(t *testing.T) {
	dataDir := t.TempDir()

	first, err := newNode(context.Background(), testConfig(config.BackendSQLite, dataDir), logging.NewNop())
	require.NoError(t, err)
	require.NoError(t, first.clock.SetBlockNumber(40))
	first.close()

	cfg := testConfig(config.BackendSQLite, dataDir)
	cfg.GenesisBlock = 100
	second, err := newNode(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	defer second.close()
	assert.Equal(t, uint64(100), second.clock.BlockNumber())
}

func TestNode_DisabledModule(t *testing.T) {
	cfg := testConfig(config.BackendMemory, "")
	cfg.EnabledModules = []string{"usermap"}
	n, err := newNode(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	defer n.close()

	var who origin.AccountID
	assert.Equal(t, http.StatusNotFound, call(n.handler, http.MethodPost, "/userstate/users", who, `{"x":1,"y":2}`).Code)
	assert.Equal(t, http.StatusCreated, call(n.handler, http.MethodPost, "/usermap/users", who, "").Code)
}

func TestLoadEnvFile(t *testing.T) {
	assert.NoError(t, loadEnvFile(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), "node.env")
	require.NoError(t, os.WriteFile(path, []byte("USERSTATE_TEST_KEY=from-file\n"), 0644))
	t.Setenv("USERSTATE_TEST_KEY", "")
	os.Unsetenv("USERSTATE_TEST_KEY")

	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "from-file", os.Getenv("USERSTATE_TEST_KEY"))
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "userstate version dev")
}
