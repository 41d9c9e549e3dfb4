package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/asad/userstate/internal/chain"
	"github.com/asad/userstate/internal/config"
	"github.com/asad/userstate/internal/core"
	"github.com/asad/userstate/internal/events"
	"github.com/asad/userstate/internal/httpx"
	"github.com/asad/userstate/internal/logging"
	"github.com/asad/userstate/internal/origin"
	"github.com/asad/userstate/internal/runtime"
	"github.com/asad/userstate/internal/services/usermap"
	"github.com/asad/userstate/internal/services/userstate"
	"github.com/asad/userstate/internal/state"
)

var (
	// Version is set at build time via ldflags.
	// Example: go build -ldflags "-X github.com/asad/userstate/internal/cli.Version=1.0.0"
	Version = "dev"

	envFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "userstate",
	Short: "Per-account coordinate state node",
	Long: `userstate runs a small state-transition node that stores one coordinate
record per signed account and emits an event for every change.

Two modules are available: "userstate" keeps (block, x, y) per account and
"usermap" keeps (block, optional point) per account.`,
	SilenceUsage: true,
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the node",
	Long: `Start the node's HTTP API and block production on the configured port.
Configuration is read from the environment, optionally seeded from an env file.`,
	RunE: runStart,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "userstate version %s\n", Version)
	},
}

func init() {
	startCmd.Flags().StringVar(&envFile, "env-file", ".env", "optional file of KEY=VALUE pairs loaded before reading the environment")
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute is the entry point for the CLI. It should be called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadEnvFile seeds the environment from path. A missing file is not an error;
// variables already set in the environment win.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// chainNamespace is the storage namespace holding the chain head.
const chainNamespace = "chain"

func stringKey(s string) []byte { return []byte(s) }

// node holds everything runStart wires together.
type node struct {
	clock   *chain.Clock
	exec    *runtime.Executive
	handler http.Handler
	closers []func() error
}

func (n *node) close() {
	for _, c := range n.closers {
		_ = c()
	}
}

// newNode builds storage, the executive, the modules and the router from cfg.
// With the sqlite backend the chain head is stored next to module state, so a
// restarted node resumes at the height it stopped at.
func newNode(ctx context.Context, cfg *config.Config, logger logging.Logger) (*node, error) {
	n := &node{}

	var (
		stateUsers userstate.Store
		mapUsers   usermap.Store
	)
	switch cfg.StorageBackend {
	case config.BackendSQLite:
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		db, err := state.OpenDB(ctx, filepath.Join(cfg.DataDir, "state.db"))
		if err != nil {
			return nil, fmt.Errorf("failed to open state database: %w", err)
		}
		n.closers = append(n.closers, db.Close)

		heads := state.NewSQLiteMap[string, uint64](db, chainNamespace, stringKey)
		n.clock, err = chain.OpenClock(ctx, cfg.GenesisBlock, heads)
		if err != nil {
			n.close()
			return nil, err
		}
		stateUsers = state.NewSQLiteMap[origin.AccountID, userstate.UserState](db, userstate.ModuleName, origin.AccountID.Bytes)
		mapUsers = state.NewSQLiteMap[origin.AccountID, usermap.UserEntry](db, usermap.ModuleName, origin.AccountID.Bytes)
	default:
		n.clock = chain.NewClock(cfg.GenesisBlock)
		stateUsers = state.NewMemoryMap[origin.AccountID, userstate.UserState]()
		mapUsers = state.NewMemoryMap[origin.AccountID, usermap.UserEntry]()
	}

	logger.Info("chain head",
		logging.Uint64("block_number", n.clock.BlockNumber()),
		logging.Uint64("genesis_block", cfg.GenesisBlock),
	)

	log := events.NewMemoryLog()
	n.exec = runtime.NewExecutive(n.clock, log, logger)

	registry := core.NewRegistry()
	registry.Register(userstate.NewService(
		userstate.NewPallet(stateUsers, n.exec, n.exec, logger),
		n.exec, logger,
	))
	registry.Register(usermap.NewService(
		usermap.NewPallet(mapUsers, n.exec, n.exec, logger),
		n.exec, logger,
	))

	logger.Info("registered modules",
		logging.Int("count", len(registry.Modules())),
	)

	n.handler = httpx.NewRouter(cfg, registry, httpx.Host{Clock: n.clock, Events: log}, logger)
	return n, nil
}

// runStart initializes the node and serves until interrupted.
func runStart(cmd *cobra.Command, args []string) error {
	if err := loadEnvFile(envFile); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("starting userstate",
		logging.String("version", Version),
		logging.Int("http_port", cfg.HTTPPort),
		logging.String("storage_backend", cfg.StorageBackend),
		logging.String("data_dir", cfg.DataDir),
		logging.Duration("block_time", cfg.BlockTime),
		logging.String("log_level", cfg.LogLevel),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	n, err := newNode(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer n.close()

	if cfg.BlockTime > 0 {
		go n.clock.Run(ctx, cfg.BlockTime, logger)
	}

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	server := &http.Server{
		Addr:              addr,
		Handler:           n.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", logging.String("address", addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
