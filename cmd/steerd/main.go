// Command steerd serves the steering session runtime over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/charmbracelet/log"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/tenantwise/steering"
	"github.com/tenantwise/steering/compaction"
	"github.com/tenantwise/steering/hooks"
	"github.com/tenantwise/steering/httpapi"
	"github.com/tenantwise/steering/llm"
	"github.com/tenantwise/steering/memstore"
	"github.com/tenantwise/steering/pgstore"
	"github.com/tenantwise/steering/skill"
	"github.com/tenantwise/steering/store"
)

const defaultPreamble = "You are a capable assistant driving long-running tasks for one user. Work step by step, use the tools available to you, and load skills when a task needs capabilities you do not yet have."

type serveOptions struct {
	addr            string
	databaseURL     string
	skillsDir       string
	preambleFile    string
	model           string
	summarizerModel string
	softLimit       int
	hardLimit       int
	toolLimit       int
	logLevel        string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "steerd",
		Short:        "Multi-tenant conversational agent session server",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd())
	return root
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.addr, "addr", ":8080", "listen address")
	flags.StringVar(&opts.databaseURL, "db", os.Getenv("DATABASE_URL"), "postgres DSN; empty uses the in-memory store")
	flags.StringVar(&opts.skillsDir, "skills", "", "directory of skill manifests")
	flags.StringVar(&opts.preambleFile, "preamble", "", "file holding the system preamble text")
	flags.StringVar(&opts.model, "model", llm.DefaultModel, "model for turn execution")
	flags.StringVar(&opts.summarizerModel, "summarizer-model", llm.DefaultSummarizerModel, "model for compaction summaries")
	flags.IntVar(&opts.softLimit, "soft-turn-limit", compaction.DefaultSoftTurnLimit, "event count that triggers the context advisory")
	flags.IntVar(&opts.hardLimit, "hard-turn-limit", compaction.DefaultHardTurnLimit, "event count that triggers forced compaction")
	flags.IntVar(&opts.toolLimit, "tool-advisory-limit", compaction.DefaultToolAdvisoryLimit, "tool count that triggers a logged warning")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	return cmd
}

func runServe(ctx context.Context, opts *serveOptions) error {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "steerd",
	})
	if level, err := log.ParseLevel(opts.logLevel); err == nil {
		logger.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, cleanup, err := buildStore(ctx, opts, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	preamble := defaultPreamble
	if opts.preambleFile != "" {
		raw, err := os.ReadFile(opts.preambleFile)
		if err != nil {
			return fmt.Errorf("reading preamble: %w", err)
		}
		preamble = string(raw)
	}

	skills := skill.NewManager()
	if opts.skillsDir != "" {
		if err := skills.LoadDir(opts.skillsDir); err != nil {
			return fmt.Errorf("loading skills: %w", err)
		}
		logger.Info("skills loaded", "dir", opts.skillsDir, "count", len(skills.Manifests()))
	}

	anthropicClient := anthropic.NewClient()
	model, err := llm.NewClient(&anthropicClient, llm.Config{Model: opts.model})
	if err != nil {
		return err
	}
	summarizer, err := llm.NewSummarizer(&anthropicClient, opts.summarizerModel, 0)
	if err != nil {
		return err
	}

	hookRegistry := hooks.NewRegistry()
	hooks.RegisterLogging(hookRegistry, logger)

	registry, err := steering.NewRegistry(steering.Config{
		Preamble: preamble,
		Thresholds: compaction.Config{
			SoftTurnLimit:     opts.softLimit,
			HardTurnLimit:     opts.hardLimit,
			ToolAdvisoryLimit: opts.toolLimit,
		},
		Logger: logger,
	}, st, model, summarizer, skills, hookRegistry)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:    opts.addr,
		Handler: httpapi.NewServer(registry, logger).Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", opts.addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildStore(ctx context.Context, opts *serveOptions, logger *log.Logger) (store.Store, func(), error) {
	if opts.databaseURL == "" {
		logger.Info("using in-memory store")
		return memstore.New(), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, opts.databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	st := pgstore.New(pool)
	if err := st.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.Info("using postgres store")
	return st, pool.Close, nil
}
