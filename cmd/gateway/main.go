package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hubenschmidt/asr-llm-tts-poc/calltrace/internal/logging"
	"github.com/hubenschmidt/asr-llm-tts-poc/calltrace/internal/trace"
	"github.com/hubenschmidt/asr-llm-tts-poc/calltrace/internal/ws"
)

func main() {
	cfg := loadConfig()
	logOut := logging.Setup(cfg.log)
	if c, ok := logOut.(io.Closer); ok {
		defer c.Close()
	}

	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Second)
	store, closeStore, err := openStore(initCtx, cfg)
	initCancel()
	if err != nil {
		slog.Error("open trace store", "backend", cfg.storeBackend, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	if cfg.seedSamples {
		seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
		n, seedErr := trace.Seed(seedCtx, store, trace.SampleRecords(time.Now()))
		seedCancel()
		if seedErr != nil {
			slog.Warn("seed sample traces", "error", seedErr)
		} else {
			slog.Info("sample traces seeded", "count", n)
		}
	}

	// Finished sessions go to the remote persistence service when one is
	// configured, otherwise straight into the local store.
	var sink trace.Appender = store
	if cfg.persistenceURL != "" {
		sink = trace.NewClient(cfg.persistenceURL, cfg.persistencePool, cfg.submitTimeout)
		slog.Info("submitting sessions to remote persistence", "url", cfg.persistenceURL)
	}
	submitter := trace.NewSubmitter(sink, trace.SubmitterOptions{
		Buffer:  cfg.submitBuffer,
		Timeout: cfg.submitTimeout,
	})

	handler := ws.NewHandler(ws.HandlerConfig{
		Submitter:     submitter,
		Defaults:      cfg.defaults,
		MaxConcurrent: cfg.maxConcurrentCalls,
	})

	mux := http.NewServeMux()
	registerRoutes(mux, deps{
		store:     store,
		defaults:  cfg.defaults,
		wsHandler: handler,
	})

	addr := ":" + cfg.port
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	slog.Info("gateway starting", "addr", addr, "store", cfg.storeBackend, "max_concurrent", cfg.maxConcurrentCalls)

	if err = srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}

	// Shutdown does not track hijacked connections; close them here so their
	// active sessions are finalized before the submitter drains.
	wsCtx, wsCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err = handler.Shutdown(wsCtx); err != nil {
		slog.Warn("conversation connections did not finish", "error", err)
	}
	wsCancel()

	slog.Info("draining pending call traces")
	submitter.Close()
	slog.Info("gateway stopped")
}

// openStore builds the configured trace store. The returned func releases it.
func openStore(ctx context.Context, cfg config) (trace.Store, func(), error) {
	switch cfg.storeBackend {
	case "file":
		slog.Info("using file trace store", "path", cfg.tracesFile)
		return trace.NewFileStore(cfg.tracesFile), func() {}, nil
	case "memory":
		return trace.NewMemoryStore(), func() {}, nil
	case "postgres":
		if cfg.traceDBURL == "" {
			return nil, nil, fmt.Errorf("TRACE_DB_URL is required for the postgres backend")
		}
		pg, err := trace.OpenPostgres(ctx, cfg.traceDBURL)
		if err != nil {
			return nil, nil, err
		}
		return pg, func() {
			if err := pg.Close(); err != nil {
				slog.Warn("close trace db", "error", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.storeBackend)
	}
}
