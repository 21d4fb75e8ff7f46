package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hubenschmidt/asr-llm-tts-poc/calltrace/internal/env"
	"github.com/hubenschmidt/asr-llm-tts-poc/calltrace/internal/logging"
	"github.com/hubenschmidt/asr-llm-tts-poc/calltrace/internal/trace"
)

func main() {
	backend := flag.String("store", env.Str("STORE_BACKEND", "file"), "trace store: file|postgres|http")
	file := flag.String("file", env.Str("TRACES_FILE", "data/call-traces.json"), "traces file for the file store")
	dbURL := flag.String("db-url", env.Str("TRACE_DB_URL", ""), "postgres connection string")
	gatewayURL := flag.String("gateway-url", env.Str("PERSISTENCE_URL", "http://localhost:8000"), "gateway URL for the http store")
	reset := flag.Bool("reset", false, "clear the store before seeding")
	flag.Parse()

	logging.Setup(logging.Options{Level: env.Str("LOG_LEVEL", "info")})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, closeStore, err := open(ctx, *backend, *file, *dbURL, *gatewayURL)
	if err != nil {
		slog.Error("open store", "store", *backend, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	if *reset {
		if err = store.Clear(ctx); err != nil {
			slog.Error("clear store", "error", err)
			os.Exit(1)
		}
		slog.Info("store cleared")
	}

	n, err := trace.Seed(ctx, store, trace.SampleRecords(time.Now()))
	if err != nil {
		slog.Error("seed", "written", n, "error", err)
		os.Exit(1)
	}
	if n == 0 {
		slog.Info("store already has traces, skipping", "store", *backend)
		return
	}
	slog.Info("done", "store", *backend, "traces", n)
}

func open(ctx context.Context, backend, file, dbURL, gatewayURL string) (trace.Store, func(), error) {
	switch backend {
	case "file":
		return trace.NewFileStore(file), func() {}, nil
	case "http":
		return trace.NewClient(gatewayURL, 2, 30*time.Second), func() {}, nil
	case "postgres":
		if dbURL == "" {
			return nil, nil, fmt.Errorf("usage: seed --store postgres --db-url postgres://...")
		}
		pg, err := trace.OpenPostgres(ctx, dbURL)
		if err != nil {
			return nil, nil, err
		}
		return pg, func() { pg.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", backend)
	}
}
