package main

import (
	"time"

	"github.com/hubenschmidt/asr-llm-tts-poc/calltrace/internal/calltrace"
	"github.com/hubenschmidt/asr-llm-tts-poc/calltrace/internal/env"
	"github.com/hubenschmidt/asr-llm-tts-poc/calltrace/internal/logging"
)

type config struct {
	port               string
	storeBackend       string
	tracesFile         string
	traceDBURL         string
	persistenceURL     string
	persistencePool    int
	seedSamples        bool
	maxConcurrentCalls int
	submitBuffer       int
	submitTimeout      time.Duration
	defaults           calltrace.Defaults
	log                logging.Options
}

func loadConfig() config {
	return config{
		port:               env.Str("GATEWAY_PORT", "8000"),
		storeBackend:       env.Str("STORE_BACKEND", "file"),
		tracesFile:         env.Str("TRACES_FILE", "data/call-traces.json"),
		traceDBURL:         env.Str("TRACE_DB_URL", ""),
		persistenceURL:     env.Str("PERSISTENCE_URL", ""),
		persistencePool:    env.Int("PERSISTENCE_POOL_SIZE", 10),
		seedSamples:        env.Bool("SEED_SAMPLE_TRACES", false),
		maxConcurrentCalls: env.Int("MAX_CONCURRENT_CALLS", 100),
		submitBuffer:       env.Int("SUBMIT_BUFFER", 64),
		submitTimeout:      env.Duration("SUBMIT_TIMEOUT", 10*time.Second),
		defaults: calltrace.Defaults{
			Model:       env.Str("TRACE_MODEL", calltrace.DefaultDefaults.Model),
			Temperature: env.Float("TRACE_TEMPERATURE", calltrace.DefaultDefaults.Temperature),
			MaxTokens:   env.Int("TRACE_MAX_TOKENS", calltrace.DefaultDefaults.MaxTokens),
		},
		log: logging.Options{
			File:      env.Str("LOG_FILE", ""),
			Level:     env.Str("LOG_LEVEL", "info"),
			MaxSizeMB: env.Int("LOG_MAX_SIZE_MB", 10),
		},
	}
}
