// Package app assembles the process: logging, the hub, and the HTTP surface.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	server "emberfall/server"
	"emberfall/server/internal/net/proto"
	"emberfall/server/internal/net/ws"
	"emberfall/server/internal/observability"
	"emberfall/server/internal/quality"
	"emberfall/server/internal/savestate"
	"emberfall/server/internal/sim"
	"emberfall/server/internal/telemetry"
	"emberfall/server/logging"
	loggingsinks "emberfall/server/logging/sinks"
)

// Config carries process-level overrides. Environment variables take
// precedence over whatever is set here.
type Config struct {
	Addr          string
	Hub           server.HubConfig
	Observability observability.Config
	Logger        telemetry.Logger
}

func DefaultConfig() Config {
	return Config{
		Addr: ":8080",
		Hub:  server.DefaultHubConfig(),
	}
}

// Run wires the process together and serves until ctx is cancelled or the
// listener fails.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Addr == "" {
		cfg.Addr = DefaultConfig().Addr
	}
	if addr := os.Getenv("EMBERFALL_ADDR"); addr != "" {
		cfg.Addr = addr
	}

	process := logrus.New()
	process.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if raw := os.Getenv("EMBERFALL_LOG_LEVEL"); raw != "" {
		if level, err := logrus.ParseLevel(raw); err == nil {
			process.SetLevel(level)
		} else {
			process.Warnf("invalid EMBERFALL_LOG_LEVEL=%q: %v", raw, err)
		}
	}
	telemetryLogger := cfg.Logger
	if telemetryLogger == nil {
		telemetryLogger = telemetry.WrapLogrus(process)
	}

	logConfig := logging.DefaultConfig()
	namedSinks := []logging.NamedSink{
		{Name: "console", Sink: loggingsinks.NewConsoleSink(os.Stdout, logConfig.Console)},
	}
	if path := os.Getenv("EMBERFALL_EVENT_LOG"); path != "" {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open event log %s: %w", path, err)
		}
		namedSinks = append(namedSinks, logging.NamedSink{
			Name: "json",
			Sink: loggingsinks.NewJSONSink(file, logConfig.JSON.FlushInterval),
		})
	}
	router, err := logging.NewRouter(logging.SystemClock{}, logConfig, namedSinks)
	if err != nil {
		return fmt.Errorf("failed to construct logging router: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if cerr := router.Close(closeCtx); cerr != nil {
			telemetryLogger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	hubCfg := applyHubEnv(cfg.Hub, telemetryLogger)
	if path := os.Getenv("EMBERFALL_PRESETS"); path != "" {
		doc, err := loadPresetDocument(path)
		if err != nil {
			return fmt.Errorf("failed to load preset document %s: %w", path, err)
		}
		hubCfg.Presets = &doc
	}
	deps := sim.Deps{
		Logger:    telemetryLogger,
		Metrics:   telemetry.WrapMetrics(router.Metrics()),
		Publisher: router,
	}

	hub := server.NewHub(hubCfg, deps)
	defer hub.Stop()
	go func() {
		if err := hub.RunSimulation(); err != nil {
			telemetryLogger.Printf("simulation stopped: %v", err)
		}
	}()

	handler := newMux(hub, telemetryLogger, cfg.Observability)
	srv := &http.Server{Addr: cfg.Addr, Handler: handler}
	telemetryLogger.Printf("server listening on %s", cfg.Addr)

	errs := make(chan error, 1)
	go func() {
		errs <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return nil
	case err := <-errs:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	}
}

func applyHubEnv(cfg server.HubConfig, logger telemetry.Logger) server.HubConfig {
	if preset := os.Getenv("EMBERFALL_PRESET"); preset != "" {
		cfg.Preset = preset
	}
	if seed := os.Getenv("EMBERFALL_SEED"); seed != "" {
		cfg.World.Seed = seed
	}
	if raw := os.Getenv("EMBERFALL_TICK_RATE"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.Loop.TickRate = value
		} else {
			logger.Printf("invalid EMBERFALL_TICK_RATE=%q", raw)
		}
	}
	if raw := os.Getenv("EMBERFALL_ENEMIES"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			cfg.World.EnemyCount = value
		} else {
			logger.Printf("invalid EMBERFALL_ENEMIES=%q", raw)
		}
	}
	if path := os.Getenv("EMBERFALL_SAVE_PATH"); path != "" {
		cfg.SaveStore = &savestate.FileStore{Path: path}
	}
	return cfg
}

// loadPresetDocument reads a designer preset file, the one described by the
// schema cmd/qualityschema emits.
func loadPresetDocument(path string) (quality.Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return quality.Document{}, err
	}
	defer file.Close()
	return quality.LoadDocument(file)
}

func newMux(hub *server.Hub, logger telemetry.Logger, obs observability.Config) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/join", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		join, err := hub.Join()
		if err != nil {
			logger.Printf("join failed: %v", err)
			http.Error(w, "join failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, logger, joinedMessage(join))
	})

	wsHandler := ws.NewHandler(hub, ws.HandlerConfig{})
	mux.HandleFunc("/ws", wsHandler.Handle)

	mux.HandleFunc("/diagnostics", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, hub.Diagnostics())
	})

	mux.HandleFunc("/save", func(w http.ResponseWriter, r *http.Request) {
		data := hub.LatestSave()
		if data == nil {
			http.Error(w, "no checkpoint yet", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/msgpack")
		w.Write(data)
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	if obs.EnablePprofTrace {
		observability.Register(mux)
	}

	return mux
}

func joinedMessage(join server.JoinResponse) proto.JoinedMessage {
	return proto.JoinedMessage{
		Ver:          server.ProtocolVersion,
		Type:         proto.TypeJoined,
		PlayerID:     join.ID,
		ActivePreset: join.ActivePreset,
		Presets:      join.Presets,
	}
}

func writeJSON(w http.ResponseWriter, logger telemetry.Logger, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Printf("failed to encode response: %v", err)
	}
}
