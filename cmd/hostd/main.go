// Command hostd runs the detonation sandbox's host orchestrator (C4): it
// drives the hypervisor, talks to the guest agent over HTTP, and exposes
// the host-facing submit/status/check-vm/cleanup surface.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudlab/detonator/pkg/analyzer"
	"github.com/cloudlab/detonator/pkg/apihttp"
	"github.com/cloudlab/detonator/pkg/config"
	"github.com/cloudlab/detonator/pkg/hostrun"
	"github.com/cloudlab/detonator/pkg/hypervisor"
	"github.com/cloudlab/detonator/pkg/llmtransport"
	"github.com/cloudlab/detonator/pkg/sharedchannel"
	"github.com/cloudlab/detonator/pkg/toolload"
	"github.com/cloudlab/detonator/pkg/version"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	configPath := flag.String("config", getEnv("CONFIG_PATH", ""), "path to YAML configuration file")
	envPath := flag.String("env-file", getEnv("ENV_FILE", ".env"), "path to .env file")
	share := flag.String("share", getEnv("SHARE_DIR", ""), "shared channel directory (required)")
	samplesDir := flag.String("samples-dir", getEnv("SAMPLES_DIR", "./samples"), "local directory for archived sample uploads")
	reportsRoot := flag.String("reports-root", getEnv("REPORTS_ROOT", "./reports"), "root directory for per-analysis report directories")
	agentURL := flag.String("agent-url", getEnv("AGENT_URL", "http://127.0.0.1:9090"), "guest agent base URL")
	httpAddr := flag.String("addr", getEnv("HTTP_ADDR", ":8090"), "bind address for the host-facing HTTP surface")
	flag.Parse()

	if err := godotenv.Load(*envPath); err != nil {
		slog.Warn("no .env file loaded", "path", *envPath, "error", err)
	}

	if *share == "" {
		fmt.Fprintln(os.Stderr, "hostd: --share (or SHARE_DIR) is required")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	gin.SetMode(getEnv("GIN_MODE", "release"))

	hv := hypervisor.New(cfg.Hypervisor.BinaryPath, cfg.Hypervisor.VMName)
	channel := sharedchannel.New(*share)
	agentClient := hostrun.NewAgentClient(*agentURL)

	var threatAnalyzer *analyzer.Analyzer
	if cfg.LLM.Address != "" {
		transport, err := llmtransport.NewClient(cfg.LLM.Address)
		if err != nil {
			slog.Warn("failed to dial LLM sidecar, analysis will run without it", "address", cfg.LLM.Address, "error", err)
		} else {
			threatAnalyzer = analyzer.New(transport, cfg.AgentRoles, toolload.BuiltinLoaders(), cfg.Defaults.LLMCallTimeout)
		}
	} else {
		slog.Warn("no LLM sidecar address configured, threat analysis step disabled")
	}

	orchestrator := hostrun.New(hv, channel, agentClient, hostrun.Config{
		SamplesDir:      *samplesDir,
		ReportsRoot:     *reportsRoot,
		PollInterval:    cfg.Defaults.PollInterval,
		PollGrace:       cfg.Defaults.PollGracePeriod,
		ScreenshotEvery: time.Duration(cfg.Defaults.ScreenshotIntervalSeconds) * time.Second,
		Analyzer:        threatAnalyzer,
	})

	for _, dir := range []string{*samplesDir, *reportsRoot} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			slog.Error("failed to create directory", "dir", dir, "error", err)
			os.Exit(1)
		}
	}

	server := apihttp.NewHostServer(orchestrator, agentClient, *samplesDir)
	httpServer := &http.Server{Addr: *httpAddr, Handler: server.Router()}

	slog.Info("host orchestrator starting",
		"addr", *httpAddr, "share", *share, "agent_url", *agentURL, "version", version.Full())

	serveErrC := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErrC <- err
			return
		}
		serveErrC <- nil
	}()

	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigC:
		slog.Info("shutdown requested via signal", "signal", sig.String())
	case err := <-serveErrC:
		if err != nil {
			slog.Error("http server failed", "error", err)
			os.Exit(1)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	<-serveErrC
	slog.Info("host orchestrator stopped cleanly")
}
