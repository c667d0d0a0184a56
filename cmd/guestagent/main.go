// Command guestagent runs the detonation sandbox's guest-side transport
// server (C1), collector registry (C2), and orchestrator (C3) inside the
// analysis VM.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cloudlab/detonator/pkg/agentstate"
	"github.com/cloudlab/detonator/pkg/apihttp"
	"github.com/cloudlab/detonator/pkg/collector"
	"github.com/cloudlab/detonator/pkg/config"
	"github.com/cloudlab/detonator/pkg/guestrun"
	"github.com/cloudlab/detonator/pkg/platformtools"
	"github.com/cloudlab/detonator/pkg/resultpkg"
	"github.com/cloudlab/detonator/pkg/sharedchannel"
	"github.com/cloudlab/detonator/pkg/version"

	"github.com/joho/godotenv"
)

// resolveBinary finds a collector's backing binary: an explicit config
// override is trusted as-is; otherwise binaryName must resolve on PATH.
// The bool return tells buildRegistry whether to wire a live adapter or
// leave the collector's tool nil, so Available() correctly reports
// unavailable for a binary that isn't present in this VM image.
func resolveBinary(cfg *config.Config, collectorName, binaryName string) (string, bool) {
	if override := cfg.ToolPath(collectorName); override != "" {
		return override, true
	}
	resolved, err := exec.LookPath(binaryName)
	if err != nil {
		slog.Warn("collector backing tool not found on PATH", "collector", collectorName, "binary", binaryName)
		return "", false
	}
	return resolved, true
}

func main() {
	host := flag.String("host", "0.0.0.0", "bind address")
	port := flag.Int("port", 9090, "bind port")
	share := flag.String("share", "", "shared channel directory (required)")
	workdir := flag.String("workdir", "", "local working directory for artifacts (required)")
	configPath := flag.String("config", "", "path to YAML configuration file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file loaded", "error", err)
	}

	if *share == "" || *workdir == "" {
		fmt.Fprintln(os.Stderr, "guestagent: --share and --workdir are required")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	channel := sharedchannel.New(*share)
	if !channel.Exists() {
		slog.Error("shared channel directory missing at startup", "dir", *share)
		os.Exit(1)
	}

	samplesDir := filepath.Join(*workdir, "samples")
	artifactsDir := filepath.Join(*workdir, "artifacts")
	for _, dir := range []string{samplesDir, artifactsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			slog.Error("failed to create working directory", "dir", dir, "error", err)
			os.Exit(1)
		}
	}

	registry := buildRegistry(cfg, artifactsDir)
	state := agentstate.New(time.Now())

	deps := &guestrun.Deps{
		Channel:    channel,
		State:      state,
		Registry:   registry,
		WorkDir:    artifactsDir,
		SamplesDir: samplesDir,
		Packager:   resultpkg.NewPackager(version.Full()),
	}
	if path, ok := resolveBinary(cfg, "processkiller", "taskkill"); ok {
		deps.ProcessTerminator = platformtools.NewProcessKiller(path)
	}
	if path, ok := resolveBinary(cfg, "samplerunner", "launcher"); ok {
		deps.Launcher = platformtools.NewSampleRunner(path)
	}

	shutdownC := make(chan struct{})
	server := apihttp.NewGuestServer(deps, shutdownC)

	addr := fmt.Sprintf("%s:%d", *host, *port)
	httpServer := &http.Server{Addr: addr, Handler: server.Router()}

	slog.Info("guest agent starting", "addr", addr, "share", *share, "workdir", *workdir, "version", version.Full())

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
	case <-shutdownC:
		slog.Info("shutdown requested via API")
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
	slog.Info("guest agent stopped cleanly")
}

// buildRegistry wires the six built-in collectors against platformtools
// adapters, honoring per-collector enable/disable and tool-path overrides
// from cfg (spec §4.2).
func buildRegistry(cfg *config.Config, artifactsDir string) *collector.Registry {
	var collectors []collector.Collector

	if cfg.CollectorEnabled("sysevents") {
		var reader collector.EventLogReader
		if path, ok := resolveBinary(cfg, "sysevents", "wevtutil"); ok {
			reader = platformtools.NewSysEventsReader(path, "Microsoft-Windows-Sysmon/Operational")
		}
		collectors = append(collectors, collector.NewSysEventsCollector(reader, artifactsDir))
	}
	if cfg.CollectorEnabled("procmon") {
		var tool collector.ProcessActivityTool
		if path, ok := resolveBinary(cfg, "procmon", "procmon.exe"); ok {
			logPath := filepath.Join(artifactsDir, "procmon", "capture.pml")
			tool = platformtools.NewProcMon(path, logPath)
		}
		collectors = append(collectors, collector.NewProcMonCollector(tool, cfg.Defaults.SubprocessTimeout, artifactsDir))
	}
	if cfg.CollectorEnabled("network") {
		var tool collector.NetworkCaptureTool
		if path, ok := resolveBinary(cfg, "network", "tshark"); ok {
			tool = platformtools.NewPacketCapture(path)
		}
		collectors = append(collectors, collector.NewNetworkCollector(tool, artifactsDir))
	}
	if cfg.CollectorEnabled("screenshot") {
		var capturer collector.ScreenshotCapturer
		if path, ok := resolveBinary(cfg, "screenshot", "screenshot-cli"); ok {
			capturer = platformtools.NewDisplayCapturer(path)
		}
		collectors = append(collectors, collector.NewScreenshotCollector(capturer, artifactsDir))
	}
	if cfg.CollectorEnabled("connsnapshot") {
		var tool collector.ConnectionSnapshotTool
		if path, ok := resolveBinary(cfg, "connsnapshot", "netstat"); ok {
			tool = platformtools.NewConnList(path)
		}
		collectors = append(collectors, collector.NewConnectionSnapshotCollector(tool, artifactsDir))
	}
	if cfg.CollectorEnabled("handlesnapshot") {
		var tool collector.HandleSnapshotTool
		if path, ok := resolveBinary(cfg, "handlesnapshot", "handle.exe"); ok {
			tool = platformtools.NewHandleList(path)
		}
		collectors = append(collectors, collector.NewHandleSnapshotCollector(tool, artifactsDir))
	}

	return collector.NewRegistry(collectors...)
}
