// Package apihttp implements the guest agent's JSON/HTTP API (C1, spec
// §4.1, §6.2) and the host-facing HTTP surface used by the host
// orchestrator (§6.3), both as gin routers following tarsy's
// pkg/api/handlers.go.
package apihttp

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/cloudlab/detonator/pkg/guestrun"
	"github.com/cloudlab/detonator/pkg/version"

	"github.com/gin-gonic/gin"
)

// DefaultDetonationTimeout and DefaultScreenshotInterval back /api/execute
// when the request body omits them (spec §6.2).
const (
	DefaultDetonationTimeout  = 60 * time.Second
	DefaultScreenshotInterval = 5
	MinScreenshotInterval     = 2
)

// GuestServer wires the guest transport server (C1) to its collaborators.
// All state-mutating handlers serialize against deps.State (spec §4.1).
type GuestServer struct {
	deps      *guestrun.Deps
	shutdownC chan struct{}
}

// NewGuestServer builds a GuestServer. shutdownC is closed by the
// /api/shutdown handler after it acknowledges the request (spec §4.1
// "POST shutdown").
func NewGuestServer(deps *guestrun.Deps, shutdownC chan struct{}) *GuestServer {
	return &GuestServer{deps: deps, shutdownC: shutdownC}
}

// Router builds the gin engine exposing the guest API routes (spec §6.2).
func (g *GuestServer) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/api/status", g.status)
	r.GET("/api/collectors", g.collectors)
	r.GET("/api/artifacts", g.artifacts)
	r.POST("/api/execute", g.execute)
	r.POST("/api/collect", g.collect)
	r.POST("/api/cleanup", g.cleanup)
	r.POST("/api/shutdown", g.shutdown)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errBody("unknown route"))
	})

	return r
}

func okBody(data any) gin.H {
	return gin.H{"status": "ok", "data": data}
}

func errBody(msg string) gin.H {
	return gin.H{"status": "error", "error": msg}
}

// status handles GET /api/status (spec §4.1, §6.2). It never blocks.
func (g *GuestServer) status(c *gin.Context) {
	snap := g.deps.State.Snapshot()
	c.JSON(http.StatusOK, okBody(gin.H{
		"status":          string(snap.Status),
		"current_sample":  snap.CurrentSample,
		"last_error":      snap.LastError,
		"started_at":      snap.StartedAt.UTC().Format(time.RFC3339),
		"execution_count": snap.ExecutionCount,
		"agent_version":   version.Full(),
		"platform":        runtime.GOOS + "/" + runtime.GOARCH,
		"collectors":      g.deps.Registry.Infos(),
	}))
}

// collectors handles GET /api/collectors (spec §6.2).
func (g *GuestServer) collectors(c *gin.Context) {
	c.JSON(http.StatusOK, okBody(gin.H{"collectors": g.deps.Registry.Infos()}))
}

// artifacts handles GET /api/artifacts: lists every file under the
// artifacts directory, relative paths (spec §6.2).
func (g *GuestServer) artifacts(c *gin.Context) {
	root := g.deps.WorkDir
	var paths []string
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr == nil {
			paths = append(paths, rel)
		}
		return nil
	})
	c.JSON(http.StatusOK, okBody(gin.H{"artifacts": paths, "count": len(paths)}))
}

type executeRequest struct {
	Filename                  string `json:"filename" binding:"required"`
	Timeout                   int    `json:"timeout"`
	ScreenshotIntervalSeconds int    `json:"screenshot_interval"`
}

// execute handles POST /api/execute. It atomically transitions to
// executing before returning and dispatches the detonation asynchronously
// (spec §4.1 "POST execute", §5 zone 1 ordering guarantee).
func (g *GuestServer) execute(c *gin.Context) {
	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errBody(err.Error()))
		return
	}

	timeout := DefaultDetonationTimeout
	if req.Timeout > 0 {
		timeout = time.Duration(req.Timeout) * time.Second
	}
	interval := req.ScreenshotIntervalSeconds
	if interval <= 0 {
		interval = DefaultScreenshotInterval
	}
	if interval < MinScreenshotInterval {
		interval = MinScreenshotInterval
	}

	if err := g.deps.State.BeginExecution(req.Filename); err != nil {
		c.JSON(http.StatusConflict, errBody("agent is already executing"))
		return
	}

	runReq := guestrun.Request{
		Filename:                  req.Filename,
		Timeout:                   timeout,
		ScreenshotIntervalSeconds: interval,
	}
	go guestrun.Run(context.Background(), g.deps, runReq)

	c.JSON(http.StatusOK, okBody(gin.H{
		"message": "detonation started",
		"timeout": int(timeout.Seconds()),
	}))
}

// collect handles POST /api/collect: fails conflict while executing,
// otherwise runs every collector synchronously (spec §4.1 "POST collect").
func (g *GuestServer) collect(c *gin.Context) {
	if err := g.deps.State.RequireNotExecuting(); err != nil {
		c.JSON(http.StatusConflict, errBody("agent is executing"))
		return
	}

	statuses := g.deps.Registry.CollectAll(c.Request.Context())
	collection := make([]gin.H, 0, len(statuses))
	for _, col := range g.deps.Registry.All() {
		res := statuses[col.Name()]
		collection = append(collection, gin.H{
			"name":   col.Name(),
			"status": res.Status,
			"files":  res.Files,
			"error":  res.Error,
		})
	}
	c.JSON(http.StatusOK, okBody(gin.H{"collection": collection}))
}

// cleanup handles POST /api/cleanup: removes and recreates the artifacts
// directory, ignoring locked files (spec §4.1 "POST cleanup", §8
// "cleanup leaves the artifacts directory present and empty").
func (g *GuestServer) cleanup(c *gin.Context) {
	root := g.deps.WorkDir
	_ = os.RemoveAll(root)
	if err := os.MkdirAll(root, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, errBody(err.Error()))
		return
	}
	c.JSON(http.StatusOK, okBody(gin.H{"message": "artifacts cleaned"}))
}

// shutdown handles POST /api/shutdown: acknowledges, then signals the
// internal shutdown channel (spec §4.1 "POST shutdown").
func (g *GuestServer) shutdown(c *gin.Context) {
	c.JSON(http.StatusOK, okBody(gin.H{"message": "shutting down"}))
	go func() {
		select {
		case <-g.shutdownC:
		default:
			close(g.shutdownC)
		}
	}()
}
