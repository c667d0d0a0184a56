package apihttp

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cloudlab/detonator/pkg/config"
	"github.com/cloudlab/detonator/pkg/hostrun"

	"github.com/gin-gonic/gin"
)

// HostServer exposes the minimal host-facing HTTP surface used to drive
// the host orchestrator (C4): submit, status, check-vm, cleanup, plus
// proxy reads of the guest agent API (spec §6.3).
type HostServer struct {
	orchestrator *hostrun.Orchestrator
	agent        *hostrun.AgentClient
	uploadDir    string
}

// NewHostServer builds a HostServer. uploadDir is where submitted sample
// uploads are staged before Orchestrator.Submit archives them.
func NewHostServer(orchestrator *hostrun.Orchestrator, agent *hostrun.AgentClient, uploadDir string) *HostServer {
	return &HostServer{orchestrator: orchestrator, agent: agent, uploadDir: uploadDir}
}

// Router builds the gin engine exposing the host-facing routes (spec §6.3).
func (h *HostServer) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.POST("/submit", h.submit)
	r.GET("/status/:id", h.status)
	r.GET("/check-vm", h.checkVM)
	r.POST("/cleanup/:id", h.cleanup)
	r.GET("/agent/status", h.proxyAgentStatus)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errBody("unknown route"))
	})

	return r
}

// submit handles POST /submit: accepts a multipart sample upload plus
// timeout and screenshot_interval form fields (spec §6.3 "submit (upload
// + timeout + interval)").
func (h *HostServer) submit(c *gin.Context) {
	fileHeader, err := c.FormFile("sample")
	if err != nil {
		c.JSON(http.StatusBadRequest, errBody("missing sample upload: "+err.Error()))
		return
	}

	timeoutSeconds, _ := strconv.Atoi(c.PostForm("timeout"))
	if timeoutSeconds <= 0 {
		timeoutSeconds = config.BuiltinDefaults().DetonationTimeoutSeconds
	}
	interval, _ := strconv.Atoi(c.PostForm("screenshot_interval"))
	interval = config.ClampScreenshotInterval(interval)

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, errBody(err.Error()))
		return
	}
	uploadPath := filepath.Join(h.uploadDir, fileHeader.Filename)
	if err := saveUploadedFile(c, fileHeader, uploadPath); err != nil {
		c.JSON(http.StatusInternalServerError, errBody(err.Error()))
		return
	}

	result, err := h.orchestrator.Submit(c.Request.Context(), uploadPath, time.Duration(timeoutSeconds)*time.Second, interval)
	if err != nil {
		if errors.Is(err, hostrun.ErrAnalysisRunning) {
			c.JSON(http.StatusConflict, errBody(err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, errBody(err.Error()))
		return
	}

	c.JSON(http.StatusOK, okBody(result))
}

// status handles GET /status/:id (spec §6.3).
func (h *HostServer) status(c *gin.Context) {
	result, err := h.orchestrator.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, errBody(err.Error()))
		return
	}
	c.JSON(http.StatusOK, okBody(result))
}

// checkVM handles GET /check-vm (spec §6.3).
func (h *HostServer) checkVM(c *gin.Context) {
	ip, err := h.orchestrator.CheckVM(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, errBody(err.Error()))
		return
	}
	c.JSON(http.StatusOK, okBody(gin.H{"guest_ip": ip}))
}

// cleanup handles POST /cleanup/:id (spec §6.3).
func (h *HostServer) cleanup(c *gin.Context) {
	if err := h.orchestrator.Cleanup(c.Param("id")); err != nil {
		if errors.Is(err, hostrun.ErrNotFound) {
			c.JSON(http.StatusNotFound, errBody(err.Error()))
			return
		}
		c.JSON(http.StatusConflict, errBody(err.Error()))
		return
	}
	c.JSON(http.StatusOK, okBody(gin.H{"message": "cleaned up"}))
}

// proxyAgentStatus proxies GET /api/status from the guest agent (spec
// §6.3 "proxy reads of the agent API"). Orchestration may run
// concurrently with these reads.
func (h *HostServer) proxyAgentStatus(c *gin.Context) {
	status, err := h.agent.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, errBody(err.Error()))
		return
	}
	c.JSON(http.StatusOK, okBody(status))
}

func saveUploadedFile(c *gin.Context, fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}
