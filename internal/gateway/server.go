package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jitsi/jicofo-go/internal/config"
	"github.com/jitsi/jicofo-go/internal/logger"
)

// BridgeRegistry answers which bridges are currently available
type BridgeRegistry interface {
	Available() []string
	IsAvailable(bridgeJID string) bool
}

// BridgeManager adds and removes monitored bridges at runtime
type BridgeManager interface {
	AddBridge(bridgeJID, healthURL string) (bool, error)
	RemoveBridge(ctx context.Context, bridgeJID string) bool
}

// AddBridgeRequest is the body of POST /api/v1/bridges
type AddBridgeRequest struct {
	JID       string `json:"jid" binding:"required"`
	HealthURL string `json:"healthUrl" binding:"required"`
}

// Server represents the HTTP gateway server
type Server struct {
	config     *config.Config
	logger     *logger.Logger
	httpServer *http.Server
	router     *gin.Engine
	bridges    BridgeRegistry
	manager    BridgeManager
}

// NewServer creates a new gateway server
func NewServer(cfg *config.Config, logger *logger.Logger, bridges BridgeRegistry, manager BridgeManager) *Server {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Logging.Level == "debug" {
		router.Use(gin.Logger())
	}

	server := &Server{
		config:  cfg,
		logger:  logger,
		router:  router,
		bridges: bridges,
		manager: manager,
	}
	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:           fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	return server
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	v1.GET("/bridges", s.handleListBridges)
	v1.GET("/bridges/:jid", s.handleGetBridge)
	v1.POST("/bridges", s.handleAddBridge)
	v1.DELETE("/bridges/:jid", s.handleRemoveBridge)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.WithComponent("gateway").Info("Starting HTTP server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop stops the HTTP server gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.logger.WithComponent("gateway").Info("Stopping HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"bridges": len(s.bridges.Available()),
	})
}

func (s *Server) handleListBridges(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"bridges": s.bridges.Available()})
}

func (s *Server) handleGetBridge(c *gin.Context) {
	jid := c.Param("jid")
	if !s.bridges.IsAvailable(jid) {
		s.logger.WithContext(c.Request.Context()).Debug("Bridge not available", "bridge_jid", jid)
		c.JSON(http.StatusNotFound, gin.H{"error": "Bridge not available", "jid": jid})
		return
	}
	c.JSON(http.StatusOK, gin.H{"jid": jid, "available": true})
}

func (s *Server) handleAddBridge(c *gin.Context) {
	ctx := c.Request.Context()

	var req AddBridgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.WithContext(ctx).Warn("Failed to parse add bridge request", "error", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request must contain jid and healthUrl"})
		return
	}

	added, err := s.manager.AddBridge(req.JID, req.HealthURL)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.logger.WithBridge(req.JID).Info("Bridge registered", "component", "gateway", "added", added)

	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"jid": req.JID, "healthUrl": req.HealthURL})
}

func (s *Server) handleRemoveBridge(c *gin.Context) {
	jid := c.Param("jid")
	if !s.manager.RemoveBridge(c.Request.Context(), jid) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Bridge not monitored", "jid": jid})
		return
	}
	s.logger.WithBridge(jid).Info("Bridge removed", "component", "gateway")
	c.Status(http.StatusNoContent)
}
