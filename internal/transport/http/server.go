package httptransport

import (
	"context"
	_ "embed"
	"errors"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"github.com/menta2k/image-chat/pkg/render"
	"github.com/menta2k/image-chat/pkg/session"
	"github.com/menta2k/image-chat/pkg/types"
)

//go:embed index.html
var indexHTML []byte

// Server exposes one session over HTTP together with a single page UI
type Server struct {
	addr    string
	session *session.Session
	router  *gin.Engine
	logger  log.Interface
	srv     *http.Server
}

// Config describes the dependencies of the HTTP server
type Config struct {
	Addr    string
	Session *session.Session
	Logger  log.Interface
}

// NewServer builds the HTTP server
func NewServer(cfg Config) (*Server, error) {
	if cfg.Session == nil {
		return nil, errors.New("session cannot be nil")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Log
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.MaxMultipartMemory = 32 << 20

	s := &Server{
		addr:    cfg.Addr,
		session: cfg.Session,
		router:  router,
		logger:  cfg.Logger,
	}
	s.registerRoutes()
	return s, nil
}

// Handler returns the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.GET("/", s.handleIndex)
	api := s.router.Group("/api")
	api.GET("/state", s.handleState)
	api.PUT("/config", s.handleConfig)
	api.POST("/config/dialog", s.handleToggleDialog)
	api.PUT("/prompt", s.handlePrompt)
	api.POST("/image", s.handleImage)
	api.POST("/analyze", s.handleAnalyze)
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.addr).Info("http server listening")
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

func (s *Server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleConfig(c *gin.Context) {
	var req struct {
		Field string `json:"field" binding:"required"`
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	field := session.Field(req.Field)
	if field != session.FieldEndpoint && field != session.FieldAPIKey {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown field"})
		return
	}
	if err := s.session.EditConfig(field, req.Value); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleToggleDialog(c *gin.Context) {
	open := s.session.ToggleConfigDialog()
	c.JSON(http.StatusOK, gin.H{"config_dialog_open": open})
}

func (s *Server) handlePrompt(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.session.EditPrompt(req.Text)
	c.Status(http.StatusNoContent)
}

func (s *Server) handleImage(c *gin.Context) {
	fh, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		c.Status(http.StatusNoContent)
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	if err := s.session.SelectFile(fh.Filename, f); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleAnalyze(c *gin.Context) {
	res, err := s.session.Analyze(c.Request.Context())
	switch {
	case errors.Is(err, session.ErrNoImage):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case errors.Is(err, types.ErrMalformedResponse):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var html string
	if !res.Failed() {
		html = render.Render(res.Text)
	}
	c.JSON(http.StatusOK, gin.H{"result": res, "html": html})
}
