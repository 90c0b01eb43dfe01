// Package api serves command decisions over HTTP for `shellgate serve`.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AgentShepherd/shellgate/internal/config"
	"github.com/AgentShepherd/shellgate/internal/hook"
	"github.com/AgentShepherd/shellgate/internal/logger"
	"github.com/AgentShepherd/shellgate/internal/rules"
	"github.com/AgentShepherd/shellgate/internal/types"
)

var log = logger.New("api")

// gates holds one adapter per platform, all built from the same config.
type gates struct {
	platform types.Platform
	adapters map[types.Platform]*hook.Adapter
}

func buildGates(cfg *config.Config) (*gates, error) {
	def, err := cfg.ResolvePlatform()
	if err != nil {
		return nil, err
	}
	g := &gates{platform: def, adapters: make(map[types.Platform]*hook.Adapter)}
	for _, p := range types.AllPlatforms() {
		pol, err := cfg.BuildPolicy(p)
		if err != nil {
			return nil, fmt.Errorf("%s policy: %w", p, err)
		}
		g.adapters[p] = hook.NewAdapter(rules.NewValidator(pol), cfg.Hook.ShellTools)
	}
	return g, nil
}

// lookup returns the adapter for name, or the default platform's adapter when
// name is empty.
func (g *gates) lookup(name string) (*hook.Adapter, error) {
	if name == "" {
		return g.adapters[g.platform], nil
	}
	p, ok := types.ParsePlatform(name)
	if !ok {
		return nil, fmt.Errorf("unknown platform %q", name)
	}
	return g.adapters[p], nil
}

// Server handles HTTP decision requests
type Server struct {
	gates   atomic.Pointer[gates]
	metrics *Metrics
	router  *gin.Engine

	mu      sync.Mutex
	httpSrv *http.Server
}

// NewServer builds validators for every platform from cfg and registers the
// routes.
func NewServer(cfg *config.Config) (*Server, error) {
	g, err := buildGates(cfg)
	if err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply middleware in order
	router.Use(gin.Recovery())
	router.Use(RequestLogMiddleware())
	router.Use(SecurityHeadersMiddleware())
	router.Use(BodySizeLimitMiddleware(MaxBodySize))

	s := &Server{metrics: NewMetrics(), router: router}
	s.gates.Store(g)
	s.registerRoutes()
	return s, nil
}

// Handler returns the HTTP handler for the API
func (s *Server) Handler() http.Handler {
	return s.router
}

// Metrics returns the decision counters.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Reload rebuilds the validators from cfg and swaps them in. In-flight
// requests finish on the previous set. On error the old set stays active.
func (s *Server) Reload(cfg *config.Config) error {
	g, err := buildGates(cfg)
	if err != nil {
		return err
	}
	s.gates.Store(g)
	log.Info("Policy reloaded (default platform %s, max depth %d)", g.platform, cfg.Policy.MaxWrapperDepth)
	return nil
}

// ListenAndServe serves on addr until Shutdown is called.
func (s *Server) ListenAndServe(addr string) error {
	s.mu.Lock()
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	srv := s.httpSrv
	s.mu.Unlock()

	log.Info("Listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops a server started with ListenAndServe.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpSrv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)

	apiGroup := s.router.Group("/api")
	{
		apiGroup.POST("/hook/pre-tool-use", s.handlePreToolUse)
		apiGroup.POST("/validate", s.handleValidate)
		apiGroup.GET("/policy", s.handlePolicy)
		apiGroup.GET("/stats", s.handleStats)
	}
}

// handleHealth handles GET /health
func (s *Server) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// handlePreToolUse handles POST /api/hook/pre-tool-use. The response body is
// the same decision object the stdin hook writes. Malformed payloads are
// blocked, never allowed.
func (s *Server) handlePreToolUse(c *gin.Context) {
	adapter, err := s.gates.Load().lookup(c.Query("platform"))
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error())
		return
	}

	var in hook.Input
	if err := json.NewDecoder(c.Request.Body).Decode(&in); err != nil {
		log.Warn("Blocked malformed hook payload: %v", err)
		s.metrics.Record(rules.Result{Rule: rules.RuleInput})
		c.JSON(http.StatusBadRequest, hook.Block("hook payload could not be parsed"))
		return
	}

	d := adapter.Decide(in)
	if adapter.IsShellTool(in.ToolName) {
		s.metrics.Record(rules.Result{Allowed: !d.Blocked(), Reason: d.Reason, Rule: d.Rule})
	}
	Success(c, d)
}

// ValidateRequest is the body of POST /api/validate.
type ValidateRequest struct {
	Command  string `json:"command"`
	Platform string `json:"platform"`
}

// handleValidate handles POST /api/validate
func (s *Server) handleValidate(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	adapter, err := s.gates.Load().lookup(req.Platform)
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error())
		return
	}

	res := adapter.Validator().Validate(req.Command)
	s.metrics.Record(res)
	log.Decision(res.Allowed, res.Rule, req.Command, res.Reason)
	Success(c, res)
}

// PolicyResponse describes the tables a platform enforces.
type PolicyResponse struct {
	Platform        types.Platform `json:"platform"`
	Allowed         []string       `json:"allowed_commands"`
	ExtraValidation []string       `json:"extra_validation_commands"`
	SetupScripts    []string       `json:"setup_scripts"`
	DevScripts      []string       `json:"dev_script_patterns"`
	MaxWrapperDepth int            `json:"max_wrapper_depth"`
	Denylist        []string       `json:"denylist"`
}

// handlePolicy handles GET /api/policy
func (s *Server) handlePolicy(c *gin.Context) {
	adapter, err := s.gates.Load().lookup(c.Query("platform"))
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error())
		return
	}
	v := adapter.Validator()
	pol := v.Policy()
	Success(c, PolicyResponse{
		Platform:        pol.Platform(),
		Allowed:         pol.AllowedCommands(),
		ExtraValidation: pol.ExtraValidationCommands(),
		SetupScripts:    pol.SetupScripts(),
		DevScripts:      pol.DevScriptPatterns(),
		MaxWrapperDepth: pol.MaxWrapperDepth(),
		Denylist:        v.Denylist().Names(),
	})
}

// handleStats handles GET /api/stats
func (s *Server) handleStats(c *gin.Context) {
	Success(c, s.metrics.Snapshot())
}
