// Package server exposes chase environments over HTTP.
package server

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/zeu5/pursuit-rl/chase"
	"github.com/zeu5/pursuit-rl/store"
	"github.com/zeu5/pursuit-rl/viz"
)

// instance is one environment, requests to it are serialised
type instance struct {
	mu       sync.Mutex
	env      *chase.Environment
	hub      *viz.Hub
	captured int
}

type Server struct {
	Addr   string
	server *http.Server
	router *gin.Engine

	lock *sync.Mutex
	envs map[string]*instance

	seeded  bool
	seed    uint64
	created uint64

	store  store.EpisodeStore
	logger *log.Logger
}

type Option func(*Server)

// WithSeed makes every new environment replayable, the n-th one created
// uses seed + n
func WithSeed(seed uint64) Option {
	return func(s *Server) {
		s.seeded = true
		s.seed = seed
	}
}

// WithStore saves the summary of every finished episode, the environment
// id is the run id
func WithStore(st store.EpisodeStore) Option {
	return func(s *Server) {
		s.store = st
	}
}

func NewServer(addr string, opts ...Option) *Server {
	s := &Server{
		Addr:   addr,
		lock:   new(sync.Mutex),
		envs:   make(map[string]*instance),
		logger: log.New(os.Stderr, "[server] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(s)
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.GET("/envs", s.handleList)
	r.POST("/envs", s.handleCreate)
	r.POST("/envs/:id/reset", s.handleReset)
	r.POST("/envs/:id/step", s.handleStep)
	r.GET("/envs/:id/spaces", s.handleSpaces)
	r.GET("/envs/:id/snapshot", s.handleSnapshot)
	r.GET("/envs/:id/stream", s.handleStream)
	r.DELETE("/envs/:id", s.handleDelete)
	s.router = r
	s.server = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until the context is cancelled
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("listening on %s", s.Addr)
		errCh <- s.server.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.closeAll()
	return s.server.Shutdown(shutdownCtx)
}

func (s *Server) closeAll() {
	s.lock.Lock()
	defer s.lock.Unlock()
	for id, inst := range s.envs {
		inst.hub.Close()
		delete(s.envs, id)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, chase.ErrInvalidConfig), errors.Is(err, chase.ErrInvalidAction), errors.Is(err, chase.ErrCapacityExceeded):
		return http.StatusBadRequest
	case errors.Is(err, chase.ErrNotReset), errors.Is(err, chase.ErrEpisodeDone):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func (s *Server) get(c *gin.Context) (*instance, bool) {
	s.lock.Lock()
	inst, ok := s.envs[c.Param("id")]
	s.lock.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown environment " + c.Param("id")})
	}
	return inst, ok
}

func (s *Server) handleList(c *gin.Context) {
	s.lock.Lock()
	ids := make([]string, 0, len(s.envs))
	for id := range s.envs {
		ids = append(ids, id)
	}
	s.lock.Unlock()
	c.JSON(http.StatusOK, gin.H{"envs": ids})
}

// handleCreate builds an environment from the default configuration
// overridden by the fields of the request body
func (s *Server) handleCreate(c *gin.Context) {
	cfg := chase.DefaultConfig()
	if err := c.ShouldBindJSON(&cfg); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to unmarshal config: " + err.Error()})
		return
	}

	s.lock.Lock()
	opts := make([]chase.Option, 0, 1)
	if s.seeded {
		opts = append(opts, chase.WithSeed(s.seed+s.created))
	}
	s.created++
	s.lock.Unlock()

	env, err := chase.NewEnvironment(cfg, opts...)
	if err != nil {
		fail(c, err)
		return
	}
	id := uuid.NewString()
	s.lock.Lock()
	s.envs[id] = &instance{env: env, hub: viz.NewHub(16)}
	s.lock.Unlock()

	c.JSON(http.StatusCreated, gin.H{
		"id":                id,
		"config":            env.Config(),
		"observation_space": env.ObservationSpace(),
		"action_space":      env.ActionSpace(),
	})
}

func (s *Server) handleReset(c *gin.Context) {
	inst, ok := s.get(c)
	if !ok {
		return
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	obs, err := inst.env.Reset()
	if err != nil {
		fail(c, err)
		return
	}
	inst.captured = 0
	inst.env.Render(inst.hub)
	c.JSON(http.StatusOK, gin.H{"observation": obs})
}

type stepRequest struct {
	Action chase.JointAction `json:"action" binding:"required"`
}

func (s *Server) handleStep(c *gin.Context) {
	inst, ok := s.get(c)
	if !ok {
		return
	}
	var req stepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to unmarshal request: " + err.Error()})
		return
	}

	inst.mu.Lock()
	defer inst.mu.Unlock()
	res, err := inst.env.Step(req.Action)
	if err != nil {
		fail(c, err)
		return
	}
	inst.captured += res.Captured
	inst.env.Render(inst.hub)
	if res.Done {
		s.saveEpisode(c.Request.Context(), c.Param("id"), inst, res.Info)
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) saveEpisode(ctx context.Context, id string, inst *instance, info *chase.EpisodeInfo) {
	if s.store == nil || info == nil {
		return
	}
	record := store.EpisodeRecord{
		RunID:         id,
		Experiment:    "http",
		Episode:       info.Episode,
		TotalReward:   info.TotalReward,
		Steps:         info.TotalSteps,
		Captures:      inst.captured,
		Success:       len(inst.env.Roster().Adversaries) == 0,
		AverageLast10: info.AverageLast10,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.store.SaveEpisode(ctx, record); err != nil {
		s.logger.Printf("failed to save episode %d of %s: %s", info.Episode, id, err)
	}
}

func (s *Server) handleSpaces(c *gin.Context) {
	inst, ok := s.get(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"observation_space": inst.env.ObservationSpace(),
		"action_space":      inst.env.ActionSpace(),
	})
}

func (s *Server) handleSnapshot(c *gin.Context) {
	inst, ok := s.get(c)
	if !ok {
		return
	}
	inst.mu.Lock()
	snapshot := inst.env.Snapshot()
	inst.mu.Unlock()
	c.JSON(http.StatusOK, snapshot)
}

func (s *Server) handleStream(c *gin.Context) {
	inst, ok := s.get(c)
	if !ok {
		return
	}
	inst.hub.ServeWS(c.Writer, c.Request)
}

func (s *Server) handleDelete(c *gin.Context) {
	id := c.Param("id")
	s.lock.Lock()
	inst, ok := s.envs[id]
	delete(s.envs, id)
	s.lock.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown environment " + id})
		return
	}
	inst.hub.Close()
	c.Status(http.StatusNoContent)
}

// Len is the number of live environments
func (s *Server) Len() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.envs)
}
