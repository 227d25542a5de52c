package main

import (
	"fmt"
	"time"

	"github.com/JaimeStill/weles/internal/config"
	"github.com/JaimeStill/weles/internal/infrastructure"
)

// Server wires the infrastructure, the API module, and the HTTP listener.
type Server struct {
	infra   *infrastructure.Infrastructure
	modules *Modules
	http    *httpServer
}

func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	modules, err := NewModules(infra, cfg)
	if err != nil {
		return nil, fmt.Errorf("api module init failed: %w", err)
	}

	router := buildRouter(infra)
	modules.Mount(router)

	return &Server{
		infra:   infra,
		modules: modules,
		http:    newHTTPServer(&cfg.Server, router, infra.Logger),
	}, nil
}

// Start brings up the infrastructure and begins serving. Readiness is
// reported through /readyz once every startup hook has finished.
func (s *Server) Start() error {
	started := time.Now()

	if err := s.infra.Start(); err != nil {
		return err
	}
	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	go func() {
		s.infra.Lifecycle.WaitForStartup()
		s.infra.Logger.Info(
			"all subsystems ready",
			"elapsed", time.Since(started),
			"archive", s.infra.Storage != nil,
		)
	}()

	return nil
}

// Shutdown cancels the lifecycle and waits for shutdown hooks, including
// the HTTP drain and the task worker pool.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown", "timeout", timeout)
	return s.infra.Lifecycle.Shutdown(timeout)
}
