// Package server runs the gameserver process lifecycle: named services
// started in registration order and stopped in reverse once a signal
// arrives, the context is cancelled, or any service fails.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Service is one long-running component under lifecycle control.
type Service interface {
	// Start blocks until the service stops or fails.
	Start() error
	// Stop asks the service to wind down; Start returns afterwards.
	Stop()
}

// FuncService adapts a start/stop function pair into a Service.
type FuncService struct {
	StartFn func() error
	StopFn  func()
}

func (f *FuncService) Start() error { return f.StartFn() }
func (f *FuncService) Stop()        { f.StopFn() }

type namedService struct {
	name    string
	service Service
}

// Lifecycle starts its services in registration order and stops them in
// reverse. A failure in any service brings the whole process down.
type Lifecycle struct {
	mu       sync.Mutex
	services []namedService
	logger   *zap.Logger
}

// NewLifecycle creates an empty lifecycle.
func NewLifecycle(logger *zap.Logger) *Lifecycle {
	return &Lifecycle{logger: logger}
}

// Add registers a service under name. Registration order is start
// order.
func (l *Lifecycle) Add(name string, svc Service) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.services = append(l.services, namedService{name: name, service: svc})
}

// Run starts every registered service, then blocks until SIGINT or
// SIGTERM arrives, ctx is cancelled, or a service fails. All services
// are stopped, in reverse registration order, before Run returns.
func (l *Lifecycle) Run(ctx context.Context) error {
	began := time.Now()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	failures := make(chan error, len(l.services))
	for _, ns := range l.services {
		go func() {
			l.logger.Info("starting service", zap.String("service", ns.name))
			if err := ns.service.Start(); err != nil {
				l.logger.Error("service failed",
					zap.String("service", ns.name),
					zap.Error(err))
				failures <- fmt.Errorf("service %s: %w", ns.name, err)
			}
		}()
	}
	l.logger.Info("services started", zap.Int("count", len(l.services)))

	select {
	case sig := <-sigCh:
		l.logger.Info("signal received", zap.String("signal", sig.String()))
	case err := <-failures:
		l.logger.Error("shutting down after service failure", zap.Error(err))
	case <-ctx.Done():
		l.logger.Info("context cancelled")
	}

	l.stopAll()
	l.logger.Info("shutdown complete", zap.Duration("uptime", time.Since(began)))
	return nil
}

// stopAll winds services down newest-first, so dependents go before the
// things they depend on.
func (l *Lifecycle) stopAll() {
	for i := len(l.services) - 1; i >= 0; i-- {
		ns := l.services[i]
		l.logger.Info("stopping service", zap.String("service", ns.name))
		ns.service.Stop()
	}
}
