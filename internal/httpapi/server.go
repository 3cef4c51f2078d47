// Package httpapi exposes the job trigger endpoints an external scheduler calls.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"chronicle/internal/service"
)

// RecurringJob runs the recurrence engine.
type RecurringJob interface {
	ProcessRecurringTasks(ctx context.Context, today time.Time) (service.RecurrenceSummary, error)
}

// ReminderJob runs the daily reminder dispatcher.
type ReminderJob interface {
	Dispatch(ctx context.Context, now time.Time) (service.ReminderSummary, error)
}

// Server routes trigger requests to the jobs.
type Server struct {
	router    *gin.Engine
	recurring RecurringJob
	reminders ReminderJob
	loc       *time.Location
	now       func() time.Time
	log       zerolog.Logger
}

// Options configures NewServer. Now defaults to time.Now.
type Options struct {
	CronSecret string
	Location   *time.Location
	Now        func() time.Time
	Logger     zerolog.Logger
}

func NewServer(recurring RecurringJob, reminders ReminderJob, opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	s := &Server{
		router:    router,
		recurring: recurring,
		reminders: reminders,
		loc:       opts.Location,
		now:       opts.Now,
		log:       opts.Logger.With().Str("component", "http").Logger(),
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}

	router.Use(gin.Recovery(), requestLogger(s.log))
	router.GET("/healthz", s.handleHealth)

	jobs := router.Group("/jobs", CronAuth(opts.CronSecret, s.log))
	{
		jobs.OPTIONS("/recurring-tasks", handlePreflight)
		jobs.POST("/recurring-tasks", s.handleRecurringTasks)
		jobs.OPTIONS("/daily-reminder", handlePreflight)
		jobs.POST("/daily-reminder", s.handleDailyReminder)
	}

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("http trigger listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}
