package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"chronicle/internal/httpapi"
	"chronicle/internal/service"
)

const jobTimeout = 2 * time.Minute

func serveCmd() *cobra.Command {
	var withHTTP bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the job scheduler and the HTTP trigger endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			loc := a.cfg.Location()
			scheduler := service.NewSchedulerService(loc, a.log)
			if _, err := scheduler.ScheduleDaily(a.cfg.RecurringTasksAt, func() {
				jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
				defer cancel()
				if _, err := a.recurrence.ProcessRecurringTasks(jobCtx, time.Now().In(loc)); err != nil && !errors.Is(err, context.Canceled) {
					a.log.Error().Err(err).Msg("scheduled recurring tasks run failed")
				}
			}); err != nil {
				return err
			}
			if _, err := scheduler.ScheduleAligned(a.cfg.ReminderInterval, func() {
				jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
				defer cancel()
				if _, err := a.reminders.Dispatch(jobCtx, time.Now()); err != nil && !errors.Is(err, context.Canceled) {
					a.log.Error().Err(err).Msg("scheduled daily reminder run failed")
				}
			}); err != nil {
				return err
			}
			scheduler.Start()
			defer scheduler.Stop()

			a.log.Info().
				Str("recurring_tasks_at", a.cfg.RecurringTasksAt).
				Dur("reminder_interval", a.cfg.ReminderInterval).
				Str("timezone", loc.String()).
				Msg("chronicle jobs started")

			if !withHTTP {
				<-ctx.Done()
				a.log.Info().Msg("shutdown complete")
				return nil
			}

			srv := httpapi.NewServer(a.recurrence, a.reminders, httpapi.Options{
				CronSecret: a.cfg.CronSecret,
				Location:   loc,
				Logger:     a.log,
			})
			if a.cfg.CronSecret == "" {
				a.log.Warn().Msg("CRON_SECRET is empty, trigger endpoints are unauthenticated")
			}
			if err := srv.Run(ctx, a.cfg.HTTPAddr); err != nil {
				return err
			}
			a.log.Info().Msg("shutdown complete")
			return nil
		},
	}

	cmd.Flags().BoolVar(&withHTTP, "http", true, "serve the HTTP trigger endpoints")
	return cmd
}
