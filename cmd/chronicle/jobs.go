package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"chronicle/internal/config"
	"chronicle/internal/logging"
	"chronicle/internal/model"
	"chronicle/internal/repository"
)

func recurCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "recur",
		Short: "Create today's instances of recurring tasks once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			today := time.Now().In(a.cfg.Location())
			if date != "" {
				if today, err = model.ParseDate(date); err != nil {
					return fmt.Errorf("--date: %w", err)
				}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), jobTimeout)
			defer cancel()
			summary, err := a.recurrence.ProcessRecurringTasks(ctx, today)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "processed=%d created=%d\n", summary.Scanned, summary.Created)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "run as of this date (YYYY-MM-DD) instead of today")
	return cmd
}

func remindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "Send daily reminders that are due right now and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), jobTimeout)
			defer cancel()
			summary, err := a.reminders.Dispatch(ctx, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "checked=%d sent=%d failed=%d\n", summary.Checked, summary.Sent, summary.Failed)
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			db, err := repository.NewDB(cfg.DatabaseURL, logging.New(cfg.LogLevel, cfg.LogPretty))
			if err != nil {
				return fmt.Errorf("db: %w", err)
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}
