package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"chronicle/internal/config"
	"chronicle/internal/logging"
	"chronicle/internal/notify"
	"chronicle/internal/repository"
	"chronicle/internal/service"
)

var Version = "dev"

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "chronicle",
		Short:         "Background jobs for the chronicle journal and task tracker",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("CHRONICLE_CONFIG"), "optional YAML config file")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(recurCmd())
	rootCmd.AddCommand(remindCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds the wired dependencies shared by every command.
type app struct {
	cfg        config.Config
	log        zerolog.Logger
	db         *gorm.DB
	recurrence *service.RecurrenceService
	reminders  *service.ReminderService
}

func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogPretty)

	db, err := repository.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}

	taskRepo := repository.NewTaskRepository(db)
	userRepo := repository.NewUserRepository(db)
	prefRepo := repository.NewPreferenceRepository(db)

	var notifier notify.Notifier = notify.NewLogNotifier(log)
	if cfg.TelegramToken != "" {
		api, err := notify.NewTelegramBot(cfg.TelegramToken)
		if err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
		log.Info().Str("account", api.Self.UserName).Msg("telegram delivery enabled")
		notifier = notify.NewTelegramNotifier(api, userRepo, log)
	}

	return &app{
		cfg:        cfg,
		log:        log,
		db:         db,
		recurrence: service.NewRecurrenceService(taskRepo, cfg.Location(), log),
		reminders:  service.NewReminderService(prefRepo, taskRepo, notifier, cfg.ReminderWindow, log),
	}, nil
}

func (a *app) Close() {
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}
