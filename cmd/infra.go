package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/crm/internal"
	"github.com/frahmantamala/crm/internal/auth"
	"github.com/frahmantamala/crm/internal/notification"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// initDB opens the sqlx handle used for statistics and health checks.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return dbConn, nil
}

// initGorm shares the sqlx connection pool with GORM.
func initGorm(db *sqlx.DB, env string) (*gorm.DB, error) {
	level := gormlogger.Warn
	if env != "production" {
		level = gormlogger.Info
	}

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}
	return gdb, nil
}

// initTokenStore picks Redis when an address is configured.
func initTokenStore(ctx context.Context, cfg internal.RedisConfig, logger *slog.Logger) (auth.TokenStore, *redis.Client, error) {
	if cfg.Addr == "" {
		logger.Warn("redis not configured, sessions are kept in memory")
		return auth.NewMemoryStore(), nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return auth.NewRedisStore(client, cfg.KeyPrefix), client, nil
}

// initMailer sends real mail when an SMTP host is configured.
func initMailer(cfg internal.MailConfig, logger *slog.Logger) notification.Mailer {
	if cfg.Host == "" {
		logger.Warn("smtp not configured, mails are only logged")
		return notification.NewLogMailer(logger)
	}
	return notification.NewSMTPMailer(notification.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
		FromName: cfg.FromName,
	}, logger)
}

func initDispatcher(cfg internal.NotificationConfig, mailer notification.Mailer, logger *slog.Logger) *notification.Dispatcher {
	return notification.NewDispatcher(notification.DispatcherConfig{
		MaxWorkers:   cfg.MaxWorkers,
		JobQueueSize: cfg.JobQueueSize,
		SendTimeout:  cfg.SendTimeout,
	}, mailer, logger)
}
