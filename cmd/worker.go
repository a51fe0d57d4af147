package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/frahmantamala/crm/internal/notification"
	"github.com/frahmantamala/crm/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run worker pools outside the HTTP server",
	Long:  `Start the notification worker pool for one-off jobs such as checking SMTP delivery.`,
}

var mailWorkerCmd = &cobra.Command{
	Use:   "mail",
	Short: "Send a test email through the notification worker pool",
	Run: func(cmd *cobra.Command, args []string) {
		runMailWorker()
	},
}

var (
	maxWorkers   int
	jobQueueSize int
	mailTo       string
	mailSubject  string
)

func runMailWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if mailTo == "" {
		fmt.Fprintln(os.Stderr, "--to is required")
		os.Exit(1)
	}

	lg := logger.LoggerWrapper()

	notifCfg := config.Notification
	notifCfg.MaxWorkers = getIntFlag(maxWorkers, notifCfg.MaxWorkers)
	notifCfg.JobQueueSize = getIntFlag(jobQueueSize, notifCfg.JobQueueSize)

	lg.Info("starting mail worker",
		"max_workers", notifCfg.MaxWorkers,
		"job_queue_size", notifCfg.JobQueueSize,
		"smtp_host", config.Mail.Host)

	dispatcher := initDispatcher(notifCfg, initMailer(config.Mail, lg), lg)

	job := notification.MailJob{
		To:      mailTo,
		Subject: mailSubject,
		Body:    fmt.Sprintf("Test message sent at %s.", time.Now().Format("2006-01-02 15:04:05")),
	}
	if err := dispatcher.Enqueue(job); err != nil {
		lg.Error("failed to enqueue test mail", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := dispatcher.Shutdown(ctx); err != nil {
		lg.Warn("shutdown timeout reached, forcing exit", "error", err)
		return
	}
	lg.Info("mail worker pool shutdown complete")
}

func getIntFlag(flagValue, configValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}

func init() {
	mailWorkerCmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "Maximum number of workers (overrides config)")
	mailWorkerCmd.Flags().IntVar(&jobQueueSize, "queue-size", 0, "Job queue size (overrides config)")
	mailWorkerCmd.Flags().StringVar(&mailTo, "to", "", "Recipient address")
	mailWorkerCmd.Flags().StringVar(&mailSubject, "subject", "CRM test mail", "Mail subject")

	workerCmd.AddCommand(mailWorkerCmd)
}
