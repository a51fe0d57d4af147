package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/frahmantamala/crm/internal/core/events"
	"github.com/frahmantamala/crm/internal/notification"
	"github.com/frahmantamala/crm/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish test events through the event bus and notification pipeline`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish a test contract.reviewed event",
	Long:  `Publish a contract.reviewed event and deliver its notification to the given address`,
	Run: func(cmd *cobra.Command, args []string) {
		publishTestEvent()
	},
}

var (
	eventRecipient string
	eventRejected  bool
	eventComment   string
)

func publishTestEvent() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	lg := logger.LoggerWrapper()

	bus := events.NewEventBus(lg)
	dispatcher := initDispatcher(config.Notification, initMailer(config.Mail, lg), lg)

	recipients := notification.RecipientLookupFunc(func(_ context.Context, managerID int64) (notification.Recipient, error) {
		if eventRecipient == "" {
			return notification.Recipient{}, notification.ErrRecipientNotFound
		}
		return notification.Recipient{Name: "Test Manager", Email: eventRecipient}, nil
	})
	notification.NewEventHandler(recipients, dispatcher, lg).Register(bus)

	now := time.Now()
	event := events.NewContractReviewedEvent(0, "Test contract", "HT"+now.Format("20060102150405")+"0000",
		0, 0, !eventRejected, eventComment, now)

	lg.Info("publishing test event", "event_type", event.EventType(), "event_id", event.EventID())

	ctx := context.Background()
	if err := bus.Publish(ctx, event); err != nil {
		lg.Error("failed to publish event", "error", err)
		return
	}
	bus.Wait()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		lg.Warn("dispatcher shutdown timed out", "error", err)
		return
	}
	lg.Info("test event published successfully")
}

func init() {
	publishEventCmd.Flags().StringVar(&eventRecipient, "to", "", "Address that receives the review notification")
	publishEventCmd.Flags().BoolVar(&eventRejected, "rejected", false, "Publish a rejection instead of an approval")
	publishEventCmd.Flags().StringVar(&eventComment, "comment", "looks good", "Reviewer comment")

	eventCmd.AddCommand(publishEventCmd)
}
