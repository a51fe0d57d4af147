package events_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/crm/internal/core/events"
)

var _ = Describe("EventBus", func() {
	var bus *events.EventBus

	BeforeEach(func() {
		bus = events.NewEventBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
	})

	reviewed := func() *events.ContractReviewedEvent {
		return events.NewContractReviewedEvent(7, "Annual support", "HT202501010000001234", 3, 9, true, "ok", time.Now())
	}

	It("delivers to every subscriber and Wait drains them", func() {
		var calls atomic.Int32
		for i := 0; i < 3; i++ {
			bus.Subscribe(events.EventTypeContractReviewed, func(context.Context, events.Event) error {
				calls.Add(1)
				return nil
			})
		}

		Expect(bus.Publish(context.Background(), reviewed())).To(Succeed())
		bus.Wait()
		Expect(calls.Load()).To(Equal(int32(3)))
	})

	It("keeps handlers running after the publisher's context is cancelled", func() {
		var live atomic.Value
		bus.Subscribe(events.EventTypeContractReviewed, func(ctx context.Context, _ events.Event) error {
			time.Sleep(10 * time.Millisecond)
			live.Store(ctx.Err() == nil)
			return nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		Expect(bus.Publish(ctx, reviewed())).To(Succeed())
		cancel()
		bus.Wait()
		Expect(live.Load()).To(Equal(true))
	})

	It("swallows async handler failures", func() {
		bus.Subscribe(events.EventTypeContractReviewed, func(context.Context, events.Event) error {
			return errors.New("smtp down")
		})
		Expect(bus.Publish(context.Background(), reviewed())).To(Succeed())
		bus.Wait()
	})

	It("surfaces handler failures when publishing synchronously", func() {
		bus.Subscribe(events.EventTypeContractReviewed, func(context.Context, events.Event) error {
			return errors.New("smtp down")
		})
		err := bus.PublishSync(context.Background(), reviewed())
		Expect(err).To(MatchError(ContainSubstring("smtp down")))
	})

	It("ignores events nobody listens to", func() {
		Expect(bus.Publish(context.Background(), events.BaseEvent{Type: "unknown"})).To(Succeed())
	})

	It("exposes the review payload", func() {
		e := reviewed()
		Expect(e.EventID()).NotTo(BeEmpty())
		Expect(e.Payload()).To(HaveKeyWithValue("contract_id", int64(7)))
	})
})
