package worker_test

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/studai/pkg/eventstream"
	"github.com/papercomputeco/studai/pkg/eventstream/worker"
	"github.com/papercomputeco/studai/pkg/logger"
)

type blockingPublisher struct {
	mu      sync.Mutex
	events  []*eventstream.Event
	release chan struct{}
	err     error
	closed  bool
}

func (b *blockingPublisher) Publish(_ context.Context, e *eventstream.Event) error {
	if b.release != nil {
		<-b.release
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
	return b.err
}

func (b *blockingPublisher) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *blockingPublisher) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

func newEvent() *eventstream.Event {
	return eventstream.NewAnswerGenerated(eventstream.AnswerPayload{Mode: "plain"})
}

var _ = Describe("Pool", func() {
	It("requires a publisher", func() {
		_, err := worker.NewPool(&worker.Config{Logger: logger.Nop()})
		Expect(err).To(HaveOccurred())
	})

	It("publishes queued events and drains on close", func() {
		inner := &blockingPublisher{}
		pool, err := worker.NewPool(&worker.Config{Publisher: inner, Logger: logger.Nop()})
		Expect(err).NotTo(HaveOccurred())

		for range 10 {
			Expect(pool.Publish(context.Background(), newEvent())).To(Succeed())
		}

		Expect(pool.Close()).To(Succeed())
		Expect(inner.count()).To(Equal(10))
		Expect(inner.closed).To(BeTrue())
	})

	It("drops events when the queue is full", func() {
		inner := &blockingPublisher{release: make(chan struct{})}
		pool, err := worker.NewPool(&worker.Config{
			Publisher:  inner,
			NumWorkers: 1,
			QueueSize:  1,
			Logger:     logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())

		// The single worker blocks on the first event, the second fills the queue.
		Expect(pool.Enqueue(newEvent())).To(BeTrue())
		Eventually(func() bool { return pool.Enqueue(newEvent()) }).Should(BeTrue())
		Expect(pool.Publish(context.Background(), newEvent())).To(MatchError(eventstream.ErrQueueFull))

		close(inner.release)
		Expect(pool.Close()).To(Succeed())
		Expect(inner.count()).To(Equal(2))
	})

	It("keeps running when the inner publisher fails", func() {
		inner := &blockingPublisher{err: errors.New("broker down")}
		pool, err := worker.NewPool(&worker.Config{Publisher: inner, Logger: logger.Nop()})
		Expect(err).NotTo(HaveOccurred())

		Expect(pool.Publish(context.Background(), newEvent())).To(Succeed())
		Expect(pool.Publish(context.Background(), newEvent())).To(Succeed())
		Expect(pool.Close()).To(Succeed())
		Expect(inner.count()).To(Equal(2))
	})

	It("rejects events after close", func() {
		pool, err := worker.NewPool(&worker.Config{Publisher: &blockingPublisher{}, Logger: logger.Nop()})
		Expect(err).NotTo(HaveOccurred())
		Expect(pool.Close()).To(Succeed())
		Expect(pool.Close()).To(Succeed())
		Expect(pool.Enqueue(newEvent())).To(BeFalse())
	})

	It("returns ErrNilEvent for nil events", func() {
		pool, err := worker.NewPool(&worker.Config{Publisher: &blockingPublisher{}, Logger: logger.Nop()})
		Expect(err).NotTo(HaveOccurred())
		defer pool.Close()
		Expect(pool.Publish(context.Background(), nil)).To(MatchError(eventstream.ErrNilEvent))
	})
})
