package broker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Delivery is one attempt of a queued job handed to a consumer. Attempt is
// 1-based and survives redelivery. Exactly one of Ack, Retry or Term must be
// called per delivery.
type Delivery interface {
	Payload() []byte
	Attempt() int
	// Ack marks the delivery handled; the job is never redelivered.
	Ack() error
	// Retry schedules redelivery after the given delay.
	Retry(delay time.Duration) error
	// Term drops the job without further redelivery.
	Term() error
}

// QueueConfig controls durability and retry behaviour of the work queue.
// AckWait must exceed the longest legitimate handler run, otherwise the
// server redelivers a job that is still executing; zero gets a default.
type QueueConfig struct {
	Stream      string
	Subject     string
	Durable     string
	MaxAttempts int
	BackoffBase time.Duration
	BackoffCap  time.Duration
	AckWait     time.Duration
}

const defaultAckWait = 30 * time.Second

// Queue is the durable half of the broker: an ordered work queue with
// single-consumer delivery per job and at-least-once semantics.
type Queue struct {
	nc  *nats.Conn
	js  jetstream.JetStream
	cfg QueueConfig
}

// NewQueue connects to NATS and ensures the work-queue stream exists.
// WorkQueuePolicy gives single-consumer delivery per message; consumers of
// the durable below share the queue rather than each receiving a copy.
func NewQueue(url string, cfg QueueConfig) (*Queue, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      cfg.Stream,
		Subjects:  []string{cfg.Subject},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.WorkQueuePolicy,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream %q: %w", cfg.Stream, err)
	}

	return &Queue{nc: nc, js: js, cfg: cfg}, nil
}

// Enqueue puts a job on the durable queue. msgId deduplicates re-publishes of
// the same job within the stream's dedup window.
func (q *Queue) Enqueue(ctx context.Context, msgId string, payload []byte) error {
	_, err := q.js.Publish(ctx, q.cfg.Subject, payload, jetstream.WithMsgID(msgId))
	if err != nil {
		return fmt.Errorf("failed to enqueue on %s: %w", q.cfg.Subject, err)
	}
	return nil
}

// Process consumes the queue with the given number of concurrent workers,
// calling handler once per delivery. It returns after the consumer is set up;
// workers exit when ctx is cancelled. The handler owns acking.
func (q *Queue) Process(ctx context.Context, concurrency int, handler func(ctx context.Context, d Delivery)) error {
	if concurrency < 1 {
		concurrency = 1
	}

	consumer, err := q.js.CreateOrUpdateConsumer(ctx, q.cfg.Stream, jetstream.ConsumerConfig{
		Durable:       q.cfg.Durable,
		FilterSubject: q.cfg.Subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       q.ackWait(),
		// One headroom delivery past the attempt budget: the final attempt
		// acks terminally, so MaxDeliver only guards crash/redeliver windows.
		MaxDeliver: q.cfg.MaxAttempts + 1,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer %q: %w", q.cfg.Durable, err)
	}

	iter, err := consumer.Messages(jetstream.PullMaxMessages(1))
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	go func() {
		<-ctx.Done()
		iter.Stop()
	}()

	for i := 0; i < concurrency; i++ {
		go func() {
			for {
				msg, err := iter.Next()
				if err != nil {
					// Iterator stopped (shutdown) or broken; either way the
					// worker is done.
					return
				}
				handler(ctx, &jetstreamDelivery{msg: msg})
			}
		}()
	}

	return nil
}

func (q *Queue) ackWait() time.Duration {
	if q.cfg.AckWait > 0 {
		return q.cfg.AckWait
	}
	return defaultAckWait
}

// Backoff returns the redelivery delay for a failed attempt: base doubling
// per attempt, capped.
func (q *Queue) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := q.cfg.BackoffBase
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= q.cfg.BackoffCap {
			return q.cfg.BackoffCap
		}
	}
	if delay > q.cfg.BackoffCap {
		delay = q.cfg.BackoffCap
	}
	return delay
}

func (q *Queue) Close() {
	if q.nc != nil {
		q.nc.Close()
	}
}

type jetstreamDelivery struct {
	msg jetstream.Msg
}

func (d *jetstreamDelivery) Payload() []byte { return d.msg.Data() }

func (d *jetstreamDelivery) Attempt() int {
	meta, err := d.msg.Metadata()
	if err != nil {
		log.Printf("delivery metadata unavailable, assuming first attempt: %v", err)
		return 1
	}
	return int(meta.NumDelivered)
}

func (d *jetstreamDelivery) Ack() error { return d.msg.Ack() }

func (d *jetstreamDelivery) Retry(delay time.Duration) error {
	return d.msg.NakWithDelay(delay)
}

func (d *jetstreamDelivery) Term() error { return d.msg.Term() }
