// Package eventstreamutils selects and constructs an eventstream.Publisher
// from configuration.
package eventstreamutils

import (
	"fmt"
	"log/slog"

	"github.com/papercomputeco/studai/pkg/eventstream"
	"github.com/papercomputeco/studai/pkg/eventstream/kafka"
	"github.com/papercomputeco/studai/pkg/eventstream/nop"
	"github.com/papercomputeco/studai/pkg/eventstream/worker"
)

// Supported event stream providers.
const (
	ProviderNop   = "nop"
	ProviderKafka = "kafka"
)

type NewPublisherOpts struct {
	ProviderType string
	Brokers      string
	Topic        string
	Logger       *slog.Logger
}

// NewPublisher returns a publisher for the configured provider. Broker backed
// publishers are wrapped in a worker pool so callers never block on the network.
func NewPublisher(o *NewPublisherOpts) (eventstream.Publisher, error) {
	switch o.ProviderType {
	case ProviderNop, "":
		return nop.NewPublisher(), nil
	case ProviderKafka:
		p, err := kafka.NewPublisher(kafka.Config{
			Brokers: o.Brokers,
			Topic:   o.Topic,
		}, o.Logger)
		if err != nil {
			return nil, err
		}
		return worker.NewPool(&worker.Config{
			Publisher: p,
			Logger:    o.Logger,
		})
	default:
		return nil, fmt.Errorf("unknown events provider: %q (supported: %s, %s)", o.ProviderType, ProviderNop, ProviderKafka)
	}
}
