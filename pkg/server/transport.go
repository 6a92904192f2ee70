package server

import (
	"context"
	"strings"

	rstream "github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/cortex-on/agentdeck/pkg/config"
)

// bus is the per-conversation event transport: one shared publisher and a
// subscriber per conversation reader.
type bus struct {
	pub       message.Publisher
	subscribe func(convID string) (message.Subscriber, error)
}

// newBus builds the event transport: Redis Streams when enabled, an
// in-process go-channel pub/sub otherwise.
func newBus(cfg config.RedisConfig) (*bus, error) {
	logger := newWatermillLogger(log.Logger)

	if !cfg.Enabled {
		goch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, logger)
		return &bus{
			pub:       goch,
			subscribe: func(string) (message.Subscriber, error) { return goch, nil },
		}, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	marshaler := rstream.DefaultMarshallerUnmarshaller{}

	pub, err := rstream.NewPublisher(rstream.PublisherConfig{
		Client:     client,
		Marshaller: marshaler,
	}, logger)
	if err != nil {
		return nil, err
	}

	subscribe := func(convID string) (message.Subscriber, error) {
		return rstream.NewSubscriber(rstream.SubscriberConfig{
			Client:        client,
			Unmarshaller:  marshaler,
			ConsumerGroup: cfg.Group,
			Consumer:      "ws-forwarder:" + convID,
		}, logger)
	}
	return &bus{pub: pub, subscribe: subscribe}, nil
}

// ensureGroupAtTail creates the consumer group for a stream at $ so a new
// reader does not replay history. BUSYGROUP means it already exists.
func ensureGroupAtTail(ctx context.Context, addr, stream, group string) error {
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer func() { _ = client.Close() }()
	err := client.XGroupCreateMkStream(ctx, stream, group, "$").Err()
	if err != nil {
		if strings.Contains(err.Error(), "BUSYGROUP") {
			return nil
		}
		return err
	}
	log.Info().Str("stream", stream).Str("group", group).Msg("created redis consumer group at $ (tail)")
	return nil
}
