package feed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/asaskevich/govalidator"
	"github.com/fxamacker/cbor/v2"
	"github.com/pandodao/drm-wallet/core"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	Channel string `valid:"required" mapstructure:"channel"`
}

// New returns an event feed carried over redis pub/sub. Messages are CBOR
// encoded event envelopes.
func New(client *redis.Client, codec core.AddressCodec, cfg Config, logger *slog.Logger) core.EventFeed {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		panic(err)
	}

	return &feed{
		client:  client,
		codec:   codec,
		channel: cfg.Channel,
		logger:  logger.With("service", "feed"),
	}
}

type feed struct {
	client  *redis.Client
	codec   core.AddressCodec
	channel string
	logger  *slog.Logger
}

func (f *feed) Publish(ctx context.Context, ev core.Event) error {
	b, err := cbor.Marshal(core.EncodeEvent(ev))
	if err != nil {
		return fmt.Errorf("encode %s event: %w", ev.Kind(), err)
	}

	return f.client.Publish(ctx, f.channel, b).Err()
}

// Subscribe delivers events to fn until ctx is done. Messages that fail to
// decode are logged and dropped.
func (f *feed) Subscribe(ctx context.Context, fn func(core.Event)) error {
	sub := f.client.Subscribe(ctx, f.channel)
	defer sub.Close()

	// wait for the subscription to be confirmed so no publish is missed
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", f.channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("subscription %s closed", f.channel)
			}

			ev, err := f.decode([]byte(msg.Payload))
			if err != nil {
				f.logger.Warn("drop event", "err", err)
				continue
			}

			fn(ev)
		}
	}
}

func (f *feed) decode(b []byte) (core.Event, error) {
	var env core.EventEnvelope
	if err := cbor.Unmarshal(b, &env); err != nil {
		return nil, err
	}

	return env.Decode(f.codec)
}
