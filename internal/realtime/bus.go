package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DefaultChannel carries one message per listing write.
const DefaultChannel = "pettie:listings"

// Change identifies the listing that was written and its seller.
type Change struct {
	ListingID string `json:"listing_id"`
	SellerID  string `json:"seller_id"`
}

// Source opens a backend listener. The returned stop func releases it; the channel
// is closed once the listener is gone.
type Source interface {
	Listen(ctx context.Context) (<-chan Change, func() error, error)
}

// Publisher announces listing writes to every open listener.
type Publisher interface {
	Publish(ctx context.Context, ch Change) error
}

// RedisBus is a Source and Publisher over Redis pub/sub.
type RedisBus struct {
	Rdb     *redis.Client
	Channel string
}

func (b *RedisBus) channel() string {
	if b.Channel == "" {
		return DefaultChannel
	}
	return b.Channel
}

func (b *RedisBus) Publish(ctx context.Context, ch Change) error {
	payload, err := json.Marshal(ch)
	if err != nil {
		return err
	}
	return b.Rdb.Publish(ctx, b.channel(), payload).Err()
}

// Listen subscribes and waits for the subscription to be confirmed before returning,
// so a write published after Listen returns is never missed.
func (b *RedisBus) Listen(ctx context.Context) (<-chan Change, func() error, error) {
	ps := b.Rdb.Subscribe(ctx, b.channel())
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, err
	}

	out := make(chan Change, 16)
	done := make(chan struct{})
	var once sync.Once
	stop := func() error {
		var err error
		once.Do(func() {
			close(done)
			err = ps.Close()
		})
		return err
	}

	go func() {
		defer close(out)
		msgs := ps.Channel()
		for {
			select {
			case <-done:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ch Change
				if err := json.Unmarshal([]byte(msg.Payload), &ch); err != nil {
					log.Warn().Err(err).Str("channel", msg.Channel).Msg("realtime: dropping malformed change")
					continue
				}
				select {
				case out <- ch:
				case <-done:
					return
				}
			}
		}
	}()
	return out, stop, nil
}
