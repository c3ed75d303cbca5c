package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cosmossdk.io/math"
	"github.com/gtdvccc/swapioclmm/pkg/pool/clmm"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// QuoteEvent is the published form of one quote.
type QuoteEvent struct {
	Pool                 string          `json:"pool"`
	InputMint            string          `json:"inputMint"`
	OutputMint           string          `json:"outputMint"`
	ExactInput           bool            `json:"exactInput"`
	InAmount             math.Int        `json:"inAmount"`
	OutAmount            math.Int        `json:"outAmount"`
	FeeAmount            math.Int        `json:"feeAmount"`
	FeeMint              string          `json:"feeMint"`
	FeePct               decimal.Decimal `json:"feePct"`
	OtherAmountThreshold math.Int        `json:"otherAmountThreshold"`
	Tick                 int32           `json:"tick"`
	Epoch                uint64          `json:"epoch"`
	Timestamp            time.Time       `json:"ts"`
}

// NewQuoteEvent describes q priced against snap.
func NewQuoteEvent(snap *clmm.Snapshot, req clmm.QuoteRequest, q clmm.Quote, now time.Time) QuoteEvent {
	return QuoteEvent{
		Pool:                 snap.Pool.Address.String(),
		InputMint:            req.InputMint.String(),
		OutputMint:           req.OutputMint.String(),
		ExactInput:           q.ExactInput,
		InAmount:             q.InAmount,
		OutAmount:            q.OutAmount,
		FeeAmount:            q.FeeAmount,
		FeeMint:              q.FeeMint.String(),
		FeePct:               q.FeePct,
		OtherAmountThreshold: q.OtherAmountThreshold,
		Tick:                 snap.Pool.TickCurrent,
		Epoch:                snap.Epoch,
		Timestamp:            now.UTC(),
	}
}

// QuotePublisher publishes quote events over redis pub/sub.
type QuotePublisher struct {
	client  *redis.Client
	channel string
}

func NewQuotePublisher(addr, channel string) *QuotePublisher {
	return &QuotePublisher{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   0,
		}),
		channel: channel,
	}
}

// Channels returns the channels an event of pool is published to: the
// shared channel and a per pool one.
func (p *QuotePublisher) Channels(pool string) []string {
	return []string{
		p.channel,
		fmt.Sprintf("%s:pool:%s", p.channel, pool),
	}
}

// Publish sends event to every channel in one pipeline.
func (p *QuotePublisher) Publish(ctx context.Context, event QuoteEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal quote event: %w", err)
	}

	pipe := p.client.Pipeline()
	for _, channel := range p.Channels(event.Pool) {
		pipe.Publish(ctx, channel, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish quote event: %w", err)
	}
	return nil
}

// Subscribe returns decoded events of channel until ctx is done.
func (p *QuotePublisher) Subscribe(ctx context.Context, channel string) (<-chan QuoteEvent, error) {
	sub := p.client.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}

	out := make(chan QuoteEvent)
	go func() {
		defer close(out)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event QuoteEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (p *QuotePublisher) Close() error {
	return p.client.Close()
}
