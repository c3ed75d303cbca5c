package sol

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// AccountChange is called with the account and slot of every notification.
type AccountChange func(account solana.PublicKey, slot uint64)

// WatchAccounts subscribes to every key and calls onChange on each update. It
// blocks until ctx is done or one subscription fails.
func (c *Client) WatchAccounts(ctx context.Context, keys []solana.PublicKey, onChange AccountChange) error {
	if c.WsClient == nil {
		return errors.New("websocket endpoint not configured")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		watchErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			watchErr = err
			cancel()
		})
	}

	for _, key := range keys {
		sub, err := c.WsClient.AccountSubscribe(key, rpc.CommitmentProcessed)
		if err != nil {
			fail(fmt.Errorf("subscribe %s: %w", key, err))
			break
		}
		wg.Add(1)
		go func(key solana.PublicKey) {
			defer wg.Done()
			defer sub.Unsubscribe()
			for {
				res, err := sub.Recv(ctx)
				if err != nil {
					if ctx.Err() == nil {
						fail(fmt.Errorf("account %s subscription: %w", key, err))
					}
					return
				}
				c.logger.Debug("account changed", zap.Stringer("account", key), zap.Uint64("slot", res.Context.Slot))
				onChange(key, res.Context.Slot)
			}
		}(key)
	}

	<-ctx.Done()
	wg.Wait()
	if watchErr != nil {
		return watchErr
	}
	return ctx.Err()
}
