package sol

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// GetAccounts returns the raw data of keys in order, nil where an account
// does not exist. Requests are split into MaxMultipleAccounts sized batches.
func (c *Client) GetAccounts(ctx context.Context, keys []solana.PublicKey) ([][]byte, error) {
	out := make([][]byte, 0, len(keys))
	for start := 0; start < len(keys); start += MaxMultipleAccounts {
		end := min(start+MaxMultipleAccounts, len(keys))
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		results, err := c.RpcClient.GetMultipleAccountsWithOpts(ctx, keys[start:end], &rpc.GetMultipleAccountsOpts{
			Commitment: c.commitment,
		})
		if err != nil {
			return nil, fmt.Errorf("batch request failed: %w", err)
		}
		if len(results.Value) != end-start {
			return nil, fmt.Errorf("batch request returned %d accounts for %d keys", len(results.Value), end-start)
		}
		for i, acc := range results.Value {
			if acc == nil {
				c.logger.Debug("account not found", zap.Stringer("account", keys[start+i]))
				out = append(out, nil)
				continue
			}
			out = append(out, acc.Data.GetBinary())
		}
	}
	return out, nil
}

// GetEpoch returns the current epoch.
func (c *Client) GetEpoch(ctx context.Context) (uint64, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	info, err := c.RpcClient.GetEpochInfo(ctx, c.commitment)
	if err != nil {
		return 0, fmt.Errorf("get epoch info: %w", err)
	}
	return info.Epoch, nil
}

// GetAccount returns the raw data and owner of one account.
func (c *Client) GetAccount(ctx context.Context, key solana.PublicKey) ([]byte, solana.PublicKey, error) {
	if err := c.wait(ctx); err != nil {
		return nil, solana.PublicKey{}, err
	}
	account, err := c.RpcClient.GetAccountInfoWithOpts(ctx, key, &rpc.GetAccountInfoOpts{
		Commitment: c.commitment,
	})
	if err != nil {
		return nil, solana.PublicKey{}, fmt.Errorf("failed to get account %s: %w", key, err)
	}
	if account == nil || account.Value == nil {
		return nil, solana.PublicKey{}, fmt.Errorf("account %s: %w", key, rpc.ErrNotFound)
	}
	return account.Value.Data.GetBinary(), account.Value.Owner, nil
}
