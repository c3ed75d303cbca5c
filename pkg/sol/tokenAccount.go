package sol

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

var Token2022ProgramID = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")

// FindAssociatedTokenAddress derives the associated token account of owner
// for a mint owned by tokenProgram.
func FindAssociatedTokenAddress(owner, mint, tokenProgram solana.PublicKey) (solana.PublicKey, error) {
	if tokenProgram.Equals(solana.TokenProgramID) {
		addr, _, err := solana.FindAssociatedTokenAddress(owner, mint)
		return addr, err
	}
	addr, _, err := solana.FindProgramAddress([][]byte{
		owner[:],
		tokenProgram[:],
		mint[:],
	}, solana.SPLAssociatedTokenAccountProgramID)
	return addr, err
}

// TokenProgramOf returns the token program that owns mint.
func (c *Client) TokenProgramOf(ctx context.Context, mint solana.PublicKey) (solana.PublicKey, error) {
	_, owner, err := c.GetAccount(ctx, mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if !owner.Equals(solana.TokenProgramID) && !owner.Equals(Token2022ProgramID) {
		return solana.PublicKey{}, fmt.Errorf("mint %s is owned by %s, not a token program", mint, owner)
	}
	return owner, nil
}

// SelectSPLTokenAccount returns an existing token account of user for
// tokenMint, or the associated token address when none exists yet. No
// account is created.
func (c *Client) SelectSPLTokenAccount(ctx context.Context, user, tokenMint solana.PublicKey) (solana.PublicKey, error) {
	if err := c.wait(ctx); err != nil {
		return solana.PublicKey{}, err
	}
	acc, err := c.RpcClient.GetTokenAccountsByOwner(ctx, user,
		&rpc.GetTokenAccountsConfig{Mint: tokenMint.ToPointer()},
		&rpc.GetTokenAccountsOpts{
			Encoding: "jsonParsed",
		},
	)
	if err != nil {
		c.logger.Warn("GetTokenAccountsByOwner failed", zap.Stringer("mint", tokenMint), zap.Error(err))
		return solana.PublicKey{}, err
	}
	if len(acc.Value) > 0 {
		return acc.Value[0].Pubkey, nil
	}

	tokenProgram, err := c.TokenProgramOf(ctx, tokenMint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return FindAssociatedTokenAddress(user, tokenMint, tokenProgram)
}
