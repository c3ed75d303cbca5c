package clmm

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// AmmConfig holds the fee configuration shared by pools of one fee tier.
// Rates are fractions of FEE_RATE_DENOMINATOR.
type AmmConfig struct {
	Bump            uint8
	Index           uint16
	Owner           solana.PublicKey
	ProtocolFeeRate uint32
	TradeFeeRate    uint32
	TickSpacing     uint16
	FundFeeRate     uint32
	PaddingU32      uint32
	FundOwner       solana.PublicKey
	Padding         [3]uint64
}

// DecodeAmmConfig parses an AmmConfig account.
func DecodeAmmConfig(data []byte) (*AmmConfig, error) {
	if len(data) < AMM_CONFIG_LEN {
		return nil, fmt.Errorf("%w: amm config needs %d bytes, got %d", ErrDeserialization, AMM_CONFIG_LEN, len(data))
	}
	cfg := &AmmConfig{}
	decoder := bin.NewBinDecoder(data[DISCRIMINATOR_LEN:])
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("%w: amm config: %v", ErrDeserialization, err)
	}
	if cfg.TradeFeeRate >= uint32(FEE_RATE_DENOMINATOR.Int64()) {
		return nil, fmt.Errorf("%w: trade fee rate %d not below denominator", ErrDeserialization, cfg.TradeFeeRate)
	}
	return cfg, nil
}
