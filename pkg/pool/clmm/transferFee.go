package clmm

import (
	"encoding/binary"
	"fmt"

	"cosmossdk.io/math"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
)

// Token-2022 layout constants.
const (
	mintBaseLen          = 82
	accountTypeOffset    = 165
	accountTypeMint      = 1
	tlvStart             = accountTypeOffset + 1
	extensionTransferFee = 1
	transferFeeConfigLen = 32 + 32 + 8 + 2*transferFeeLen
	transferFeeLen       = 8 + 8 + 2

	MAX_FEE_BASIS_POINTS = 10000
)

// TransferFee is one epoch-scoped fee schedule of a Token-2022 mint.
type TransferFee struct {
	Epoch                  uint64
	MaximumFee             uint64
	TransferFeeBasisPoints uint16
}

// TransferFeeConfig is the Token-2022 TransferFeeConfig extension.
type TransferFeeConfig struct {
	TransferFeeConfigAuthority solana.PublicKey
	WithdrawWithheldAuthority  solana.PublicKey
	WithheldAmount             uint64
	OlderTransferFee           TransferFee
	NewerTransferFee           TransferFee
}

// MintInfo is a decoded SPL or Token-2022 mint.
type MintInfo struct {
	Mint              token.Mint
	TransferFeeConfig *TransferFeeConfig
	Raw               []byte
}

// DecodeMint parses the base mint and, for Token-2022 mints, the transfer
// fee extension if present.
func DecodeMint(data []byte) (*MintInfo, error) {
	if len(data) < mintBaseLen {
		return nil, fmt.Errorf("%w: mint needs %d bytes, got %d", ErrDeserialization, mintBaseLen, len(data))
	}
	info := &MintInfo{Raw: append([]byte(nil), data...)}
	if err := info.Mint.UnmarshalWithDecoder(bin.NewBinDecoder(data[:mintBaseLen])); err != nil {
		return nil, fmt.Errorf("%w: mint: %v", ErrDeserialization, err)
	}
	if !info.Mint.IsInitialized {
		return nil, fmt.Errorf("%w: mint is not initialized", ErrDeserialization)
	}
	if len(data) <= accountTypeOffset {
		return info, nil
	}
	if data[accountTypeOffset] != accountTypeMint {
		return nil, fmt.Errorf("%w: account type %d is not a mint", ErrDeserialization, data[accountTypeOffset])
	}

	offset := tlvStart
	for offset+4 <= len(data) {
		extType := binary.LittleEndian.Uint16(data[offset : offset+2])
		extLen := int(binary.LittleEndian.Uint16(data[offset+2 : offset+4]))
		offset += 4
		if extType == 0 {
			break
		}
		if offset+extLen > len(data) {
			return nil, fmt.Errorf("%w: extension %d overruns mint data", ErrDeserialization, extType)
		}
		if extType == extensionTransferFee {
			if extLen < transferFeeConfigLen {
				return nil, fmt.Errorf("%w: transfer fee config has %d bytes", ErrDeserialization, extLen)
			}
			cfg := &TransferFeeConfig{}
			if err := bin.NewBinDecoder(data[offset : offset+extLen]).Decode(cfg); err != nil {
				return nil, fmt.Errorf("%w: transfer fee config: %v", ErrDeserialization, err)
			}
			info.TransferFeeConfig = cfg
		}
		offset += extLen
	}
	return info, nil
}

// EpochFee returns the fee schedule in force at epoch.
func (c *TransferFeeConfig) EpochFee(epoch uint64) TransferFee {
	if epoch >= c.NewerTransferFee.Epoch {
		return c.NewerTransferFee
	}
	return c.OlderTransferFee
}

// Fee returns the transfer fee withheld from amount, rounded up and capped
// at MaximumFee.
func (f TransferFee) Fee(amount uint64) uint64 {
	if f.TransferFeeBasisPoints == 0 || amount == 0 {
		return 0
	}
	raw := math.NewIntFromUint64(amount).
		Mul(math.NewInt(int64(f.TransferFeeBasisPoints))).
		Add(math.NewInt(MAX_FEE_BASIS_POINTS - 1)).
		Quo(math.NewInt(MAX_FEE_BASIS_POINTS))
	if raw.GT(math.NewIntFromUint64(f.MaximumFee)) {
		return f.MaximumFee
	}
	return raw.Uint64()
}

// InverseFee returns the extra amount a sender must add so that the
// recipient still receives postFeeAmount.
func (f TransferFee) InverseFee(postFeeAmount uint64) (uint64, error) {
	if f.TransferFeeBasisPoints == MAX_FEE_BASIS_POINTS {
		return f.MaximumFee, nil
	}
	if f.TransferFeeBasisPoints == 0 || postFeeAmount == 0 {
		return 0, nil
	}
	post := math.NewIntFromUint64(postFeeAmount)
	denominator := math.NewInt(MAX_FEE_BASIS_POINTS - int64(f.TransferFeeBasisPoints))
	preFee := post.Mul(math.NewInt(MAX_FEE_BASIS_POINTS)).Add(denominator.Sub(math.OneInt())).Quo(denominator)
	fee := preFee.Sub(post)
	if fee.GTE(math.NewIntFromUint64(f.MaximumFee)) {
		return f.MaximumFee, nil
	}
	if !fee.IsUint64() {
		return 0, fmt.Errorf("%w: inverse transfer fee overflows u64", ErrArithmetic)
	}
	return fee.Uint64(), nil
}

// TransferFee returns the fee charged on transferring amount at epoch.
func (m *MintInfo) TransferFee(epoch, amount uint64) uint64 {
	if m == nil || m.TransferFeeConfig == nil {
		return 0
	}
	return m.TransferFeeConfig.EpochFee(epoch).Fee(amount)
}

// TransferInverseFee returns the fee to add on top of postFeeAmount at epoch.
func (m *MintInfo) TransferInverseFee(epoch, postFeeAmount uint64) (uint64, error) {
	if m == nil || m.TransferFeeConfig == nil {
		return 0, nil
	}
	return m.TransferFeeConfig.EpochFee(epoch).InverseFee(postFeeAmount)
}
