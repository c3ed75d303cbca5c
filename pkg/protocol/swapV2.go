package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gtdvccc/swapioclmm/pkg/pool/clmm"
	"lukechampine.com/uint128"
)

// anchor discriminator of swap_v2
var swapV2Discriminator = []byte{43, 4, 237, 11, 26, 201, 30, 98}

// SwapV2Instruction is a complete swap_v2 instruction: the payer, the pool
// accounts and the borsh encoded arguments.
type SwapV2Instruction struct {
	Amount               uint64
	OtherAmountThreshold uint64
	// SqrtPriceLimitX64 of zero lets the program use the price bound of the
	// swap direction.
	SqrtPriceLimitX64 uint128.Uint128
	IsBaseInput       bool

	programID               solana.PublicKey
	solana.AccountMetaSlice `bin:"-" borsh_skip:"true"`
}

// NewSwapV2Instruction prepends payer as signer to the pool accounts.
func NewSwapV2Instruction(payer solana.PublicKey, accounts *clmm.SwapInstruction) *SwapV2Instruction {
	metas := accounts.Accounts()
	inst := &SwapV2Instruction{
		programID:        accounts.ProgramID(),
		AccountMetaSlice: make(solana.AccountMetaSlice, 0, 1+len(metas)),
	}
	inst.AccountMetaSlice = append(inst.AccountMetaSlice, solana.NewAccountMeta(payer, false, true)) // payer
	inst.AccountMetaSlice = append(inst.AccountMetaSlice, metas...)
	return inst
}

// WithQuote sets the arguments from a quote. Exact input swaps pass the
// input and the minimum output, exact output swaps the output and the
// maximum input.
func (inst *SwapV2Instruction) WithQuote(q clmm.Quote) (*SwapV2Instruction, error) {
	amount := q.InAmount
	if !q.ExactInput {
		amount = q.OutAmount
	}
	if !amount.IsUint64() || !q.OtherAmountThreshold.IsUint64() {
		return nil, fmt.Errorf("%w: quote amounts exceed u64", clmm.ErrArithmetic)
	}
	inst.Amount = amount.Uint64()
	inst.OtherAmountThreshold = q.OtherAmountThreshold.Uint64()
	inst.IsBaseInput = q.ExactInput
	return inst, nil
}

// ProgramID returns the pool program.
func (inst *SwapV2Instruction) ProgramID() solana.PublicKey {
	return inst.programID
}

// Accounts returns the account metas for the instruction
func (inst *SwapV2Instruction) Accounts() (out []*solana.AccountMeta) {
	return inst.AccountMetaSlice
}

// Data serializes the instruction data
func (inst *SwapV2Instruction) Data() ([]byte, error) {
	buf := new(bytes.Buffer)
	if _, err := buf.Write(swapV2Discriminator); err != nil {
		return nil, fmt.Errorf("failed to write discriminator: %w", err)
	}

	enc := bin.NewBorshEncoder(buf)
	if err := enc.WriteUint64(inst.Amount, binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("failed to encode amount: %w", err)
	}
	if err := enc.WriteUint64(inst.OtherAmountThreshold, binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("failed to encode other amount threshold: %w", err)
	}
	// u128 little endian: low word first
	if err := enc.WriteUint64(inst.SqrtPriceLimitX64.Lo, binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("failed to encode sqrt price limit lo: %w", err)
	}
	if err := enc.WriteUint64(inst.SqrtPriceLimitX64.Hi, binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("failed to encode sqrt price limit hi: %w", err)
	}
	if err := enc.WriteBool(inst.IsBaseInput); err != nil {
		return nil, fmt.Errorf("failed to encode is base input: %w", err)
	}
	return buf.Bytes(), nil
}
