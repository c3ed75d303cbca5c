package clmm

import (
	"github.com/gagliardetto/solana-go"
)

// SwapInstruction carries the account list of a swap. Data is empty; the
// caller encodes the instruction arguments.
type SwapInstruction struct {
	programID solana.PublicKey
	solana.AccountMetaSlice
}

// ProgramID returns the pool program.
func (inst *SwapInstruction) ProgramID() solana.PublicKey {
	return inst.programID
}

// Accounts returns the account metas in program order.
func (inst *SwapInstruction) Accounts() (out []*solana.AccountMeta) {
	return inst.AccountMetaSlice
}

// Data returns no bytes.
func (inst *SwapInstruction) Data() ([]byte, error) {
	return []byte{}, nil
}

// BuildSwapInstruction assembles the accounts for swapping srcMint into
// dstMint between the user's srcAccount and dstAccount. The loaded tick
// arrays of the swap direction, the same ones Quote walks, follow the
// thirteen fixed accounts in window order.
func BuildSwapInstruction(snap *Snapshot, srcMint, dstMint, srcAccount, dstAccount solana.PublicKey) (*SwapInstruction, error) {
	zeroForOne, err := snap.ZeroForOne(srcMint, dstMint)
	if err != nil {
		return nil, err
	}
	p := snap.Pool

	inputVault, outputVault := p.TokenVault1, p.TokenVault0
	inputVaultMint, outputVaultMint := p.TokenMint1, p.TokenMint0
	if zeroForOne {
		inputVault, outputVault = p.TokenVault0, p.TokenVault1
		inputVaultMint, outputVaultMint = p.TokenMint0, p.TokenMint1
	}

	exBitmapAddress, err := TickArrayBitmapExtensionAddress(p.ProgramID, p.Address)
	if err != nil {
		return nil, err
	}

	_, arrays, _ := snap.Window(DirectionForSwap(zeroForOne))
	inst := &SwapInstruction{
		programID:        p.ProgramID,
		AccountMetaSlice: make(solana.AccountMetaSlice, 0, 13+len(arrays)),
	}
	inst.AccountMetaSlice = append(inst.AccountMetaSlice,
		solana.NewAccountMeta(p.AmmConfig, false, false),           // ammConfig
		solana.NewAccountMeta(p.Address, true, false),              // poolState
		solana.NewAccountMeta(srcAccount, true, false),             // inputTokenAccount
		solana.NewAccountMeta(dstAccount, true, false),             // outputTokenAccount
		solana.NewAccountMeta(inputVault, true, false),             // inputVault
		solana.NewAccountMeta(outputVault, true, false),            // outputVault
		solana.NewAccountMeta(p.ObservationKey, true, false),       // observationState
		solana.NewAccountMeta(solana.TokenProgramID, false, false), // TOKEN_PROGRAM_ID
		solana.NewAccountMeta(TOKEN_2022_PROGRAM_ID, false, false), // TOKEN_2022_PROGRAM_ID
		solana.NewAccountMeta(MEMO_PROGRAM_ID, false, false),       // MEMO_PROGRAM_ID
		solana.NewAccountMeta(inputVaultMint, false, false),        // inputVaultMint
		solana.NewAccountMeta(outputVaultMint, false, false),       // outputVaultMint
		solana.NewAccountMeta(exBitmapAddress, true, false),        // tickArrayBitmapExtension
	)
	for _, tickArray := range arrays {
		addr, err := TickArrayAddress(p.ProgramID, p.Address, tickArray.StartTickIndex)
		if err != nil {
			return nil, err
		}
		inst.AccountMetaSlice = append(inst.AccountMetaSlice, solana.NewAccountMeta(addr, true, false))
	}
	return inst, nil
}
