package clmm

import (
	"math/big"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSwapInstructionZeroForOne(t *testing.T) {
	snap := twoArrayMirror(t).Snapshot()
	src, dst := testKey(10), testKey(11)

	inst, err := BuildSwapInstruction(snap, testMint0, testMint1, src, dst)
	require.NoError(t, err)
	assert.Equal(t, SWAP_IO_CLMM_PROGRAM_ID, inst.ProgramID())

	data, err := inst.Data()
	require.NoError(t, err)
	assert.Empty(t, data)

	ext, err := TickArrayBitmapExtensionAddress(SWAP_IO_CLMM_PROGRAM_ID, testPool)
	require.NoError(t, err)

	type meta struct {
		key      solana.PublicKey
		writable bool
	}
	want := []meta{
		{testConfig, false},
		{testPool, true},
		{src, true},
		{dst, true},
		{testVault0, true},
		{testVault1, true},
		{testObservation, true},
		{solana.TokenProgramID, false},
		{TOKEN_2022_PROGRAM_ID, false},
		{MEMO_PROGRAM_ID, false},
		{testMint0, false},
		{testMint1, false},
		{ext, true},
	}
	for _, ta := range snap.DownArrays {
		addr, err := TickArrayAddress(SWAP_IO_CLMM_PROGRAM_ID, testPool, ta.StartTickIndex)
		require.NoError(t, err)
		want = append(want, meta{addr, true})
	}

	accounts := inst.Accounts()
	require.Len(t, accounts, 13+2)
	for i, w := range want {
		assert.Equal(t, w.key, accounts[i].PublicKey, "account %d", i)
		assert.Equal(t, w.writable, accounts[i].IsWritable, "account %d", i)
		assert.False(t, accounts[i].IsSigner, "account %d", i)
	}
}

func TestBuildSwapInstructionOneForZeroUsesUpWindow(t *testing.T) {
	snap := twoArrayMirror(t).Snapshot()

	inst, err := BuildSwapInstruction(snap, testMint1, testMint0, testKey(10), testKey(11))
	require.NoError(t, err)

	accounts := inst.Accounts()
	require.Len(t, accounts, 13+len(snap.UpArrays))
	assert.Equal(t, testVault1, accounts[4].PublicKey)
	assert.Equal(t, testVault0, accounts[5].PublicKey)
	assert.Equal(t, testMint1, accounts[10].PublicKey)
	assert.Equal(t, testMint0, accounts[11].PublicKey)

	first, err := TickArrayAddress(SWAP_IO_CLMM_PROGRAM_ID, testPool, 0)
	require.NoError(t, err)
	assert.Equal(t, first, accounts[13].PublicKey)
}

func TestBuildSwapInstructionEmptyWindow(t *testing.T) {
	p := defaultPoolParams()
	p.arrayIndexes = nil
	snap := newTestMirror(t, p, nil, nil).Snapshot()

	inst, err := BuildSwapInstruction(snap, testMint0, testMint1, testKey(10), testKey(11))
	require.NoError(t, err)
	assert.Len(t, inst.Accounts(), 13)
}

func TestBuildSwapInstructionRejectsForeignMint(t *testing.T) {
	snap := singleArrayMirror(t).Snapshot()
	_, err := BuildSwapInstruction(snap, testMint0, testConfig, testKey(10), testKey(11))
	assert.ErrorIs(t, err, ErrDirectionMismatch)
}

func TestBuildSwapInstructionListsLoadedArraysOnly(t *testing.T) {
	p := defaultPoolParams()
	p.arrayIndexes = []int32{-2, -1, 0}
	L := twoPow64()
	arr := encodeTickArray(testPool, 0, 60,
		testTick{tick: 0, liquidityNet: L},
		testTick{tick: 60, liquidityNet: new(big.Int).Neg(L)},
	)
	// discovery finds three down arrays but only the one at 0 is supplied
	snap := newTestMirror(t, p, nil, [][]byte{arr}).Snapshot()
	require.Equal(t, []int32{0, -3600, -7200}, snap.DownKeys.StartIndexes)
	require.Len(t, snap.DownArrays, 1)

	inst, err := BuildSwapInstruction(snap, testMint0, testMint1, testKey(10), testKey(11))
	require.NoError(t, err)

	loaded, err := TickArrayAddress(SWAP_IO_CLMM_PROGRAM_ID, testPool, 0)
	require.NoError(t, err)
	accounts := inst.Accounts()
	require.Len(t, accounts, 13+1)
	assert.Equal(t, loaded, accounts[13].PublicKey)
	assert.True(t, accounts[13].IsWritable)
}
