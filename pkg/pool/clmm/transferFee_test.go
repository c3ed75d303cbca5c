package clmm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferFee(t *testing.T) {
	testCases := []struct {
		name   string
		fee    TransferFee
		amount uint64
		want   uint64
	}{
		{"one percent", TransferFee{MaximumFee: 1_000_000_000, TransferFeeBasisPoints: 100}, 1_000_000, 10_000},
		{"capped", TransferFee{MaximumFee: 5_000, TransferFeeBasisPoints: 100}, 1_000_000, 5_000},
		{"rounds up", TransferFee{MaximumFee: 100, TransferFeeBasisPoints: 1}, 1, 1},
		{"zero rate", TransferFee{MaximumFee: 100, TransferFeeBasisPoints: 0}, 1_000_000, 0},
		{"zero amount", TransferFee{MaximumFee: 100, TransferFeeBasisPoints: 100}, 0, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.fee.Fee(tc.amount))
		})
	}
}

func TestTransferInverseFee(t *testing.T) {
	testCases := []struct {
		name string
		fee  TransferFee
		post uint64
		want uint64
	}{
		{"one percent", TransferFee{MaximumFee: 1_000_000_000, TransferFeeBasisPoints: 100}, 990_000, 10_000},
		{"capped", TransferFee{MaximumFee: 5_000, TransferFeeBasisPoints: 100}, 990_000, 5_000},
		{"full rate charges maximum", TransferFee{MaximumFee: 777, TransferFeeBasisPoints: MAX_FEE_BASIS_POINTS}, 1, 777},
		{"zero rate", TransferFee{MaximumFee: 777, TransferFeeBasisPoints: 0}, 990_000, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.fee.InverseFee(tc.post)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecodeToken2022MintSelectsEpochFee(t *testing.T) {
	older := TransferFee{Epoch: 0, MaximumFee: 1_000_000, TransferFeeBasisPoints: 50}
	newer := TransferFee{Epoch: 10, MaximumFee: 1_000_000, TransferFeeBasisPoints: 100}

	mint, err := DecodeMint(encodeToken2022Mint(6, older, newer))
	require.NoError(t, err)
	require.NotNil(t, mint.TransferFeeConfig)
	assert.Equal(t, uint8(6), mint.Mint.Decimals)
	assert.Equal(t, older, mint.TransferFeeConfig.OlderTransferFee)
	assert.Equal(t, newer, mint.TransferFeeConfig.NewerTransferFee)

	assert.Equal(t, uint64(5_000), mint.TransferFee(9, 1_000_000))
	assert.Equal(t, uint64(10_000), mint.TransferFee(10, 1_000_000))

	inverse, err := mint.TransferInverseFee(10, 990_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000), inverse)
}

func TestDecodePlainMintHasNoTransferFee(t *testing.T) {
	mint, err := DecodeMint(encodeMint(9))
	require.NoError(t, err)
	assert.Nil(t, mint.TransferFeeConfig)
	assert.Equal(t, uint64(1_000_000_000), mint.Mint.Supply)
	assert.Zero(t, mint.TransferFee(100, 1_000_000))

	inverse, err := mint.TransferInverseFee(100, 1_000_000)
	require.NoError(t, err)
	assert.Zero(t, inverse)
}

func TestDecodeMintRejectsUninitialized(t *testing.T) {
	data := encodeMint(9)
	data[45] = 0
	_, err := DecodeMint(data)
	assert.ErrorIs(t, err, ErrDeserialization)
}
