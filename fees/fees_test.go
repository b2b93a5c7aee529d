package fees

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viabridge/libvia-go/codec"
)

type mockEstimator struct {
	EstimateFeeFn func(ctx context.Context, tx *codec.TypedTransaction) (*Quote, error)
	calls         int
}

func (m *mockEstimator) EstimateFee(ctx context.Context, tx *codec.TypedTransaction) (*Quote, error) {
	m.calls++
	return m.EstimateFeeFn(ctx, tx)
}

func fullQuote() *Quote {
	return &Quote{
		GasLimit:             big.NewInt(500_000),
		MaxFeePerGas:         big.NewInt(250_000_000),
		MaxPriorityFeePerGas: big.NewInt(100_000_000),
		GasPerPubdataLimit:   big.NewInt(800),
	}
}

func quoteEstimator() *mockEstimator {
	return &mockEstimator{
		EstimateFeeFn: func(context.Context, *codec.TypedTransaction) (*Quote, error) {
			return fullQuote(), nil
		},
	}
}

// --- Conflict detection ---

func TestPopulate_ConflictingFeeSpec(t *testing.T) {
	est := quoteEstimator()
	c := &Candidate{
		Tx:       &codec.TypedTransaction{MaxFeePerGas: big.NewInt(1)},
		GasPrice: big.NewInt(2),
	}

	err := Populate(context.Background(), est, c)
	assert.ErrorIs(t, err, ErrConflictingFeeSpec)
	// The conflict is detected before any external call.
	assert.Zero(t, est.calls)
}

func TestPopulate_ConflictWithPriorityFee(t *testing.T) {
	est := quoteEstimator()
	c := &Candidate{
		Tx:       &codec.TypedTransaction{MaxPriorityFeePerGas: big.NewInt(1)},
		GasPrice: big.NewInt(2),
	}

	err := Populate(context.Background(), est, c)
	assert.ErrorIs(t, err, ErrConflictingFeeSpec)
	assert.Zero(t, est.calls)
}

// --- Typed candidates ---

func TestPopulate_TypedFillsAllMissing(t *testing.T) {
	est := quoteEstimator()
	c := &Candidate{Tx: &codec.TypedTransaction{}, Kind: KindTyped}

	require.NoError(t, Populate(context.Background(), est, c))
	assert.Equal(t, 1, est.calls)
	assert.Equal(t, int64(500_000), c.Tx.GasLimit.Int64())
	assert.Equal(t, int64(250_000_000), c.Tx.MaxFeePerGas.Int64())
	assert.Equal(t, int64(100_000_000), c.Tx.MaxPriorityFeePerGas.Int64())
	assert.Equal(t, int64(800), c.Tx.GasPerPubdata.Int64())
}

func TestPopulate_NeverOverwritesCallerValues(t *testing.T) {
	est := quoteEstimator()
	c := &Candidate{
		Tx: &codec.TypedTransaction{
			MaxFeePerGas:  big.NewInt(999),
			GasPerPubdata: big.NewInt(123),
		},
		Kind: KindTyped,
	}

	require.NoError(t, Populate(context.Background(), est, c))
	assert.Equal(t, int64(999), c.Tx.MaxFeePerGas.Int64())
	assert.Equal(t, int64(123), c.Tx.GasPerPubdata.Int64())
	// Only the still-missing fields came from the quote.
	assert.Equal(t, int64(500_000), c.Tx.GasLimit.Int64())
	assert.Equal(t, int64(100_000_000), c.Tx.MaxPriorityFeePerGas.Int64())
}

func TestPopulate_CompleteCandidateSkipsEstimator(t *testing.T) {
	est := quoteEstimator()
	c := &Candidate{
		Tx: &codec.TypedTransaction{
			GasLimit:             big.NewInt(21_000),
			MaxFeePerGas:         big.NewInt(10),
			MaxPriorityFeePerGas: big.NewInt(1),
			GasPerPubdata:        big.NewInt(800),
		},
		Kind: KindTyped,
	}

	require.NoError(t, Populate(context.Background(), est, c))
	assert.Zero(t, est.calls)
}

// --- Legacy candidates ---

func TestPopulate_LegacyTakesQuoteMaxFee(t *testing.T) {
	est := quoteEstimator()
	c := &Candidate{Tx: &codec.TypedTransaction{}, Kind: KindLegacy}

	require.NoError(t, Populate(context.Background(), est, c))
	// An absent legacy gas price collapses into both max-fee fields equal.
	assert.Equal(t, int64(250_000_000), c.GasPrice.Int64())
	assert.Equal(t, int64(250_000_000), c.Tx.MaxFeePerGas.Int64())
	assert.Equal(t, int64(250_000_000), c.Tx.MaxPriorityFeePerGas.Int64())
	// Legacy transactions never get a gas-per-pubdata limit.
	assert.Nil(t, c.Tx.GasPerPubdata)
}

func TestPopulate_LegacyKeepsCallerGasPrice(t *testing.T) {
	est := quoteEstimator()
	c := &Candidate{
		Tx:       &codec.TypedTransaction{},
		Kind:     KindLegacy,
		GasPrice: big.NewInt(77),
	}

	require.NoError(t, Populate(context.Background(), est, c))
	assert.Equal(t, int64(77), c.GasPrice.Int64())
	assert.Equal(t, int64(77), c.Tx.MaxFeePerGas.Int64())
	assert.Equal(t, int64(77), c.Tx.MaxPriorityFeePerGas.Int64())
}

// --- Dynamic candidates ---

func TestPopulate_DynamicSkipsGasPerPubdata(t *testing.T) {
	est := quoteEstimator()
	c := &Candidate{Tx: &codec.TypedTransaction{}, Kind: KindDynamic}

	require.NoError(t, Populate(context.Background(), est, c))
	assert.Equal(t, int64(250_000_000), c.Tx.MaxFeePerGas.Int64())
	assert.Equal(t, int64(100_000_000), c.Tx.MaxPriorityFeePerGas.Int64())
	assert.Nil(t, c.Tx.GasPerPubdata)
}

// --- Collaborator failures ---

func TestPopulate_EstimatorErrorPropagates(t *testing.T) {
	boom := errors.New("node unreachable")
	est := &mockEstimator{
		EstimateFeeFn: func(context.Context, *codec.TypedTransaction) (*Quote, error) {
			return nil, boom
		},
	}
	c := &Candidate{Tx: &codec.TypedTransaction{}, Kind: KindTyped}

	err := Populate(context.Background(), est, c)
	assert.ErrorIs(t, err, ErrEstimateFailed)
	assert.ErrorIs(t, err, boom)
	// One attempt only; retry policy belongs to the caller.
	assert.Equal(t, 1, est.calls)
}

func TestPopulate_IncompleteQuote(t *testing.T) {
	est := &mockEstimator{
		EstimateFeeFn: func(context.Context, *codec.TypedTransaction) (*Quote, error) {
			return &Quote{GasLimit: big.NewInt(1)}, nil
		},
	}
	c := &Candidate{Tx: &codec.TypedTransaction{}, Kind: KindTyped}

	err := Populate(context.Background(), est, c)
	assert.ErrorIs(t, err, ErrIncompleteQuote)
}

func TestPopulate_NilCandidate(t *testing.T) {
	assert.ErrorIs(t, Populate(context.Background(), quoteEstimator(), nil), ErrNilTransaction)
	assert.ErrorIs(t, Populate(context.Background(), quoteEstimator(), &Candidate{}), ErrNilTransaction)
}
