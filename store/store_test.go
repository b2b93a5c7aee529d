package store

import (
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viabridge/libvia-go/deposit"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func outpoint(t *testing.T, txid string, vout uint32) wire.OutPoint {
	t.Helper()
	h, err := chainhash.NewHashFromStr(txid)
	require.NoError(t, err)
	return wire.OutPoint{Hash: *h, Index: vout}
}

const testTxID = "7f3c2a9b6e1d4c8f0a5b3e7d9c1f2a4b6e8d0c2f4a6b8d0e2f4a6c8e0d2f4a6b"

// --- Reservation tests ---

func TestReserveAndRelease(t *testing.T) {
	s := openTestStore(t)

	op := outpoint(t, testTxID, 0)
	require.NoError(t, s.Reserve([]wire.OutPoint{op}))

	held, err := s.IsReserved(op)
	require.NoError(t, err)
	assert.True(t, held)

	require.NoError(t, s.Release([]wire.OutPoint{op}))

	held, err = s.IsReserved(op)
	require.NoError(t, err)
	assert.False(t, held)
}

func TestReserveConflict(t *testing.T) {
	s := openTestStore(t)

	op0 := outpoint(t, testTxID, 0)
	op1 := outpoint(t, testTxID, 1)
	require.NoError(t, s.Reserve([]wire.OutPoint{op0}))

	// A set overlapping a held outpoint is rejected atomically: the free
	// outpoint must not be reserved either.
	err := s.Reserve([]wire.OutPoint{op1, op0})
	assert.ErrorIs(t, err, ErrAlreadyReserved)

	held, err := s.IsReserved(op1)
	require.NoError(t, err)
	assert.False(t, held, "partial reservation must not persist")
}

func TestReserveEmpty(t *testing.T) {
	s := openTestStore(t)
	assert.ErrorIs(t, s.Reserve(nil), ErrNilParam)
}

func TestReleaseUnknownOutpoint(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.Release([]wire.OutPoint{outpoint(t, testTxID, 7)}))
}

// --- Deposit record tests ---

func testDeposit(t *testing.T) *deposit.DepositTransaction {
	t.Helper()
	h, err := chainhash.NewHashFromStr(testTxID)
	require.NoError(t, err)
	return &deposit.DepositTransaction{
		TxID:   *h,
		Raw:    []byte{0x02, 0x00, 0xab, 0xcd},
		Amount: 100_000,
		Fee:    1_500,
		Change: 23_500,
		Inputs: []deposit.UTXO{
			{TxID: *h, Vout: 1, Amount: 125_000},
		},
	}
}

func TestRecordAndGet(t *testing.T) {
	s := openTestStore(t)

	dep := testDeposit(t)
	recipient := "0x47c5a810a31bfcd05b6a5ab2a44ee11aa9e8b2e9"
	require.NoError(t, s.Record(dep, recipient))

	rec, err := s.GetDeposit(testTxID)
	require.NoError(t, err)

	assert.Equal(t, testTxID, rec.TxID)
	assert.Equal(t, recipient, rec.L2Recipient)
	assert.Equal(t, int64(100_000), rec.Amount)
	assert.Equal(t, int64(1_500), rec.Fee)
	assert.Equal(t, int64(23_500), rec.Change)
	assert.Equal(t, "0200abcd", rec.RawHex)
	require.Len(t, rec.Inputs, 1)
	assert.Equal(t, testTxID+":1", rec.Inputs[0])
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestRecordNil(t *testing.T) {
	s := openTestStore(t)
	assert.ErrorIs(t, s.Record(nil, "0xabc"), ErrNilParam)
}

func TestGetDepositNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetDeposit("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListDeposits(t *testing.T) {
	s := openTestStore(t)

	records, err := s.ListDeposits()
	require.NoError(t, err)
	assert.Empty(t, records)

	require.NoError(t, s.Record(testDeposit(t), "0xaaa"))

	records, err = s.ListDeposits()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, testTxID, records[0].TxID)
}

// --- Persistence across reopen ---

func TestReopenKeepsState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	s, err := Open(path)
	require.NoError(t, err)
	op := outpoint(t, testTxID, 2)
	require.NoError(t, s.Reserve([]wire.OutPoint{op}))
	require.NoError(t, s.Record(testDeposit(t), "0xbbb"))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	held, err := s.IsReserved(op)
	require.NoError(t, err)
	assert.True(t, held)

	_, err = s.GetDeposit(testTxID)
	assert.NoError(t, err)
}
