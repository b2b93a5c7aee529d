// Package store persists the deposit ledger in a local bbolt database:
// finalized deposits keyed by txid, and outpoint reservations that keep
// concurrent builders off each other's inputs.
package store

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcd/wire"
	"go.etcd.io/bbolt"

	"github.com/viabridge/libvia-go/deposit"
)

var (
	bucketDeposits     = []byte("deposits")
	bucketReservations = []byte("reservations")
)

// DepositRecord is the persisted form of one broadcast deposit.
type DepositRecord struct {
	TxID        string    `json:"txid"`
	L2Recipient string    `json:"l2_recipient"`
	Amount      int64     `json:"amount"`
	Fee         int64     `json:"fee"`
	Change      int64     `json:"change"`
	RawHex      string    `json:"raw_hex"`
	Inputs      []string  `json:"inputs"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store wraps a bbolt database holding the deposit ledger.
type Store struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ deposit.Ledger = (*Store)(nil)

// Open opens or creates the ledger database at dbPath. The parent
// directory is created if it does not exist.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketDeposits, bucketReservations} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("store: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// outpointKey encodes an outpoint as its conventional "txid:vout" form.
func outpointKey(op wire.OutPoint) []byte {
	return []byte(fmt.Sprintf("%s:%d", op.Hash.String(), op.Index))
}

// Reserve marks the outpoints as held by a pending deposit. The whole set
// is reserved atomically: if any outpoint is already held, nothing is
// written and ErrAlreadyReserved is returned.
func (s *Store) Reserve(outpoints []wire.OutPoint) error {
	if len(outpoints) == 0 {
		return fmt.Errorf("%w: outpoints", ErrNilParam)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketReservations)
		for _, op := range outpoints {
			if b.Get(outpointKey(op)) != nil {
				return fmt.Errorf("%w: %s:%d", ErrAlreadyReserved, op.Hash, op.Index)
			}
		}
		now, err := time.Now().UTC().MarshalText()
		if err != nil {
			return err
		}
		for _, op := range outpoints {
			if err := b.Put(outpointKey(op), now); err != nil {
				return fmt.Errorf("store: put reservation: %w", err)
			}
		}
		return nil
	})
}

// Release frees previously reserved outpoints, e.g. after a failed
// broadcast. Unknown outpoints are ignored.
func (s *Store) Release(outpoints []wire.OutPoint) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketReservations)
		for _, op := range outpoints {
			if err := b.Delete(outpointKey(op)); err != nil {
				return fmt.Errorf("store: delete reservation: %w", err)
			}
		}
		return nil
	})
}

// IsReserved reports whether the outpoint is currently held.
func (s *Store) IsReserved(op wire.OutPoint) (bool, error) {
	var held bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		held = tx.Bucket(bucketReservations).Get(outpointKey(op)) != nil
		return nil
	})
	return held, err
}

// Record persists a broadcast deposit keyed by its txid.
func (s *Store) Record(dep *deposit.DepositTransaction, l2Recipient string) error {
	if dep == nil {
		return fmt.Errorf("%w: deposit", ErrNilParam)
	}

	rec := DepositRecord{
		TxID:        dep.TxID.String(),
		L2Recipient: l2Recipient,
		Amount:      dep.Amount,
		Fee:         dep.Fee,
		Change:      dep.Change,
		RawHex:      hex.EncodeToString(dep.Raw),
		CreatedAt:   time.Now().UTC(),
	}
	for _, in := range dep.Inputs {
		op := in.OutPoint()
		rec.Inputs = append(rec.Inputs, fmt.Sprintf("%s:%d", op.Hash.String(), op.Index))
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("store: encode record: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketDeposits).Put([]byte(rec.TxID), data); err != nil {
			return fmt.Errorf("store: put deposit: %w", err)
		}
		return nil
	})
}

// GetDeposit returns the record for txid, or ErrNotFound.
func (s *Store) GetDeposit(txid string) (*DepositRecord, error) {
	var rec DepositRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDeposits).Get([]byte(txid))
		if data == nil {
			return fmt.Errorf("%w: deposit %s", ErrNotFound, txid)
		}
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListDeposits returns all recorded deposits in key order.
func (s *Store) ListDeposits() ([]DepositRecord, error) {
	var records []DepositRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDeposits).ForEach(func(_, v []byte) error {
			var rec DepositRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("store: decode record: %w", err)
			}
			records = append(records, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}
