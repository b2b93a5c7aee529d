package deposit

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// UTXO is an unspent output controlled by the funding address. Immutable
// once observed; a constructed input consumes it exactly once.
type UTXO struct {
	TxID     chainhash.Hash
	Vout     uint32
	Amount   int64 // satoshis
	PkScript []byte
}

// OutPoint returns the wire outpoint of the output.
func (u UTXO) OutPoint() wire.OutPoint {
	return wire.OutPoint{Hash: u.TxID, Index: u.Vout}
}

// Selection is the result of running a strategy: the chosen inputs, their
// total value, the fee charged for spending them, and the exact change.
type Selection struct {
	Inputs []UTXO
	Total  int64
	Fee    int64
	Change int64
}

// FeeFunc returns the fee for a transaction spending n inputs. The builder
// derives it from the script family's input weight and the output set, so
// strategies stay free of I/O and weight arithmetic.
type FeeFunc func(n int) int64

// Strategy picks a covering subset of candidate outputs. Implementations
// must be pure and deterministic: identical candidate sets yield identical
// selections.
type Strategy interface {
	Name() string
	Select(candidates []UTXO, amount int64, fee FeeFunc) (*Selection, error)
}

// FirstFit walks the candidates in observed order and stops as soon as the
// running total covers amount plus fee. This is the default strategy.
func FirstFit() Strategy { return firstFit{} }

// MinimizeInputs spends the largest outputs first, producing the smallest
// covering input count first-fit can reach.
func MinimizeInputs() Strategy { return minimizeInputs{} }

// MinimizeChange searches for the covering subset with the smallest
// non-negative change. Candidate sets larger than the exhaustive-search
// bound fall back to smallest-first accumulation, which also biases toward
// low change. Deterministic in both regimes.
func MinimizeChange() Strategy { return minimizeChange{} }

type firstFit struct{}

func (firstFit) Name() string { return "first-fit" }

func (firstFit) Select(candidates []UTXO, amount int64, fee FeeFunc) (*Selection, error) {
	return accumulate(candidates, amount, fee)
}

type minimizeInputs struct{}

func (minimizeInputs) Name() string { return "minimize-inputs" }

func (minimizeInputs) Select(candidates []UTXO, amount int64, fee FeeFunc) (*Selection, error) {
	return accumulate(sortedByAmount(candidates, true), amount, fee)
}

type minimizeChange struct{}

// exhaustiveBound caps subset enumeration at 2^16 combinations.
const exhaustiveBound = 16

func (minimizeChange) Name() string { return "minimize-change" }

func (minimizeChange) Select(candidates []UTXO, amount int64, fee FeeFunc) (*Selection, error) {
	if len(candidates) > exhaustiveBound {
		return accumulate(sortedByAmount(candidates, false), amount, fee)
	}

	ordered := sortedByAmount(candidates, true)
	best := -1
	var bestSel Selection
	for mask := 1; mask < 1<<len(ordered); mask++ {
		var total int64
		var n int
		for i := range ordered {
			if mask&(1<<i) != 0 {
				total += ordered[i].Amount
				n++
			}
		}
		f := fee(n)
		change := total - amount - f
		if change < 0 {
			continue
		}
		better := best == -1 ||
			change < bestSel.Change ||
			(change == bestSel.Change && n < len(bestSel.Inputs))
		if !better {
			continue
		}
		inputs := make([]UTXO, 0, n)
		for i := range ordered {
			if mask&(1<<i) != 0 {
				inputs = append(inputs, ordered[i])
			}
		}
		best = mask
		bestSel = Selection{Inputs: inputs, Total: total, Fee: f, Change: change}
	}
	if best == -1 {
		return nil, coverError(candidates, amount)
	}
	return &bestSel, nil
}

// accumulate adds candidates in the given order until amount plus the fee
// for the inputs taken so far is covered.
func accumulate(candidates []UTXO, amount int64, fee FeeFunc) (*Selection, error) {
	var total int64
	inputs := make([]UTXO, 0, len(candidates))
	for _, u := range candidates {
		inputs = append(inputs, u)
		total += u.Amount
		f := fee(len(inputs))
		if total >= amount+f {
			return &Selection{
				Inputs: inputs,
				Total:  total,
				Fee:    f,
				Change: total - amount - f,
			}, nil
		}
	}
	return nil, coverError(candidates, amount)
}

// sortedByAmount returns a sorted copy; ties break on txid then vout so the
// order is total and reproducible.
func sortedByAmount(candidates []UTXO, desc bool) []UTXO {
	out := make([]UTXO, len(candidates))
	copy(out, candidates)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			if desc {
				return out[i].Amount > out[j].Amount
			}
			return out[i].Amount < out[j].Amount
		}
		if c := bytes.Compare(out[i].TxID[:], out[j].TxID[:]); c != 0 {
			return c < 0
		}
		return out[i].Vout < out[j].Vout
	})
	return out
}

func coverError(candidates []UTXO, amount int64) error {
	var total int64
	for _, u := range candidates {
		total += u.Amount
	}
	return fmt.Errorf("%w: %d candidates totaling %d sat cannot cover %d sat plus fee",
		ErrSelectionFailed, len(candidates), total, amount)
}
