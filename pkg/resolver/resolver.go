package resolver

import (
	"context"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"github.com/railgun-community/broadcaster-directory/pkg/directory"
)

// The fee is paid as an extra note inside the transaction, so the fee amount
// changes the transaction's size, which changes its gas estimate, which
// changes the fee. Resolve searches for the fixed point of that loop.

// BuildTxFunc rebuilds the transaction with the given fee amount embedded.
// The transaction value is opaque to the resolver.
type BuildTxFunc func(feeAmount *big.Int) (any, error)

// EstimateGasFunc estimates gas for a built transaction.
type EstimateGasFunc func(ctx context.Context, tx any) (uint64, error)

// ConvergenceError reports a fee that never stabilized within the iteration
// bound. Oscillation is possible when gas estimation jumps at a note-count
// boundary.
type ConvergenceError struct {
	Iterations int
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("fee did not converge after %d iterations", e.Iterations)
}

// Resolver converges the exact fee amount for a selected broadcaster. The
// whole fee is denominated in the candidate's single token; splitting a fee
// across tokens is not supported because it is paid through one note.
type Resolver struct {
	// MaxIterations bounds the search; an in-flight iteration is not
	// cancellable, the bound is the only limit.
	MaxIterations int
	// ToleranceUnits is the acceptable difference between consecutive fee
	// amounts, in token base units. Zero means exact equality.
	ToleranceUnits *big.Int
	Logger         *zap.Logger
}

func New(logger *zap.Logger) *Resolver {
	return &Resolver{
		MaxIterations:  5,
		ToleranceUnits: big.NewInt(0),
		Logger:         logger,
	}
}

// Resolve returns the final transaction and the converged fee amount
// (gasEstimate * candidate.FeePerUnitGas).
func (r *Resolver) Resolve(ctx context.Context, c *directory.Candidate, build BuildTxFunc, estimate EstimateGasFunc) (any, *big.Int, error) {
	rate := c.FeePerUnitGas
	tolerance := r.ToleranceUnits
	if tolerance == nil {
		tolerance = big.NewInt(0)
	}

	tx, err := build(big.NewInt(0))
	if err != nil {
		return nil, nil, fmt.Errorf("build transaction: %w", err)
	}
	gas, err := estimate(ctx, tx)
	if err != nil {
		return nil, nil, fmt.Errorf("estimate gas: %w", err)
	}
	fee := new(big.Int).Mul(new(big.Int).SetUint64(gas), rate)

	for i := 0; i < r.MaxIterations; i++ {
		tx, err = build(fee)
		if err != nil {
			return nil, nil, fmt.Errorf("build transaction: %w", err)
		}
		gas, err = estimate(ctx, tx)
		if err != nil {
			return nil, nil, fmt.Errorf("estimate gas: %w", err)
		}
		next := new(big.Int).Mul(new(big.Int).SetUint64(gas), rate)

		diff := new(big.Int).Abs(new(big.Int).Sub(next, fee))
		if r.Logger != nil {
			r.Logger.Debug("fee_iteration",
				zap.Int("iteration", i+1),
				zap.Uint64("gas", gas),
				zap.String("fee", next.String()),
			)
		}
		if diff.Cmp(tolerance) <= 0 {
			// fee is what the returned transaction actually embeds
			return tx, fee, nil
		}
		fee = next
	}

	return nil, nil, &ConvergenceError{Iterations: r.MaxIterations}
}
