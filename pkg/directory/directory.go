package directory

import (
	"context"
	"fmt"
	"math/big"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/railgun-community/broadcaster-directory/pkg/feemsg"
)

func New() *Directory {
	return &Directory{
		records: map[string]*Record{},
		fees:    map[feeKey]TokenFee{},
	}
}

// Upsert replaces the broadcaster's record with the announcement and sets a
// fee entry for every token the announcement mentions. Entries for tokens the
// broadcaster advertised earlier but omitted now are left in place; they stay
// until the broadcaster mentions the token again or they expire at query time.
// Last write wins by arrival order, regardless of the announcement's own clock.
func (d *Directory) Upsert(ann *feemsg.FeeAnnouncement) error {
	if !common.IsHexAddress(ann.RelayAdapt) {
		return fmt.Errorf("invalid relay adapt address %q", ann.RelayAdapt)
	}
	relayAdapt := common.HexToAddress(ann.RelayAdapt)

	// Parse everything before taking the lock so a bad message leaves no
	// partial state behind.
	parsed := make(map[common.Address]*big.Int, len(ann.Fees))
	for tokenStr, rateHex := range ann.Fees {
		if !common.IsHexAddress(tokenStr) {
			return fmt.Errorf("invalid token address %q", tokenStr)
		}
		rate, ok := new(big.Int).SetString(strings.TrimPrefix(rateHex, "0x"), 16)
		if !ok || rate.Sign() < 0 {
			return fmt.Errorf("invalid fee rate %q for token %s", rateHex, tokenStr)
		}
		parsed[common.HexToAddress(tokenStr)] = rate
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.records[ann.RailgunAddress] = &Record{
		RailgunAddress:      ann.RailgunAddress,
		Identifier:          ann.Identifier,
		Version:             ann.Version,
		RequiredPOIListKeys: slices.Clone(ann.RequiredPOIListKeys),
		FeeExpiration:       ann.FeeExpiration,
		FeesID:              ann.FeesID,
		AvailableWallets:    ann.AvailableWallets,
		Reliability:         ann.Reliability,
	}
	for token, rate := range parsed {
		d.fees[feeKey{token: token, railgun: ann.RailgunAddress}] = TokenFee{
			FeePerUnitGas:    rate,
			Expiration:       ann.FeeExpiration,
			FeesID:           ann.FeesID,
			AvailableWallets: ann.AvailableWallets,
			RelayAdapt:       relayAdapt,
			Reliability:      ann.Reliability,
		}
	}
	return nil
}

// Record returns the broadcaster's current record, or false if unknown.
func (d *Directory) Record(railgunAddress string) (*Record, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.records[railgunAddress]
	if !ok {
		return nil, false
	}
	out := *r
	out.RequiredPOIListKeys = slices.Clone(r.RequiredPOIListKeys)
	return &out, true
}

// FeesForToken returns every broadcaster's current fee entry for the token,
// expired entries included; selection filters, ingestion does not.
func (d *Directory) FeesForToken(token common.Address) []TokenFeeEntry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []TokenFeeEntry
	for k, fee := range d.fees {
		if k.token == token {
			out = append(out, TokenFeeEntry{RailgunAddress: k.railgun, TokenFee: fee})
		}
	}
	return out
}

// List returns all known broadcaster records.
func (d *Directory) List() []Record {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Record, 0, len(d.records))
	for _, r := range d.records {
		rec := *r
		rec.RequiredPOIListKeys = slices.Clone(r.RequiredPOIListKeys)
		out = append(out, rec)
	}
	return out
}

// Count returns the number of known broadcasters.
func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.records)
}

// FeeCount returns the number of live (token, broadcaster) fee entries.
func (d *Directory) FeeCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.fees)
}

// BestForToken returns the cheapest non-expired broadcaster for the token,
// ties broken by higher reliability. now is unix milliseconds, the unit
// broadcasters advertise expirations in.
func (d *Directory) BestForToken(token common.Address, now int64) (*Candidate, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var best *Candidate
	for k, fee := range d.fees {
		if k.token != token || fee.Expiration <= now {
			continue
		}
		if best != nil {
			cmp := fee.FeePerUnitGas.Cmp(best.FeePerUnitGas)
			if cmp > 0 || (cmp == 0 && fee.Reliability <= best.Reliability) {
				continue
			}
		}
		c := Candidate{
			RailgunAddress:   k.railgun,
			Token:            token,
			FeePerUnitGas:    fee.FeePerUnitGas,
			Expiration:       fee.Expiration,
			FeesID:           fee.FeesID,
			AvailableWallets: fee.AvailableWallets,
			RelayAdapt:       fee.RelayAdapt,
			Reliability:      fee.Reliability,
		}
		if r, ok := d.records[k.railgun]; ok {
			c.Identifier = r.Identifier
			c.RequiredPOIListKeys = slices.Clone(r.RequiredPOIListKeys)
		}
		best = &c
	}
	return best, best != nil
}

// AwaitBest polls BestForToken until a candidate appears or ctx is done.
// Broadcaster presence has no bounded arrival time; callers that want a
// deadline put it on ctx, callers that don't get the poll-forever default.
func (d *Directory) AwaitBest(ctx context.Context, token common.Address, interval time.Duration) (*Candidate, error) {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		if c, ok := d.BestForToken(token, time.Now().UnixMilli()); ok {
			return c, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}
