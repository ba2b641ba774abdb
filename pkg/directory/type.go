package directory

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// TokenFee is one broadcaster's advertised price for one token.
type TokenFee struct {
	FeePerUnitGas    *big.Int       `json:"feePerUnitGas"`
	Expiration       int64          `json:"expiration"` // unix ms, advisory until selection
	FeesID           string         `json:"feesID"`
	AvailableWallets int            `json:"availableWallets"`
	RelayAdapt       common.Address `json:"relayAdapt"`
	Reliability      float64        `json:"reliability"`
}

// TokenFeeEntry pairs a fee with the broadcaster that advertised it.
type TokenFeeEntry struct {
	RailgunAddress string `json:"railgunAddress"`
	TokenFee
}

// Record is the most recently accepted announcement from one broadcaster.
// It is replaced wholesale on every accepted message.
type Record struct {
	RailgunAddress      string   `json:"railgunAddress"`
	Identifier          string   `json:"identifier,omitempty"`
	Version             string   `json:"version"`
	RequiredPOIListKeys []string `json:"requiredPOIListKeys"`
	FeeExpiration       int64    `json:"feeExpiration"`
	FeesID              string   `json:"feesID"`
	AvailableWallets    int      `json:"availableWallets"`
	Reliability         float64  `json:"reliability"`
}

// Candidate is a selected broadcaster for a specific fee token.
type Candidate struct {
	RailgunAddress      string         `json:"railgunAddress"`
	Identifier          string         `json:"identifier,omitempty"`
	Token               common.Address `json:"token"`
	FeePerUnitGas       *big.Int       `json:"feePerUnitGas"`
	Expiration          int64          `json:"expiration"`
	FeesID              string         `json:"feesID"`
	AvailableWallets    int            `json:"availableWallets"`
	RelayAdapt          common.Address `json:"relayAdapt"`
	Reliability         float64        `json:"reliability"`
	RequiredPOIListKeys []string       `json:"requiredPOIListKeys"`
}

type feeKey struct {
	token   common.Address
	railgun string
}

// Directory is the live fee index: one record per broadcaster and one fee
// entry per (token, broadcaster) pair. Upsert is the single mutation entry
// point and is safe against concurrent reads.
type Directory struct {
	mu      sync.RWMutex
	records map[string]*Record
	fees    map[feeKey]TokenFee
}
