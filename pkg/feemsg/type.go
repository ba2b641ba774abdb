package feemsg

// Envelope is the outer wire object carried on the fee content topic.
// Signature is carried as received but never verified against the
// broadcaster's key; acceptance is by version and shape only.
type Envelope struct {
	Data      string `json:"data"`      // hex-encoded UTF-8 JSON, 0x prefix optional
	Signature string `json:"signature"` // hex, unchecked
}

// FeeAnnouncement is the decoded inner payload of a fee message.
type FeeAnnouncement struct {
	// Fees maps token address (hex string) to fee per unit gas
	// (0x-prefixed hex unsigned integer).
	Fees map[string]string `json:"fees"`
	// FeeExpiration is the unix-millisecond timestamp these fees expire at.
	FeeExpiration int64 `json:"feeExpiration"`
	// FeesID is an opaque identifier for this fee batch.
	FeesID string `json:"feesID"`
	// RailgunAddress is the broadcaster's RAILGUN address, the directory key.
	RailgunAddress string `json:"railgunAddress"`
	// Identifier is an optional human-readable name.
	Identifier string `json:"identifier,omitempty"`
	// AvailableWallets is how many wallets the broadcaster can relay with.
	AvailableWallets int `json:"availableWallets"`
	// Version is the broadcaster's dot-separated version string, e.g. "8.1.2".
	Version string `json:"version"`
	// RelayAdapt is the relay contract the broadcaster calls through.
	RelayAdapt string `json:"relayAdapt"`
	// RequiredPOIListKeys are the POI list keys the broadcaster requires.
	RequiredPOIListKeys []string `json:"requiredPOIListKeys"`
	// Reliability is the broadcaster's score in [0,1].
	Reliability float64 `json:"reliability"`
}
