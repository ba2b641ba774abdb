package topics

import "fmt"

// ContentTopic names a channel on the Waku gossip network. Topics are
// constructed once per chain and never mutated.
type ContentTopic = string

// PubSubTopic is the relay shard all RAILGUN content topics live on.
const PubSubTopic = "/waku/2/rs/1/1"

// Fee returns the content topic broadcasters publish fee announcements on.
func Fee(clusterID, chainID uint64) ContentTopic {
	return fmt.Sprintf("/railgun/v2/%d-%d-fees/json", clusterID, chainID)
}

// Transact returns the content topic wallets submit transact requests on.
func Transact(clusterID, chainID uint64) ContentTopic {
	return fmt.Sprintf("/railgun/v2/%d-%d-transact/json", clusterID, chainID)
}

// TransactResponse returns the content topic broadcasters answer on.
func TransactResponse(clusterID, chainID uint64) ContentTopic {
	return fmt.Sprintf("/railgun/v2/%d-%d-transact-response/json", clusterID, chainID)
}
