package feed

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/railgun-community/broadcaster-directory/pkg/directory"
	"github.com/railgun-community/broadcaster-directory/pkg/feemsg"
	"github.com/railgun-community/broadcaster-directory/pkg/topics"
	"github.com/railgun-community/broadcaster-directory/pkg/transport"
)

var usdc = common.HexToAddress("0x1c7d4b196cb0c7b01d743fbc6116a902379c7238")

func feeEnvelope(t *testing.T, broadcaster, version string) []byte {
	t.Helper()
	raw, err := feemsg.Encode(&feemsg.FeeAnnouncement{
		Fees:             map[string]string{usdc.Hex(): "0x64"},
		FeeExpiration:    time.Now().Add(time.Hour).UnixMilli(),
		FeesID:           "f1",
		RailgunAddress:   broadcaster,
		AvailableWallets: 1,
		Version:          version,
		RelayAdapt:       "0x4025ee6512dbbda97049bcf5aa5d38c54af6be8a",
		Reliability:      0.9,
	}, "00")
	require.NoError(t, err)
	return raw
}

func TestFeed_IngestsLiveAndHistorical(t *testing.T) {
	mem := transport.NewMemory()
	dir := directory.New()
	topic := topics.Fee(0, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// already on the network before the feed starts
	require.NoError(t, mem.Send(ctx, topic, feeEnvelope(t, "0zkHist", "8.0.0")))

	f := New(mem, dir, topic, zap.NewNop())
	var updates []string
	f.OnUpdate = func(ann *feemsg.FeeAnnouncement) { updates = append(updates, ann.RailgunAddress) }

	done := make(chan struct{})
	go func() {
		_ = f.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, ok := dir.Record("0zkHist")
		return ok
	}, 2*time.Second, 10*time.Millisecond, "historical replay fills the directory")

	require.NoError(t, mem.Send(ctx, topic, feeEnvelope(t, "0zkLive", "8.2.0")))
	require.Eventually(t, func() bool {
		_, ok := dir.Record("0zkLive")
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
	require.Contains(t, updates, "0zkHist")
	require.Contains(t, updates, "0zkLive")
}

func TestFeed_BadMessagesDoNotStopTheLoop(t *testing.T) {
	mem := transport.NewMemory()
	dir := directory.New()
	topic := topics.Fee(0, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := New(mem, dir, topic, zap.NewNop())
	go func() { _ = f.Run(ctx) }()

	// not even JSON
	require.NoError(t, mem.Send(ctx, topic, []byte("garbage")))
	// wrong major version
	require.NoError(t, mem.Send(ctx, topic, feeEnvelope(t, "0zkOld", "7.9.0")))
	// then a good one
	require.NoError(t, mem.Send(ctx, topic, feeEnvelope(t, "0zkGood", "8.1.0")))

	require.Eventually(t, func() bool {
		_, ok := dir.Record("0zkGood")
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	_, ok := dir.Record("0zkOld")
	require.False(t, ok, "incompatible version never lands in the directory")
	require.Equal(t, 1, dir.Count())
}
