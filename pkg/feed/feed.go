package feed

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/railgun-community/broadcaster-directory/pkg/directory"
	"github.com/railgun-community/broadcaster-directory/pkg/feemsg"
	"github.com/railgun-community/broadcaster-directory/pkg/metrics"
	"github.com/railgun-community/broadcaster-directory/pkg/transport"
)

const defaultQueueSize = 256

// Feed wires the transport to the directory: it replays stored fee messages,
// subscribes to the fee topic, and funnels every message through one
// goroutine so the directory sees a single writer. A bad message is logged,
// counted and dropped; it never stops the loop.
type Feed struct {
	Transport transport.Transport
	Directory *directory.Directory
	Codec     *feemsg.Codec
	Topic     string
	Logger    *zap.Logger
	QueueSize int

	// OnUpdate, when set, fires after every accepted announcement. The ws
	// fan-out hangs off this.
	OnUpdate func(*feemsg.FeeAnnouncement)
}

func New(tr transport.Transport, dir *directory.Directory, topic string, logger *zap.Logger) *Feed {
	return &Feed{
		Transport: tr,
		Directory: dir,
		Codec:     feemsg.NewCodec(),
		Topic:     topic,
		Logger:    logger,
		QueueSize: defaultQueueSize,
	}
}

// Run blocks until ctx is done. Historical replay happens first so the
// directory is warm before live delivery starts.
func (f *Feed) Run(ctx context.Context) error {
	if msgs, err := f.Transport.RetrieveHistorical(ctx, f.Topic); err != nil {
		f.Logger.Warn("historical_replay_failed", zap.String("topic", f.Topic), zap.Error(err))
	} else {
		for _, msg := range msgs {
			metrics.HistoricalMessages.Inc()
			f.ingest(msg)
		}
		f.Logger.Info("historical_replayed", zap.String("topic", f.Topic), zap.Int("count", len(msgs)))
	}

	queue := make(chan transport.Message, f.QueueSize)
	sub, err := f.Transport.Subscribe(ctx, []string{f.Topic}, func(msg transport.Message) {
		// never block the transport's delivery loop
		select {
		case queue <- msg:
		default:
			f.Logger.Warn("fee_message_dropped", zap.String("reason", "queue_full"))
		}
	})
	if err != nil {
		return err
	}
	defer sub.Cancel()

	f.Logger.Info("fee_feed_started", zap.String("topic", f.Topic))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-queue:
			f.ingest(msg)
		}
	}
}

func (f *Feed) ingest(msg transport.Message) {
	ann, err := f.Codec.Decode(msg.Payload)
	if err != nil {
		metrics.FeeMessages.WithLabelValues(decodeResult(err)).Inc()
		f.Logger.Warn("fee_message_rejected", zap.String("topic", msg.ContentTopic), zap.Error(err))
		return
	}

	if err := f.Directory.Upsert(ann); err != nil {
		metrics.FeeMessages.WithLabelValues("rejected").Inc()
		f.Logger.Warn("fee_message_rejected",
			zap.String("broadcaster", ann.RailgunAddress), zap.Error(err))
		return
	}

	metrics.FeeMessages.WithLabelValues("accepted").Inc()
	metrics.Broadcasters.Set(float64(f.Directory.Count()))
	metrics.FeeEntries.Set(float64(f.Directory.FeeCount()))
	f.Logger.Debug("broadcaster_updated",
		zap.String("broadcaster", ann.RailgunAddress),
		zap.String("feesID", ann.FeesID),
		zap.Int("tokens", len(ann.Fees)),
	)

	if f.OnUpdate != nil {
		f.OnUpdate(ann)
	}
}

func decodeResult(err error) string {
	var ive *feemsg.IncompatibleVersionError
	switch {
	case errors.Is(err, feemsg.ErrMalformedEnvelope):
		return "malformed_envelope"
	case errors.Is(err, feemsg.ErrMalformedPayload):
		return "malformed_payload"
	case errors.As(err, &ive):
		return "incompatible_version"
	default:
		return "rejected"
	}
}
