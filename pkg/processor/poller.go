package processor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/streamfund/donorpay/pkg/campaignclient"
	"github.com/streamfund/donorpay/pkg/constants"
	"github.com/streamfund/donorpay/pkg/types"
)

// FeedPoller periodically refreshes a campaign's donation feed and hands
// each snapshot to a publish callback. Poll loops are independent of any
// in-flight donation and keep running until cancelled.
type FeedPoller struct {
	backend *campaignclient.Client
	logger  *slog.Logger
}

// NewFeedPoller creates a poller over the given backend client.
func NewFeedPoller(backend *campaignclient.Client, logger *slog.Logger) *FeedPoller {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedPoller{backend: backend, logger: logger}
}

// PollHandle controls one running poll loop.
type PollHandle struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	cancelled bool
}

// Cancel stops the loop. A fetch already in flight is allowed to finish but
// its result is discarded. Callers needing a hard guarantee that no further
// publish runs should wait on Done after cancelling; Cancel itself is safe
// to call from inside a publish callback.
func (h *PollHandle) Cancel() {
	h.mu.Lock()
	h.cancelled = true
	h.mu.Unlock()
	h.cancel()
}

// Done is closed when the loop has fully exited.
func (h *PollHandle) Done() <-chan struct{} {
	return h.done
}

// Start begins polling the campaign's donation feed. The first fetch runs
// immediately, then every interval. Fetch failures are logged and the loop
// keeps going; the previous snapshot stays current until a fetch succeeds.
func (p *FeedPoller) Start(ctx context.Context, campaignID int64, interval time.Duration, publish func([]types.Donation)) *PollHandle {
	if interval <= 0 {
		interval = constants.DefaultFeedPollInterval
	}

	ctx, cancel := context.WithCancel(ctx)
	handle := &PollHandle{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(handle.done)

		p.fetchAndPublish(ctx, campaignID, publish, handle)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.fetchAndPublish(ctx, campaignID, publish, handle)
			}
		}
	}()

	return handle
}

func (p *FeedPoller) fetchAndPublish(ctx context.Context, campaignID int64, publish func([]types.Donation), handle *PollHandle) {
	donations, err := p.backend.ListDonations(ctx, campaignID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Warn("donation feed fetch failed",
			"campaignId", campaignID, "error", err)
		return
	}

	// The response may land after Cancel; drop it instead of publishing a
	// snapshot nobody is listening for. The callback runs outside the lock
	// so it may itself call Cancel.
	handle.mu.Lock()
	cancelled := handle.cancelled
	handle.mu.Unlock()
	if cancelled {
		return
	}
	publish(donations)
}
