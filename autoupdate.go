package gearsync

import (
	"context"
	"time"

	"github.com/bmedia/gearsync/pkg/constants"
	"github.com/bmedia/gearsync/pkg/errors"
	"github.com/bmedia/gearsync/pkg/logging"
)

// Compile-time interface check to ensure proper implementation.
var _ AutoSyncer = (*client)(nil)

// AutoSyncer provides controls for periodic syncs.
type AutoSyncer interface {
	// AutoSyncOn starts syncing in the background at the configured interval.
	AutoSyncOn() error

	// AutoSyncOff stops background syncs and waits for a running one to end.
	AutoSyncOff() error

	// SyncEvery syncs now and then at every interval until ctx is done.
	SyncEvery(ctx context.Context, interval time.Duration, opts ...SyncOption) error
}

// AutoSyncOn begins periodic syncs in the background.
func (c *client) AutoSyncOn() error {
	interval := c.interval()
	if interval <= 0 {
		return &errors.ValidationError{
			Field:   "autoSyncInterval",
			Value:   interval,
			Message: "sync interval must be positive",
		}
	}

	// Stop any existing loop before starting a new one
	if err := c.AutoSyncOff(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	c.autoMu.Lock()
	c.autoCancel = cancel
	c.autoDone = done
	c.autoMu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.tick(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// AutoSyncOff stops periodic syncs.
func (c *client) AutoSyncOff() error {
	c.autoMu.Lock()
	cancel, done := c.autoCancel, c.autoDone
	c.autoCancel, c.autoDone = nil, nil
	c.autoMu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return nil
}

// SyncEvery runs a sync immediately and then on every tick. Failed syncs are
// logged and retried on the next tick; it returns when ctx is done.
func (c *client) SyncEvery(ctx context.Context, interval time.Duration, opts ...SyncOption) error {
	if interval <= 0 {
		return errors.NewValidationError("interval", interval, "sync interval must be positive")
	}

	if !c.tick(ctx, opts...) {
		return ctx.Err()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if !c.tick(ctx, opts...) {
				return ctx.Err()
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// tick runs one sync and reports whether the loop should go on.
func (c *client) tick(ctx context.Context, opts ...SyncOption) bool {
	syncCtx, cancel := context.WithTimeout(ctx, constants.SyncTimeout)
	result, err := c.Sync(syncCtx, opts...)
	cancel()

	logger := logging.FromContext(ctx)
	if err != nil {
		if errors.IsCanceled(err) && ctx.Err() != nil {
			return false
		}
		logger.Error().Err(err).Msg("Periodic sync failed")
		return ctx.Err() == nil
	}
	logger.Info().
		Str("run_id", result.RunID).
		Bool("wrote", result.Wrote).
		Str("summary", result.Summary.String()).
		Msg("Periodic sync complete")
	return ctx.Err() == nil
}
