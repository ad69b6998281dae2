package internal

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RunRefresher refreshes the chain properties every interval until ctx is
// done. A failed refresh is logged and retried on the next tick.
func (c *Client) RunRefresher(ctx context.Context, interval time.Duration) error {
	if err := c.props.Refresh(ctx); err != nil {
		c.logger.Warn("initial chain properties refresh failed", zap.Error(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.logger.Info("Starting chain properties refresh loop", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Context done, stopping refresh loop")
			return ctx.Err()
		case <-ticker.C:
			c.logger.Debug("Chain properties refresh tick")
			if err := c.props.Refresh(ctx); err != nil {
				c.logger.Error("Chain properties refresh failed", zap.Error(err))
				continue
			}
		}
	}
}
