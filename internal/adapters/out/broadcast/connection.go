package broadcast

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Connection is a subscribed viewer as tracked by the Hub.
type Connection struct {
	id          string
	viewer      Viewer
	connectedAt time.Time
	now         func() time.Time

	// writeMu orders the writes to one viewer.
	writeMu sync.Mutex
	broken  bool

	stateMu  sync.Mutex
	lastSeen time.Time

	closeOnce sync.Once
}

func (c *Connection) ID() string {
	return c.id
}

func (c *Connection) write(
	ctx context.Context,
	timeout time.Duration,
	write func(ctx context.Context, viewer Viewer) error,
) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.writeLocked(ctx, timeout, func(ctx context.Context) error {
		return write(ctx, c.viewer)
	})
}

// writeLocked runs write with at most timeout to finish. A write that outlives the timeout
// keeps running in the background until the viewer is closed, and the connection refuses
// any further write. Callers hold writeMu.
func (c *Connection) writeLocked(ctx context.Context, timeout time.Duration, write func(ctx context.Context) error) error {
	if c.broken {
		return ErrConnectionIsClosed
	}

	writeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- write(writeCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			c.broken = true
			return err
		}
		c.touch()
		return nil
	case <-writeCtx.Done():
		c.broken = true
		return fmt.Errorf("%w after %s: %w", ErrWriteTimedOut, timeout, writeCtx.Err())
	}
}

func (c *Connection) touch() {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	c.lastSeen = c.now()
}

func (c *Connection) info() ConnectionInfo {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return ConnectionInfo{ID: c.id, ConnectedAt: c.connectedAt, LastActivity: c.lastSeen}
}

func (c *Connection) close() {
	c.closeOnce.Do(func() {
		_ = c.viewer.Close()
	})
}
