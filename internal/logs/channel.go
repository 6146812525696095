// Where: internal/logs/channel.go
// What: Read and delete the function's remote log group.
// Why: Tail needs windowed polling since the platform only filters by time.
package logs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/slipway-sh/slipway/internal/meta"
	"github.com/slipway-sh/slipway/internal/provider"
)

// DefaultTailInterval is the poll spacing while following.
const DefaultTailInterval = 2 * time.Second

// Channel is a handle to one function's log group.
type Channel struct {
	group  string
	api    provider.LogsAPI
	logger *slog.Logger
}

func NewChannel(functionName string, api provider.LogsAPI, logger *slog.Logger) *Channel {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Channel{
		group:  meta.LogGroupPrefix + functionName,
		api:    api,
		logger: logger,
	}
}

func (c *Channel) Group() string { return c.group }

// TailOptions controls one Tail run.
type TailOptions struct {
	Follow   bool
	Interval time.Duration
	Since    time.Time
}

// Tail writes log events to w, oldest first. With Follow set it keeps
// polling, advancing the window past the last seen event, until ctx is
// done. Without Follow a missing log group is an error; with Follow it
// is treated as empty because the group appears on first invocation.
func (c *Channel) Tail(ctx context.Context, w io.Writer, opts TailOptions) error {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultTailInterval
	}
	since := opts.Since

	for {
		last, err := c.drain(ctx, w, since)
		if err != nil {
			if !opts.Follow || !provider.IsNotFound(err) {
				return err
			}
			c.logger.Debug("log group not created yet", "group", c.group)
		}
		if !opts.Follow {
			return nil
		}
		if !last.IsZero() {
			since = last.Add(time.Millisecond)
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// drain writes every event at or after since and returns the newest
// timestamp seen.
func (c *Channel) drain(ctx context.Context, w io.Writer, since time.Time) (time.Time, error) {
	var last time.Time
	token := ""
	for {
		events, next, err := c.api.FilterEvents(ctx, c.group, since, token)
		if err != nil {
			return last, err
		}
		for _, event := range events {
			writeEvent(w, event)
			if event.Timestamp.After(last) {
				last = event.Timestamp
			}
		}
		if next == "" {
			return last, nil
		}
		token = next
	}
}

// Delete removes the log group. A group that never existed is fine.
func (c *Channel) Delete(ctx context.Context) error {
	if err := c.api.DeleteGroup(ctx, c.group); err != nil {
		if provider.IsNotFound(err) {
			c.logger.Debug("log group already gone", "group", c.group)
			return nil
		}
		return fmt.Errorf("delete log group %s: %w", c.group, err)
	}
	return nil
}

func writeEvent(w io.Writer, event provider.LogEvent) {
	message := strings.TrimRight(event.Message, "\n")
	fmt.Fprintf(w, "%s %s\n", event.Timestamp.UTC().Format(time.RFC3339), message)
}
