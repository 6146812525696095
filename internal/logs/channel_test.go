// Where: internal/logs/channel_test.go
// What: Tests for log group tailing against a fake logs API.
// Why: Windowed polling must page fully and advance past seen events.
package logs

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/slipway-sh/slipway/internal/provider"
)

type fakeLogs struct {
	pages  map[string][]provider.LogEvent
	tokens map[string]string

	sinceSeen []time.Time
	cancel    context.CancelFunc
	maxCalls  int
	calls     int

	missing bool
	deleted []string
}

func (f *fakeLogs) FilterEvents(_ context.Context, group string, since time.Time, token string) ([]provider.LogEvent, string, error) {
	f.calls++
	if f.cancel != nil && f.calls >= f.maxCalls {
		f.cancel()
	}
	if f.missing {
		return nil, "", fmt.Errorf("%w: log group %s", provider.ErrNotFound, group)
	}
	if token == "" {
		f.sinceSeen = append(f.sinceSeen, since)
	}
	return f.pages[token], f.tokens[token], nil
}

func (f *fakeLogs) DeleteGroup(_ context.Context, group string) error {
	if f.missing {
		return fmt.Errorf("%w: log group %s", provider.ErrNotFound, group)
	}
	f.deleted = append(f.deleted, group)
	return nil
}

func TestChannelGroupName(t *testing.T) {
	channel := NewChannel("hello", &fakeLogs{}, nil)
	if channel.Group() != "/aws/lambda/hello" {
		t.Fatalf("unexpected group: %s", channel.Group())
	}
}

func TestTailWritesEventsInOrder(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	api := &fakeLogs{
		pages: map[string][]provider.LogEvent{
			"": {
				{Timestamp: base, Stream: "a", Message: "START\n"},
				{Timestamp: base.Add(time.Second), Stream: "a", Message: "END\n"},
			},
		},
	}
	channel := NewChannel("hello", api, nil)

	var out bytes.Buffer
	if err := channel.Tail(context.Background(), &out, TailOptions{}); err != nil {
		t.Fatalf("tail failed: %v", err)
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), out.String())
	}
	if !strings.HasSuffix(lines[0], "START") || !strings.HasPrefix(lines[0], "2024-06-01T12:00:00Z") {
		t.Fatalf("unexpected first line: %s", lines[0])
	}
	if !strings.HasSuffix(lines[1], "END") {
		t.Fatalf("unexpected second line: %s", lines[1])
	}
}

func TestTailFollowsPagination(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	api := &fakeLogs{
		pages: map[string][]provider.LogEvent{
			"":     {{Timestamp: base, Message: "one"}},
			"next": {{Timestamp: base.Add(time.Second), Message: "two"}},
		},
		tokens: map[string]string{"": "next"},
	}
	channel := NewChannel("hello", api, nil)

	var out bytes.Buffer
	if err := channel.Tail(context.Background(), &out, TailOptions{}); err != nil {
		t.Fatalf("tail failed: %v", err)
	}
	if !strings.Contains(out.String(), "one") || !strings.Contains(out.String(), "two") {
		t.Fatalf("missing paged output: %q", out.String())
	}
}

func TestTailFollowAdvancesWindow(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx, cancel := context.WithCancel(context.Background())
	api := &fakeLogs{
		pages: map[string][]provider.LogEvent{
			"": {{Timestamp: base, Message: "one"}},
		},
		cancel:   cancel,
		maxCalls: 2,
	}
	channel := NewChannel("hello", api, nil)

	var out bytes.Buffer
	err := channel.Tail(ctx, &out, TailOptions{Follow: true, Interval: time.Millisecond})
	if err != context.Canceled {
		t.Fatalf("expected context cancellation, got %v", err)
	}

	if len(api.sinceSeen) < 2 {
		t.Fatalf("expected repeated polls, got %d", len(api.sinceSeen))
	}
	want := base.Add(time.Millisecond)
	if !api.sinceSeen[1].Equal(want) {
		t.Fatalf("window not advanced: %v", api.sinceSeen[1])
	}
}

func TestTailMissingGroupFailsWithoutFollow(t *testing.T) {
	api := &fakeLogs{missing: true}
	channel := NewChannel("hello", api, nil)

	var out bytes.Buffer
	err := channel.Tail(context.Background(), &out, TailOptions{})
	if err == nil {
		t.Fatalf("expected error for missing group")
	}
	if !provider.IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestDeleteToleratesMissingGroup(t *testing.T) {
	api := &fakeLogs{missing: true}
	channel := NewChannel("hello", api, nil)

	if err := channel.Delete(context.Background()); err != nil {
		t.Fatalf("expected tolerant delete, got %v", err)
	}
}

func TestDeleteRemovesGroup(t *testing.T) {
	api := &fakeLogs{}
	channel := NewChannel("hello", api, nil)

	if err := channel.Delete(context.Background()); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if len(api.deleted) != 1 || api.deleted[0] != "/aws/lambda/hello" {
		t.Fatalf("unexpected deletions: %v", api.deleted)
	}
}
