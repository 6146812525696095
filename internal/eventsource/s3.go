// Where: internal/eventsource/s3.go
// What: Bucket-notification binding.
// Why: Bucket events push to the function instead of being polled.
package eventsource

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/slipway-sh/slipway/internal/config"
	"github.com/slipway-sh/slipway/internal/meta"
	"github.com/slipway-sh/slipway/internal/provider"
)

// DefaultBucketEvents is used when the config lists no events.
var DefaultBucketEvents = []string{"s3:ObjectCreated:*"}

type s3Source struct {
	spec    config.EventSourceSpec
	objects provider.ObjectStoreAPI
	logger  *slog.Logger
}

func (s *s3Source) ARN() string { return s.spec.ARN }

func (s *s3Source) Kind() Kind { return KindS3 }

// Add upserts the function's entry in the bucket's notification
// configuration. Entries of other functions and non-function targets
// survive.
func (s *s3Source) Add(ctx context.Context, fn FunctionRef) error {
	note := provider.FunctionNotification{
		ID:          notificationID(fn.Name),
		FunctionARN: fn.ARN,
		Events:      s.events(),
	}
	if err := s.objects.PutFunctionNotification(ctx, s.bucket(), note); err != nil {
		return fmt.Errorf("configure notifications on bucket %s: %w", s.bucket(), err)
	}
	s.logger.Debug("configured bucket notification", "bucket", s.bucket(), "id", note.ID)
	return nil
}

// Update re-applies the configured events, replacing the existing entry.
func (s *s3Source) Update(ctx context.Context, fn FunctionRef) error {
	return s.Add(ctx, fn)
}

func (s *s3Source) Remove(ctx context.Context, fn FunctionRef) error {
	if err := s.objects.DeleteFunctionNotification(ctx, s.bucket(), fn.ARN); err != nil {
		if provider.IsNotFound(err) {
			s.logger.Debug("bucket already gone", "bucket", s.bucket())
			return nil
		}
		return fmt.Errorf("remove notifications from bucket %s: %w", s.bucket(), err)
	}
	return nil
}

func (s *s3Source) Status(ctx context.Context, fn FunctionRef) (*Status, error) {
	notes, err := s.objects.GetFunctionNotifications(ctx, s.bucket())
	if err != nil {
		if provider.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read notifications of bucket %s: %w", s.bucket(), err)
	}
	for _, note := range notes {
		if note.FunctionARN == fn.ARN {
			return &Status{
				Kind:   KindS3,
				ARN:    s.spec.ARN,
				ID:     note.ID,
				State:  "Enabled",
				Events: note.Events,
			}, nil
		}
	}
	return nil, nil
}

func (s *s3Source) bucket() string {
	parts := strings.Split(s.spec.ARN, ":")
	return parts[len(parts)-1]
}

func (s *s3Source) events() []string {
	if len(s.spec.Events) > 0 {
		return s.spec.Events
	}
	return DefaultBucketEvents
}

func notificationID(functionName string) string {
	return fmt.Sprintf("%s-%s-notification", meta.Slug, functionName)
}
