// Where: internal/eventsource/sns.go
// What: Topic-subscription binding.
// Why: Topic fan-out needs a subscription, not a mapping.
package eventsource

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/slipway-sh/slipway/internal/config"
	"github.com/slipway-sh/slipway/internal/provider"
)

type snsSource struct {
	spec   config.EventSourceSpec
	topics provider.TopicAPI
	logger *slog.Logger
}

func (s *snsSource) ARN() string { return s.spec.ARN }

func (s *snsSource) Kind() Kind { return KindSNS }

// Add subscribes the function to the topic unless it already is.
func (s *snsSource) Add(ctx context.Context, fn FunctionRef) error {
	existing, err := s.find(ctx, fn)
	if err != nil {
		return err
	}
	if existing != nil {
		s.logger.Debug("subscription exists", "topic", s.spec.ARN, "function", fn.Name)
		return nil
	}

	subscriptionARN, err := s.topics.Subscribe(ctx, s.spec.ARN, fn.ARN)
	if err != nil {
		return fmt.Errorf("subscribe %s to topic %s: %w", fn.Name, s.spec.ARN, err)
	}
	s.logger.Debug("subscribed function", "topic", s.spec.ARN, "subscription", subscriptionARN)
	return nil
}

// Update has nothing to reconcile beyond the subscription existing.
func (s *snsSource) Update(ctx context.Context, fn FunctionRef) error {
	return s.Add(ctx, fn)
}

func (s *snsSource) Remove(ctx context.Context, fn FunctionRef) error {
	existing, err := s.find(ctx, fn)
	if err != nil {
		return err
	}
	if existing == nil {
		s.logger.Debug("subscription already gone", "topic", s.spec.ARN, "function", fn.Name)
		return nil
	}
	if err := s.topics.Unsubscribe(ctx, existing.ARN); err != nil && !provider.IsNotFound(err) {
		return fmt.Errorf("unsubscribe %s from topic %s: %w", fn.Name, s.spec.ARN, err)
	}
	return nil
}

func (s *snsSource) Status(ctx context.Context, fn FunctionRef) (*Status, error) {
	existing, err := s.find(ctx, fn)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}
	return &Status{
		Kind:  KindSNS,
		ARN:   s.spec.ARN,
		ID:    existing.ARN,
		State: "Enabled",
	}, nil
}

func (s *snsSource) find(ctx context.Context, fn FunctionRef) (*provider.SubscriptionRecord, error) {
	records, err := s.topics.ListSubscriptions(ctx, s.spec.ARN)
	if err != nil {
		if provider.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list subscriptions of topic %s: %w", s.spec.ARN, err)
	}
	for _, record := range records {
		if record.Endpoint == fn.ARN {
			found := record
			return &found, nil
		}
	}
	return nil, nil
}
