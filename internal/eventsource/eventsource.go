// Where: internal/eventsource/eventsource.go
// What: Event source binding contract and producer-kind dispatch.
// Why: The producer platform is encoded in the source ARN and must be
// rejected before any resource is touched.
package eventsource

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/slipway-sh/slipway/internal/config"
	"github.com/slipway-sh/slipway/internal/provider"
)

// Kind is the producer platform behind an event source ARN.
type Kind string

const (
	KindKinesis  Kind = "kinesis"
	KindS3       Kind = "s3"
	KindSNS      Kind = "sns"
	KindDynamoDB Kind = "dynamodb"
)

// Defaults for poll-based sources.
const (
	DefaultBatchSize        = 100
	DefaultStartingPosition = "TRIM_HORIZON"
)

// UnknownSourceError marks a configured ARN whose producer platform is
// not supported.
type UnknownSourceError struct {
	ARN     string
	Service string
}

func (e *UnknownSourceError) Error() string {
	return fmt.Sprintf("unknown event source %s (service %q)", e.ARN, e.Service)
}

// ParseKind extracts the producer kind from the service segment of an
// ARN.
func ParseKind(arn string) (Kind, error) {
	parts := strings.Split(arn, ":")
	if len(parts) < 3 || parts[0] != "arn" {
		return "", &UnknownSourceError{ARN: arn}
	}
	service := parts[2]
	switch Kind(service) {
	case KindKinesis, KindS3, KindSNS, KindDynamoDB:
		return Kind(service), nil
	default:
		return "", &UnknownSourceError{ARN: arn, Service: service}
	}
}

// FunctionRef identifies the consuming function.
type FunctionRef struct {
	Name string
	ARN  string
}

// Status describes one live binding, or is absent entirely.
type Status struct {
	Kind      Kind     `json:"kind"`
	ARN       string   `json:"arn"`
	ID        string   `json:"id,omitempty"`
	State     string   `json:"state"`
	BatchSize int32    `json:"batch_size,omitempty"`
	Events    []string `json:"events,omitempty"`
}

// Binding connects an upstream event producer to the function. Add is
// idempotent for an existing producer+function pair and Remove
// tolerates an absent binding.
type Binding interface {
	ARN() string
	Kind() Kind
	Add(ctx context.Context, fn FunctionRef) error
	Update(ctx context.Context, fn FunctionRef) error
	Remove(ctx context.Context, fn FunctionRef) error
	Status(ctx context.Context, fn FunctionRef) (*Status, error)
}

// Deps carries the provider APIs the binding variants draw from.
type Deps struct {
	Mappings provider.MappingAPI
	Objects  provider.ObjectStoreAPI
	Topics   provider.TopicAPI
	Tables   provider.TableAPI
	Logger   *slog.Logger
}

// New dispatches on the ARN's producer kind and builds the matching
// binding.
func New(spec config.EventSourceSpec, deps Deps) (Binding, error) {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	kind, err := ParseKind(spec.ARN)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindKinesis:
		return &kinesisSource{mappingBinding{spec: spec, api: deps.Mappings, logger: deps.Logger}}, nil
	case KindDynamoDB:
		return &dynamoDBSource{
			mappingBinding: mappingBinding{spec: spec, api: deps.Mappings, logger: deps.Logger},
			tables:         deps.Tables,
		}, nil
	case KindS3:
		return &s3Source{spec: spec, objects: deps.Objects, logger: deps.Logger}, nil
	case KindSNS:
		return &snsSource{spec: spec, topics: deps.Topics, logger: deps.Logger}, nil
	default:
		return nil, &UnknownSourceError{ARN: spec.ARN, Service: string(kind)}
	}
}

func batchSize(spec config.EventSourceSpec) int32 {
	if spec.BatchSize > 0 {
		return int32(spec.BatchSize)
	}
	return DefaultBatchSize
}

func startingPosition(spec config.EventSourceSpec) string {
	if spec.StartingPosition != "" {
		return spec.StartingPosition
	}
	return DefaultStartingPosition
}
