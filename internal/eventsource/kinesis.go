// Where: internal/eventsource/kinesis.go
// What: Poll-based mapping binding shared by stream-backed sources.
// Why: Kinesis and table streams manage the same mapping resource.
package eventsource

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/slipway-sh/slipway/internal/config"
	"github.com/slipway-sh/slipway/internal/provider"
)

// mappingBinding implements the binding contract on top of event source
// mappings. Variants provide the effective source ARN.
type mappingBinding struct {
	spec   config.EventSourceSpec
	api    provider.MappingAPI
	logger *slog.Logger
}

func (b *mappingBinding) ARN() string { return b.spec.ARN }

func (b *mappingBinding) add(ctx context.Context, source string, fn FunctionRef) error {
	existing, err := b.find(ctx, source, fn.Name)
	if err != nil {
		return err
	}
	if existing != nil {
		b.logger.Debug("mapping exists", "source", source, "function", fn.Name, "uuid", existing.UUID)
		return nil
	}

	enabled := b.spec.IsEnabled()
	record, err := b.api.CreateMapping(ctx, provider.MappingInput{
		SourceARN:        source,
		FunctionName:     fn.Name,
		BatchSize:        batchSize(b.spec),
		StartingPosition: startingPosition(b.spec),
		Enabled:          &enabled,
	})
	if err != nil {
		return fmt.Errorf("create mapping for %s: %w", source, err)
	}
	b.logger.Debug("created mapping", "source", source, "function", fn.Name, "uuid", record.UUID)
	return nil
}

func (b *mappingBinding) update(ctx context.Context, source string, fn FunctionRef) error {
	existing, err := b.find(ctx, source, fn.Name)
	if err != nil {
		return err
	}
	if existing == nil {
		return b.add(ctx, source, fn)
	}

	enabled := b.spec.IsEnabled()
	if err := b.api.UpdateMapping(ctx, existing.UUID, batchSize(b.spec), &enabled); err != nil {
		return fmt.Errorf("update mapping %s: %w", existing.UUID, err)
	}
	return nil
}

func (b *mappingBinding) remove(ctx context.Context, source string, fn FunctionRef) error {
	existing, err := b.find(ctx, source, fn.Name)
	if err != nil {
		return err
	}
	if existing == nil {
		b.logger.Debug("mapping already gone", "source", source, "function", fn.Name)
		return nil
	}
	if err := b.api.DeleteMapping(ctx, existing.UUID); err != nil && !provider.IsNotFound(err) {
		return fmt.Errorf("delete mapping %s: %w", existing.UUID, err)
	}
	return nil
}

func (b *mappingBinding) status(ctx context.Context, kind Kind, source string, fn FunctionRef) (*Status, error) {
	existing, err := b.find(ctx, source, fn.Name)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}
	return &Status{
		Kind:      kind,
		ARN:       b.spec.ARN,
		ID:        existing.UUID,
		State:     existing.State,
		BatchSize: existing.BatchSize,
	}, nil
}

func (b *mappingBinding) find(ctx context.Context, source, functionName string) (*provider.MappingRecord, error) {
	records, err := b.api.ListMappings(ctx, source, functionName)
	if err != nil {
		return nil, fmt.Errorf("list mappings for %s: %w", source, err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	record := records[0]
	return &record, nil
}

// kinesisSource polls a stream directly by its configured ARN.
type kinesisSource struct {
	mappingBinding
}

func (s *kinesisSource) Kind() Kind { return KindKinesis }

func (s *kinesisSource) Add(ctx context.Context, fn FunctionRef) error {
	return s.add(ctx, s.spec.ARN, fn)
}

func (s *kinesisSource) Update(ctx context.Context, fn FunctionRef) error {
	return s.update(ctx, s.spec.ARN, fn)
}

func (s *kinesisSource) Remove(ctx context.Context, fn FunctionRef) error {
	return s.remove(ctx, s.spec.ARN, fn)
}

func (s *kinesisSource) Status(ctx context.Context, fn FunctionRef) (*Status, error) {
	return s.status(ctx, KindKinesis, s.spec.ARN, fn)
}
