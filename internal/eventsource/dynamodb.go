// Where: internal/eventsource/dynamodb.go
// What: Change-stream binding for table sources.
// Why: Config may name the table; the mapping needs its stream ARN.
package eventsource

import (
	"context"
	"fmt"
	"strings"

	"github.com/slipway-sh/slipway/internal/provider"
)

// dynamoDBSource polls a table's change stream. A configured table ARN
// is resolved to the table's latest stream ARN; a stream ARN is used
// as-is.
type dynamoDBSource struct {
	mappingBinding
	tables provider.TableAPI

	streamARN string
}

func (s *dynamoDBSource) Kind() Kind { return KindDynamoDB }

func (s *dynamoDBSource) Add(ctx context.Context, fn FunctionRef) error {
	source, err := s.resolveStream(ctx)
	if err != nil {
		return err
	}
	return s.add(ctx, source, fn)
}

func (s *dynamoDBSource) Update(ctx context.Context, fn FunctionRef) error {
	source, err := s.resolveStream(ctx)
	if err != nil {
		return err
	}
	return s.update(ctx, source, fn)
}

func (s *dynamoDBSource) Remove(ctx context.Context, fn FunctionRef) error {
	source, err := s.resolveStream(ctx)
	if err != nil {
		if provider.IsNotFound(err) {
			s.logger.Debug("table already gone", "arn", s.spec.ARN)
			return nil
		}
		return err
	}
	return s.remove(ctx, source, fn)
}

func (s *dynamoDBSource) Status(ctx context.Context, fn FunctionRef) (*Status, error) {
	source, err := s.resolveStream(ctx)
	if err != nil {
		if provider.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return s.status(ctx, KindDynamoDB, source, fn)
}

func (s *dynamoDBSource) resolveStream(ctx context.Context) (string, error) {
	if s.streamARN != "" {
		return s.streamARN, nil
	}
	if strings.Contains(s.spec.ARN, "/stream/") {
		s.streamARN = s.spec.ARN
		return s.streamARN, nil
	}

	table, err := tableName(s.spec.ARN)
	if err != nil {
		return "", err
	}
	stream, err := s.tables.LatestStreamARN(ctx, table)
	if err != nil {
		return "", fmt.Errorf("resolve stream of table %s: %w", table, err)
	}
	if stream == "" {
		return "", fmt.Errorf("table %s has no change stream enabled", table)
	}
	s.streamARN = stream
	return s.streamARN, nil
}

// tableName extracts the table name from a table ARN.
func tableName(arn string) (string, error) {
	parts := strings.Split(arn, ":")
	resource := parts[len(parts)-1]
	name, ok := strings.CutPrefix(resource, "table/")
	if !ok {
		return "", fmt.Errorf("not a table ARN: %s", arn)
	}
	if slash := strings.IndexByte(name, '/'); slash >= 0 {
		name = name[:slash]
	}
	if name == "" {
		return "", fmt.Errorf("not a table ARN: %s", arn)
	}
	return name, nil
}
