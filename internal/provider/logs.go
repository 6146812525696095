// Where: internal/provider/logs.go
// What: AWS SDK adapter for CloudWatch Logs retrieval and cleanup.
// Why: Tail and teardown both operate on the function's log group.
package provider

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	logstypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
)

type awsLogsClient struct {
	client *cloudwatchlogs.Client
}

func (c awsLogsClient) FilterEvents(ctx context.Context, group string, since time.Time, nextToken string) ([]LogEvent, string, error) {
	input := &cloudwatchlogs.FilterLogEventsInput{
		LogGroupName: aws.String(group),
	}
	if !since.IsZero() {
		input.StartTime = aws.Int64(since.UnixMilli())
	}
	if nextToken != "" {
		input.NextToken = aws.String(nextToken)
	}

	out, err := c.client.FilterLogEvents(ctx, input)
	if err != nil {
		var notFoundErr *logstypes.ResourceNotFoundException
		if errors.As(err, &notFoundErr) {
			return nil, "", notFound("log group %s", group)
		}
		return nil, "", err
	}

	events := make([]LogEvent, 0, len(out.Events))
	for _, event := range out.Events {
		events = append(events, LogEvent{
			Timestamp: time.UnixMilli(aws.ToInt64(event.Timestamp)),
			Stream:    aws.ToString(event.LogStreamName),
			Message:   aws.ToString(event.Message),
		})
	}
	return events, aws.ToString(out.NextToken), nil
}

func (c awsLogsClient) DeleteGroup(ctx context.Context, group string) error {
	_, err := c.client.DeleteLogGroup(ctx, &cloudwatchlogs.DeleteLogGroupInput{
		LogGroupName: aws.String(group),
	})
	if err != nil {
		var notFoundErr *logstypes.ResourceNotFoundException
		if errors.As(err, &notFoundErr) {
			return notFound("log group %s", group)
		}
		return err
	}
	return nil
}
