// Where: internal/provider/s3.go
// What: AWS SDK adapter for artifact uploads and bucket notifications.
// Why: Bucket notification updates must preserve entries owned by others.
package provider

import (
	"bytes"
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type awsS3Client struct {
	client *s3.Client
}

func (c awsS3Client) PutObject(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	_, err := c.client.PutObject(ctx, input)
	return err
}

func (c awsS3Client) GetFunctionNotifications(ctx context.Context, bucket string) ([]FunctionNotification, error) {
	current, err := c.client.GetBucketNotificationConfiguration(ctx, &s3.GetBucketNotificationConfigurationInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return nil, err
	}

	notes := make([]FunctionNotification, 0, len(current.LambdaFunctionConfigurations))
	for _, entry := range current.LambdaFunctionConfigurations {
		notes = append(notes, mapFunctionNotification(entry))
	}
	return notes, nil
}

// PutFunctionNotification upserts one function-targeted entry in the
// bucket's notification configuration. Other functions' entries and
// non-function targets (queues, topics) are carried over unchanged.
func (c awsS3Client) PutFunctionNotification(ctx context.Context, bucket string, note FunctionNotification) error {
	current, err := c.client.GetBucketNotificationConfiguration(ctx, &s3.GetBucketNotificationConfigurationInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return err
	}

	merged := mergeFunctionNotification(current, note)
	_, err = c.client.PutBucketNotificationConfiguration(ctx, &s3.PutBucketNotificationConfigurationInput{
		Bucket:                    aws.String(bucket),
		NotificationConfiguration: merged,
	})
	return err
}

// DeleteFunctionNotification removes every entry targeting functionARN
// while preserving the rest of the configuration.
func (c awsS3Client) DeleteFunctionNotification(ctx context.Context, bucket, functionARN string) error {
	current, err := c.client.GetBucketNotificationConfiguration(ctx, &s3.GetBucketNotificationConfigurationInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return err
	}

	filtered := carryOverNotificationConfig(current)
	filtered.LambdaFunctionConfigurations = filterFunctionConfigurations(
		current.LambdaFunctionConfigurations, functionARN)

	_, err = c.client.PutBucketNotificationConfiguration(ctx, &s3.PutBucketNotificationConfigurationInput{
		Bucket:                    aws.String(bucket),
		NotificationConfiguration: filtered,
	})
	return err
}

func mergeFunctionNotification(
	current *s3.GetBucketNotificationConfigurationOutput,
	note FunctionNotification,
) *s3types.NotificationConfiguration {
	merged := carryOverNotificationConfig(current)
	merged.LambdaFunctionConfigurations = filterFunctionConfigurations(
		current.LambdaFunctionConfigurations, note.FunctionARN)

	events := make([]s3types.Event, 0, len(note.Events))
	for _, event := range note.Events {
		events = append(events, s3types.Event(event))
	}
	merged.LambdaFunctionConfigurations = append(merged.LambdaFunctionConfigurations,
		s3types.LambdaFunctionConfiguration{
			Id:                aws.String(note.ID),
			LambdaFunctionArn: aws.String(note.FunctionARN),
			Events:            events,
		})
	return merged
}

func carryOverNotificationConfig(
	current *s3.GetBucketNotificationConfigurationOutput,
) *s3types.NotificationConfiguration {
	out := &s3types.NotificationConfiguration{}
	if current == nil {
		return out
	}
	out.QueueConfigurations = current.QueueConfigurations
	out.TopicConfigurations = current.TopicConfigurations
	out.EventBridgeConfiguration = current.EventBridgeConfiguration
	return out
}

func filterFunctionConfigurations(
	entries []s3types.LambdaFunctionConfiguration,
	functionARN string,
) []s3types.LambdaFunctionConfiguration {
	kept := make([]s3types.LambdaFunctionConfiguration, 0, len(entries))
	for _, entry := range entries {
		if aws.ToString(entry.LambdaFunctionArn) == functionARN {
			continue
		}
		kept = append(kept, entry)
	}
	return kept
}

func mapFunctionNotification(entry s3types.LambdaFunctionConfiguration) FunctionNotification {
	events := make([]string, 0, len(entry.Events))
	for _, event := range entry.Events {
		events = append(events, string(event))
	}
	return FunctionNotification{
		ID:          aws.ToString(entry.Id),
		FunctionARN: aws.ToString(entry.LambdaFunctionArn),
		Events:      events,
	}
}
