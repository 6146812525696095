// Where: internal/provider/sns.go
// What: AWS SDK adapter for SNS topic subscriptions.
// Why: Topic-triggered functions subscribe with the lambda protocol.
package provider

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

type awsSNSClient struct {
	client *sns.Client
}

func (c awsSNSClient) Subscribe(ctx context.Context, topicARN, endpointARN string) (string, error) {
	out, err := c.client.Subscribe(ctx, &sns.SubscribeInput{
		TopicArn:              aws.String(topicARN),
		Protocol:              aws.String("lambda"),
		Endpoint:              aws.String(endpointARN),
		ReturnSubscriptionArn: true,
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.SubscriptionArn), nil
}

func (c awsSNSClient) Unsubscribe(ctx context.Context, subscriptionARN string) error {
	_, err := c.client.Unsubscribe(ctx, &sns.UnsubscribeInput{
		SubscriptionArn: aws.String(subscriptionARN),
	})
	if err != nil {
		var notFoundErr *snstypes.NotFoundException
		if errors.As(err, &notFoundErr) {
			return notFound("subscription %s", subscriptionARN)
		}
		return err
	}
	return nil
}

func (c awsSNSClient) ListSubscriptions(ctx context.Context, topicARN string) ([]SubscriptionRecord, error) {
	var records []SubscriptionRecord
	var nextToken *string
	for {
		out, err := c.client.ListSubscriptionsByTopic(ctx, &sns.ListSubscriptionsByTopicInput{
			TopicArn:  aws.String(topicARN),
			NextToken: nextToken,
		})
		if err != nil {
			var notFoundErr *snstypes.NotFoundException
			if errors.As(err, &notFoundErr) {
				return nil, notFound("topic %s", topicARN)
			}
			return nil, err
		}
		for _, sub := range out.Subscriptions {
			records = append(records, SubscriptionRecord{
				ARN:      aws.ToString(sub.SubscriptionArn),
				TopicARN: aws.ToString(sub.TopicArn),
				Protocol: aws.ToString(sub.Protocol),
				Endpoint: aws.ToString(sub.Endpoint),
			})
		}
		if out.NextToken == nil || aws.ToString(out.NextToken) == "" {
			return records, nil
		}
		nextToken = out.NextToken
	}
}
