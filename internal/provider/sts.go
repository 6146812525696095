// Where: internal/provider/sts.go
// What: AWS SDK adapter for caller identity.
// Why: Policy documents scope log permissions to the caller's account.
package provider

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

type awsSTSClient struct {
	client *sts.Client
}

func (c awsSTSClient) AccountID(ctx context.Context) (string, error) {
	out, err := c.client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.Account), nil
}
