// Where: internal/provider/dynamodb.go
// What: AWS SDK adapter for DynamoDB table stream lookup.
// Why: Table-change bindings need the stream ARN behind a table ARN.
package provider

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type awsDynamoDBClient struct {
	client *dynamodb.Client
}

// LatestStreamARN returns the table's current stream ARN, or empty when
// the table has no stream or streaming is disabled.
func (c awsDynamoDBClient) LatestStreamARN(ctx context.Context, tableName string) (string, error) {
	out, err := c.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(tableName),
	})
	if err != nil {
		var notFoundErr *ddbtypes.ResourceNotFoundException
		if errors.As(err, &notFoundErr) {
			return "", notFound("table %s", tableName)
		}
		return "", err
	}
	table := out.Table
	if table == nil {
		return "", nil
	}
	if table.StreamSpecification != nil && !aws.ToBool(table.StreamSpecification.StreamEnabled) {
		return "", nil
	}
	return aws.ToString(table.LatestStreamArn), nil
}
