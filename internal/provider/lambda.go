// Where: internal/provider/lambda.go
// What: AWS SDK adapter for function lifecycle and event source mappings.
// Why: Map internal deployment types to SDK types.
package provider

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
)

type awsLambdaClient struct {
	client *lambda.Client
}

func (c awsLambdaClient) CreateFunction(ctx context.Context, in FunctionCreateInput) (string, error) {
	code := &types.FunctionCode{}
	if in.Bucket != "" {
		code.S3Bucket = aws.String(in.Bucket)
		code.S3Key = aws.String(in.Key)
	} else {
		code.ZipFile = in.ZipFile
	}

	resp, err := c.client.CreateFunction(ctx, &lambda.CreateFunctionInput{
		FunctionName: aws.String(in.Name),
		Code:         code,
		Runtime:      types.Runtime(in.Runtime),
		Role:         aws.String(in.Role),
		Handler:      aws.String(in.Handler),
		Description:  aws.String(in.Description),
		Timeout:      aws.Int32(in.Timeout),
		MemorySize:   aws.Int32(in.MemorySize),
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(resp.FunctionArn), nil
}

func (c awsLambdaClient) GetFunction(ctx context.Context, name string) (*FunctionRecord, error) {
	resp, err := c.client.GetFunction(ctx, &lambda.GetFunctionInput{
		FunctionName: aws.String(name),
	})
	if err != nil {
		var notFoundErr *types.ResourceNotFoundException
		if errors.As(err, &notFoundErr) {
			return nil, nil
		}
		return nil, err
	}
	if resp.Configuration == nil {
		return nil, fmt.Errorf("function %s: response missing configuration", name)
	}
	record := mapFunctionRecord(*resp.Configuration)
	return &record, nil
}

func (c awsLambdaClient) UpdateFunctionCode(ctx context.Context, in CodeInput) error {
	input := &lambda.UpdateFunctionCodeInput{
		FunctionName: aws.String(in.Name),
	}
	if in.Bucket != "" {
		input.S3Bucket = aws.String(in.Bucket)
		input.S3Key = aws.String(in.Key)
	} else {
		input.ZipFile = in.ZipFile
	}
	_, err := c.client.UpdateFunctionCode(ctx, input)
	return err
}

func (c awsLambdaClient) UpdateFunctionConfiguration(ctx context.Context, in FunctionConfigInput) error {
	_, err := c.client.UpdateFunctionConfiguration(ctx, &lambda.UpdateFunctionConfigurationInput{
		FunctionName: aws.String(in.Name),
		Runtime:      types.Runtime(in.Runtime),
		Role:         aws.String(in.Role),
		Handler:      aws.String(in.Handler),
		Description:  aws.String(in.Description),
		Timeout:      aws.Int32(in.Timeout),
		MemorySize:   aws.Int32(in.MemorySize),
	})
	return err
}

func (c awsLambdaClient) DeleteFunction(ctx context.Context, name string) error {
	_, err := c.client.DeleteFunction(ctx, &lambda.DeleteFunctionInput{
		FunctionName: aws.String(name),
	})
	var notFoundErr *types.ResourceNotFoundException
	if errors.As(err, &notFoundErr) {
		return notFound("function %s", name)
	}
	return err
}

func (c awsLambdaClient) Invoke(ctx context.Context, in InvokeInput) (*InvokeResult, error) {
	input := &lambda.InvokeInput{
		FunctionName:   aws.String(in.FunctionName),
		InvocationType: types.InvocationType(in.Mode),
		Payload:        in.Payload,
	}
	// Execution logs ride along on synchronous invocations only.
	if in.Mode == InvokeSync {
		input.LogType = types.LogTypeTail
	}

	resp, err := c.client.Invoke(ctx, input)
	if err != nil {
		return nil, err
	}

	result := &InvokeResult{
		StatusCode:    resp.StatusCode,
		FunctionError: aws.ToString(resp.FunctionError),
		Payload:       resp.Payload,
	}
	if logResult := aws.ToString(resp.LogResult); logResult != "" {
		if decoded, decodeErr := base64.StdEncoding.DecodeString(logResult); decodeErr == nil {
			result.LogTail = string(decoded)
		} else {
			result.LogTail = logResult
		}
	}
	return result, nil
}

func (c awsLambdaClient) AddPermission(ctx context.Context, in PermissionInput) error {
	input := &lambda.AddPermissionInput{
		FunctionName: aws.String(in.FunctionName),
		StatementId:  aws.String(in.StatementID),
		Action:       aws.String(in.Action),
		Principal:    aws.String(in.Principal),
	}
	if in.SourceARN != "" {
		input.SourceArn = aws.String(in.SourceARN)
	}
	if in.SourceAccount != "" {
		input.SourceAccount = aws.String(in.SourceAccount)
	}
	_, err := c.client.AddPermission(ctx, input)
	return err
}

func (c awsLambdaClient) CreateMapping(ctx context.Context, in MappingInput) (*MappingRecord, error) {
	input := &lambda.CreateEventSourceMappingInput{
		EventSourceArn: aws.String(in.SourceARN),
		FunctionName:   aws.String(in.FunctionName),
		Enabled:        in.Enabled,
	}
	if in.BatchSize > 0 {
		input.BatchSize = aws.Int32(in.BatchSize)
	}
	if in.StartingPosition != "" {
		input.StartingPosition = types.EventSourcePosition(in.StartingPosition)
	}

	resp, err := c.client.CreateEventSourceMapping(ctx, input)
	if err != nil {
		return nil, err
	}
	record := MappingRecord{
		UUID:        aws.ToString(resp.UUID),
		SourceARN:   aws.ToString(resp.EventSourceArn),
		FunctionARN: aws.ToString(resp.FunctionArn),
		State:       aws.ToString(resp.State),
		BatchSize:   aws.ToInt32(resp.BatchSize),
	}
	if resp.LastModified != nil {
		record.LastModified = *resp.LastModified
	}
	return &record, nil
}

func (c awsLambdaClient) ListMappings(ctx context.Context, sourceARN, functionName string) ([]MappingRecord, error) {
	var records []MappingRecord
	var marker *string
	for {
		input := &lambda.ListEventSourceMappingsInput{Marker: marker}
		if sourceARN != "" {
			input.EventSourceArn = aws.String(sourceARN)
		}
		if functionName != "" {
			input.FunctionName = aws.String(functionName)
		}

		resp, err := c.client.ListEventSourceMappings(ctx, input)
		if err != nil {
			return nil, err
		}
		for _, mapping := range resp.EventSourceMappings {
			record := MappingRecord{
				UUID:        aws.ToString(mapping.UUID),
				SourceARN:   aws.ToString(mapping.EventSourceArn),
				FunctionARN: aws.ToString(mapping.FunctionArn),
				State:       aws.ToString(mapping.State),
				BatchSize:   aws.ToInt32(mapping.BatchSize),
			}
			if mapping.LastModified != nil {
				record.LastModified = *mapping.LastModified
			}
			records = append(records, record)
		}

		if aws.ToString(resp.NextMarker) == "" {
			return records, nil
		}
		marker = resp.NextMarker
	}
}

func (c awsLambdaClient) UpdateMapping(ctx context.Context, uuid string, batchSize int32, enabled *bool) error {
	input := &lambda.UpdateEventSourceMappingInput{
		UUID:    aws.String(uuid),
		Enabled: enabled,
	}
	if batchSize > 0 {
		input.BatchSize = aws.Int32(batchSize)
	}
	_, err := c.client.UpdateEventSourceMapping(ctx, input)
	return err
}

func (c awsLambdaClient) DeleteMapping(ctx context.Context, uuid string) error {
	_, err := c.client.DeleteEventSourceMapping(ctx, &lambda.DeleteEventSourceMappingInput{
		UUID: aws.String(uuid),
	})
	var notFoundErr *types.ResourceNotFoundException
	if errors.As(err, &notFoundErr) {
		return notFound("event source mapping %s", uuid)
	}
	return err
}

func mapFunctionRecord(cfg types.FunctionConfiguration) FunctionRecord {
	return FunctionRecord{
		Name:         aws.ToString(cfg.FunctionName),
		ARN:          aws.ToString(cfg.FunctionArn),
		Runtime:      string(cfg.Runtime),
		Handler:      aws.ToString(cfg.Handler),
		Role:         aws.ToString(cfg.Role),
		Description:  aws.ToString(cfg.Description),
		Timeout:      aws.ToInt32(cfg.Timeout),
		MemorySize:   aws.ToInt32(cfg.MemorySize),
		CodeSize:     cfg.CodeSize,
		CodeSha256:   aws.ToString(cfg.CodeSha256),
		Version:      aws.ToString(cfg.Version),
		State:        string(cfg.State),
		LastModified: aws.ToString(cfg.LastModified),
	}
}
