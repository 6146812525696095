// Where: internal/provider/factory.go
// What: AWS client factory for the deployment services.
// Why: Encapsulate SDK configuration, including local endpoint overrides.
package provider

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/slipway-sh/slipway/internal/constants"
	"github.com/slipway-sh/slipway/internal/envutil"
)

// ClientFactory builds the remote service clients for one deployment run.
type ClientFactory interface {
	Connect(ctx context.Context) (Clients, error)
}

// Options selects the account and region the clients talk to. Empty
// fields defer to the SDK's shared config resolution.
type Options struct {
	Profile string
	Region  string
}

type awsClientFactory struct {
	opts Options
}

// NewClientFactory returns a factory backed by the AWS SDK.
func NewClientFactory(opts Options) ClientFactory {
	return awsClientFactory{opts: opts}
}

func (f awsClientFactory) Connect(ctx context.Context) (Clients, error) {
	cfg, err := f.loadAWSConfig(ctx)
	if err != nil {
		return Clients{}, err
	}

	endpoint := resolveEndpoint()
	lambdaClient := lambda.NewFromConfig(cfg, func(options *lambda.Options) {
		if endpoint != "" {
			options.BaseEndpoint = aws.String(endpoint)
		}
	})
	iamClient := iam.NewFromConfig(cfg, func(options *iam.Options) {
		if endpoint != "" {
			options.BaseEndpoint = aws.String(endpoint)
		}
	})
	s3Client := s3.NewFromConfig(cfg, func(options *s3.Options) {
		if endpoint != "" {
			options.BaseEndpoint = aws.String(endpoint)
			options.UsePathStyle = true
		}
	})
	snsClient := sns.NewFromConfig(cfg, func(options *sns.Options) {
		if endpoint != "" {
			options.BaseEndpoint = aws.String(endpoint)
		}
	})
	dynamoClient := dynamodb.NewFromConfig(cfg, func(options *dynamodb.Options) {
		if endpoint != "" {
			options.BaseEndpoint = aws.String(endpoint)
		}
	})
	logsClient := cloudwatchlogs.NewFromConfig(cfg, func(options *cloudwatchlogs.Options) {
		if endpoint != "" {
			options.BaseEndpoint = aws.String(endpoint)
		}
	})
	stsClient := sts.NewFromConfig(cfg, func(options *sts.Options) {
		if endpoint != "" {
			options.BaseEndpoint = aws.String(endpoint)
		}
	})

	adapter := awsLambdaClient{client: lambdaClient}
	return Clients{
		Functions: adapter,
		Mappings:  adapter,
		IAM:       awsIAMClient{client: iamClient},
		Objects:   awsS3Client{client: s3Client},
		Topics:    awsSNSClient{client: snsClient},
		Tables:    awsDynamoDBClient{client: dynamoClient},
		Logs:      awsLogsClient{client: logsClient},
		Identity:  awsSTSClient{client: stsClient},
		Region:    cfg.Region,
	}, nil
}

func (f awsClientFactory) loadAWSConfig(ctx context.Context) (aws.Config, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if f.opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(f.opts.Region))
	}
	if f.opts.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(f.opts.Profile))
	}

	// Local endpoints (localstack-style) rarely have real credentials
	// configured; fall back to a static pair so signing succeeds.
	if resolveEndpoint() != "" && os.Getenv(constants.EnvAccessKeyID) == "" {
		creds := credentials.NewStaticCredentialsProvider("slipway", "slipway", "")
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(creds))
	}

	return awsconfig.LoadDefaultConfig(ctx, loadOpts...)
}

func resolveEndpoint() string {
	if endpoint := envutil.String(constants.EnvEndpointURL, ""); endpoint != "" {
		return endpoint
	}
	return envutil.String(constants.EnvAWSEndpointURL, "")
}
