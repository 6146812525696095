// Where: internal/constants/env.go
// What: Environment variable naming constants.
// Why: Centralize environment variable names to avoid typos and inconsistencies.
package constants

const (
	// Function Defaults
	EnvDefaultMemorySize = "SLIPWAY_DEFAULT_MEMORY_SIZE"
	EnvDefaultTimeout    = "SLIPWAY_DEFAULT_TIMEOUT"

	// Readiness Polling
	EnvWaitTimeout = "SLIPWAY_WAIT_TIMEOUT"

	// Provider Configuration
	EnvEndpointURL    = "SLIPWAY_ENDPOINT_URL"
	EnvAWSEndpointURL = "AWS_ENDPOINT_URL"
	EnvAWSRegion      = "AWS_REGION"
	EnvAWSProfile     = "AWS_PROFILE"
	EnvAccessKeyID    = "AWS_ACCESS_KEY_ID"
	EnvSecretKey      = "AWS_SECRET_ACCESS_KEY"

	// Output Control
	EnvNoEmoji = "SLIPWAY_NO_EMOJI"
)
