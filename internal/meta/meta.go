// Where: internal/meta/meta.go
// What: CLI-local metadata constants.
// Why: Centralize project identity so renames stay single-file.
package meta

const (
	// Project Identity
	AppName   = "slipway"
	Slug      = "slipway"
	EnvPrefix = "SLIPWAY"

	// Directory Layout
	HomeDir        = ".slipway"
	ConfigFileName = "slipway.yml"
	DefaultSource  = "src/"

	// IAM Layout
	RolePath          = "/slipway/"
	PolicyPath        = "/slipway/"
	LoggingPolicyName = "CloudWatchLogs"

	// Remote Naming
	LogGroupPrefix = "/aws/lambda/"

	// Function Defaults
	DefaultMemorySize = 128
	DefaultTimeout    = 4
)
