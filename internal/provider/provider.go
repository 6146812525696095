// Where: internal/provider/provider.go
// What: Remote service interfaces and record types.
// Why: Keep resource packages decoupled from SDK types and mockable in tests.
package provider

import (
	"context"
	"time"
)

// Clients bundles the per-service APIs for one deployment run.
// Region is the resolved region the clients operate in.
type Clients struct {
	Functions FunctionAPI
	Mappings  MappingAPI
	IAM       IAMAPI
	Objects   ObjectStoreAPI
	Topics    TopicAPI
	Tables    TableAPI
	Logs      LogsAPI
	Identity  IdentityAPI
	Region    string
}

// FunctionAPI covers the remote function lifecycle.
type FunctionAPI interface {
	CreateFunction(ctx context.Context, in FunctionCreateInput) (string, error)
	GetFunction(ctx context.Context, name string) (*FunctionRecord, error)
	UpdateFunctionCode(ctx context.Context, in CodeInput) error
	UpdateFunctionConfiguration(ctx context.Context, in FunctionConfigInput) error
	DeleteFunction(ctx context.Context, name string) error
	Invoke(ctx context.Context, in InvokeInput) (*InvokeResult, error)
	AddPermission(ctx context.Context, in PermissionInput) error
}

// MappingAPI covers poll-based event source mappings.
type MappingAPI interface {
	CreateMapping(ctx context.Context, in MappingInput) (*MappingRecord, error)
	ListMappings(ctx context.Context, sourceARN, functionName string) ([]MappingRecord, error)
	UpdateMapping(ctx context.Context, uuid string, batchSize int32, enabled *bool) error
	DeleteMapping(ctx context.Context, uuid string) error
}

// IAMAPI covers roles, inline policies, and managed policies.
type IAMAPI interface {
	CreateRole(ctx context.Context, in RoleCreateInput) (string, error)
	DeleteRole(ctx context.Context, name string) error
	GetRole(ctx context.Context, name string) (*RoleRecord, error)
	ListRoles(ctx context.Context, pathPrefix string) ([]RoleRecord, error)
	PutRolePolicy(ctx context.Context, roleName, policyName, document string) error
	DeleteRolePolicy(ctx context.Context, roleName, policyName string) error
	AttachRolePolicy(ctx context.Context, roleName, policyARN string) error
	DetachRolePolicy(ctx context.Context, roleName, policyARN string) error
	ListAttachedRolePolicies(ctx context.Context, roleName string) ([]AttachedPolicy, error)
	CreatePolicy(ctx context.Context, in PolicyCreateInput) (string, error)
	DeletePolicy(ctx context.Context, arn string) error
	GetPolicy(ctx context.Context, arn string) (*PolicyRecord, error)
	ListPolicies(ctx context.Context, pathPrefix string) ([]PolicyRecord, error)
	CreatePolicyVersion(ctx context.Context, arn, document string) error
	ListPolicyVersions(ctx context.Context, arn string) ([]PolicyVersion, error)
	DeletePolicyVersion(ctx context.Context, arn, versionID string) error
}

// ObjectStoreAPI covers artifact uploads and bucket notification wiring.
type ObjectStoreAPI interface {
	PutObject(ctx context.Context, bucket, key string, body []byte, contentType string) error
	GetFunctionNotifications(ctx context.Context, bucket string) ([]FunctionNotification, error)
	PutFunctionNotification(ctx context.Context, bucket string, note FunctionNotification) error
	DeleteFunctionNotification(ctx context.Context, bucket, functionARN string) error
}

// TopicAPI covers topic subscriptions.
type TopicAPI interface {
	Subscribe(ctx context.Context, topicARN, endpoint string) (string, error)
	Unsubscribe(ctx context.Context, subscriptionARN string) error
	ListSubscriptions(ctx context.Context, topicARN string) ([]SubscriptionRecord, error)
}

// TableAPI resolves change-stream identifiers for tables.
type TableAPI interface {
	LatestStreamARN(ctx context.Context, tableName string) (string, error)
}

// LogsAPI covers the function's log group.
type LogsAPI interface {
	FilterEvents(ctx context.Context, group string, since time.Time, nextToken string) ([]LogEvent, string, error)
	DeleteGroup(ctx context.Context, group string) error
}

// IdentityAPI resolves the calling account.
type IdentityAPI interface {
	AccountID(ctx context.Context) (string, error)
}

// InvocationMode selects the remote invocation semantics.
type InvocationMode string

const (
	InvokeSync   InvocationMode = "RequestResponse"
	InvokeAsync  InvocationMode = "Event"
	InvokeDryRun InvocationMode = "DryRun"
)

type FunctionCreateInput struct {
	Name        string
	Runtime     string
	Role        string
	Handler     string
	Description string
	Timeout     int32
	MemorySize  int32
	ZipFile     []byte
	Bucket      string
	Key         string
}

type FunctionConfigInput struct {
	Name        string
	Runtime     string
	Role        string
	Handler     string
	Description string
	Timeout     int32
	MemorySize  int32
}

type CodeInput struct {
	Name    string
	ZipFile []byte
	Bucket  string
	Key     string
}

type FunctionRecord struct {
	Name         string
	ARN          string
	Runtime      string
	Handler      string
	Role         string
	Description  string
	Timeout      int32
	MemorySize   int32
	CodeSize     int64
	CodeSha256   string
	Version      string
	State        string
	LastModified string
}

type PermissionInput struct {
	FunctionName  string
	StatementID   string
	Action        string
	Principal     string
	SourceARN     string
	SourceAccount string
}

type InvokeInput struct {
	FunctionName string
	Mode         InvocationMode
	Payload      []byte
}

type InvokeResult struct {
	StatusCode    int32
	FunctionError string
	LogTail       string
	Payload       []byte
}

type MappingInput struct {
	SourceARN        string
	FunctionName     string
	BatchSize        int32
	StartingPosition string
	Enabled          *bool
}

type MappingRecord struct {
	UUID         string
	SourceARN    string
	FunctionARN  string
	State        string
	BatchSize    int32
	LastModified time.Time
}

type RoleCreateInput struct {
	Name          string
	Path          string
	TrustDocument string
}

type RoleRecord struct {
	Name       string
	ARN        string
	Path       string
	CreateDate time.Time
}

type AttachedPolicy struct {
	Name string
	ARN  string
}

type PolicyCreateInput struct {
	Name        string
	Path        string
	Document    string
	Description string
}

type PolicyRecord struct {
	Name             string
	ARN              string
	Path             string
	DefaultVersionID string
	AttachmentCount  int32
}

type PolicyVersion struct {
	ID         string
	IsDefault  bool
	CreateDate time.Time
}

// FunctionNotification is one function-targeted entry of a bucket's
// notification configuration.
type FunctionNotification struct {
	ID          string
	FunctionARN string
	Events      []string
}

type SubscriptionRecord struct {
	ARN      string
	TopicARN string
	Protocol string
	Endpoint string
}

type LogEvent struct {
	Timestamp time.Time
	Stream    string
	Message   string
}
