// Where: internal/config/config.go
// What: Deployment configuration types and loading.
// Why: One resolved spec drives every orchestrator operation.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/slipway-sh/slipway/internal/constants"
	"github.com/slipway-sh/slipway/internal/envutil"
	"github.com/slipway-sh/slipway/internal/meta"
)

// DeploymentSpec is the parsed slipway.yml document. A nil IAM section
// (or nil Role / empty Policies inside it) means those resources are
// externally provisioned and must not be managed here.
type DeploymentSpec struct {
	Name    string        `yaml:"name"`
	Profile string        `yaml:"profile,omitempty"`
	Region  string        `yaml:"region,omitempty"`
	IAM     *IAMSpec      `yaml:"iam,omitempty"`
	Lambda  *FunctionSpec `yaml:"lambda"`
}

// IAMSpec groups the optional managed-identity configuration.
type IAMSpec struct {
	Policies PolicyList `yaml:"policy,omitempty"`
	Role     *RoleSpec  `yaml:"role,omitempty"`
}

// PolicySpec describes one access policy. An ARN marks an externally
// owned policy that is only resolved and attached; a document path
// marks a policy whose content is managed here.
type PolicySpec struct {
	Name        string `yaml:"name,omitempty"`
	ARN         string `yaml:"arn,omitempty"`
	Document    string `yaml:"document,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// PolicyList accepts either a single policy mapping or a sequence of
// them under iam.policy.
type PolicyList []PolicySpec

func (p *PolicyList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.MappingNode:
		var single PolicySpec
		if err := value.Decode(&single); err != nil {
			return err
		}
		*p = PolicyList{single}
		return nil
	case yaml.SequenceNode:
		var many []PolicySpec
		if err := value.Decode(&many); err != nil {
			return err
		}
		*p = PolicyList(many)
		return nil
	default:
		return fmt.Errorf("iam.policy: expected a mapping or a sequence")
	}
}

// RoleSpec accepts either a bare boolean ("role: true") or a mapping
// with a name override. Managed reports whether a role should be
// provisioned at all.
type RoleSpec struct {
	Managed bool
	Name    string
}

func (r *RoleSpec) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var managed bool
		if err := value.Decode(&managed); err != nil {
			return fmt.Errorf("iam.role: expected a bool or a mapping")
		}
		*r = RoleSpec{Managed: managed}
		return nil
	case yaml.MappingNode:
		var raw struct {
			Name string `yaml:"name"`
		}
		if err := value.Decode(&raw); err != nil {
			return err
		}
		*r = RoleSpec{Managed: true, Name: raw.Name}
		return nil
	default:
		return fmt.Errorf("iam.role: expected a bool or a mapping")
	}
}

// FunctionSpec is the lambda section of the document.
type FunctionSpec struct {
	Name         string            `yaml:"name,omitempty"`
	Runtime      string            `yaml:"runtime,omitempty"`
	Handler      string            `yaml:"handler"`
	Description  string            `yaml:"description,omitempty"`
	Timeout      int               `yaml:"timeout,omitempty"`
	MemorySize   int               `yaml:"memory_size,omitempty"`
	Path         string            `yaml:"path,omitempty"`
	ZipfileName  string            `yaml:"zipfile_name,omitempty"`
	S3           *S3Spec           `yaml:"s3,omitempty"`
	TestData     string            `yaml:"test_data,omitempty"`
	Permissions  []PermissionSpec  `yaml:"permissions,omitempty"`
	EventSources []EventSourceSpec `yaml:"event_sources,omitempty"`
}

// S3Spec configures an intermediate artifact upload. Only skips the
// remote function registration entirely (upload-only mode).
type S3Spec struct {
	Bucket string `yaml:"bucket"`
	Key    string `yaml:"key,omitempty"`
	Only   bool   `yaml:"only,omitempty"`
}

// PermissionSpec grants an external principal permission to invoke the
// function.
type PermissionSpec struct {
	StatementID   string `yaml:"statement_id"`
	Action        string `yaml:"action"`
	Principal     string `yaml:"principal"`
	SourceARN     string `yaml:"source_arn,omitempty"`
	SourceAccount string `yaml:"source_account,omitempty"`
}

// EventSourceSpec binds an upstream event producer to the function.
// The producer kind is encoded in the ARN.
type EventSourceSpec struct {
	ARN              string   `yaml:"arn"`
	BatchSize        int      `yaml:"batch_size,omitempty"`
	StartingPosition string   `yaml:"starting_position,omitempty"`
	Enabled          *bool    `yaml:"enabled,omitempty"`
	Events           []string `yaml:"events,omitempty"`
}

// IsEnabled treats an omitted enabled flag as true.
func (e EventSourceSpec) IsEnabled() bool {
	return e.Enabled == nil || *e.Enabled
}

// ManagesRole reports whether a role should be provisioned for this
// deployment.
func (s *DeploymentSpec) ManagesRole() bool {
	return s.IAM != nil && s.IAM.Role != nil && s.IAM.Role.Managed
}

// ManagesPolicies reports whether any policies are configured.
func (s *DeploymentSpec) ManagesPolicies() bool {
	return s.IAM != nil && len(s.IAM.Policies) > 0
}

// RoleName returns the configured role name, falling back to the
// deployment name.
func (s *DeploymentSpec) RoleName() string {
	if s.IAM != nil && s.IAM.Role != nil && s.IAM.Role.Name != "" {
		return s.IAM.Role.Name
	}
	return s.Name
}

// Load reads, validates, and resolves the configuration file at path.
func Load(path string) (*DeploymentSpec, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	spec, err := Parse(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return spec, nil
}

// Parse validates the document against the schema, decodes it
// strictly, and applies defaults.
func Parse(payload []byte) (*DeploymentSpec, error) {
	if err := Validate(payload); err != nil {
		return nil, err
	}

	var spec DeploymentSpec
	decoder := yaml.NewDecoder(bytes.NewReader(payload))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := spec.applyDefaults(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// applyDefaults fills unset fields from the deployment name and the
// process environment. The schema has already enforced required keys.
func (s *DeploymentSpec) applyDefaults() error {
	if s.Lambda == nil {
		return fmt.Errorf("lambda section is required")
	}
	if strings.TrimSpace(s.Lambda.Handler) == "" {
		return fmt.Errorf("lambda.handler is required")
	}

	if s.Lambda.Name == "" {
		s.Lambda.Name = s.Name
	}
	if s.Lambda.Path == "" {
		s.Lambda.Path = meta.DefaultSource
	}
	if s.Lambda.ZipfileName == "" {
		s.Lambda.ZipfileName = s.Name + ".zip"
	}
	if s.Lambda.S3 != nil && s.Lambda.S3.Key == "" {
		s.Lambda.S3.Key = s.Lambda.Name
	}

	if s.Lambda.MemorySize == 0 {
		memory, err := envutil.Int(constants.EnvDefaultMemorySize, meta.DefaultMemorySize)
		if err != nil {
			return err
		}
		s.Lambda.MemorySize = memory
	}
	if s.Lambda.Timeout == 0 {
		timeout, err := envutil.Int(constants.EnvDefaultTimeout, meta.DefaultTimeout)
		if err != nil {
			return err
		}
		s.Lambda.Timeout = timeout
	}

	if s.IAM != nil && s.IAM.Role != nil && s.IAM.Role.Managed && s.IAM.Role.Name == "" {
		s.IAM.Role.Name = s.Name
	}
	if s.IAM != nil {
		for i := range s.IAM.Policies {
			policy := &s.IAM.Policies[i]
			if policy.Name == "" && policy.ARN == "" {
				return fmt.Errorf("iam.policy[%d]: name or arn is required", i)
			}
		}
	}
	return nil
}
