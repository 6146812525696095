// Where: internal/iam/policy.go
// What: Managed policy lifecycle referenced by the execution role.
// Why: Policies are either owned documents or references to existing ones.
package iam

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/slipway-sh/slipway/internal/config"
	"github.com/slipway-sh/slipway/internal/meta"
	"github.com/slipway-sh/slipway/internal/provider"
)

// maxPolicyVersions mirrors the platform limit on stored versions.
const maxPolicyVersions = 5

// PolicyDeps carries the collaborators a Policy needs.
type PolicyDeps struct {
	API     provider.IAMAPI
	BaseDir string
	Logger  *slog.Logger
}

// Policy manages one entry of the iam.policy config list. A policy with
// a document is owned by the deployment; one with only a name or ARN is
// a reference that is resolved but never mutated.
type Policy struct {
	spec config.PolicySpec
	deps PolicyDeps

	arn string
}

func NewPolicy(spec config.PolicySpec, deps PolicyDeps) *Policy {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	return &Policy{spec: spec, deps: deps}
}

func (p *Policy) Name() string { return p.spec.Name }

// Label names the policy in logs and reports, preferring the
// configured name over the raw ARN.
func (p *Policy) Label() string {
	if p.spec.Name != "" {
		return p.spec.Name
	}
	return p.spec.ARN
}

// Managed reports whether the deployment owns the policy document.
func (p *Policy) Managed() bool { return p.spec.Document != "" }

// Resolve returns the policy ARN, caching it after the first successful
// lookup. A missing policy yields an empty ARN without error.
func (p *Policy) Resolve(ctx context.Context) (string, error) {
	if p.spec.ARN != "" {
		return p.spec.ARN, nil
	}
	if p.arn != "" {
		return p.arn, nil
	}
	record, err := p.Exists(ctx)
	if err != nil {
		return "", err
	}
	if record == nil {
		return "", nil
	}
	p.arn = record.ARN
	return p.arn, nil
}

// Exists scans customer-managed policies for a name match.
func (p *Policy) Exists(ctx context.Context) (*provider.PolicyRecord, error) {
	records, err := p.deps.API.ListPolicies(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	for _, record := range records {
		if record.Name == p.spec.Name {
			found := record
			return &found, nil
		}
	}
	return nil, nil
}

// Create provisions the policy from its document when absent. Reference
// policies and already-present ones only get their ARN resolved.
func (p *Policy) Create(ctx context.Context) error {
	record, err := p.Exists(ctx)
	if err != nil {
		return err
	}
	if record != nil {
		p.arn = record.ARN
		p.deps.Logger.Debug("policy exists", "policy", p.spec.Name, "arn", record.ARN)
		return nil
	}
	if !p.Managed() {
		return nil
	}
	return p.provision(ctx)
}

// Deploy upserts the policy: create it when absent, otherwise publish
// the current document as a new default version.
func (p *Policy) Deploy(ctx context.Context) error {
	if !p.Managed() {
		return p.Create(ctx)
	}
	record, err := p.Exists(ctx)
	if err != nil {
		return err
	}
	if record == nil {
		return p.provision(ctx)
	}
	p.arn = record.ARN

	document, err := p.document()
	if err != nil {
		return err
	}
	if err := p.pruneVersions(ctx, record.ARN); err != nil {
		return err
	}
	if err := p.deps.API.CreatePolicyVersion(ctx, record.ARN, document); err != nil {
		return fmt.Errorf("update policy %s: %w", p.spec.Name, err)
	}
	p.deps.Logger.Debug("published policy version", "policy", p.spec.Name)
	return nil
}

// Delete removes an owned policy and its non-default versions. Reference
// policies are left alone, as is a policy that is already gone.
func (p *Policy) Delete(ctx context.Context) error {
	if !p.Managed() {
		return nil
	}
	arn, err := p.Resolve(ctx)
	if err != nil {
		return err
	}
	if arn == "" {
		p.deps.Logger.Debug("policy already gone", "policy", p.spec.Name)
		return nil
	}

	versions, err := p.deps.API.ListPolicyVersions(ctx, arn)
	if err != nil && !provider.IsNotFound(err) {
		return fmt.Errorf("list versions of policy %s: %w", p.spec.Name, err)
	}
	for _, version := range versions {
		if version.IsDefault {
			continue
		}
		if err := p.deps.API.DeletePolicyVersion(ctx, arn, version.ID); err != nil && !provider.IsNotFound(err) {
			return fmt.Errorf("delete version %s of policy %s: %w", version.ID, p.spec.Name, err)
		}
	}
	if err := p.deps.API.DeletePolicy(ctx, arn); err != nil && !provider.IsNotFound(err) {
		return fmt.Errorf("delete policy %s: %w", p.spec.Name, err)
	}
	return nil
}

// Status returns the live policy record, or nil when absent.
func (p *Policy) Status(ctx context.Context) (*provider.PolicyRecord, error) {
	if p.spec.ARN != "" {
		return p.deps.API.GetPolicy(ctx, p.spec.ARN)
	}
	return p.Exists(ctx)
}

func (p *Policy) provision(ctx context.Context) error {
	document, err := p.document()
	if err != nil {
		return err
	}
	arn, err := p.deps.API.CreatePolicy(ctx, provider.PolicyCreateInput{
		Name:        p.spec.Name,
		Path:        meta.PolicyPath,
		Document:    document,
		Description: p.spec.Description,
	})
	if err != nil {
		return fmt.Errorf("create policy %s: %w", p.spec.Name, err)
	}
	p.arn = arn
	p.deps.Logger.Debug("created policy", "policy", p.spec.Name, "arn", arn)
	return nil
}

func (p *Policy) document() (string, error) {
	path := p.spec.Document
	if !filepath.IsAbs(path) {
		path = filepath.Join(p.deps.BaseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read policy document: %w", err)
	}
	return string(data), nil
}

// pruneVersions deletes the oldest non-default versions until a new one
// fits under the platform limit.
func (p *Policy) pruneVersions(ctx context.Context, arn string) error {
	versions, err := p.deps.API.ListPolicyVersions(ctx, arn)
	if err != nil {
		return fmt.Errorf("list versions of policy %s: %w", p.spec.Name, err)
	}
	for len(versions) >= maxPolicyVersions {
		id, ok := oldestRemovableVersion(versions)
		if !ok {
			return fmt.Errorf("policy %s has no removable versions", p.spec.Name)
		}
		if err := p.deps.API.DeletePolicyVersion(ctx, arn, id); err != nil && !provider.IsNotFound(err) {
			return fmt.Errorf("delete version %s of policy %s: %w", id, p.spec.Name, err)
		}
		versions = dropVersion(versions, id)
	}
	return nil
}

func oldestRemovableVersion(versions []provider.PolicyVersion) (string, bool) {
	var oldest *provider.PolicyVersion
	for i := range versions {
		version := &versions[i]
		if version.IsDefault {
			continue
		}
		if oldest == nil || version.CreateDate.Before(oldest.CreateDate) {
			oldest = version
		}
	}
	if oldest == nil {
		return "", false
	}
	return oldest.ID, true
}

func dropVersion(versions []provider.PolicyVersion, id string) []provider.PolicyVersion {
	kept := versions[:0]
	for _, version := range versions {
		if version.ID != id {
			kept = append(kept, version)
		}
	}
	return kept
}
