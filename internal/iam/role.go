// Where: internal/iam/role.go
// What: Execution role lifecycle for the deployed function.
// Why: The function cannot be registered until its role and policies exist.
package iam

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/slipway-sh/slipway/internal/meta"
	"github.com/slipway-sh/slipway/internal/provider"
)

// RoleDeps carries the collaborators a Role needs.
type RoleDeps struct {
	API      provider.IAMAPI
	Identity provider.IdentityAPI
	Region   string
	Logger   *slog.Logger
}

// Role manages the execution role named in the deployment config.
type Role struct {
	name string
	deps RoleDeps

	arn string
}

func NewRole(name string, deps RoleDeps) *Role {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	return &Role{name: name, deps: deps}
}

func (r *Role) Name() string { return r.name }

// Resolve returns the role ARN, caching it after the first successful
// lookup. A missing role yields an empty ARN without error.
func (r *Role) Resolve(ctx context.Context) (string, error) {
	if r.arn != "" {
		return r.arn, nil
	}
	record, err := r.deps.API.GetRole(ctx, r.name)
	if err != nil {
		return "", fmt.Errorf("resolve role %s: %w", r.name, err)
	}
	if record == nil {
		return "", nil
	}
	r.arn = record.ARN
	return r.arn, nil
}

// Exists scans the full role list for a name match. A just-created role
// may not be visible through a direct lookup yet while the listing is.
func (r *Role) Exists(ctx context.Context) (bool, error) {
	records, err := r.deps.API.ListRoles(ctx, "")
	if err != nil {
		return false, fmt.Errorf("list roles: %w", err)
	}
	for _, record := range records {
		if record.Name == r.name {
			return true, nil
		}
	}
	return false, nil
}

// Create provisions the role with its trust and logging documents when
// absent, then attaches the given managed policies either way.
func (r *Role) Create(ctx context.Context, functionName string, policyARNs []string) error {
	exists, err := r.Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		r.deps.Logger.Debug("role exists", "role", r.name)
	} else if err := r.provision(ctx, functionName); err != nil {
		return err
	}
	return r.AttachPolicies(ctx, policyARNs)
}

func (r *Role) provision(ctx context.Context, functionName string) error {
	trust, err := TrustDocument()
	if err != nil {
		return err
	}
	arn, err := r.deps.API.CreateRole(ctx, provider.RoleCreateInput{
		Name:          r.name,
		Path:          meta.RolePath,
		TrustDocument: trust,
	})
	if err != nil {
		return fmt.Errorf("create role %s: %w", r.name, err)
	}
	r.arn = arn
	r.deps.Logger.Debug("created role", "role", r.name, "arn", arn)

	accountID, err := r.deps.Identity.AccountID(ctx)
	if err != nil {
		return fmt.Errorf("resolve account id: %w", err)
	}
	logging, err := LoggingDocument(r.deps.Region, accountID, functionName)
	if err != nil {
		return err
	}
	if err := r.deps.API.PutRolePolicy(ctx, r.name, meta.LoggingPolicyName, logging); err != nil {
		return fmt.Errorf("attach logging policy to role %s: %w", r.name, err)
	}
	return nil
}

// AttachPolicies attaches each ARN not already attached to the role.
func (r *Role) AttachPolicies(ctx context.Context, policyARNs []string) error {
	if len(policyARNs) == 0 {
		return nil
	}
	attached, err := r.attachedARNs(ctx)
	if err != nil && !provider.IsNotFound(err) {
		return err
	}
	for _, arn := range policyARNs {
		if arn == "" || attached[arn] {
			continue
		}
		if err := r.deps.API.AttachRolePolicy(ctx, r.name, arn); err != nil {
			return fmt.Errorf("attach policy %s to role %s: %w", arn, r.name, err)
		}
		r.deps.Logger.Debug("attached policy", "role", r.name, "policy", arn)
	}
	return nil
}

// Ready reports whether the role resolves and every given policy shows
// as attached. It backs the readiness poll before function creation.
func (r *Role) Ready(ctx context.Context, policyARNs []string) (bool, error) {
	record, err := r.deps.API.GetRole(ctx, r.name)
	if err != nil {
		return false, err
	}
	if record == nil {
		return false, nil
	}
	if len(policyARNs) == 0 {
		return true, nil
	}
	attached, err := r.attachedARNs(ctx)
	if err != nil {
		if provider.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	for _, arn := range policyARNs {
		if arn != "" && !attached[arn] {
			return false, nil
		}
	}
	return true, nil
}

// Delete removes the inline logging policy, detaches the given policies,
// then deletes the role. A role that is already gone is not an error.
func (r *Role) Delete(ctx context.Context, policyARNs []string) error {
	if err := r.deps.API.DeleteRolePolicy(ctx, r.name, meta.LoggingPolicyName); err != nil && !provider.IsNotFound(err) {
		return fmt.Errorf("delete logging policy from role %s: %w", r.name, err)
	}
	for _, arn := range policyARNs {
		if arn == "" {
			continue
		}
		if err := r.deps.API.DetachRolePolicy(ctx, r.name, arn); err != nil && !provider.IsNotFound(err) {
			return fmt.Errorf("detach policy %s from role %s: %w", arn, r.name, err)
		}
	}
	if err := r.deps.API.DeleteRole(ctx, r.name); err != nil {
		if provider.IsNotFound(err) {
			r.deps.Logger.Debug("role already gone", "role", r.name)
			return nil
		}
		return fmt.Errorf("delete role %s: %w", r.name, err)
	}
	return nil
}

// Status returns the live role record, or nil when the role is absent.
func (r *Role) Status(ctx context.Context) (*provider.RoleRecord, error) {
	return r.deps.API.GetRole(ctx, r.name)
}

func (r *Role) attachedARNs(ctx context.Context) (map[string]bool, error) {
	attached, err := r.deps.API.ListAttachedRolePolicies(ctx, r.name)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(attached))
	for _, policy := range attached {
		set[policy.ARN] = true
	}
	return set, nil
}
