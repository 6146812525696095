// Where: internal/provider/iam.go
// What: AWS SDK adapter for roles and managed policies.
// Why: Map internal identity types to SDK types.
package provider

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/iam/types"
)

type awsIAMClient struct {
	client *iam.Client
}

func (c awsIAMClient) CreateRole(ctx context.Context, in RoleCreateInput) (string, error) {
	resp, err := c.client.CreateRole(ctx, &iam.CreateRoleInput{
		RoleName:                 aws.String(in.Name),
		Path:                     aws.String(in.Path),
		AssumeRolePolicyDocument: aws.String(in.TrustDocument),
	})
	if err != nil {
		return "", err
	}
	if resp.Role == nil {
		return "", nil
	}
	return aws.ToString(resp.Role.Arn), nil
}

func (c awsIAMClient) DeleteRole(ctx context.Context, name string) error {
	_, err := c.client.DeleteRole(ctx, &iam.DeleteRoleInput{RoleName: aws.String(name)})
	if isNoSuchEntity(err) {
		return notFound("role %s", name)
	}
	return err
}

func (c awsIAMClient) GetRole(ctx context.Context, name string) (*RoleRecord, error) {
	resp, err := c.client.GetRole(ctx, &iam.GetRoleInput{RoleName: aws.String(name)})
	if err != nil {
		if isNoSuchEntity(err) {
			return nil, nil
		}
		return nil, err
	}
	if resp.Role == nil {
		return nil, nil
	}
	record := mapRoleRecord(*resp.Role)
	return &record, nil
}

// ListRoles returns every role under pathPrefix, following pagination.
func (c awsIAMClient) ListRoles(ctx context.Context, pathPrefix string) ([]RoleRecord, error) {
	var records []RoleRecord
	var marker *string
	for {
		input := &iam.ListRolesInput{Marker: marker}
		if pathPrefix != "" {
			input.PathPrefix = aws.String(pathPrefix)
		}

		resp, err := c.client.ListRoles(ctx, input)
		if err != nil {
			return nil, err
		}
		for _, role := range resp.Roles {
			records = append(records, mapRoleRecord(role))
		}

		if !resp.IsTruncated {
			return records, nil
		}
		marker = resp.Marker
	}
}

func (c awsIAMClient) PutRolePolicy(ctx context.Context, roleName, policyName, document string) error {
	_, err := c.client.PutRolePolicy(ctx, &iam.PutRolePolicyInput{
		RoleName:       aws.String(roleName),
		PolicyName:     aws.String(policyName),
		PolicyDocument: aws.String(document),
	})
	return err
}

func (c awsIAMClient) DeleteRolePolicy(ctx context.Context, roleName, policyName string) error {
	_, err := c.client.DeleteRolePolicy(ctx, &iam.DeleteRolePolicyInput{
		RoleName:   aws.String(roleName),
		PolicyName: aws.String(policyName),
	})
	if isNoSuchEntity(err) {
		return notFound("inline policy %s on role %s", policyName, roleName)
	}
	return err
}

func (c awsIAMClient) AttachRolePolicy(ctx context.Context, roleName, policyARN string) error {
	_, err := c.client.AttachRolePolicy(ctx, &iam.AttachRolePolicyInput{
		RoleName:  aws.String(roleName),
		PolicyArn: aws.String(policyARN),
	})
	return err
}

func (c awsIAMClient) DetachRolePolicy(ctx context.Context, roleName, policyARN string) error {
	_, err := c.client.DetachRolePolicy(ctx, &iam.DetachRolePolicyInput{
		RoleName:  aws.String(roleName),
		PolicyArn: aws.String(policyARN),
	})
	if isNoSuchEntity(err) {
		return notFound("attachment of %s to role %s", policyARN, roleName)
	}
	return err
}

func (c awsIAMClient) ListAttachedRolePolicies(ctx context.Context, roleName string) ([]AttachedPolicy, error) {
	var attached []AttachedPolicy
	var marker *string
	for {
		resp, err := c.client.ListAttachedRolePolicies(ctx, &iam.ListAttachedRolePoliciesInput{
			RoleName: aws.String(roleName),
			Marker:   marker,
		})
		if err != nil {
			if isNoSuchEntity(err) {
				return nil, notFound("role %s", roleName)
			}
			return nil, err
		}
		for _, policy := range resp.AttachedPolicies {
			attached = append(attached, AttachedPolicy{
				Name: aws.ToString(policy.PolicyName),
				ARN:  aws.ToString(policy.PolicyArn),
			})
		}

		if !resp.IsTruncated {
			return attached, nil
		}
		marker = resp.Marker
	}
}

func (c awsIAMClient) CreatePolicy(ctx context.Context, in PolicyCreateInput) (string, error) {
	input := &iam.CreatePolicyInput{
		PolicyName:     aws.String(in.Name),
		Path:           aws.String(in.Path),
		PolicyDocument: aws.String(in.Document),
	}
	if in.Description != "" {
		input.Description = aws.String(in.Description)
	}

	resp, err := c.client.CreatePolicy(ctx, input)
	if err != nil {
		return "", err
	}
	if resp.Policy == nil {
		return "", nil
	}
	return aws.ToString(resp.Policy.Arn), nil
}

func (c awsIAMClient) DeletePolicy(ctx context.Context, arn string) error {
	_, err := c.client.DeletePolicy(ctx, &iam.DeletePolicyInput{PolicyArn: aws.String(arn)})
	if isNoSuchEntity(err) {
		return notFound("policy %s", arn)
	}
	return err
}

func (c awsIAMClient) GetPolicy(ctx context.Context, arn string) (*PolicyRecord, error) {
	resp, err := c.client.GetPolicy(ctx, &iam.GetPolicyInput{PolicyArn: aws.String(arn)})
	if err != nil {
		if isNoSuchEntity(err) {
			return nil, nil
		}
		return nil, err
	}
	if resp.Policy == nil {
		return nil, nil
	}
	record := mapPolicyRecord(*resp.Policy)
	return &record, nil
}

// ListPolicies returns customer-managed policies under pathPrefix,
// following pagination.
func (c awsIAMClient) ListPolicies(ctx context.Context, pathPrefix string) ([]PolicyRecord, error) {
	var records []PolicyRecord
	var marker *string
	for {
		input := &iam.ListPoliciesInput{
			Scope:  types.PolicyScopeTypeLocal,
			Marker: marker,
		}
		if pathPrefix != "" {
			input.PathPrefix = aws.String(pathPrefix)
		}

		resp, err := c.client.ListPolicies(ctx, input)
		if err != nil {
			return nil, err
		}
		for _, policy := range resp.Policies {
			records = append(records, mapPolicyRecord(policy))
		}

		if !resp.IsTruncated {
			return records, nil
		}
		marker = resp.Marker
	}
}

func (c awsIAMClient) CreatePolicyVersion(ctx context.Context, arn, document string) error {
	_, err := c.client.CreatePolicyVersion(ctx, &iam.CreatePolicyVersionInput{
		PolicyArn:      aws.String(arn),
		PolicyDocument: aws.String(document),
		SetAsDefault:   true,
	})
	return err
}

func (c awsIAMClient) ListPolicyVersions(ctx context.Context, arn string) ([]PolicyVersion, error) {
	resp, err := c.client.ListPolicyVersions(ctx, &iam.ListPolicyVersionsInput{
		PolicyArn: aws.String(arn),
	})
	if err != nil {
		if isNoSuchEntity(err) {
			return nil, notFound("policy %s", arn)
		}
		return nil, err
	}

	versions := make([]PolicyVersion, 0, len(resp.Versions))
	for _, version := range resp.Versions {
		entry := PolicyVersion{
			ID:        aws.ToString(version.VersionId),
			IsDefault: version.IsDefaultVersion,
		}
		if version.CreateDate != nil {
			entry.CreateDate = *version.CreateDate
		}
		versions = append(versions, entry)
	}
	return versions, nil
}

func (c awsIAMClient) DeletePolicyVersion(ctx context.Context, arn, versionID string) error {
	_, err := c.client.DeletePolicyVersion(ctx, &iam.DeletePolicyVersionInput{
		PolicyArn: aws.String(arn),
		VersionId: aws.String(versionID),
	})
	if isNoSuchEntity(err) {
		return notFound("policy version %s of %s", versionID, arn)
	}
	return err
}

func mapRoleRecord(role types.Role) RoleRecord {
	record := RoleRecord{
		Name: aws.ToString(role.RoleName),
		ARN:  aws.ToString(role.Arn),
		Path: aws.ToString(role.Path),
	}
	if role.CreateDate != nil {
		record.CreateDate = *role.CreateDate
	}
	return record
}

func mapPolicyRecord(policy types.Policy) PolicyRecord {
	return PolicyRecord{
		Name:             aws.ToString(policy.PolicyName),
		ARN:              aws.ToString(policy.Arn),
		Path:             aws.ToString(policy.Path),
		DefaultVersionID: aws.ToString(policy.DefaultVersionId),
		AttachmentCount:  aws.ToInt32(policy.AttachmentCount),
	}
}

func isNoSuchEntity(err error) bool {
	var noSuchEntity *types.NoSuchEntityException
	return errors.As(err, &noSuchEntity)
}
