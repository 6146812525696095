// Where: internal/stack/status.go
// What: Aggregated deployment status types and record mapping.
// Why: Callers must distinguish "not managed" from "managed but missing".
package stack

import (
	"github.com/slipway-sh/slipway/internal/eventsource"
	"github.com/slipway-sh/slipway/internal/provider"
)

// Status is the aggregate of every resource owned by one deployment.
// A nil Policies or Role pointer marks the slot as unmanaged and
// serializes as JSON null; a managed slot is always present, with a
// Found flag per entry. EventSources is never nil.
type Status struct {
	Name         string               `json:"name"`
	State        State                `json:"state"`
	Policies     *[]PolicyStatus      `json:"policies"`
	Role         *RoleStatus          `json:"role"`
	Function     *FunctionStatus      `json:"function"`
	EventSources []eventsource.Status `json:"event_sources"`
}

// PolicyStatus reports one configured policy slot.
type PolicyStatus struct {
	Name  string `json:"name"`
	Found bool   `json:"found"`
	ARN   string `json:"arn,omitempty"`
}

// RoleStatus reports the managed role slot.
type RoleStatus struct {
	Name  string `json:"name"`
	Found bool   `json:"found"`
	ARN   string `json:"arn,omitempty"`
}

// FunctionStatus is the remote function descriptor. A nil
// *FunctionStatus in Status means the function does not exist remotely.
type FunctionStatus struct {
	Name         string `json:"name"`
	ARN          string `json:"arn"`
	Runtime      string `json:"runtime,omitempty"`
	Handler      string `json:"handler,omitempty"`
	Role         string `json:"role,omitempty"`
	State        string `json:"state,omitempty"`
	CodeSize     int64  `json:"code_size,omitempty"`
	CodeSha256   string `json:"code_sha256,omitempty"`
	Version      string `json:"version,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
}

func mapPolicyStatus(name string, record *provider.PolicyRecord) PolicyStatus {
	if record == nil {
		return PolicyStatus{Name: name}
	}
	return PolicyStatus{Name: record.Name, Found: true, ARN: record.ARN}
}

func mapRoleStatus(name string, record *provider.RoleRecord) *RoleStatus {
	if record == nil {
		return &RoleStatus{Name: name}
	}
	return &RoleStatus{Name: record.Name, Found: true, ARN: record.ARN}
}

func mapFunctionStatus(record *provider.FunctionRecord) *FunctionStatus {
	if record == nil {
		return nil
	}
	return &FunctionStatus{
		Name:         record.Name,
		ARN:          record.ARN,
		Runtime:      record.Runtime,
		Handler:      record.Handler,
		Role:         record.Role,
		State:        record.State,
		CodeSize:     record.CodeSize,
		CodeSha256:   record.CodeSha256,
		Version:      record.Version,
		LastModified: record.LastModified,
	}
}
