// Where: internal/stack/state.go
// What: State classification derived from an aggregated status.
// Why: Best-effort operations leave partial deployments that need a name.
package stack

// State classifies how much of a deployment exists remotely.
type State string

const (
	// StateAbsent means no managed resource exists remotely.
	StateAbsent State = "absent"
	// StatePartial means some managed resources exist and others are
	// missing, the residue of a failed or interrupted operation.
	StatePartial State = "partial"
	// StateDeployed means every managed resource exists remotely.
	StateDeployed State = "deployed"
)

// DeriveState classifies a deployment from its status aggregate. Only
// the core resources (policies, role, function) participate; event
// source bindings are attached by a separate operation and do not
// demote a deployment to partial.
func DeriveState(status Status) State {
	expected := 1
	found := 0
	if status.Function != nil {
		found++
	}

	if status.Role != nil {
		expected++
		if status.Role.Found {
			found++
		}
	}
	if status.Policies != nil {
		for _, policy := range *status.Policies {
			expected++
			if policy.Found {
				found++
			}
		}
	}

	switch found {
	case 0:
		return StateAbsent
	case expected:
		return StateDeployed
	default:
		return StatePartial
	}
}
