// Where: internal/function/invoke.go
// What: Remote invocation with payload resolution.
// Why: Explicit payload, configured test data, and empty share one path.
package function

import (
	"context"
	"fmt"
	"os"

	"github.com/slipway-sh/slipway/internal/provider"
)

// Invoke calls the remote function in the given mode. An explicit
// payload wins over the configured test-data file; with neither, an
// empty payload is sent.
func (f *Function) Invoke(ctx context.Context, explicit []byte, mode provider.InvocationMode) (*provider.InvokeResult, error) {
	payload, err := f.Payload(explicit)
	if err != nil {
		return nil, err
	}
	result, err := f.deps.API.Invoke(ctx, provider.InvokeInput{
		FunctionName: f.spec.Name,
		Mode:         mode,
		Payload:      payload,
	})
	if err != nil {
		return nil, fmt.Errorf("invoke %s: %w", f.spec.Name, err)
	}
	return result, nil
}

// Payload resolves the effective invocation payload.
func (f *Function) Payload(explicit []byte) ([]byte, error) {
	if explicit != nil {
		return explicit, nil
	}
	if f.spec.TestData == "" {
		return []byte{}, nil
	}
	data, err := os.ReadFile(f.anchored(f.spec.TestData))
	if err != nil {
		return nil, fmt.Errorf("read test data: %w", err)
	}
	return data, nil
}
