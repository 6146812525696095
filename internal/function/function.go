// Where: internal/function/function.go
// What: Deployable function lifecycle: package, register, update, delete.
// Why: Create and update share the packaging and upload path.
package function

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/slipway-sh/slipway/internal/archive"
	"github.com/slipway-sh/slipway/internal/config"
	"github.com/slipway-sh/slipway/internal/provider"
	"github.com/slipway-sh/slipway/internal/runtime"
)

// Deps carries the collaborators a Function needs. BaseDir anchors the
// relative source, artifact, and test-data paths from the config file.
type Deps struct {
	API     provider.FunctionAPI
	Objects provider.ObjectStoreAPI
	BaseDir string
	Logger  *slog.Logger
}

// Function manages the lambda section of the deployment config.
type Function struct {
	spec *config.FunctionSpec
	deps Deps

	arn string
}

func New(spec *config.FunctionSpec, deps Deps) *Function {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	return &Function{spec: spec, deps: deps}
}

func (f *Function) Name() string { return f.spec.Name }

// Resolve returns the function ARN, caching it after the first
// successful lookup. A missing function yields an empty ARN without
// error.
func (f *Function) Resolve(ctx context.Context) (string, error) {
	if f.arn != "" {
		return f.arn, nil
	}
	record, err := f.deps.API.GetFunction(ctx, f.spec.Name)
	if err != nil {
		return "", fmt.Errorf("resolve function %s: %w", f.spec.Name, err)
	}
	if record == nil {
		return "", nil
	}
	f.arn = record.ARN
	return f.arn, nil
}

// Exists reports whether the function's identity resolves remotely.
func (f *Function) Exists(ctx context.Context) (bool, error) {
	arn, err := f.Resolve(ctx)
	if err != nil {
		return false, err
	}
	return arn != "", nil
}

// Package archives the source tree into the configured artifact path
// and returns the archive bytes. The artifact is left on disk.
func (f *Function) Package() ([]byte, error) {
	zipPath := f.artifactPath()
	if err := archive.Build(f.SourcePath(), zipPath); err != nil {
		return nil, fmt.Errorf("package %s: %w", f.spec.Name, err)
	}
	data, err := os.ReadFile(zipPath)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	f.deps.Logger.Debug("packaged function", "function", f.spec.Name, "artifact", zipPath, "bytes", len(data))
	return data, nil
}

// Create packages the source, optionally uploads the artifact, then
// registers the function with roleARN and grants invoke permissions.
// In upload-only mode registration and grants are skipped.
func (f *Function) Create(ctx context.Context, roleARN string) error {
	profile, err := f.RuntimeProfile()
	if err != nil {
		return err
	}
	zipData, err := f.Package()
	if err != nil {
		return err
	}

	in := provider.FunctionCreateInput{
		Name:        f.spec.Name,
		Runtime:     profile.Name,
		Role:        roleARN,
		Handler:     f.spec.Handler,
		Description: f.spec.Description,
		Timeout:     int32(f.spec.Timeout),
		MemorySize:  int32(f.spec.MemorySize),
	}
	if f.spec.S3 != nil {
		if err := f.upload(ctx, zipData); err != nil {
			return err
		}
		if f.spec.S3.Only {
			f.deps.Logger.Debug("upload-only mode, skipping registration", "function", f.spec.Name)
			return nil
		}
		in.Bucket = f.spec.S3.Bucket
		in.Key = f.spec.S3.Key
	} else {
		in.ZipFile = zipData
	}

	arn, err := f.deps.API.CreateFunction(ctx, in)
	if err != nil {
		return fmt.Errorf("create function %s: %w", f.spec.Name, err)
	}
	f.arn = arn
	f.deps.Logger.Debug("created function", "function", f.spec.Name, "arn", arn)

	return f.AddPermissions(ctx)
}

// Update re-packages and pushes code, then reconciles the remote
// configuration (runtime, role, handler, description, sizing) with the
// config file.
func (f *Function) Update(ctx context.Context, roleARN string) error {
	profile, err := f.RuntimeProfile()
	if err != nil {
		return err
	}
	if err := f.pushCode(ctx); err != nil {
		return err
	}
	if f.spec.S3 != nil && f.spec.S3.Only {
		return nil
	}

	err = f.deps.API.UpdateFunctionConfiguration(ctx, provider.FunctionConfigInput{
		Name:        f.spec.Name,
		Runtime:     profile.Name,
		Role:        roleARN,
		Handler:     f.spec.Handler,
		Description: f.spec.Description,
		Timeout:     int32(f.spec.Timeout),
		MemorySize:  int32(f.spec.MemorySize),
	})
	if err != nil {
		return fmt.Errorf("update configuration of %s: %w", f.spec.Name, err)
	}
	return nil
}

// UpdateCode re-packages and pushes code only, leaving the remote
// configuration untouched.
func (f *Function) UpdateCode(ctx context.Context) error {
	return f.pushCode(ctx)
}

// Deploy creates the function when its identity does not resolve and
// updates it in place when it does.
func (f *Function) Deploy(ctx context.Context, roleARN string) error {
	exists, err := f.Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return f.Update(ctx, roleARN)
	}
	return f.Create(ctx, roleARN)
}

// Delete removes the remote function. One that is already gone is not
// an error.
func (f *Function) Delete(ctx context.Context) error {
	if err := f.deps.API.DeleteFunction(ctx, f.spec.Name); err != nil {
		if provider.IsNotFound(err) {
			f.deps.Logger.Debug("function already gone", "function", f.spec.Name)
			return nil
		}
		return fmt.Errorf("delete function %s: %w", f.spec.Name, err)
	}
	return nil
}

// Status returns the live function record, or nil when absent.
func (f *Function) Status(ctx context.Context) (*provider.FunctionRecord, error) {
	return f.deps.API.GetFunction(ctx, f.spec.Name)
}

// AddPermissions grants each configured invoke permission. Every grant
// is attempted; failures are joined into one error afterward.
func (f *Function) AddPermissions(ctx context.Context) error {
	var errs []error
	for _, grant := range f.spec.Permissions {
		err := f.deps.API.AddPermission(ctx, provider.PermissionInput{
			FunctionName:  f.spec.Name,
			StatementID:   grant.StatementID,
			Action:        grant.Action,
			Principal:     grant.Principal,
			SourceARN:     grant.SourceARN,
			SourceAccount: grant.SourceAccount,
		})
		if err != nil {
			f.deps.Logger.Warn("permission grant failed",
				"function", f.spec.Name, "statement", grant.StatementID, "error", err)
			errs = append(errs, fmt.Errorf("grant %s: %w", grant.StatementID, err))
		}
	}
	return errors.Join(errs...)
}

func (f *Function) pushCode(ctx context.Context) error {
	zipData, err := f.Package()
	if err != nil {
		return err
	}

	in := provider.CodeInput{Name: f.spec.Name}
	if f.spec.S3 != nil {
		if err := f.upload(ctx, zipData); err != nil {
			return err
		}
		if f.spec.S3.Only {
			return nil
		}
		in.Bucket = f.spec.S3.Bucket
		in.Key = f.spec.S3.Key
	} else {
		in.ZipFile = zipData
	}

	if err := f.deps.API.UpdateFunctionCode(ctx, in); err != nil {
		return fmt.Errorf("update code of %s: %w", f.spec.Name, err)
	}
	return nil
}

func (f *Function) upload(ctx context.Context, zipData []byte) error {
	bucket := f.spec.S3.Bucket
	key := f.spec.S3.Key
	f.deps.Logger.Debug("uploading artifact", "bucket", bucket, "key", key)
	if err := f.deps.Objects.PutObject(ctx, bucket, key, zipData, "application/zip"); err != nil {
		return fmt.Errorf("upload artifact to s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}

// RuntimeProfile resolves the configured runtime, inferring it from
// the source tree when the configuration leaves it out.
func (f *Function) RuntimeProfile() (runtime.Profile, error) {
	profile, err := runtime.ResolveOrInfer(f.spec.Runtime, f.SourcePath())
	if err != nil {
		return runtime.Profile{}, fmt.Errorf("resolve runtime of %s: %w", f.spec.Name, err)
	}
	return profile, nil
}

// SourcePath is the handler source location, anchored at the config
// file directory when relative.
func (f *Function) SourcePath() string {
	return f.anchored(f.spec.Path)
}

func (f *Function) artifactPath() string {
	return f.anchored(f.spec.ZipfileName)
}

func (f *Function) anchored(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(f.deps.BaseDir, path)
}
