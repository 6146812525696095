// Where: internal/localrun/container.go
// What: Offline handler execution inside the official runtime image.
// Why: Match the remote interpreter version without installing it on the host.
package localrun

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/strslice"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

const (
	taskMount    = "/var/task"
	scratchMount = "/var/slipway"
)

// ContainerClient defines the subset of Docker SDK methods used to run
// a handler in a runtime image. This interface enables mocking the
// Docker client in tests.
type ContainerClient interface {
	ImagePull(ctx context.Context, refStr string, options image.PullOptions) (io.ReadCloser, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerWait(ctx context.Context, containerID string, condition container.WaitCondition) (<-chan container.WaitResponse, <-chan error)
	ContainerLogs(ctx context.Context, containerID string, options container.LogsOptions) (io.ReadCloser, error)
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
}

// NewContainerClient constructs a Docker SDK client using environment
// defaults.
func NewContainerClient() (ContainerClient, error) {
	return client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
}

// ContainerRunner executes the handler inside the runtime's official
// image with the source tree mounted read-only and networking off.
type ContainerRunner struct {
	Client ContainerClient
	Stderr io.Writer
	Logger *slog.Logger
}

// NewContainerRunner returns a container runner writing handler
// diagnostics to stderr.
func NewContainerRunner(containerClient ContainerClient, stderr io.Writer, logger *slog.Logger) *ContainerRunner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ContainerRunner{Client: containerClient, Stderr: stderr, Logger: logger}
}

func (r *ContainerRunner) Invoke(ctx context.Context, req Request) (*Result, error) {
	workDir, driverPath, err := stageDriver(req, func(string) string {
		return scratchMount + "/payload.json"
	})
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(workDir)

	sourceDir, err := filepath.Abs(req.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("resolve source dir: %w", err)
	}

	r.pullImage(ctx, req.Runtime.Image)

	created, err := r.Client.ContainerCreate(ctx,
		&container.Config{
			Image:           req.Runtime.Image,
			Entrypoint:      strslice.StrSlice{req.Runtime.Interpreter},
			Cmd:             strslice.StrSlice{scratchMount + "/" + filepath.Base(driverPath)},
			WorkingDir:      taskMount,
			NetworkDisabled: true,
		},
		&container.HostConfig{
			Binds: []string{
				sourceDir + ":" + taskMount + ":ro",
				workDir + ":" + scratchMount + ":ro",
			},
		},
		nil, nil, "")
	if err != nil {
		return nil, fmt.Errorf("create runtime container: %w", err)
	}
	defer func() {
		cleanup := context.WithoutCancel(ctx)
		if err := r.Client.ContainerRemove(cleanup, created.ID, container.RemoveOptions{Force: true}); err != nil {
			r.Logger.Warn("container cleanup failed", slog.String("id", created.ID), slog.Any("error", err))
		}
	}()

	if err := r.Client.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("start runtime container: %w", err)
	}

	exitCode, err := r.waitExit(ctx, created.ID)
	if err != nil {
		return nil, err
	}

	stdout, err := r.drainLogs(ctx, created.ID)
	if err != nil {
		return nil, err
	}
	if exitCode != 0 {
		return nil, fmt.Errorf("handler exited with status %d", exitCode)
	}
	return &Result{Payload: stdout}, nil
}

// pullImage refreshes the runtime image, tolerating failures so a
// locally cached image still works offline.
func (r *ContainerRunner) pullImage(ctx context.Context, ref string) {
	rc, err := r.Client.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		r.Logger.Warn("image pull failed, using local image", slog.String("image", ref), slog.Any("error", err))
		return
	}
	defer rc.Close()
	io.Copy(io.Discard, rc)
}

func (r *ContainerRunner) waitExit(ctx context.Context, id string) (int64, error) {
	waitCh, errCh := r.Client.ContainerWait(ctx, id, container.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		return 0, fmt.Errorf("wait for container: %w", err)
	case status := <-waitCh:
		if status.Error != nil {
			return 0, fmt.Errorf("wait for container: %s", status.Error.Message)
		}
		return status.StatusCode, nil
	}
}

func (r *ContainerRunner) drainLogs(ctx context.Context, id string) ([]byte, error) {
	logs, err := r.Client.ContainerLogs(ctx, id, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return nil, fmt.Errorf("read container logs: %w", err)
	}
	defer logs.Close()

	var stdout bytes.Buffer
	stderr := r.Stderr
	if stderr == nil {
		stderr = io.Discard
	}
	if _, err := stdcopy.StdCopy(&stdout, stderr, logs); err != nil {
		return nil, fmt.Errorf("demux container logs: %w", err)
	}
	return stdout.Bytes(), nil
}
