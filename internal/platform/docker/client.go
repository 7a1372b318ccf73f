// Package docker provides the container-backed code runner: each run gets an
// ephemeral container with a memory cap and no network, used when the
// deployment wants OS-level isolation or a language the embedded engine
// cannot execute.
package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/jononovo/codementor/internal/domain"
)

// memoryLimitBytes caps each run container at 256MB.
const memoryLimitBytes = 256 * 1024 * 1024

// language -> image + interpreter invocation.
var runtimes = map[string]struct {
	image string
	cmd   func(code string) []string
}{
	"javascript": {"node:alpine", func(code string) []string { return []string{"node", "-e", code} }},
	"js":         {"node:alpine", func(code string) []string { return []string{"node", "-e", code} }},
	"python":     {"python:alpine", func(code string) []string { return []string{"python", "-c", code} }},
}

// Client wraps the official Docker SDK client.
type Client struct {
	cli           *client.Client
	imageOverride string
}

var _ domain.CodeRunner = (*Client)(nil)

// NewClient initializes and returns a verified Docker client. It pings the
// daemon on construction and panics if it is unreachable, so a misconfigured
// worker never accepts jobs it cannot run.
func NewClient(imageOverride string) *Client {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		slog.Error("Failed to create Docker client", "error", err)
		panic(err)
	}

	ctx := context.Background()
	if _, err = cli.Ping(ctx); err != nil {
		slog.Error("Failed to connect to Docker daemon", "error", err)
		panic(err)
	}

	slog.Info("Docker client initialized")
	return &Client{cli: cli, imageOverride: imageOverride}
}

// Run executes the code in an ephemeral container and returns its combined
// output as console lines. Non-zero exits and context cancellation are
// reported inside the EvalResult; only daemon failures become Go errors.
func (c *Client) Run(ctx context.Context, code string, language string) (domain.EvalResult, error) {
	rt, ok := runtimes[strings.ToLower(strings.TrimSpace(language))]
	if !ok {
		return domain.EvalResult{}, fmt.Errorf("unsupported language %q", language)
	}

	imageName := rt.image
	if c.imageOverride != "" {
		imageName = c.imageOverride
	}

	reader, err := c.cli.ImagePull(ctx, imageName, image.PullOptions{})
	if err != nil {
		return domain.EvalResult{}, fmt.Errorf("failed to pull image: %w", err)
	}
	// Drain so the pull completes before the create call needs the image.
	io.Copy(io.Discard, reader)
	reader.Close()

	resp, err := c.cli.ContainerCreate(ctx, &container.Config{
		Image:           imageName,
		Cmd:             rt.cmd(code),
		NetworkDisabled: true,
	}, &container.HostConfig{
		Resources: container.Resources{
			Memory: memoryLimitBytes,
		},
	}, nil, nil, "")
	if err != nil {
		return domain.EvalResult{}, fmt.Errorf("failed to create container: %w", err)
	}

	defer func() {
		// Removal uses its own context so cleanup still runs after a timeout.
		if err := c.cli.ContainerRemove(context.Background(), resp.ID, container.RemoveOptions{Force: true}); err != nil {
			slog.Warn("Failed to remove container", "containerID", resp.ID, "error", err)
		}
	}()

	if err := c.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return domain.EvalResult{}, fmt.Errorf("failed to start container: %w", err)
	}

	statusCh, errCh := c.cli.ContainerWait(ctx, resp.ID, container.WaitConditionNotRunning)

	var result domain.EvalResult
	select {
	case err := <-errCh:
		if ctx.Err() != nil {
			result.Error = "execution timed out"
		} else if err != nil {
			return domain.EvalResult{}, fmt.Errorf("failed waiting for container: %w", err)
		}
	case status := <-statusCh:
		if status.StatusCode != 0 {
			result.Error = fmt.Sprintf("process exited with status %d", status.StatusCode)
		}
	}

	stdout, stderr, err := c.containerOutput(resp.ID)
	if err != nil {
		return domain.EvalResult{}, err
	}

	result.Output = append(splitLines(stdout), prefixLines(splitLines(stderr), "Error: ")...)
	if result.Error != "" {
		result.Output = append(result.Output, "Error: "+result.Error)
	}
	return result, nil
}

func (c *Client) containerOutput(containerID string) (string, string, error) {
	logs, err := c.cli.ContainerLogs(context.Background(), containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to read container logs: %w", err)
	}
	defer logs.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, logs); err != nil {
		return "", "", fmt.Errorf("failed to demux container logs: %w", err)
	}
	return stdout.String(), stderr.String(), nil
}

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func prefixLines(lines []string, prefix string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = prefix + line
	}
	return out
}
