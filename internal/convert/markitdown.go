// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/dunctk/whitepaper-to-socials/internal/container"
)

const imageMarkitdown = "markitdown:latest"

// ContainerConverter converts PDFs by piping them through the markitdown
// container image. It depends on a container.Runtime (docker or podman)
// injected at construction time.
type ContainerConverter struct {
	runtime container.Runtime
}

// NewContainerConverter creates a converter that uses the given container
// runtime to run the markitdown image. It verifies that the markitdown image
// exists locally before returning.
func NewContainerConverter(rt container.Runtime) (*ContainerConverter, error) {
	if err := rt.ImageExists(imageMarkitdown); err != nil {
		return nil, fmt.Errorf("markitdown image not available in %s: %w", rt.Name(), err)
	}
	return &ContainerConverter{runtime: rt}, nil
}

// Convert reads the PDF at pdfPath, pipes it through the markitdown container,
// and returns the resulting Markdown text.
func (m *ContainerConverter) Convert(ctx context.Context, pdfPath string) (string, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := m.runtime.Run(ctx, imageMarkitdown, f, &out); err != nil {
		return "", fmt.Errorf("converting %s with markitdown: %w", pdfPath, err)
	}

	if out.Len() == 0 {
		return "", fmt.Errorf("markitdown produced empty output for %s", pdfPath)
	}

	return out.String(), nil
}

// ExecConverter runs a markitdown binary found on PATH. It exists for
// environments without a container runtime.
type ExecConverter struct {
	// Bin overrides the binary name; empty means "markitdown".
	Bin string
}

// Convert runs markitdown against pdfPath and returns its stdout.
func (e *ExecConverter) Convert(ctx context.Context, pdfPath string) (string, error) {
	bin := e.Bin
	if bin == "" {
		bin = "markitdown"
	}
	if _, err := exec.LookPath(bin); err != nil {
		return "", fmt.Errorf("markitdown not on PATH: %w", err)
	}

	var out, errBuf bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, pdfPath)
	cmd.Stdout = &out
	cmd.Stderr = &errBuf
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("converting %s with %s: %w: %s", pdfPath, bin, err, errBuf.String())
	}

	if out.Len() == 0 {
		return "", fmt.Errorf("%s produced empty output for %s", bin, pdfPath)
	}

	return out.String(), nil
}
