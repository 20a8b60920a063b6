package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

type bufferCLI struct {
	stdin  bytes.Buffer
	stdout bytes.Buffer
	stderr bytes.Buffer
}

// PatchCLI sets the context value used by newCLI so that commands write to
// buffers.
func PatchCLI(ctx context.Context) (context.Context, *bufferCLI) {
	b := &bufferCLI{}
	cli := &CLI{
		Stdin:  &b.stdin,
		Stdout: &b.stdout,
		Stderr: &b.stderr,
	}
	return context.WithValue(ctx, ctxKey, cli), b
}

func TestCLI_Table(t *testing.T) {
	ctx, bufs := PatchCLI(context.Background())
	cli := newCLI(ctx)

	cli.Table([]refreshRow{
		{Issuer: "de", Certificates: 2, Result: "ok"},
		{Issuer: "at", Certificates: 0, Result: "connection refused"},
	})

	lines := strings.Split(strings.TrimSpace(bufs.stdout.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected a header and two rows, got %q", bufs.stdout.String())
	}
	for _, header := range []string{"ISSUER", "CERTIFICATES", "RESULT"} {
		if !strings.Contains(lines[0], header) {
			t.Fatalf("header %q missing from %q", header, lines[0])
		}
	}
	if !strings.Contains(lines[2], "connection refused") {
		t.Fatalf("unexpected row %q", lines[2])
	}
}
