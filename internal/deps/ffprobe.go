package deps

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"
)

const versionTimeout = 5 * time.Second

// CheckFFprobe resolves the configured ffprobe binary and records the first
// line of its version banner in Detail.
func CheckFFprobe(ctx context.Context, binary string) Status {
	status := CheckBinaries([]Requirement{{
		Name:        "FFprobe",
		Command:     binary,
		Description: "Required to read upload durations",
	}})[0]
	if !status.Available {
		return status
	}

	versionCtx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	out, err := exec.CommandContext(versionCtx, status.Command, "-version").Output()
	if err != nil {
		status.Detail = "version unknown"
		return status
	}
	status.Detail = firstLine(out)
	return status
}

func firstLine(out []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text())
	}
	return ""
}
