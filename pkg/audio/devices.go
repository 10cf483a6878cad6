package audio

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// PulseDeviceLister lists capture sources through `pactl list short sources`.
type PulseDeviceLister struct {
	command string
}

func NewPulseDeviceLister(command string) *PulseDeviceLister {
	if command == "" {
		command = "pactl"
	}
	return &PulseDeviceLister{command: command}
}

func (l *PulseDeviceLister) InputDevices(ctx context.Context) ([]string, error) {
	out, err := exec.CommandContext(ctx, l.command, "list", "short", "sources").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list audio sources: %w", err)
	}
	return parseSources(string(out)), nil
}

// parseSources keeps real inputs; monitor sources mirror outputs and are skipped.
func parseSources(out string) []string {
	var devices []string
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		name := fields[1]
		if strings.HasSuffix(name, ".monitor") {
			continue
		}
		devices = append(devices, name)
	}
	return devices
}
