// Package svcctl queries and manipulates systemd units through the
// systemctl CLI contract — spec §4.4. It never talks to D-Bus directly;
// every observation and mutation is a single argv-array invocation via
// internal/executil, so the systemd boundary stays "documented CLI
// contracts" per spec §1's non-goals.
package svcctl

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/coreos/go-systemd/v22/unit"

	"luigi/internal/executil"
)

const (
	statusTimeout  = 10 * time.Second
	controlTimeout = 30 * time.Second
)

// State is the derived, never-persisted live state of one unit (spec §3).
type State struct {
	Status        string // active | inactive | failed | unknown | installed
	PID           *int
	UptimeSeconds *int64
	MemoryKB      *int64
	Enabled       bool
}

// OpResult is the outcome of a start/stop/restart control command.
type OpResult struct {
	Success bool
	Message string
}

// Controller drives systemctl for a set of units.
type Controller struct {
	group singleflight.Group
}

// New returns a ready Controller.
func New() *Controller { return &Controller{} }

// UnitName derives a systemd unit name from a bare module name, appending
// the ".service" suffix when absent and escaping the name the way
// go-systemd's unit package escapes arbitrary strings into safe unit
// components, so odd module names never produce an invalid or ambiguous
// unit reference.
func UnitName(name string) string {
	if strings.HasSuffix(name, ".service") {
		return name
	}
	escaped := unit.UnitNamePathEscape(name)
	return escaped + ".service"
}

// Status parses `systemctl status <unit>`'s text output. Any failure of the
// underlying query (launch failure, timeout) yields {Status: "unknown"} —
// this call never surfaces an error to its caller, per spec §4.4.
func (c *Controller) Status(ctx context.Context, unitName string) State {
	v, _, _ := c.group.Do(unitName, func() (any, error) {
		res, err := executil.Run(ctx, []string{"systemctl", "status", unitName, "--no-pager"}, executil.Options{Timeout: statusTimeout})
		if err != nil {
			return State{Status: "unknown"}, nil
		}
		return parseStatusOutput(res.Stdout), nil
	})
	return v.(State)
}

var (
	activeLineRe = regexp.MustCompile(`(?m)^\s*Active:\s*(\S+)`)
	loadedLineRe = regexp.MustCompile(`(?m)^\s*Loaded:.*;\s*(enabled|disabled|static)`)
	mainPIDRe    = regexp.MustCompile(`Main PID:\s*(\d+)`)
)

// parseStatusOutput implements spec §4.4's status-mapping rules against raw
// `systemctl status` text: active iff an "Active: active" marker is
// present, inactive/failed analogously, enabled from the load line, pid
// from the "Main PID: N" line if present.
func parseStatusOutput(output string) State {
	state := State{Status: "unknown"}

	if m := activeLineRe.FindStringSubmatch(output); m != nil {
		switch m[1] {
		case "active":
			state.Status = "active"
		case "inactive":
			state.Status = "inactive"
		case "failed":
			state.Status = "failed"
		}
	}

	if m := loadedLineRe.FindStringSubmatch(output); m != nil {
		state.Enabled = m[1] == "enabled"
	}

	if m := mainPIDRe.FindStringSubmatch(output); m != nil {
		if pid, err := strconv.Atoi(m[1]); err == nil && pid > 0 {
			state.PID = &pid
		}
	}

	return state
}

// Start starts unitName. Success iff the control command exits zero; on a
// non-zero exit, stderr is surfaced verbatim in Message (spec §4.4).
func (c *Controller) Start(ctx context.Context, unitName string) OpResult {
	return c.control(ctx, "start", unitName)
}

// Stop stops unitName.
func (c *Controller) Stop(ctx context.Context, unitName string) OpResult {
	return c.control(ctx, "stop", unitName)
}

// Restart restarts unitName.
func (c *Controller) Restart(ctx context.Context, unitName string) OpResult {
	return c.control(ctx, "restart", unitName)
}

func (c *Controller) control(ctx context.Context, verb, unitName string) OpResult {
	res, err := executil.Run(ctx, []string{"systemctl", verb, unitName}, executil.Options{Timeout: controlTimeout})
	if err != nil {
		return OpResult{Success: false, Message: err.Error()}
	}
	if res.ExitCode != 0 {
		return OpResult{Success: false, Message: strings.TrimSpace(res.Stderr)}
	}
	return OpResult{Success: true}
}

// Runtime enriches state with uptime and resident memory when the unit is
// active and a PID is known. Failures here are non-fatal; unavailable
// fields are simply left nil (spec §4.4).
func (c *Controller) Runtime(ctx context.Context, unitName string, state State) State {
	if state.Status != "active" || state.PID == nil {
		return state
	}

	if res, err := executil.Run(ctx, []string{"systemctl", "show", unitName, "--no-pager", "-p", "ActiveEnterTimestamp"}, executil.Options{Timeout: statusTimeout}); err == nil && res.ExitCode == 0 {
		if since, ok := parseActiveEnterTimestamp(res.Stdout); ok {
			uptime := int64(time.Since(since).Seconds())
			if uptime >= 0 {
				state.UptimeSeconds = &uptime
			}
		}
	}

	if rss, ok := readVmRSS(*state.PID); ok {
		state.MemoryKB = &rss
	}

	return state
}

// parseActiveEnterTimestamp parses `ActiveEnterTimestamp=<value>` from
// `systemctl show`'s KEY=VALUE output, using systemd's default timestamp
// layout ("Mon 2006-01-02 15:04:05 MST").
func parseActiveEnterTimestamp(output string) (time.Time, bool) {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		value, found := strings.CutPrefix(line, "ActiveEnterTimestamp=")
		if !found || value == "" {
			continue
		}
		t, err := time.Parse("Mon 2006-01-02 15:04:05 MST", value)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}

// readVmRSS reads /proc/<pid>/status and extracts the VmRSS line, in KiB.
func readVmRSS(pid int) (int64, bool) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/status", pid))
	if err != nil {
		return 0, false
	}
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "VmRSS:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0, false
		}
		kb, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return 0, false
		}
		return kb, true
	}
	return 0, false
}
