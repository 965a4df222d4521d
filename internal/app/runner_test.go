package app

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/model"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))

	var stdout, stderr bytes.Buffer
	code := NewRunnerWithWriters(&stdout, &stderr).Run(args)
	return code, stdout.String(), stderr.String()
}

func decodeEnvelope(t *testing.T, raw string) model.Envelope {
	t.Helper()
	var env model.Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		t.Fatalf("decode envelope: %v\noutput: %s", err, raw)
	}
	return env
}

func TestNetworksListEnvelope(t *testing.T) {
	code, stdout, stderr := runCLI(t, "networks", "list")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}
	env := decodeEnvelope(t, stdout)
	if !env.Success {
		t.Fatalf("success = false: %s", stdout)
	}
	if env.Version != model.EnvelopeVersion {
		t.Fatalf("version = %q", env.Version)
	}
	if env.Meta.Command != "networks list" {
		t.Fatalf("meta.command = %q", env.Meta.Command)
	}
	networks, ok := env.Data.([]any)
	if !ok || len(networks) < 2 {
		t.Fatalf("expected built-in networks, got %v", env.Data)
	}
}

func TestNetworksShowUnknownNetworkFails(t *testing.T) {
	code, _, stderr := runCLI(t, "networks", "show", "--network", "999999")
	if code == 0 {
		t.Fatal("expected a non-zero exit code")
	}
	env := decodeEnvelope(t, stderr)
	if env.Success {
		t.Fatal("success = true for unknown network")
	}
	if env.Error == nil || env.Error.Type != "unsupported_route" {
		t.Fatalf("error = %+v", env.Error)
	}
}

func TestNetworksRoutesListsLanes(t *testing.T) {
	code, stdout, stderr := runCLI(t, "networks", "routes")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}
	env := decodeEnvelope(t, stdout)
	routes, ok := env.Data.([]any)
	if !ok || len(routes) == 0 {
		t.Fatalf("expected routes, got %v", env.Data)
	}
	first, ok := routes[0].(map[string]any)
	if !ok || first["source"] == "" || first["destination"] == "" {
		t.Fatalf("route shape: %v", routes[0])
	}
}

func TestUnknownCommandIsUsageError(t *testing.T) {
	code, _, stderr := runCLI(t, "definitely-not-a-command")
	if code != 2 {
		t.Fatalf("exit code = %d, want 2\nstderr: %s", code, stderr)
	}
	env := decodeEnvelope(t, stderr)
	if env.Error == nil || env.Error.Type != "usage_error" {
		t.Fatalf("error = %+v", env.Error)
	}
}

func TestSchemaCommandDescribesTree(t *testing.T) {
	code, stdout, stderr := runCLI(t, "schema")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}
	for _, want := range []string{"pay", "approve", "attempts", "networks", "fee"} {
		if !strings.Contains(stdout, "\""+want+"\"") && !strings.Contains(stdout, " "+want) {
			t.Fatalf("schema output missing command %q:\n%s", want, stdout)
		}
	}
}

func TestSchemaSubcommandLookup(t *testing.T) {
	code, stdout, stderr := runCLI(t, "schema", "pay", "plan")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "\"agent\"") {
		t.Fatalf("schema for pay plan missing the agent flag:\n%s", stdout)
	}
}

func TestAttemptsShowMissingAttempt(t *testing.T) {
	code, _, stderr := runCLI(t, "attempts", "show", "--attempt", "pay_unknown")
	if code != 2 {
		t.Fatalf("exit code = %d, want 2\nstderr: %s", code, stderr)
	}
	env := decodeEnvelope(t, stderr)
	if env.Error == nil || env.Error.Type != "usage_error" {
		t.Fatalf("error = %+v", env.Error)
	}
}

func TestAttemptsListEmptyStore(t *testing.T) {
	code, stdout, stderr := runCLI(t, "attempts", "list")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}
	env := decodeEnvelope(t, stdout)
	if !env.Success {
		t.Fatalf("success = false: %s", stdout)
	}
}

func TestVersionCommand(t *testing.T) {
	code, stdout, _ := runCLI(t, "version")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if strings.TrimSpace(stdout) == "" {
		t.Fatal("version printed nothing")
	}
}

func TestResultsOnlyStripsEnvelope(t *testing.T) {
	code, stdout, stderr := runCLI(t, "networks", "list", "--results-only")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}
	var data []any
	if err := json.Unmarshal([]byte(stdout), &data); err != nil {
		t.Fatalf("results-only output is not a bare array: %v\n%s", err, stdout)
	}
}

func TestTrimRootPath(t *testing.T) {
	if got := trimRootPath("cubepay networks list"); got != "networks list" {
		t.Fatalf("trimRootPath = %q", got)
	}
	if got := trimRootPath("cubepay"); got != "cubepay" {
		t.Fatalf("trimRootPath root = %q", got)
	}
}
