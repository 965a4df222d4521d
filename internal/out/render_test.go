package out

import (
	"bytes"
	"strings"
	"testing"

	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/config"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/model"
)

func plainSettings() config.Settings {
	return config.Settings{OutputMode: "plain"}
}

func TestPlainRowLeadsWithAttemptFields(t *testing.T) {
	env := model.Envelope{
		Success: true,
		Data: map[string]any{
			"zone":       "extra",
			"status":     "sent",
			"attempt_id": "att_1",
			"source_key": "43113",
		},
	}
	var buf bytes.Buffer
	if err := Render(&buf, env, plainSettings()); err != nil {
		t.Fatalf("render: %v", err)
	}
	line := strings.TrimSpace(buf.String())
	want := "attempt_id=att_1 status=sent source_key=43113 zone=extra"
	if line != want {
		t.Fatalf("plain row = %q, want %q", line, want)
	}
}

func TestPlainErrorRendersSingleLine(t *testing.T) {
	env := model.Envelope{
		Success: false,
		Error:   &model.ErrorBody{Code: 24, Type: "insufficient_allowance", Message: "router allowance 0 is below the payment amount 1000000"},
	}
	var buf bytes.Buffer
	if err := Render(&buf, env, plainSettings()); err != nil {
		t.Fatalf("render: %v", err)
	}
	got := buf.String()
	if !strings.HasPrefix(got, "error: insufficient_allowance: ") {
		t.Fatalf("error line = %q", got)
	}
	if strings.Count(got, "\n") != 1 {
		t.Fatalf("error output must be one line, got %q", got)
	}
}

func TestPlainWarningsFollowData(t *testing.T) {
	env := model.Envelope{
		Success:  true,
		Data:     map[string]any{"attempt_id": "att_2"},
		Warnings: []string{"router fee quote failed; plan uses a static fallback fee denominated in the native coin"},
	}
	var buf bytes.Buffer
	if err := Render(&buf, env, plainSettings()); err != nil {
		t.Fatalf("render: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected data row plus warning, got %v", lines)
	}
	if !strings.HasPrefix(lines[1], "warning: ") {
		t.Fatalf("warning line = %q", lines[1])
	}
}

func TestPlainResultsOnlyOmitsWarnings(t *testing.T) {
	env := model.Envelope{
		Success:  true,
		Data:     []map[string]any{{"key": "43113", "name": "Avalanche Fuji"}},
		Warnings: []string{"noise"},
	}
	settings := plainSettings()
	settings.ResultsOnly = true
	var buf bytes.Buffer
	if err := Render(&buf, env, settings); err != nil {
		t.Fatalf("render: %v", err)
	}
	got := strings.TrimSpace(buf.String())
	if got != "key=43113 name=Avalanche Fuji" {
		t.Fatalf("results-only row = %q", got)
	}
}

func TestProjectKeepsSelectedFieldsOnly(t *testing.T) {
	env := model.Envelope{
		Success: true,
		Data:    map[string]any{"attempt_id": "att_3", "status": "sent", "data": "0xdead"},
	}
	settings := plainSettings()
	settings.SelectFields = []string{"attempt_id", "status"}
	var buf bytes.Buffer
	if err := Render(&buf, env, settings); err != nil {
		t.Fatalf("render: %v", err)
	}
	got := strings.TrimSpace(buf.String())
	if got != "attempt_id=att_3 status=sent" {
		t.Fatalf("projected row = %q", got)
	}
}
