package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/petems/voicevault/internal/history"
	"github.com/petems/voicevault/internal/speaker"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_STATE_HOME", filepath.Join(home, "state"))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestHistoryCommand(t *testing.T) {
	hist := filepath.Join(t.TempDir(), "history.txt")
	for _, l := range []string{"alice", "bob"} {
		if err := history.Append(hist, l); err != nil {
			t.Fatal(err)
		}
	}
	cfgPath := writeConfig(t, "history_path: "+hist+"\n")

	out, err := runCLI(t, "--config", cfgPath, "history")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if out != "alice\nbob\n" {
		t.Errorf("output = %q", out)
	}
}

func TestModelsCommand(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "alice.yaml")
	if err := speaker.WriteArtifact(model, &speaker.Artifact{
		Family:         speaker.FamilyGMM,
		CovarianceType: speaker.CovDiag,
		Components: []speaker.Component{
			{Weight: 1, Mean: []float64{0, 0, 0}, Covariance: [][]float64{{1, 1, 1}}},
		},
	}); err != nil {
		t.Fatal(err)
	}
	cfgPath := writeConfig(t, "models_cache: "+filepath.Join(dir, "cache")+"\n")

	out, err := runCLI(t, "--config", cfgPath, "models", model)
	if err != nil {
		t.Fatalf("models failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("output = %q", out)
	}
	if f := strings.Fields(lines[1]); len(f) != 5 || f[1] != "alice" || f[2] != "diag" || f[3] != "1" || f[4] != "3" {
		t.Errorf("row = %q", lines[1])
	}
}

func TestStatusLine(t *testing.T) {
	var buf bytes.Buffer
	s := statusLine{w: &buf}
	s.SetRecording()
	s.SetProcessing()
	s.SetIdle()
	s.SetError()

	want := "🎤 🔴 recording\n🎤 🟡 processing\n🎤 🟢 idle\n🎤 ⚪️ error\n"
	if buf.String() != want {
		t.Errorf("status output = %q, want %q", buf.String(), want)
	}
}
