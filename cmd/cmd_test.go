package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeRig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rig.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var root = CreateValidateCmd()
	switch args[0] {
	case "version":
		root = CreateVersionCmd()
	case "show":
		root = CreateShowCmd()
	}
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args[1:])
	err := root.Execute()
	return out.String(), err
}

func TestValidateTree(t *testing.T) {
	path := writeRig(t, `
kind = "tree"
[tree]
animations = ["rainbow", "comet"]
stop_time = "22:30"
`)

	out, err := runCmd(t, "validate", "--rig", path)
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	for _, want := range []string{"tree rig", "animation comet", "animation rainbow", "stop time 22:30"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestValidateStar(t *testing.T) {
	path := writeRig(t, `
kind = "star"
[star]
light_threshold = 450
`)

	out, err := runCmd(t, "validate", "--rig", path)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "star rig") || !strings.Contains(out, "at or below 450") {
		t.Errorf("output = %s", out)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		rig  string
	}{
		{"unknown animation", "[tree]\nanimations = [\"fireworks\"]\n"},
		{"bad stop time", "[tree]\nstop_time = \"25:61\"\n"},
		{"bad kind", "kind = \"wreath\"\n"},
		{"bad toml", "kind = \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runCmd(t, "validate", "--rig", writeRig(t, tt.rig)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateQuiet(t *testing.T) {
	out, err := runCmd(t, "validate", "-q", "--rig", writeRig(t, "kind = \"tree\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	if out != "" {
		t.Errorf("quiet output = %q", out)
	}
}

func TestVersionJSON(t *testing.T) {
	out, err := runCmd(t, "version", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var info map[string]string
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("version output is not JSON: %v\n%s", err, out)
	}
	if info["version"] == "" || info["go_version"] == "" {
		t.Errorf("info = %v", info)
	}
}
