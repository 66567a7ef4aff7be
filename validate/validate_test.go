package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeProfile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write profile: %v", err)
	}
	return path
}

func hasMessage(messages []string, substr string) bool {
	for _, m := range messages {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

func TestValidateProfile_Valid(t *testing.T) {
	path := writeProfile(t, t.TempDir(), "fast.json", `{
		"name": "fast",
		"description": "Tiny budget",
		"players": 2,
		"attempts": 50,
		"max_rolls": 100,
		"coverage_threshold": 0.25,
		"rules": "classic",
		"seed": 7
	}`)

	result := validateProfile(path)

	if !result.Valid {
		t.Fatalf("Expected profile to be valid, got errors: %v", result.Errors)
	}
	if result.File != "fast.json" {
		t.Errorf("Expected file name fast.json, got %s", result.File)
	}
	for _, expected := range []string{"Rules: classic", "50 attempts of up to 100 rolls", "Coverage threshold: 25%", "Seed: 7"} {
		if !hasMessage(result.Errors, expected) {
			t.Errorf("Expected info %q, got %v", expected, result.Errors)
		}
	}
}

func TestValidateProfile_Defaults(t *testing.T) {
	path := writeProfile(t, t.TempDir(), "minimal.json", `{"name": "minimal", "coverage_threshold": 0}`)

	result := validateProfile(path)

	if !result.Valid {
		t.Fatalf("Expected profile to be valid, got errors: %v", result.Errors)
	}
	for _, expected := range []string{"Rules: powerup", "10000 attempts of up to 200 rolls", "none (full budget)", "Description: none"} {
		if !hasMessage(result.Errors, expected) {
			t.Errorf("Expected info %q, got %v", expected, result.Errors)
		}
	}
}

func TestValidateProfile_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  string
		expected string
	}{
		{"broken JSON", "broken.json", `{"name": "broken",`, "Invalid JSON"},
		{"unknown field", "extra.json", `{"name": "extra", "grid_size": 5}`, "Invalid JSON"},
		{"missing name", "noname.json", `{"attempts": 10}`, "Name is empty"},
		{"name mismatch", "quick.json", `{"name": "slow"}`, `does not match file name "quick"`},
		{"three players", "crowd.json", `{"name": "crowd", "players": 3}`, "players must be 2"},
		{"negative attempts", "neg.json", `{"name": "neg", "attempts": -5}`, "attempts must be positive"},
		{"too many rolls", "long.json", `{"name": "long", "max_rolls": 20000}`, "max_rolls must be at most"},
		{"threshold above one", "greedy.json", `{"name": "greedy", "coverage_threshold": 1.5}`, "coverage_threshold must be between"},
		{"unknown rules", "chess.json", `{"name": "chess", "rules": "chess"}`, "Invalid profile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeProfile(t, t.TempDir(), tt.file, tt.content)

			result := validateProfile(path)

			if result.Valid {
				t.Fatal("Expected profile to be invalid")
			}
			if !hasMessage(result.Errors, tt.expected) {
				t.Errorf("Expected error containing %q, got %v", tt.expected, result.Errors)
			}
		})
	}
}

func TestValidateProfile_MissingFile(t *testing.T) {
	result := validateProfile(filepath.Join(t.TempDir(), "missing.json"))

	if result.Valid {
		t.Error("Expected missing file to be invalid")
	}
	if !hasMessage(result.Errors, "Failed to read file") {
		t.Errorf("Expected read error, got %v", result.Errors)
	}
}

func TestValidateDir(t *testing.T) {
	t.Run("all valid", func(t *testing.T) {
		dir := t.TempDir()
		writeProfile(t, dir, "a.json", `{"name": "a", "attempts": 10}`)
		writeProfile(t, dir, "b.json", `{"name": "b", "rules": "classic"}`)

		var out bytes.Buffer
		ok, err := validateDir(&out, dir)
		if err != nil {
			t.Fatalf("validateDir failed: %v", err)
		}
		if !ok {
			t.Errorf("Expected all profiles valid:\n%s", out.String())
		}
		if !strings.Contains(out.String(), "✅ All profiles are valid!") {
			t.Errorf("Expected summary line:\n%s", out.String())
		}
	})

	t.Run("one invalid", func(t *testing.T) {
		dir := t.TempDir()
		writeProfile(t, dir, "a.json", `{"name": "a"}`)
		writeProfile(t, dir, "b.json", `{"name": "b", "players": 4}`)

		var out bytes.Buffer
		ok, err := validateDir(&out, dir)
		if err != nil {
			t.Fatalf("validateDir failed: %v", err)
		}
		if ok {
			t.Error("Expected an invalid profile to be reported")
		}
		report := out.String()
		if !strings.Contains(report, "❌ INVALID") || !strings.Contains(report, "❌ Some profiles have errors") {
			t.Errorf("Unexpected report:\n%s", report)
		}
		if strings.Contains(report, "  ❌ ✓") {
			t.Error("Info lines should not be printed as errors")
		}
	})

	t.Run("empty directory", func(t *testing.T) {
		if _, err := validateDir(&bytes.Buffer{}, t.TempDir()); err == nil {
			t.Error("Expected error for a directory without profiles")
		}
	})
}

func TestShippedProfiles(t *testing.T) {
	var out bytes.Buffer
	ok, err := validateDir(&out, "../configs")
	if err != nil {
		t.Fatalf("validateDir failed: %v", err)
	}
	if !ok {
		t.Errorf("Expected shipped profiles to be valid:\n%s", out.String())
	}
}
