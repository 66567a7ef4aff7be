package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/wricardo/mcp-training/slpu/game/engine"
	"github.com/wricardo/mcp-training/slpu/game/search"
	"github.com/wricardo/mcp-training/slpu/game/service"
)

func createValidProfile(name string) *search.Options {
	opts := search.DefaultOptions()
	opts.Name = name
	opts.Description = "Test profile"
	opts.Attempts = 100
	return &opts
}

func writeProfileFile(t *testing.T, dir, name string, opts *search.Options) {
	data, err := json.MarshalIndent(opts, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal profile: %v", err)
	}

	path := filepath.Join(dir, name+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write profile file: %v", err)
	}
}

func TestNewManager(t *testing.T) {
	t.Run("valid directory", func(t *testing.T) {
		dir := t.TempDir()
		writeProfileFile(t, dir, "default", createValidProfile("Default"))

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if manager.GetDefault().Name != "Default" {
			t.Errorf("Expected default profile from file, got %q", manager.GetDefault().Name)
		}
	})

	t.Run("non-existent directory", func(t *testing.T) {
		manager, err := NewManager("/non/existent/path")
		if err != nil {
			t.Fatalf("Expected built-in default for missing directory, got %v", err)
		}
		def := manager.GetDefault()
		if def.Attempts != 10000 || def.MaxRolls != 200 || def.CoverageThreshold != 0.5 {
			t.Errorf("Unexpected built-in default: %+v", def)
		}
	})

	t.Run("path is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "profile.json")
		os.WriteFile(file, []byte("{}"), 0644)

		if _, err := NewManager(file); err == nil {
			t.Error("Expected error when the config path is a file")
		}
	})
}

func TestManager_LoadProfile(t *testing.T) {
	dir := t.TempDir()
	thorough := createValidProfile("Thorough")
	thorough.Attempts = 50000
	writeProfileFile(t, dir, "thorough", thorough)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	t.Run("load existing profile", func(t *testing.T) {
		opts, err := manager.LoadProfile("thorough")
		if err != nil {
			t.Fatalf("Failed to load profile: %v", err)
		}
		if opts.Attempts != 50000 {
			t.Errorf("Expected 50000 attempts, got %d", opts.Attempts)
		}
	})

	t.Run("load with .json extension", func(t *testing.T) {
		opts, err := manager.LoadProfile("thorough.json")
		if err != nil {
			t.Fatalf("Failed to load profile with extension: %v", err)
		}
		if opts.Name != "Thorough" {
			t.Errorf("Expected profile name 'Thorough', got '%s'", opts.Name)
		}
	})

	t.Run("load from cache", func(t *testing.T) {
		first, _ := manager.LoadProfile("thorough")
		second, err := manager.LoadProfile("thorough")
		if err != nil {
			t.Fatalf("Failed to load profile from cache: %v", err)
		}
		if first != second {
			t.Error("Expected profile to be loaded from cache")
		}
	})

	t.Run("built-in default", func(t *testing.T) {
		opts, err := manager.LoadProfile("default")
		if err != nil {
			t.Fatalf("Expected built-in default, got %v", err)
		}
		if opts.Name != "default" {
			t.Errorf("Expected name 'default', got %q", opts.Name)
		}
	})

	t.Run("load non-existent profile", func(t *testing.T) {
		_, err := manager.LoadProfile("non-existent")
		if !errors.Is(err, service.ErrProfileNotFound) {
			t.Errorf("Expected ErrProfileNotFound, got %v", err)
		}
	})

	t.Run("reject path traversal", func(t *testing.T) {
		_, err := manager.LoadProfile("../secret")
		if !errors.Is(err, service.ErrInvalidProfile) {
			t.Errorf("Expected ErrInvalidProfile, got %v", err)
		}
	})

	t.Run("load invalid profile", func(t *testing.T) {
		os.WriteFile(filepath.Join(dir, "invalid.json"), []byte(`{"players": 3}`), 0644)

		_, err := manager.LoadProfile("invalid")
		if !errors.Is(err, service.ErrInvalidProfile) {
			t.Errorf("Expected ErrInvalidProfile, got %v", err)
		}
	})

	t.Run("load malformed JSON", func(t *testing.T) {
		os.WriteFile(filepath.Join(dir, "malformed.json"), []byte(`{"name": "Malformed", invalid json}`), 0644)

		if _, err := manager.LoadProfile("malformed"); err == nil {
			t.Error("Expected error for malformed JSON")
		}
	})

	t.Run("partial profile takes defaults", func(t *testing.T) {
		os.WriteFile(filepath.Join(dir, "partial.json"), []byte(`{"attempts": 42, "rules": "classic"}`), 0644)

		opts, err := manager.LoadProfile("partial")
		if err != nil {
			t.Fatalf("Failed to load partial profile: %v", err)
		}
		if opts.Name != "partial" || opts.Attempts != 42 || opts.MaxRolls != 200 || opts.Rules != engine.Classic {
			t.Errorf("Unexpected partial profile: %+v", opts)
		}
	})
}

func TestManager_ListProfiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"easy", "thorough", "classic"} {
		writeProfileFile(t, dir, name, createValidProfile(name))
	}
	os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("readme"), 0644)
	os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0644)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	profiles, err := manager.ListProfiles()
	if err != nil {
		t.Fatalf("Failed to list profiles: %v", err)
	}

	expected := []string{"classic", "default", "easy", "thorough"}
	if len(profiles) != len(expected) {
		t.Fatalf("Expected %d profiles, got %d", len(expected), len(profiles))
	}
	for i, id := range expected {
		if profiles[i].ProfileID != id {
			t.Errorf("Profile %d: expected %q, got %q", i, id, profiles[i].ProfileID)
		}
	}
}

func TestManager_SaveProfile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "profiles")
	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	opts := createValidProfile("")
	opts.Attempts = 300
	if err := manager.SaveProfile("quick", opts); err != nil {
		t.Fatalf("Failed to save profile: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "quick.json")); err != nil {
		t.Errorf("Expected profile file to be written: %v", err)
	}

	loaded, err := manager.LoadProfile("quick")
	if err != nil {
		t.Fatalf("Failed to load saved profile: %v", err)
	}
	if loaded.Attempts != 300 || loaded.Name != "quick" {
		t.Errorf("Unexpected saved profile: %+v", loaded)
	}

	bad := createValidProfile("bad")
	bad.CoverageThreshold = 2
	if err := manager.SaveProfile("bad", bad); !errors.Is(err, service.ErrInvalidProfile) {
		t.Errorf("Expected ErrInvalidProfile, got %v", err)
	}
	if err := manager.SaveProfile("a/b", createValidProfile("x")); !errors.Is(err, service.ErrInvalidProfile) {
		t.Errorf("Expected ErrInvalidProfile for bad name, got %v", err)
	}
}

func TestManager_ReloadProfile(t *testing.T) {
	dir := t.TempDir()
	opts := createValidProfile("Changeable")
	writeProfileFile(t, dir, "changeable", opts)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	loaded, _ := manager.LoadProfile("changeable")
	if loaded.Attempts != 100 {
		t.Errorf("Expected initial attempts 100, got %d", loaded.Attempts)
	}

	opts.Attempts = 200
	writeProfileFile(t, dir, "changeable", opts)

	if err := manager.ReloadProfile("changeable"); err != nil {
		t.Fatalf("Failed to reload profile: %v", err)
	}
	reloaded, _ := manager.LoadProfile("changeable")
	if reloaded.Attempts != 200 {
		t.Errorf("Expected reloaded attempts 200, got %d", reloaded.Attempts)
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	dir := t.TempDir()
	names := []string{"p1", "p2", "p3", "p4", "p5"}
	for _, name := range names {
		writeProfileFile(t, dir, name, createValidProfile(name))
	}

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 50)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if _, err := manager.LoadProfile(names[id%len(names)]); err != nil {
				errs <- err
			}
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Concurrent load error: %v", err)
	}
}
