package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Default()
	if cfg != want {
		t.Fatalf("got %+v, want defaults %+v", cfg, want)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := "devices_file = \"/etc/key-mods/devices\"\nlog_level = \"debug\"\nscheduler_fuel = 500\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DevicesFile != "/etc/key-mods/devices" {
		t.Errorf("DevicesFile = %q", cfg.DevicesFile)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.SchedulerFuel != 500 {
		t.Errorf("SchedulerFuel = %d", cfg.SchedulerFuel)
	}
	// Untouched fields keep their defaults.
	if cfg.UinputName != Default().UinputName {
		t.Errorf("UinputName = %q, want default", cfg.UinputName)
	}
}

func TestWindowPollInterval(t *testing.T) {
	c := Config{WindowPollMS: 0}
	if got := c.WindowPollInterval(); got.Milliseconds() != 200 {
		t.Errorf("zero WindowPollMS -> %v, want 200ms default", got)
	}
	c.WindowPollMS = 50
	if got := c.WindowPollInterval(); got.Milliseconds() != 50 {
		t.Errorf("WindowPollMS=50 -> %v", got)
	}
}
