// Package config is the daemon-wide configuration layer
// (SPEC_FULL.md §1's ambient stack): settings that sit outside the
// .km language itself — default devices file, uinput device identity,
// scheduler fuel budget, log level, window-observer poll interval.
// Parsed with github.com/BurntSushi/toml the same way riffkey parses
// its own ~/.config/riffkey.toml: decode into a plain struct/map and
// let missing sections/fields fall back to defaults, rather than
// failing on a partial file.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds every setting not expressible in a .km script.
type Config struct {
	DevicesFile    string        `toml:"devices_file"`
	UinputName     string        `toml:"uinput_name"`
	UinputVendor   uint16        `toml:"uinput_vendor"`
	UinputProduct  uint16        `toml:"uinput_product"`
	// SchedulerFuel is decoded but not read by the engine: the
	// interpreter's yield interval is the fixed constant of 1000
	// statements in internal/interp.
	SchedulerFuel  int           `toml:"scheduler_fuel"`
	LogLevel       string        `toml:"log_level"`
	WindowPollMS   int           `toml:"window_poll_ms"`
}

// Default returns the built-in settings used when no config file is
// present and no flag overrides a field.
func Default() Config {
	return Config{
		UinputName:    "key-mods virtual device",
		UinputVendor:  0x1209, // pid.codes shared vendor ID, the convention uinput samples use
		UinputProduct: 0x0001,
		SchedulerFuel: 1000,
		LogLevel:      "info",
		WindowPollMS:  200,
	}
}

// WindowPollInterval converts WindowPollMS to a time.Duration, falling
// back to the built-in default if the configured value is non-positive.
func (c Config) WindowPollInterval() time.Duration {
	if c.WindowPollMS <= 0 {
		return 200 * time.Millisecond
	}
	return time.Duration(c.WindowPollMS) * time.Millisecond
}

// DefaultPath returns ~/.config/key-mods/config.toml, respecting
// XDG_CONFIG_HOME if set (the same lookup riffkey's ConfigPath does).
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "key-mods", "config.toml")
}

// Load reads and decodes the TOML file at path over Default()'s
// values. A missing file is not an error — it just means "use
// defaults" (mirrors riffkey's LoadBindingsFrom: "Missing config is
// fine").
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
