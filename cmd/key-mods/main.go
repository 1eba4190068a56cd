// Command key-mods is the CLI entry point of spec §6: key-mods [-d
// <devices-file>] [-config <path>] <script.km>. A thin flag.Parse
// wiring layer over internal/engine, per spec.md's explicit exclusion
// of "CLI argument parsing" from the hard engineering.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kmods/keymods/internal/config"
	"github.com/kmods/keymods/internal/device"
	"github.com/kmods/keymods/internal/diag"
	"github.com/kmods/keymods/internal/engine"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("key-mods", flag.ContinueOnError)
	devicesFile := fs.String("d", "", "path to a devices file (spec §6)")
	configPath := fs.String("config", config.DefaultPath(), "path to a TOML config file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: key-mods [-d <devices-file>] [-config <path>] <script.km>")
		return 2
	}
	scriptPath := fs.Arg(0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "key-mods: config: %v\n", err)
		return 2
	}
	if *devicesFile != "" {
		cfg.DevicesFile = *devicesFile
	}

	log := diag.New(os.Stdout, os.Stderr, diag.ParseLevel(cfg.LogLevel))

	scriptBytes, err := os.ReadFile(scriptPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "key-mods: %v\n", err)
		return 2
	}

	var deviceLines []string
	if cfg.DevicesFile != "" {
		f, err := os.Open(cfg.DevicesFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "key-mods: devices file: %v\n", err)
			return 2
		}
		deviceLines, err = device.ParseDevicesFile(f)
		f.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "key-mods: devices file: %v\n", err)
			return 2
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	e := engine.New(engine.Options{
		Script:      string(scriptBytes),
		DeviceLines: deviceLines,
		Config:      cfg,
		Stdout:      os.Stdout,
	}, log)

	code, err := e.Run(ctx)
	if err != nil {
		log.Error("%v", err)
	}
	return code
}
