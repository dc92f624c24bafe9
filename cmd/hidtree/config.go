package main

import (
	"fmt"
	"log/slog"
	"os"
	"reflect"

	"github.com/Alia5/hidtree/internal/cliconfig"
	"github.com/Alia5/hidtree/internal/configpaths"
)

// ConfigCommand groups configuration-template subcommands.
type ConfigCommand struct {
	Init ConfigInit `cmd:"" help:"Write a configuration template."`
}

// ConfigInit scaffolds a config file matching the CLI's flag struct.
type ConfigInit struct {
	Target string `help:"Which flag struct to scaffold." enum:"cli" default:"cli"`
	Format string `help:"Output format." enum:"json,yaml,toml" default:"json"`
	Output string `help:"Output file path; default location for the format when empty."`
	Force  bool   `help:"Overwrite an existing file."`
}

func (c *ConfigInit) Run(logger *slog.Logger) error {
	format := cliconfig.NormalizeFormat(c.Format)
	if format == "" {
		return fmt.Errorf("unsupported format %q", c.Format)
	}

	out := c.Output
	if out == "" {
		path, err := configpaths.DefaultConfigPath(format)
		if err != nil {
			return fmt.Errorf("resolve default config path: %w", err)
		}
		out = path
	}

	if !c.Force {
		if _, err := os.Stat(out); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", out)
		}
	}

	// hidtree has no server/daemon component, so "cli" is the only
	// scaffold target; Target is still a flag to leave room for one later.
	data, err := cliconfig.Marshal(reflect.TypeOf(CLI{}), format)
	if err != nil {
		return fmt.Errorf("render config template: %w", err)
	}

	if err := configpaths.EnsureDir(out); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write config template: %w", err)
	}

	logger.Info("wrote config template", "path", out, "format", format)
	return nil
}
