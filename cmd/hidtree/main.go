package main

import (
	"os"
	"strings"

	"github.com/Alia5/hidtree/internal/configpaths"
	"github.com/Alia5/hidtree/internal/hidlog"

	"github.com/alecthomas/kong"
	kongtoml "github.com/alecthomas/kong-toml"
	kongyaml "github.com/alecthomas/kong-yaml"
)

// CLI is the top-level command tree for hidtree, with config files
// resolved in JSON, then YAML, then TOML priority order.
type CLI struct {
	Log struct {
		Level   string `help:"Log level (trace|debug|info|warn|error)." enum:"trace,debug,info,warn,error" default:"info"`
		File    string `help:"Log file path; stdout/stderr when empty."`
		RawFile string `help:"Report hex-trace file path."`
	} `embed:"" prefix:"log."`

	Config string `help:"Config file path (json/yaml/toml)." kong:"-"`

	Inspect InspectCmd    `cmd:"" help:"Load a descriptor and print every element's property dictionary."`
	Decode  DecodeCmd     `cmd:"" help:"Decode a raw report against a descriptor."`
	Encode  EncodeCmd     `cmd:"" help:"Assemble a raw report from element values."`
	Config_ ConfigCommand `cmd:"" name:"config" help:"Generate a configuration template."`
}

func main() {
	userCfg := findUserConfig(os.Args[1:])
	jsonPaths, yamlPaths, tomlPaths := configpaths.ConfigCandidatePaths(userCfg)

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("hidtree"),
		kong.Description("HID element tree and report codec inspector"),
		kong.UsageOnError(),
		kong.Configuration(kong.JSON, jsonPaths...),
		kong.Configuration(kongyaml.Loader, yamlPaths...),
		kong.Configuration(kongtoml.Loader, tomlPaths...),
	)

	logger, closeFiles, err := hidlog.Setup(cli.Log.Level, cli.Log.File)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to setup logger: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer func() {
		for _, c := range closeFiles {
			_ = c.Close()
		}
	}()

	var tracer hidlog.ReportTracer
	if cli.Log.RawFile != "" {
		f, err := os.OpenFile(cli.Log.RawFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			logger.Error("failed to open raw trace file", "file", cli.Log.RawFile, "error", err)
			tracer = hidlog.NewReportTracer(nil)
		} else {
			tracer = hidlog.NewReportTracer(f)
			closeFiles = append(closeFiles, f)
		}
	} else if cli.Log.Level == "trace" {
		tracer = hidlog.NewReportTracer(os.Stdout)
	} else {
		tracer = hidlog.NewReportTracer(nil)
	}

	ctx.Bind(logger)
	ctx.BindTo(tracer, (*hidlog.ReportTracer)(nil))

	err = ctx.Run()
	ctx.FatalIfErrorf(err)
}

func findUserConfig(args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if strings.HasPrefix(a, "--config=") {
			return a[len("--config="):]
		}
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	if v := os.Getenv("HIDTREE_CONFIG"); v != "" {
		return v
	}
	return ""
}
