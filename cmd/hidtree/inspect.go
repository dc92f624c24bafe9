package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Alia5/hidtree/element"
	"github.com/Alia5/hidtree/hiddesc"
)

// InspectCmd loads a descriptor and prints every element's property
// dictionary as indented JSON, optionally filtered by usage page/usage.
type InspectCmd struct {
	Descriptor string `arg:"" help:"Descriptor file path (json/yaml/toml)."`
	Match      string `help:"Filter as usagePage:usage, e.g. 1:6." optional:""`
}

func (c *InspectCmd) Run(logger *slog.Logger) error {
	bundle, err := loadDescriptor(c.Descriptor)
	if err != nil {
		return err
	}

	tree, err := element.BuildTree(bundle)
	if err != nil {
		return fmt.Errorf("build tree: %w", err)
	}
	logger.Debug("built tree", "elements", len(tree.ByCookie))

	var criteria element.MatchCriteria
	if c.Match != "" {
		page, usage, err := parseUsagePair(c.Match)
		if err != nil {
			return err
		}
		criteria = element.MatchCriteria{UsagePage: &page, Usage: &usage}
	}

	matches := element.FindElements(tree.Root, criteria)
	props := make([]element.Properties, 0, len(matches))
	for _, e := range matches {
		props = append(props, e.Properties())
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(props)
}

func parseUsagePair(s string) (page, usage uint32, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid match %q: want usagePage:usage", s)
	}
	p, err := strconv.ParseUint(parts[0], 0, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid usage page %q: %w", parts[0], err)
	}
	u, err := strconv.ParseUint(parts[1], 0, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid usage %q: %w", parts[1], err)
	}
	return uint32(p), uint32(u), nil
}

func loadDescriptor(path string) (hiddesc.Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return hiddesc.Bundle{}, fmt.Errorf("open descriptor: %w", err)
	}
	defer f.Close()

	format := hiddesc.FormatFromExt(filepath.Ext(path))
	bundle, err := hiddesc.LoadBundle(f, format)
	if err != nil {
		return hiddesc.Bundle{}, err
	}
	return bundle, nil
}
