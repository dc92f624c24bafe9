package main

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Alia5/hidtree/element"
	"github.com/Alia5/hidtree/internal/hidlog"
)

// EncodeCmd sets element values by cookie and assembles the resulting
// outbound report.
type EncodeCmd struct {
	Descriptor string `arg:"" help:"Descriptor file path (json/yaml/toml)."`
	ReportID   uint8  `help:"Report ID to assemble." required:""`
	Set        string `help:"Comma-separated cookie=value pairs, e.g. 3=500,4=1." required:""`
}

func (c *EncodeCmd) Run(logger *slog.Logger, tracer hidlog.ReportTracer) error {
	bundle, err := loadDescriptor(c.Descriptor)
	if err != nil {
		return err
	}
	tree, err := element.BuildTree(bundle)
	if err != nil {
		return fmt.Errorf("build tree: %w", err)
	}

	timestamp := uint64(time.Now().UnixNano())
	for _, pair := range strings.Split(c.Set, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return fmt.Errorf("invalid set clause %q: want cookie=value", pair)
		}
		cookie, err := strconv.ParseUint(kv[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid cookie %q: %w", kv[0], err)
		}
		value, err := strconv.ParseUint(kv[1], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", kv[1], err)
		}
		e := tree.ElementByCookie(element.Cookie(cookie))
		if e == nil {
			return fmt.Errorf("no element with cookie %d", cookie)
		}
		e.SetValue(uint32(value), timestamp)
	}

	buf, err := element.CreateReport(tree, c.ReportID)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	tracer.Trace(false, c.ReportID, buf)

	logger.Debug("assembled report", "reportID", c.ReportID, "bytes", len(buf))
	fmt.Println(hex.EncodeToString(buf))
	return nil
}
