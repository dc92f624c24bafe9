package main

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/Alia5/hidtree/element"
	"github.com/Alia5/hidtree/internal/hidlog"
)

// DecodeCmd decodes a raw report against a descriptor and prints every
// non-collection element on that report ID with its value afterwards,
// whether or not the report changed it.
type DecodeCmd struct {
	Descriptor string `arg:"" help:"Descriptor file path (json/yaml/toml)."`
	ReportID   uint8  `help:"Report ID the bytes belong to." required:""`
	Hex        string `help:"Report payload as hex, e.g. 0001ff." required:""`
}

func (c *DecodeCmd) Run(logger *slog.Logger, tracer hidlog.ReportTracer) error {
	bundle, err := loadDescriptor(c.Descriptor)
	if err != nil {
		return err
	}
	tree, err := element.BuildTree(bundle)
	if err != nil {
		return fmt.Errorf("build tree: %w", err)
	}

	data, err := hex.DecodeString(c.Hex)
	if err != nil {
		return fmt.Errorf("decode hex payload: %w", err)
	}

	tracer.Trace(true, c.ReportID, data)
	timestamp := uint64(time.Now().UnixNano())
	if err := element.ProcessReport(tree, c.ReportID, data, timestamp, element.OptionNone); err != nil {
		return fmt.Errorf("process report: %w", err)
	}

	for _, e := range tree.ByCookie {
		if e == nil || e.ReportID != c.ReportID || e.Kind == element.KindCollection {
			continue
		}
		fmt.Printf("%s value=%d\n", e.DebugString(), e.GetValue())
	}
	return nil
}
