// Package hiddesc defines the descriptor-input records consumed by the
// element tree builder: the typed output of a HID report-descriptor parser.
// This package does not parse raw descriptor bytes — that parser is an
// external collaborator; hiddesc only carries the records it would hand us.
package hiddesc

// DataFlags mirrors the raw HID main-item data bits carried on every
// button/value field.
type DataFlags uint32

const (
	FlagConstant    DataFlags = 1 << 0
	FlagVariable    DataFlags = 1 << 1
	FlagRelative    DataFlags = 1 << 2
	FlagWrap        DataFlags = 1 << 3
	FlagNonLinear   DataFlags = 1 << 4
	FlagNoPreferred DataFlags = 1 << 5
	FlagNullState   DataFlags = 1 << 6
	FlagArray       DataFlags = 1 << 7
)

// IsArray reports whether the FlagArray bit is set on these flags — HID
// convention encodes "array" as the absence of the Variable bit, but the
// parser that hands us capability records always sets FlagArray explicitly
// when it means array-of-selectors, so we trust the bit rather than
// re-deriving it from Variable.
func (f DataFlags) IsArray() bool { return f&FlagArray != 0 }

// CollectionType enumerates the kinds of collection a CollectionNode can be.
type CollectionType uint8

const (
	CollectionPhysical CollectionType = iota
	CollectionApplication
	CollectionLogical
	CollectionReport
	CollectionNamedArray
	CollectionUsageSwitch
	CollectionUsageModifier
)

// ButtonCap is the parsed descriptor record for a one-bit-per-usage (or,
// when ARRAY, selector-array) field.
type ButtonCap struct {
	BitField  DataFlags `json:"bitField" yaml:"bitField" toml:"bitField"`
	StartBit  uint32    `json:"startBit" yaml:"startBit" toml:"startBit"`
	ReportID  uint8     `json:"reportID" yaml:"reportID" toml:"reportID"`
	UsagePage uint32    `json:"usagePage" yaml:"usagePage" toml:"usagePage"`

	IsRange  bool   `json:"isRange" yaml:"isRange" toml:"isRange"`
	UsageMin uint32 `json:"usageMin" yaml:"usageMin" toml:"usageMin"`
	UsageMax uint32 `json:"usageMax" yaml:"usageMax" toml:"usageMax"`

	// LogicalMin, LogicalMax and ReportBits are only read when
	// BitField.IsArray(). ReportCount is also read for non-array buttons: a
	// count above the usage count makes a duplicate group.
	LogicalMin  int32  `json:"logicalMin,omitempty" yaml:"logicalMin,omitempty" toml:"logicalMin,omitempty"`
	LogicalMax  int32  `json:"logicalMax,omitempty" yaml:"logicalMax,omitempty" toml:"logicalMax,omitempty"`
	ReportBits  uint32 `json:"reportBits,omitempty" yaml:"reportBits,omitempty" toml:"reportBits,omitempty"`
	ReportCount uint32 `json:"reportCount,omitempty" yaml:"reportCount,omitempty" toml:"reportCount,omitempty"`
}

// ValueCap is the parsed descriptor record for a multi-bit scalar field.
type ValueCap struct {
	BitField    DataFlags `json:"bitField" yaml:"bitField" toml:"bitField"`
	BitSize     uint32    `json:"bitSize" yaml:"bitSize" toml:"bitSize"`
	ReportCount uint32    `json:"reportCount" yaml:"reportCount" toml:"reportCount"`
	StartBit    uint32    `json:"startBit" yaml:"startBit" toml:"startBit"`
	ReportID    uint8     `json:"reportID" yaml:"reportID" toml:"reportID"`
	UsagePage   uint32    `json:"usagePage" yaml:"usagePage" toml:"usagePage"`

	LogicalMin  int32 `json:"logicalMin" yaml:"logicalMin" toml:"logicalMin"`
	LogicalMax  int32 `json:"logicalMax" yaml:"logicalMax" toml:"logicalMax"`
	PhysicalMin int32 `json:"physicalMin" yaml:"physicalMin" toml:"physicalMin"`
	PhysicalMax int32 `json:"physicalMax" yaml:"physicalMax" toml:"physicalMax"`

	Units        uint32 `json:"units" yaml:"units" toml:"units"`
	UnitExponent uint32 `json:"unitExponent" yaml:"unitExponent" toml:"unitExponent"`

	IsRange  bool   `json:"isRange" yaml:"isRange" toml:"isRange"`
	UsageMin uint32 `json:"usageMin" yaml:"usageMin" toml:"usageMin"`
	UsageMax uint32 `json:"usageMax" yaml:"usageMax" toml:"usageMax"`
}

// CollectionNode is the parsed descriptor record for a collection item.
// Parent linkage is implied by nesting order: a Collection
// record is followed, in descriptor order, by the records of its children
// until a matching EndCollection (not modeled here — the Node tree in
// bundle.go carries that structure explicitly through each Node's
// Children).
type CollectionNode struct {
	UsagePage      uint32         `json:"usagePage" yaml:"usagePage" toml:"usagePage"`
	Usage          uint32         `json:"usage" yaml:"usage" toml:"usage"`
	CollectionType CollectionType `json:"collectionType" yaml:"collectionType" toml:"collectionType"`
}
