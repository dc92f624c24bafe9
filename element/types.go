// Package element implements the HID element tree and report codec: it
// turns a parsed HID report descriptor (see package hiddesc) into a live
// tree of typed elements, projects inbound binary reports onto the right
// bit ranges of that tree, fans out change notifications to attached
// queues, and serializes outbound feature/output reports.
package element

import "fmt"

// Cookie is a stable, opaque identifier for one element within a device.
// Cookie 0 is reserved for the root collection.
type Cookie uint32

// Kind discriminates the element "shapes" a tree node can take. A tagged
// discriminant fits better here than a type hierarchy: behavior differences
// are confined to a handful of switches in report.go and tree.go, not
// spread across virtual methods.
type Kind uint8

const (
	KindCollection Kind = iota
	KindValue
	KindButton
	KindArrayHandler
	KindDuplicateHandler
	KindInterrupt
	KindNull
)

func (k Kind) String() string {
	switch k {
	case KindCollection:
		return "Collection"
	case KindValue:
		return "Value"
	case KindButton:
		return "Button"
	case KindArrayHandler:
		return "ArrayHandler"
	case KindDuplicateHandler:
		return "DuplicateHandler"
	case KindInterrupt:
		return "Interrupt"
	case KindNull:
		return "Null"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ReportType is the externally-visible type of an element, carried in its
// property dictionary (Type key: Input=1, Output=2, Feature=3,
// Collection=513, Input_NULL=4).
type ReportType uint32

const (
	ReportTypeInput      ReportType = 1
	ReportTypeOutput     ReportType = 2
	ReportTypeFeature    ReportType = 3
	ReportTypeCollection ReportType = 513
	ReportTypeInputNull  ReportType = 4
)

// TransactionState is the per-element "a host write is pending outbound
// packing" flag.
type TransactionState uint8

const (
	TransactionIdle TransactionState = iota
	TransactionPending
)

// Calibration holds the scaling bounds for GetScaledValue(Calibrated).
type Calibration struct {
	Min, Max       int32
	SatMin, SatMax int32
	DzMin, DzMax   int32
	Granularity    int32 // IOFixed-style 16.16 fixed point
}

// ScaleType selects which mapping GetScaledValue/GetScaledFixedValue apply.
type ScaleType uint8

const (
	ScalePhysical ScaleType = iota
	ScaleCalibrated
	ScaleExponent
)

// ReportOptions are the caller-supplied bits to ProcessReport.
type ReportOptions uint32

const (
	OptionNone ReportOptions = 0
	// NotInterrupt asks ProcessReport to skip interrupt report handlers —
	// the caller is re-dispatching a report whose fields are already known.
	OptionNotInterrupt ReportOptions = 1 << 0
	// UpdateElementValues is defined for callers, but nothing in this
	// package reads it: GetValue, GetScaledValue and GetScaledFixedValue
	// take no options and return the stored value. hidtree never talks to
	// hardware; a caller refreshes values by re-running ProcessReport.
	OptionUpdateElementValues ReportOptions = 1 << 1
)

const (
	// UsagePageKeyboard is the HID usage page for keyboard/keypad usages —
	// needed for the roll-over suppression and array-diff special cases.
	UsagePageKeyboard uint32 = 0x07

	UsageKeyboardLeftControl   uint32 = 0xE0
	UsageKeyboardRightGUI      uint32 = 0xE7
	UsageKeyboardErrorRollOver uint32 = 0x01
)

// BuildError is returned by BuildTree when a descriptor record cannot be
// turned into an element. It is fatal to construction: the caller
// discards the partially built tree.
type BuildError struct {
	Index int
	Kind  string
	Err   error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build element %d (%s): %v", e.Index, e.Kind, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }
