package element

import "github.com/Alia5/hidtree/hiddesc"

// Element is the polymorphic tree node, whose Kind selects which fields
// are meaningful and which branch of
// report.go's ProcessReport/CreateReport dispatch applies. Most fields are
// shared across kinds, so a single struct plus a Kind discriminant fits
// better than a type hierarchy — the behavioral differences are confined
// to a small switch, not spread across virtual methods.
//
// Every non-weak pointer below is tree-owned (freed when the tree is);
// every field marked "weak" is a plain back/cross-reference that never
// implies ownership. Go's GC tolerates the resulting cycles (parent <->
// child, array item <-> array handler) without any special handling, so
// these are ordinary pointers rather than indices into a side table.
type Element struct {
	Cookie         Cookie
	Kind           Kind
	Type           ReportType
	CollectionType hiddesc.CollectionType

	UsagePage          uint32
	UsageMin, UsageMax uint32
	RangeIndex         uint32

	ReportID              uint8
	ReportStartBit        uint32
	ReportBits            uint32
	ReportCount           uint32
	RawReportCount        uint32
	CurrentReportSizeBits uint32
	// ReportSizeBits is the *whole report's* bit length, only set on the
	// element that stands in for an entire report (an interrupt handler);
	// CreateReport uses it to size and zero the outbound buffer.
	ReportSizeBits uint32

	Flags                    hiddesc.DataFlags
	VariableSize             bool
	IsInterruptReportHandler bool

	LogicalMin, LogicalMax   int32
	PhysicalMin, PhysicalMax int32
	Units, UnitExponent      uint32
	Calibration              Calibration

	Parent                 *Element   // weak
	Children               []*Element // owning (collections only)
	NextReportHandler      *Element   // weak, linked list keyed by ReportID
	ArrayReportHandler     *Element   // weak; == self when this element is the handler
	DuplicateReportHandler *Element   // weak; == self when this element is the handler
	ArrayItems             []*Element // owning (array handler only)
	DuplicateElements      []*Element // owning (duplicate handler only)
	RollOverElementPtr     *Element   // weak

	Value             *ElementValue
	PreviousValue     uint32
	TransactionState  TransactionState
	Queues            []Queue
	OldArraySelectors []uint32 // owning scratch (array handler only)
}

// IsArray reports whether the ARRAY bit is set on this element.
func (e *Element) IsArray() bool { return e.Flags.IsArray() }

// IsArrayHandler reports whether this element is the report-bearing
// handler for its own array group.
func (e *Element) IsArrayHandler() bool { return e.ArrayReportHandler == e }

// IsDuplicateElement reports whether this element is part of a duplicate
// group.
func (e *Element) IsDuplicateElement() bool { return e.DuplicateReportHandler != nil }

// IsDuplicateReportHandler reports whether this element is the handler of
// its own duplicate group.
func (e *Element) IsDuplicateReportHandler() bool { return e.DuplicateReportHandler == e }

// IsButton reports whether this element is a single-bit field.
func (e *Element) IsButton() bool { return e.ReportBits == 1 }

// Usage computes the derived usage:
// usage = (usageMax == usageMin) ? usageMin : usageMin + rangeIndex.
func (e *Element) Usage() uint32 {
	if e.UsageMax == e.UsageMin {
		return e.UsageMin
	}
	return e.UsageMin + e.RangeIndex
}

// IsRange reports whether this element spans a usage range rather than a
// single usage.
func (e *Element) IsRange() bool { return e.UsageMin != e.UsageMax }

// RangeCount computes:
// rangeCount = (reportCount > 1) ? reportCount : (usageMax - usageMin + 1).
func (e *Element) RangeCount() uint32 {
	if e.ReportCount > 1 {
		return e.ReportCount
	}
	return e.UsageMax - e.UsageMin + 1
}

// DuplicateIndex returns the duplicate-group index for a non-handler
// duplicate element, used by the property dictionary's DuplicateIndex key.
func (e *Element) DuplicateIndex() uint32 { return e.RangeIndex }

// GetValue reads the element's scalar value using the generation protocol:
// snapshot, copy, re-read, retry on mismatch.
func (e *Element) GetValue() uint32 {
	if e.Value == nil || len(e.Value.Value) == 0 {
		return 0
	}
	v, _ := e.Value.snapshot()
	return v[0]
}

// GetTimestamp returns the last-modified timestamp recorded for this
// element's value.
func (e *Element) GetTimestamp() uint64 {
	if e.Value == nil {
		return 0
	}
	_, ts := e.Value.snapshot()
	return ts
}

// GetDataValue reads the element's full (possibly >32-bit) value as raw
// little-endian bytes — the multi-word counterpart to GetValue.
func (e *Element) GetDataValue() []byte {
	if e.Value == nil {
		return nil
	}
	words, _ := e.Value.snapshot()
	n := (e.ReportBits*e.ReportCount + 7) / 8
	out := make([]byte, n)
	for i := uint32(0); i < n; i++ {
		out[i] = byte(words[i/4] >> (8 * (i % 4)))
	}
	return out
}

// setValueLocked writes a new scalar value through the generation
// protocol, recording PreviousValue and marking the element Pending so a
// subsequent CreateReport will pack it.
func (e *Element) setValueLocked(v uint32, ts uint64) {
	e.Value.beginMutation()
	e.PreviousValue = e.Value.Value[0]
	e.Value.Value[0] = v
	e.Value.Timestamp = ts
	e.Value.endMutation()
	e.TransactionState = TransactionPending
}

// setDataValueLocked writes a multi-word value through the generation
// protocol.
func (e *Element) setDataValueLocked(data []byte, ts uint64) {
	e.Value.beginMutation()
	if len(e.Value.Value) > 0 {
		e.PreviousValue = e.Value.Value[0]
	}
	for i := range e.Value.Value {
		e.Value.Value[i] = 0
	}
	for i, b := range data {
		wi := i / 4
		if wi >= len(e.Value.Value) {
			break
		}
		shift := uint32(8 * (i % 4))
		e.Value.Value[wi] |= uint32(b) << shift
	}
	e.Value.Timestamp = ts
	e.Value.endMutation()
	e.TransactionState = TransactionPending
}
