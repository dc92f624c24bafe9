package element

import (
	"fmt"

	"github.com/Alia5/hidtree/hiddesc"
)

// diagnosticChildLimit is the child count above which DebugString marks a
// collection's line as elided and shows only the count.
const diagnosticChildLimit = 32

// Properties is the externally visible property dictionary, describing
// one element without exposing the tree's internal pointers.
type Properties struct {
	Cookie         Cookie
	Type           ReportType
	CollectionType hiddesc.CollectionType
	UsagePage      uint32
	Usage          uint32
	ReportID       uint8
	ReportSize     uint32
	ReportCount    uint32
	Min, Max       int32
	ScaledMin      int32
	ScaledMax      int32
	Unit           uint32
	UnitExponent   uint32

	IsArray           bool
	IsRelative        bool
	IsWrapping        bool
	IsNonLinear       bool
	HasPreferredState bool
	HasNullState      bool
	IsVariable        bool

	IsDuplicate    bool
	DuplicateIndex uint32

	ParentCookie Cookie
}

// Properties builds e's property dictionary.
func (e *Element) Properties() Properties {
	p := Properties{
		Cookie:         e.Cookie,
		Type:           e.Type,
		CollectionType: e.CollectionType,
		UsagePage:      e.UsagePage,
		Usage:          e.Usage(),
		ReportID:       e.ReportID,
		ReportSize:     e.ReportBits,
		ReportCount:    e.ReportCount,
		Min:            e.LogicalMin,
		Max:            e.LogicalMax,
		ScaledMin:      e.PhysicalMin,
		ScaledMax:      e.PhysicalMax,
		Unit:           e.Units,
		UnitExponent:   e.UnitExponent,

		IsArray:           e.IsArray(),
		IsRelative:        e.Flags&hiddesc.FlagRelative != 0,
		IsWrapping:        e.Flags&hiddesc.FlagWrap != 0,
		IsNonLinear:       e.Flags&hiddesc.FlagNonLinear != 0,
		HasPreferredState: e.Flags&hiddesc.FlagNoPreferred == 0,
		HasNullState:      e.Flags&hiddesc.FlagNullState != 0,
		IsVariable:        e.Flags&hiddesc.FlagVariable != 0,

		IsDuplicate: e.IsDuplicateElement(),
	}
	if p.IsDuplicate {
		p.DuplicateIndex = e.DuplicateIndex()
	}
	if e.Parent != nil {
		p.ParentCookie = e.Parent.Cookie
	}
	return p
}

// MatchCriteria is an optional-field filter for MatchProperties; a nil
// field matches anything.
type MatchCriteria struct {
	UsagePage *uint32
	Usage     *uint32
	Type      *ReportType
	Cookie    *Cookie
	ReportID  *uint8
}

// MatchProperties reports whether e satisfies every non-nil field of c.
func (e *Element) MatchProperties(c MatchCriteria) bool {
	if c.UsagePage != nil && e.UsagePage != *c.UsagePage {
		return false
	}
	if c.Usage != nil && e.Usage() != *c.Usage {
		return false
	}
	if c.Type != nil && e.Type != *c.Type {
		return false
	}
	if c.Cookie != nil && e.Cookie != *c.Cookie {
		return false
	}
	if c.ReportID != nil && e.ReportID != *c.ReportID {
		return false
	}
	return true
}

// FindElements returns every element under (and including) root that
// satisfies c.
func FindElements(root *Element, c MatchCriteria) []*Element {
	var out []*Element
	var walk func(*Element)
	walk = func(e *Element) {
		if e.MatchProperties(c) {
			out = append(out, e)
		}
		// Array items and duplicate-group members are already present in
		// their parent collection's Children (buildButton/buildValue
		// attach every element a descriptor record expands to), so a
		// single Children walk reaches them without double-counting.
		for _, child := range e.Children {
			walk(child)
		}
	}
	walk(root)
	return out
}

// SetValue writes e's scalar value through the generation protocol.
func (e *Element) SetValue(v uint32, timestamp uint64) { e.setValueLocked(v, timestamp) }

// SetDataValue writes e's full raw value through the generation protocol.
func (e *Element) SetDataValue(data []byte, timestamp uint64) { e.setDataValueLocked(data, timestamp) }

// DebugString renders a one-line diagnostic description of e. It never
// lists children; a collection with more than diagnosticChildLimit
// children is rendered with its child count and an "[elided]" marker.
func (e *Element) DebugString() string {
	if e.Kind == KindCollection && len(e.Children) > diagnosticChildLimit {
		return fmt.Sprintf("Collection(cookie=%d usagePage=%#x usage=%#x children=%d [elided])",
			e.Cookie, e.UsagePage, e.UsageMin, len(e.Children))
	}
	return fmt.Sprintf("%s(cookie=%d usagePage=%#x usage=%#x reportID=%d bits=%d)",
		e.Kind, e.Cookie, e.UsagePage, e.Usage(), e.ReportID, e.ReportBits)
}
