package element

import (
	"fmt"

	"github.com/Alia5/hidtree/hiddesc"
)

// maxChildrenPerCollection bounds how many direct children a single
// collection may own. A collection with more children fails the whole
// build with a BuildError (BuildTree returns no tree); the oversized
// collection is not kept.
const maxChildrenPerCollection = 0x1000

// Tree is the built element tree plus the indexes report.go needs to
// dispatch without re-walking it: a flat cookie table and, per report ID,
// the head of the singly linked NextReportHandler chain.
type Tree struct {
	Root           *Element
	ByCookie       []*Element // index == Cookie
	ReportHandlers map[uint8]*Element
}

// ElementByCookie looks up a built element, returning nil if cookie is out
// of range.
func (t *Tree) ElementByCookie(c Cookie) *Element {
	if int(c) < 0 || int(c) >= len(t.ByCookie) {
		return nil
	}
	return t.ByCookie[c]
}

type buildContext struct {
	nextCookie   Cookie
	byCookie     []*Element
	reportChains map[uint8][]*Element
}

func (c *buildContext) allocCookie() Cookie {
	cookie := c.nextCookie
	c.nextCookie++
	return cookie
}

func (c *buildContext) register(e *Element) {
	e.Cookie = c.allocCookie()
	for Cookie(len(c.byCookie)) <= e.Cookie {
		c.byCookie = append(c.byCookie, nil)
	}
	c.byCookie[e.Cookie] = e
}

// registerReportHandler records e as a dispatch target for its ReportID —
// the chain is linked once the whole tree has been walked.
func (c *buildContext) registerReportHandler(e *Element) {
	c.reportChains[e.ReportID] = append(c.reportChains[e.ReportID], e)
}

// BuildTree turns a parsed descriptor bundle into a live element tree.
// It is fatal on the first unbuildable record: callers must discard a
// non-nil error's partial tree.
func BuildTree(bundle hiddesc.Bundle) (*Tree, error) {
	ctx := &buildContext{reportChains: make(map[uint8][]*Element)}

	built, err := buildNode(bundle.Root, nil, ctx, 0)
	if err != nil {
		return nil, err
	}
	if len(built) != 1 {
		return nil, &BuildError{Index: 0, Kind: "root", Err: fmt.Errorf("root descriptor record must be a single collection")}
	}

	handlers := make(map[uint8]*Element, len(ctx.reportChains))
	for reportID, chain := range ctx.reportChains {
		for i := 0; i+1 < len(chain); i++ {
			chain[i].NextReportHandler = chain[i+1]
		}
		if len(chain) > 0 {
			handlers[reportID] = chain[0]
		}
	}
	linkKeyboardRollOver(ctx.reportChains)

	return &Tree{Root: built[0], ByCookie: ctx.byCookie, ReportHandlers: handlers}, nil
}

// linkKeyboardRollOver wires RollOverElementPtr on every keyboard modifier
// element (usage LeftControl..RightGUI) to the ErrorRollOver array item in
// the same report chain, if one exists. Processing a modifier consults this
// pointer to suppress phantom presses while the keyboard is reporting a
// roll-over condition instead of real key state.
func linkKeyboardRollOver(chains map[uint8][]*Element) {
	for _, chain := range chains {
		var rollOver *Element
		for _, h := range chain {
			if h.Kind != KindArrayHandler || h.UsagePage != UsagePageKeyboard {
				continue
			}
			for _, item := range h.ArrayItems {
				if item.Usage() == UsageKeyboardErrorRollOver {
					rollOver = item
					break
				}
			}
		}
		if rollOver == nil {
			continue
		}

		isModifier := func(e *Element) bool {
			return e.UsagePage == UsagePageKeyboard &&
				e.Usage() >= UsageKeyboardLeftControl && e.Usage() <= UsageKeyboardRightGUI
		}
		for _, h := range chain {
			if h == rollOver {
				continue
			}
			if isModifier(h) {
				h.RollOverElementPtr = rollOver
			}
			for _, dup := range h.DuplicateElements {
				if isModifier(dup) {
					dup.RollOverElementPtr = rollOver
				}
			}
		}
	}
}

// buildNode turns one descriptor record into the one or more Elements it
// expands to (a button/value range or duplicate group produces several
// siblings); every one of them is attached to the parent collection by the
// caller.
func buildNode(node hiddesc.Node, parent *Element, ctx *buildContext, index int) ([]*Element, error) {
	switch {
	case node.Collection != nil:
		e, err := buildCollection(node, parent, ctx, index)
		if err != nil {
			return nil, err
		}
		return []*Element{e}, nil
	case node.Button != nil:
		return buildButton(*node.Button, parent, ctx, index)
	case node.Value != nil:
		return buildValue(*node.Value, parent, ctx, index)
	case node.Null != nil:
		e, err := buildNull(*node.Null, parent, ctx, index)
		if err != nil {
			return nil, err
		}
		return []*Element{e}, nil
	case node.Interrupt != nil:
		e, err := buildInterrupt(*node.Interrupt, parent, ctx, index)
		if err != nil {
			return nil, err
		}
		return []*Element{e}, nil
	default:
		return nil, &BuildError{Index: index, Kind: "empty", Err: fmt.Errorf("node carries no record")}
	}
}

func buildCollection(node hiddesc.Node, parent *Element, ctx *buildContext, index int) (*Element, error) {
	c := node.Collection
	e := &Element{
		Kind:           KindCollection,
		Type:           ReportTypeCollection,
		CollectionType: c.CollectionType,
		UsagePage:      c.UsagePage,
		UsageMin:       c.Usage,
		UsageMax:       c.Usage,
		Parent:         parent,
	}
	ctx.register(e)

	if len(node.Children) > maxChildrenPerCollection {
		return nil, &BuildError{Index: index, Kind: "collection", Err: fmt.Errorf("%d children exceeds limit of %d", len(node.Children), maxChildrenPerCollection)}
	}

	e.Children = make([]*Element, 0, len(node.Children))
	for i, child := range node.Children {
		built, err := buildNode(child, e, ctx, i)
		if err != nil {
			return nil, err
		}
		e.Children = append(e.Children, built...)
	}
	return e, nil
}

// buildButton builds either a plain set of button elements, an array
// handler with its synthetic selector elements, or a duplicate-handler
// group, depending on the capability's flags.
func buildButton(cap hiddesc.ButtonCap, parent *Element, ctx *buildContext, index int) ([]*Element, error) {
	if cap.BitField.IsArray() {
		handler, err := buildArrayButton(cap, parent, ctx, index)
		if err != nil {
			return nil, err
		}
		return append([]*Element{handler}, handler.ArrayItems...), nil
	}

	count := cap.UsageMax - cap.UsageMin + 1
	if !cap.IsRange {
		count = 1
	}
	if cap.ReportCount > count {
		count = cap.ReportCount
	}
	if count == 0 {
		count = 1
	}

	if cap.IsRange && cap.UsageMax > cap.UsageMin {
		// Distinct usages across the range: independent button elements,
		// each its own field, no handler needed.
		return buildPlainButtons(cap, parent, ctx, count, false)
	}

	if count > 1 {
		// Same usage repeated `count` times: a duplicate group.
		return buildPlainButtons(cap, parent, ctx, count, true)
	}

	e := &Element{
		Kind:           KindButton,
		Type:           reportTypeFromFlags(cap.BitField),
		Flags:          cap.BitField,
		UsagePage:      cap.UsagePage,
		UsageMin:       cap.UsageMin,
		UsageMax:       cap.UsageMax,
		ReportID:       cap.ReportID,
		ReportStartBit: cap.StartBit,
		ReportBits:     1,
		ReportCount:    1,
		Parent:         parent,
	}
	ctx.register(e)
	e.Value = newElementValue(e.Cookie, 1)
	ctx.registerReportHandler(e)
	return []*Element{e}, nil
}

// buildPlainButtons builds `count` sibling one-bit button elements
// starting at cap.StartBit. When asDuplicates is true they are wired as a
// duplicate group sharing a DuplicateReportHandler; otherwise they are
// independent usage-range fields. All of them are returned so the caller
// can attach every one to the parent collection.
func buildPlainButtons(cap hiddesc.ButtonCap, parent *Element, ctx *buildContext, count uint32, asDuplicates bool) ([]*Element, error) {
	elems := make([]*Element, 0, count)
	for i := uint32(0); i < count; i++ {
		usage := cap.UsageMin
		if cap.IsRange {
			usage = cap.UsageMin + i
		}
		e := &Element{
			Kind:           KindButton,
			Type:           reportTypeFromFlags(cap.BitField),
			Flags:          cap.BitField,
			UsagePage:      cap.UsagePage,
			UsageMin:       usage,
			UsageMax:       usage,
			RangeIndex:     i,
			ReportID:       cap.ReportID,
			ReportStartBit: cap.StartBit + i,
			ReportBits:     1,
			ReportCount:    1,
			Parent:         parent,
		}
		ctx.register(e)
		e.Value = newElementValue(e.Cookie, 1)
		elems = append(elems, e)
	}

	if asDuplicates {
		handler := elems[0]
		handler.DuplicateReportHandler = handler
		handler.DuplicateElements = elems
		for _, e := range elems[1:] {
			e.DuplicateReportHandler = handler
		}
		ctx.registerReportHandler(handler)
		return elems, nil
	}

	for _, e := range elems {
		ctx.registerReportHandler(e)
	}
	return elems, nil
}

// buildArrayButton builds the array handler plus its synthetic per-usage
// button elements.
func buildArrayButton(cap hiddesc.ButtonCap, parent *Element, ctx *buildContext, index int) (*Element, error) {
	if MulOverflows(cap.ReportBits, cap.ReportCount) {
		return nil, &BuildError{Index: index, Kind: "array", Err: fmt.Errorf("reportBits*reportCount overflows")}
	}

	handler := &Element{
		Kind:           KindArrayHandler,
		Type:           reportTypeFromFlags(cap.BitField),
		Flags:          cap.BitField,
		UsagePage:      cap.UsagePage,
		UsageMin:       cap.UsageMin,
		UsageMax:       cap.UsageMax,
		ReportID:       cap.ReportID,
		ReportStartBit: cap.StartBit,
		ReportBits:     cap.ReportBits,
		ReportCount:    cap.ReportCount,
		LogicalMin:     cap.LogicalMin,
		LogicalMax:     cap.LogicalMax,
		Parent:         parent,
	}
	handler.ArrayReportHandler = handler
	ctx.register(handler)
	handler.Value = newElementValue(handler.Cookie, cap.ReportBits*cap.ReportCount)
	handler.OldArraySelectors = make([]uint32, cap.ReportCount)

	usageCount := cap.UsageMax - cap.UsageMin + 1
	if !cap.IsRange || usageCount == 0 {
		usageCount = 1
	}
	handler.ArrayItems = make([]*Element, 0, usageCount)
	for i := uint32(0); i < usageCount; i++ {
		usage := cap.UsageMin
		if cap.IsRange {
			usage = cap.UsageMin + i
		}
		item := &Element{
			Kind:               KindButton,
			Type:               handler.Type,
			Flags:              cap.BitField,
			UsagePage:          cap.UsagePage,
			UsageMin:           usage,
			UsageMax:           usage,
			RangeIndex:         i,
			ReportID:           cap.ReportID,
			ReportBits:         1,
			ReportCount:        1,
			ArrayReportHandler: handler,
			Parent:             parent,
		}
		ctx.register(item)
		item.Value = newElementValue(item.Cookie, 1)
		handler.ArrayItems = append(handler.ArrayItems, item)
	}

	ctx.registerReportHandler(handler)
	return handler, nil
}

func buildValue(cap hiddesc.ValueCap, parent *Element, ctx *buildContext, index int) ([]*Element, error) {
	if MulOverflows(cap.BitSize, cap.ReportCount) {
		return nil, &BuildError{Index: index, Kind: "value", Err: fmt.Errorf("reportBits*reportCount overflows")}
	}

	count := cap.ReportCount
	if count == 0 {
		count = 1
	}
	rangeSpan := uint32(1)
	if cap.IsRange && cap.UsageMax > cap.UsageMin {
		rangeSpan = cap.UsageMax - cap.UsageMin + 1
	}

	if cap.IsRange && rangeSpan > 1 {
		return buildValueRange(cap, parent, ctx, rangeSpan), nil
	}
	if count > 1 {
		return buildValueDuplicates(cap, parent, ctx, count), nil
	}

	e := newValueElement(cap, cap.UsageMin, 0, cap.StartBit, parent)
	ctx.register(e)
	e.Value = newElementValue(e.Cookie, cap.BitSize)
	ctx.registerReportHandler(e)
	return []*Element{e}, nil
}

func buildValueRange(cap hiddesc.ValueCap, parent *Element, ctx *buildContext, count uint32) []*Element {
	elems := make([]*Element, 0, count)
	for i := uint32(0); i < count; i++ {
		e := newValueElement(cap, cap.UsageMin+i, i, cap.StartBit+i*cap.BitSize, parent)
		ctx.register(e)
		e.Value = newElementValue(e.Cookie, cap.BitSize)
		ctx.registerReportHandler(e)
		elems = append(elems, e)
	}
	return elems
}

func buildValueDuplicates(cap hiddesc.ValueCap, parent *Element, ctx *buildContext, count uint32) []*Element {
	elems := make([]*Element, 0, count)
	for i := uint32(0); i < count; i++ {
		e := newValueElement(cap, cap.UsageMin, i, cap.StartBit+i*cap.BitSize, parent)
		ctx.register(e)
		e.Value = newElementValue(e.Cookie, cap.BitSize)
		elems = append(elems, e)
	}
	handler := elems[0]
	handler.DuplicateReportHandler = handler
	handler.DuplicateElements = elems
	for _, e := range elems[1:] {
		e.DuplicateReportHandler = handler
	}
	ctx.registerReportHandler(handler)
	return elems
}

func newValueElement(cap hiddesc.ValueCap, usage, rangeIndex, startBit uint32, parent *Element) *Element {
	return &Element{
		Kind:           KindValue,
		Type:           reportTypeFromFlags(cap.BitField),
		Flags:          cap.BitField,
		UsagePage:      cap.UsagePage,
		UsageMin:       usage,
		UsageMax:       usage,
		RangeIndex:     rangeIndex,
		ReportID:       cap.ReportID,
		ReportStartBit: startBit,
		ReportBits:     cap.BitSize,
		ReportCount:    1,
		LogicalMin:     cap.LogicalMin,
		LogicalMax:     cap.LogicalMax,
		PhysicalMin:    cap.PhysicalMin,
		PhysicalMax:    cap.PhysicalMax,
		Units:          cap.Units,
		UnitExponent:   cap.UnitExponent,
		Parent:         parent,
	}
}

func buildNull(cap hiddesc.NullCap, parent *Element, ctx *buildContext, index int) (*Element, error) {
	e := &Element{
		Kind:        KindNull,
		Type:        ReportTypeInputNull,
		ReportID:    cap.ReportID,
		ReportBits:  1,
		ReportCount: 1,
		Parent:      parent,
	}
	ctx.register(e)
	e.Value = newElementValue(e.Cookie, 1)
	ctx.registerReportHandler(e)
	return e, nil
}

func buildInterrupt(cap hiddesc.InterruptCap, parent *Element, ctx *buildContext, index int) (*Element, error) {
	e := &Element{
		Kind:                     KindInterrupt,
		Type:                     ReportTypeInput,
		ReportID:                 cap.ReportID,
		ReportBits:               cap.ReportBits,
		ReportCount:              1,
		ReportSizeBits:           cap.ReportBits,
		IsInterruptReportHandler: true,
		Parent:                   parent,
	}
	ctx.register(e)
	e.Value = newElementValue(e.Cookie, cap.ReportBits)
	ctx.registerReportHandler(e)
	return e, nil
}

func reportTypeFromFlags(f hiddesc.DataFlags) ReportType {
	// The descriptor record doesn't carry Input/Output/Feature directly in
	// this trimmed capability shape; callers that need Output/Feature
	// elements set it via a later pass (see Tree.SetReportType). Default to
	// Input, the overwhelmingly common case for button/value fields.
	return ReportTypeInput
}

// SetReportType overrides the externally-visible type of every
// non-collection element in t whose ReportID matches. Descriptors loaded
// from hiddesc carry button/value capabilities without an explicit Input
// vs. Output vs. Feature tag, so BuildTree makes them all Input; nothing in
// this module calls SetReportType, it is there for callers that know the
// real type.
func (t *Tree) SetReportType(reportID uint8, kind ReportType) {
	for _, e := range t.ByCookie {
		if e != nil && e.ReportID == reportID && e.Type != ReportTypeCollection {
			e.Type = kind
		}
	}
}
