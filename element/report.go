package element

import (
	"fmt"

	"github.com/Alia5/hidtree/hiddesc"
)

// ErrUnknownReportID is returned by ProcessReport/CreateReport when no
// element in the tree claims the given report ID.
type ErrUnknownReportID uint8

func (e ErrUnknownReportID) Error() string {
	return fmt.Sprintf("no report handler for report ID %d", uint8(e))
}

// ErrReportTooShort is returned by ProcessReport when the supplied payload
// is shorter than a fixed-size handler requires.
type ErrReportTooShort struct {
	ReportID uint8
	Want     int
	Got      int
}

func (e *ErrReportTooShort) Error() string {
	return fmt.Sprintf("report %d: need at least %d bytes, got %d", e.ReportID, e.Want, e.Got)
}

// ProcessReport walks the NextReportHandler chain for data's report ID,
// decoding each handler's fields and fanning out change notifications to
// attached queues.
func ProcessReport(tree *Tree, reportID uint8, data []byte, timestamp uint64, options ReportOptions) error {
	head, ok := tree.ReportHandlers[reportID]
	if !ok {
		return ErrUnknownReportID(reportID)
	}

	for h := head; h != nil; h = h.NextReportHandler {
		if options&OptionNotInterrupt != 0 && h.IsInterruptReportHandler {
			continue
		}

		switch {
		case h.Kind == KindNull:
			h.Value.beginMutation()
			h.Value.Timestamp = timestamp
			h.Value.endMutation()
			h.notifyQueues(h.GetDataValue(), true)
		case h.Kind == KindArrayHandler:
			if err := processArrayReport(h, data, timestamp); err != nil {
				return err
			}
		case h.IsDuplicateReportHandler():
			for _, dup := range h.DuplicateElements {
				if err := processScalarElement(dup, data, timestamp); err != nil {
					return err
				}
			}
		default:
			if err := processScalarElement(h, data, timestamp); err != nil {
				return err
			}
		}
	}
	return nil
}

// processScalarElement decodes one button/value/interrupt element's field
// out of data, decides whether it should be processed, and if so stamps
// the timestamp. Attached queues are notified when it should be processed;
// queues with EnqueueAll set are notified either way.
func processScalarElement(e *Element, data []byte, timestamp uint64) error {
	needBytes := (int(e.ReportStartBit) + int(e.ReportBits) + 7) / 8
	if len(data) < needBytes {
		return &ErrReportTooShort{ReportID: e.ReportID, Want: needBytes, Got: len(data)}
	}

	if e.RollOverElementPtr != nil && isKeyboardRollOverActive(e.RollOverElementPtr, timestamp) {
		// Phantom modifier state during a roll-over: the keyboard can't
		// report which keys are actually down, so leave this element's
		// value untouched rather than decoding garbage.
		return nil
	}

	isRelative := e.Flags&hiddesc.FlagRelative != 0
	signExtend := e.LogicalMin < 0

	firstUpdate := e.Value.Generation == 0
	e.Value.beginMutation()
	prev := e.Value.Value[0]
	changed := ReadBits(data, e.Value.Value, e.ReportBits, e.ReportStartBit, signExtend)
	e.PreviousValue = prev
	newValue := e.Value.Value[0]

	shouldProcess := changed || e.IsInterruptReportHandler || isRelative

	// A relative field's zero-to-zero read is "no motion": its timestamp is
	// left as it was. Queues are still notified, since a relative field
	// always satisfies shouldProcess. Any other relative transition,
	// including nonzero-to-zero, does update the timestamp.
	suppressTimestamp := isRelative && e.ReportBits <= 32 && newValue == 0 && prev == 0
	if shouldProcess && (!suppressTimestamp || firstUpdate) {
		e.Value.Timestamp = timestamp
	}
	e.Value.endMutation()

	e.notifyQueues(e.GetDataValue(), shouldProcess)
	return nil
}

// isKeyboardRollOverActive reports whether rollOver's value was set during
// the report currently being processed: a non-zero value whose timestamp
// matches ts means this report just put the keyboard into roll-over.
func isKeyboardRollOverActive(rollOver *Element, ts uint64) bool {
	return rollOver.GetValue() != 0 && rollOver.GetTimestamp() == ts
}

// processArrayReport decodes a selector-array field and diffs it against
// the handler's previously seen selectors, synthesizing button
// press/release transitions on the handler's ArrayItems.
//
// A keyboard array reporting ErrorRollOver in every slot means the device
// can't tell which keys are actually down: synthesize a roll-over-present
// button press on that usage's item instead of diffing, and leave the last
// known-good selector set in place so nothing gets spuriously released.
func processArrayReport(h *Element, data []byte, timestamp uint64) error {
	needBytes := (int(h.ReportStartBit) + int(h.ReportBits*h.ReportCount) + 7) / 8
	if len(data) < needBytes {
		return &ErrReportTooShort{ReportID: h.ReportID, Want: needBytes, Got: len(data)}
	}

	h.Value.beginMutation()
	ReadBits(data, h.Value.Value, h.ReportBits*h.ReportCount, h.ReportStartBit, false)
	h.Value.Timestamp = timestamp
	h.Value.endMutation()

	newSelectors := make([]uint32, h.ReportCount)
	for i := uint32(0); i < h.ReportCount; i++ {
		newSelectors[i] = extractPackedBits(h.Value.Value, i*h.ReportBits, h.ReportBits)
	}

	if h.UsagePage == UsagePageKeyboard {
		if rollOver := findArrayItem(h, UsageKeyboardErrorRollOver); rollOver != nil {
			allRollOver := len(newSelectors) > 0
			for _, s := range newSelectors {
				if s != UsageKeyboardErrorRollOver {
					allRollOver = false
					break
				}
			}
			if allRollOver {
				setScalarValue(rollOver, 1, timestamp)
				rollOver.notifyQueues(rollOver.GetDataValue(), true)
				return nil
			}
		}
	}

	old := h.OldArraySelectors

	for _, usage := range old {
		if usage == 0 || containsSelector(newSelectors, usage) {
			continue
		}
		if item := findArrayItem(h, usage); item != nil {
			setScalarValue(item, 0, timestamp)
			item.notifyQueues(item.GetDataValue(), true)
		}
	}
	for _, usage := range newSelectors {
		if usage == 0 || containsSelector(old, usage) {
			continue
		}
		if item := findArrayItem(h, usage); item != nil {
			setScalarValue(item, 1, timestamp)
			item.notifyQueues(item.GetDataValue(), true)
		}
	}

	copy(h.OldArraySelectors, newSelectors)
	return nil
}

// extractPackedBits reads a `bits`-wide field at bitOffset out of the
// little-endian packed word array words, the same layout ReadBits/WriteBits
// use for an ElementValue's Value slice.
func extractPackedBits(words []uint32, bitOffset, bits uint32) uint32 {
	wordIdx, shift := wordOffsetAndShift(bitOffset)
	lo := words[wordIdx] >> shift
	if shift+bits <= 32 {
		return lo & bitMask(bits)
	}
	hiBits := shift + bits - 32
	hi := words[wordIdx+1] & bitMask(hiBits)
	return (lo | (hi << (32 - shift))) & bitMask(bits)
}

func containsSelector(selectors []uint32, usage uint32) bool {
	for _, s := range selectors {
		if s == usage {
			return true
		}
	}
	return false
}

func findArrayItem(h *Element, usage uint32) *Element {
	for _, item := range h.ArrayItems {
		if item.Usage() == usage {
			return item
		}
	}
	return nil
}

func setScalarValue(e *Element, v uint32, timestamp uint64) {
	e.Value.beginMutation()
	e.PreviousValue = e.Value.Value[0]
	e.Value.Value[0] = v
	e.Value.Timestamp = timestamp
	e.Value.endMutation()
}

// CreateReport assembles an outbound report for reportID from the tree's
// current element values. The returned buffer is freshly allocated and
// therefore already zeroed; WriteBits only ORs bits in, so this is the
// only zeroing CreateReport performs.
func CreateReport(tree *Tree, reportID uint8) ([]byte, error) {
	head, ok := tree.ReportHandlers[reportID]
	if !ok {
		return nil, ErrUnknownReportID(reportID)
	}

	length := reportByteLength(head)
	buf := make([]byte, length)

	for h := head; h != nil; h = h.NextReportHandler {
		switch {
		case h.Kind == KindNull:
			// Input_NULL stops traversal entirely for this call: the device
			// is telling us this report slot carries no data right now.
			return buf, nil
		case h.Kind == KindArrayHandler:
			createArrayReport(h, buf)
		case h.IsDuplicateReportHandler():
			for _, dup := range h.DuplicateElements {
				writeScalarElement(dup, buf)
			}
		default:
			writeScalarElement(h, buf)
		}
	}
	return buf, nil
}

func reportByteLength(head *Element) int {
	maxBit := uint32(0)
	for h := head; h != nil; h = h.NextReportHandler {
		if h.ReportSizeBits != 0 {
			return int((h.ReportSizeBits + 7) / 8)
		}
		end := h.ReportStartBit + h.ReportBits*maxU32(h.ReportCount, 1)
		if end > maxBit {
			maxBit = end
		}
		for _, dup := range h.DuplicateElements {
			end := dup.ReportStartBit + dup.ReportBits
			if end > maxBit {
				maxBit = end
			}
		}
	}
	return int((maxBit + 7) / 8)
}

func maxU32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

func writeScalarElement(e *Element, buf []byte) {
	if e.ReportBits > 32 {
		words, _ := e.Value.snapshot()
		WriteBits(words, buf, e.ReportBits, e.ReportStartBit)
		return
	}
	v := setOutOfBoundsValue(e)
	WriteBits([]uint32{v}, buf, e.ReportBits, e.ReportStartBit)
}

// setOutOfBoundsValue clamps e's current value to its logical range,
// substituting the "no data" sentinel (logicalMax+1) for a NullState field
// whose value is presently out of range. Only the element's low word is
// considered: wider-than-32-bit fields are written as-is without clamping.
func setOutOfBoundsValue(e *Element) uint32 {
	v := int32(e.GetValue())
	if v >= e.LogicalMin && v <= e.LogicalMax {
		return uint32(v) & bitMask(e.ReportBits)
	}
	if e.Flags&hiddesc.FlagNullState != 0 {
		return uint32(e.LogicalMax+1) & bitMask(e.ReportBits)
	}
	if v < e.LogicalMin {
		return uint32(e.LogicalMin) & bitMask(e.ReportBits)
	}
	return uint32(e.LogicalMax) & bitMask(e.ReportBits)
}

func createArrayReport(h *Element, buf []byte) {
	slot := 0
	for _, item := range h.ArrayItems {
		if item.GetValue() == 0 {
			continue
		}
		if uint32(slot) >= h.ReportCount {
			break
		}
		WriteBits([]uint32{item.Usage()}, buf, h.ReportBits, h.ReportStartBit+uint32(slot)*h.ReportBits)
		slot++
	}
}
