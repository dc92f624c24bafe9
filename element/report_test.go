package element_test

import (
	"testing"

	"github.com/Alia5/hidtree/element"
	"github.com/Alia5/hidtree/hiddesc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestKeyboardArrayReport covers scenario S1: a 2-slot selector array
// reporting two simultaneously held keys.
func TestKeyboardArrayReport(t *testing.T) {
	tree, err := element.BuildTree(keyboardBundle())
	require.NoError(t, err)

	report := []byte{0x00, 0x04, 0x05}
	require.NoError(t, element.ProcessReport(tree, 1, report, 100, element.OptionNone))

	arrayHandler := tree.ReportHandlers[1].NextReportHandler
	assert.Equal(t, uint32(1), arrayHandler.ArrayItems[0].GetValue(), "usage 0x04 pressed")
	assert.Equal(t, uint32(1), arrayHandler.ArrayItems[1].GetValue(), "usage 0x05 pressed")
	assert.Equal(t, uint32(0), arrayHandler.ArrayItems[2].GetValue())
	assert.Equal(t, uint32(0), arrayHandler.ArrayItems[3].GetValue())
}

// TestKeyboardArrayDiff covers scenario S2: a second report drops one key
// and adds another, verifying press/release transitions are derived
// purely from the selector-set diff.
func TestKeyboardArrayDiff(t *testing.T) {
	tree, err := element.BuildTree(keyboardBundle())
	require.NoError(t, err)

	require.NoError(t, element.ProcessReport(tree, 1, []byte{0x00, 0x04, 0x05}, 100, element.OptionNone))
	require.NoError(t, element.ProcessReport(tree, 1, []byte{0x00, 0x05, 0x06}, 200, element.OptionNone))

	arrayHandler := tree.ReportHandlers[1].NextReportHandler
	assert.Equal(t, uint32(0), arrayHandler.ArrayItems[0].GetValue(), "usage 0x04 released")
	assert.Equal(t, uint32(1), arrayHandler.ArrayItems[1].GetValue(), "usage 0x05 still held")
	assert.Equal(t, uint32(1), arrayHandler.ArrayItems[2].GetValue(), "usage 0x06 newly pressed")
	assert.Equal(t, uint32(0), arrayHandler.ArrayItems[3].GetValue())
}

// keyboardRollOverBundle describes a 2-slot selector array whose usage
// range includes ErrorRollOver (0x01), followed by a modifier button, so
// BuildTree's roll-over linking has an item to wire the modifier to. The
// array is listed first so its handler is dispatched before the modifier
// within the same ProcessReport call, letting a roll-over flag set this
// cycle suppress the modifier this same cycle.
func keyboardRollOverBundle() hiddesc.Bundle {
	return hiddesc.Bundle{
		Root: hiddesc.Node{
			Collection: &hiddesc.CollectionNode{
				UsagePage:      0x01,
				Usage:          0x06,
				CollectionType: hiddesc.CollectionApplication,
			},
			Children: []hiddesc.Node{
				{
					Button: &hiddesc.ButtonCap{
						BitField:    hiddesc.FlagArray,
						StartBit:    8,
						ReportID:    1,
						UsagePage:   element.UsagePageKeyboard,
						IsRange:     true,
						UsageMin:    0x00,
						UsageMax:    0x07,
						LogicalMin:  0,
						LogicalMax:  0xFF,
						ReportBits:  8,
						ReportCount: 2,
					},
				},
				{
					Button: &hiddesc.ButtonCap{
						BitField:  0,
						StartBit:  0,
						ReportID:  1,
						UsagePage: element.UsagePageKeyboard,
						UsageMin:  element.UsageKeyboardLeftControl,
						UsageMax:  element.UsageKeyboardLeftControl,
					},
				},
			},
		},
	}
}

// TestKeyboardRollOverSuppressesModifier covers scenario S5 (roll-over):
// when every selector slot reports ErrorRollOver, the array handler
// synthesizes a roll-over-present flag instead of diffing, and the
// modifier element wired to it holds its prior value rather than decoding
// the meaningless payload bits.
func TestKeyboardRollOverSuppressesModifier(t *testing.T) {
	tree, err := element.BuildTree(keyboardRollOverBundle())
	require.NoError(t, err)

	arrayHandler := tree.ReportHandlers[1]
	modifier := arrayHandler.NextReportHandler
	require.NotNil(t, modifier.RollOverElementPtr, "modifier must be wired to the roll-over item")

	rollOverItem := arrayHandler.ArrayItems[1]
	require.Equal(t, element.UsageKeyboardErrorRollOver, rollOverItem.Usage())

	// Press the modifier and one real key first, establishing a baseline.
	require.NoError(t, element.ProcessReport(tree, 1, []byte{0x01, 0x04, 0x00}, 100, element.OptionNone))
	require.Equal(t, uint32(1), modifier.GetValue())
	require.Equal(t, uint32(1), arrayHandler.ArrayItems[4].GetValue(), "usage 0x04 pressed")

	// Every slot reports ErrorRollOver: the roll-over flag is set, normal
	// diffing is skipped, and the modifier (now stale garbage in the wire
	// bits) is suppressed rather than decoded.
	report := []byte{0x00, 0x01, 0x01}
	require.NoError(t, element.ProcessReport(tree, 1, report, 200, element.OptionNone))

	assert.Equal(t, uint32(1), rollOverItem.GetValue(), "roll-over flag set")
	assert.Equal(t, uint32(1), modifier.GetValue(), "modifier suppressed during roll-over")
	assert.Equal(t, uint32(1), arrayHandler.ArrayItems[4].GetValue(), "prior key press preserved, not released")
}

// mouseBundle describes one signed relative 8-bit axis on report ID 2.
func mouseBundle() hiddesc.Bundle {
	return hiddesc.Bundle{
		Root: hiddesc.Node{
			Collection: &hiddesc.CollectionNode{CollectionType: hiddesc.CollectionApplication},
			Children: []hiddesc.Node{
				{
					Value: &hiddesc.ValueCap{
						BitField:   hiddesc.FlagVariable | hiddesc.FlagRelative,
						BitSize:    8,
						StartBit:   0,
						ReportID:   2,
						UsagePage:  0x01,
						UsageMin:   0x30,
						UsageMax:   0x30,
						LogicalMin: -127,
						LogicalMax: 127,
					},
				},
			},
		},
	}
}

// TestMouseRelativeZeroDeltaSuppressed covers scenario S3: a relative
// element's timestamp only suppresses on a zero-to-zero ("no motion")
// read, while queue notification fires on every report regardless —
// relative fields always satisfy shouldProcess, since a device reporting
// deltas is itself ongoing activity worth delivering to consumers.
func TestMouseRelativeZeroDeltaSuppressed(t *testing.T) {
	tree, err := element.BuildTree(mouseBundle())
	require.NoError(t, err)
	x := tree.ReportHandlers[2]

	q := element.NewChannelQueue(4)
	x.AttachQueue(q)

	require.NoError(t, element.ProcessReport(tree, 2, []byte{0x05}, 10, element.OptionNone))
	assert.Equal(t, int32(5), int32(x.GetValue()))
	assert.Equal(t, uint64(10), x.GetTimestamp())
	select {
	case <-q.C():
	default:
		t.Fatal("expected a notification for the non-zero delta")
	}

	// Nonzero-to-zero is still a real transition: the timestamp advances
	// and consumers are notified.
	require.NoError(t, element.ProcessReport(tree, 2, []byte{0x00}, 20, element.OptionNone))
	assert.Equal(t, uint32(0), x.GetValue())
	assert.Equal(t, uint64(20), x.GetTimestamp(), "nonzero-to-zero must bump the timestamp")
	select {
	case <-q.C():
	default:
		t.Fatal("expected a notification for the nonzero-to-zero transition")
	}

	// Zero-to-zero ("no motion") suppresses the timestamp bump, but the
	// element is still relative, so consumers are still notified.
	require.NoError(t, element.ProcessReport(tree, 2, []byte{0x00}, 30, element.OptionNone))
	assert.Equal(t, uint32(0), x.GetValue())
	assert.Equal(t, uint64(20), x.GetTimestamp(), "zero-to-zero must not bump the timestamp")
	select {
	case <-q.C():
	default:
		t.Fatal("relative elements notify on every report, even a repeated zero")
	}
}

// variableSizeBundle describes a single fixed-width 16-bit value field on
// report ID 3, so a payload needs two bytes. The field is not marked
// variable-size: ProcessReport has no clamped read for short payloads.
func variableSizeBundle() hiddesc.Bundle {
	return hiddesc.Bundle{
		Root: hiddesc.Node{
			Collection: &hiddesc.CollectionNode{CollectionType: hiddesc.CollectionApplication},
			Children: []hiddesc.Node{
				{
					Value: &hiddesc.ValueCap{
						BitField:   hiddesc.FlagVariable,
						BitSize:    16,
						StartBit:   0,
						ReportID:   3,
						UsagePage:  0xFF00,
						UsageMin:   0x01,
						UsageMax:   0x01,
						LogicalMin: 0,
						LogicalMax: 0xFFFF,
					},
				},
			},
		},
	}
}

// TestVariableSizePayloadTooShort covers scenario S4: a short payload is
// rejected rather than read out of bounds.
func TestVariableSizePayloadTooShort(t *testing.T) {
	tree, err := element.BuildTree(variableSizeBundle())
	require.NoError(t, err)

	err = element.ProcessReport(tree, 3, []byte{0x01}, 1, element.OptionNone)
	require.Error(t, err)
	var tooShort *element.ErrReportTooShort
	require.ErrorAs(t, err, &tooShort)
}

// TestFeatureReportRoundTrip covers scenario S5: a value written via
// SetValue is recovered byte-for-byte by CreateReport and by a subsequent
// ProcessReport of that same buffer.
func TestFeatureReportRoundTrip(t *testing.T) {
	tree, err := element.BuildTree(variableSizeBundle())
	require.NoError(t, err)

	e := tree.ReportHandlers[3]
	e.SetValue(0xBEEF, 1)

	buf, err := element.CreateReport(tree, 3)
	require.NoError(t, err)
	require.Equal(t, []byte{0xEF, 0xBE}, buf)

	fresh, err := element.BuildTree(variableSizeBundle())
	require.NoError(t, err)
	require.NoError(t, element.ProcessReport(fresh, 3, buf, 2, element.OptionNone))
	assert.Equal(t, uint32(0xBEEF), fresh.ReportHandlers[3].GetValue())
}

// TestDuplicateArrayRoundTrip covers scenario S6: each duplicate element
// decodes its own slot independently.
func TestDuplicateGroupDecode(t *testing.T) {
	tree, err := element.BuildTree(duplicateBundle())
	require.NoError(t, err)

	// Four 4-bit fields packed into the first two bytes: 0x1, 0x2, 0x3, 0x4.
	report := []byte{0x21, 0x43}
	require.NoError(t, element.ProcessReport(tree, 9, report, 5, element.OptionNone))

	handler := tree.ReportHandlers[9]
	want := []uint32{1, 2, 3, 4}
	for i, dup := range handler.DuplicateElements {
		assert.Equal(t, want[i], dup.GetValue())
	}
}

// nullThenValueBundle describes an Input_NULL handler followed, in the
// same report, by a value field further down the chain.
func nullThenValueBundle() hiddesc.Bundle {
	return hiddesc.Bundle{
		Root: hiddesc.Node{
			Collection: &hiddesc.CollectionNode{CollectionType: hiddesc.CollectionApplication},
			Children: []hiddesc.Node{
				{Null: &hiddesc.NullCap{ReportID: 5}},
				{
					Value: &hiddesc.ValueCap{
						BitField:   hiddesc.FlagVariable,
						BitSize:    8,
						StartBit:   0,
						ReportID:   5,
						UsagePage:  0x01,
						UsageMin:   0x30,
						UsageMax:   0x30,
						LogicalMin: 0,
						LogicalMax: 0xFF,
					},
				},
			},
		},
	}
}

// TestInputNullInbound covers Input_NULL's inbound handling: the null
// handler stamps its own timestamp and notifies its queues, then
// processing continues to the next handler in the chain.
func TestInputNullInbound(t *testing.T) {
	tree, err := element.BuildTree(nullThenValueBundle())
	require.NoError(t, err)

	nullHandler := tree.ReportHandlers[5]
	require.Equal(t, element.KindNull, nullHandler.Kind)
	q := element.NewChannelQueue(4)
	nullHandler.AttachQueue(q)

	require.NoError(t, element.ProcessReport(tree, 5, []byte{0x07}, 42, element.OptionNone))
	assert.Equal(t, uint64(42), nullHandler.GetTimestamp())
	select {
	case <-q.C():
	default:
		t.Fatal("expected a notification from the null handler")
	}

	value := nullHandler.NextReportHandler
	assert.Equal(t, uint32(0x07), value.GetValue(), "processing continues past the null handler")
}

// TestInputNullOutboundStopsTraversal covers Input_NULL's outbound
// handling: CreateReport stops assembling the report entirely once it
// reaches a null handler, leaving the rest of the buffer zeroed.
func TestInputNullOutboundStopsTraversal(t *testing.T) {
	tree, err := element.BuildTree(nullThenValueBundle())
	require.NoError(t, err)

	value := tree.ReportHandlers[5].NextReportHandler
	value.SetValue(0x99, 1)

	buf, err := element.CreateReport(tree, 5)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00}, buf, "traversal stops at the null handler before the value field is written")
}

// TestSetOutOfBoundsValue exercises the NullState sentinel substitution in
// CreateReport's outbound clamping.
func TestSetOutOfBoundsValue(t *testing.T) {
	bundle := hiddesc.Bundle{
		Root: hiddesc.Node{
			Collection: &hiddesc.CollectionNode{CollectionType: hiddesc.CollectionApplication},
			Children: []hiddesc.Node{
				{
					Value: &hiddesc.ValueCap{
						BitField:   hiddesc.FlagVariable | hiddesc.FlagNullState,
						BitSize:    8,
						StartBit:   0,
						ReportID:   4,
						UsagePage:  0x01,
						UsageMin:   0x30,
						UsageMax:   0x30,
						LogicalMin: 0,
						LogicalMax: 10,
					},
				},
			},
		},
	}
	tree, err := element.BuildTree(bundle)
	require.NoError(t, err)

	e := tree.ReportHandlers[4]
	e.SetValue(200, 1) // out of [0,10] logical range

	buf, err := element.CreateReport(tree, 4)
	require.NoError(t, err)
	assert.Equal(t, byte(11), buf[0], "NullState field substitutes logicalMax+1")
}
