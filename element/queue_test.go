package element_test

import (
	"testing"

	"github.com/Alia5/hidtree/element"
	"github.com/Alia5/hidtree/hiddesc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buttonBundle describes a single non-relative button field, used to
// exercise the shouldProcess-gated notify path against an unchanged read.
func buttonBundle() hiddesc.Bundle {
	return hiddesc.Bundle{
		Root: hiddesc.Node{
			Collection: &hiddesc.CollectionNode{CollectionType: hiddesc.CollectionApplication},
			Children: []hiddesc.Node{
				{
					Button: &hiddesc.ButtonCap{
						BitField:  hiddesc.FlagVariable,
						StartBit:  0,
						ReportID:  6,
						UsagePage: 0x09,
						UsageMin:  0x01,
						UsageMax:  0x01,
					},
				},
			},
		},
	}
}

// TestQueueEnqueueAllReceivesUnchangedSamples covers the EnqueueAll queue
// option: a plain queue only hears about an actual value change, while an
// EnqueueAll queue is notified on every decoded report regardless.
func TestQueueEnqueueAllReceivesUnchangedSamples(t *testing.T) {
	tree, err := element.BuildTree(buttonBundle())
	require.NoError(t, err)

	button := tree.ReportHandlers[6]
	plain := element.NewChannelQueue(4)
	all := element.NewChannelQueueEnqueueAll(4)
	button.AttachQueue(plain)
	button.AttachQueue(all)

	require.NoError(t, element.ProcessReport(tree, 6, []byte{0x01}, 1, element.OptionNone))
	// Drain the initial-press notification common to both queues.
	<-plain.C()
	<-all.C()

	// Re-send the identical report: the button's value doesn't change.
	require.NoError(t, element.ProcessReport(tree, 6, []byte{0x01}, 2, element.OptionNone))

	select {
	case <-plain.C():
		t.Fatal("a plain queue must not see an unchanged, non-relative sample")
	default:
	}
	select {
	case <-all.C():
	default:
		t.Fatal("an EnqueueAll queue must see every decoded sample")
	}
}

// TestQueueOptionsReportsEnqueueAll covers the Queue.Options() contract
// for the EnqueueAll bit itself.
func TestQueueOptionsReportsEnqueueAll(t *testing.T) {
	plain := element.NewChannelQueue(2)
	all := element.NewChannelQueueEnqueueAll(2)

	assert.False(t, plain.Options().EnqueueAll)
	assert.True(t, all.Options().EnqueueAll)
}

// TestDetachQueueStopsNotifications covers AttachQueue/DetachQueue
// idempotency and that a detached queue stops receiving notifications.
func TestDetachQueueStopsNotifications(t *testing.T) {
	tree, err := element.BuildTree(buttonBundle())
	require.NoError(t, err)

	button := tree.ReportHandlers[6]
	q := element.NewChannelQueue(4)
	button.AttachQueue(q)
	button.AttachQueue(q) // redundant attach is a no-op
	button.DetachQueue(q)
	button.DetachQueue(q) // redundant detach is a no-op

	require.NoError(t, element.ProcessReport(tree, 6, []byte{0x01}, 1, element.OptionNone))
	select {
	case <-q.C():
		t.Fatal("a detached queue must not receive notifications")
	default:
	}
}
