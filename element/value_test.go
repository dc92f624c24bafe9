package element_test

import (
	"testing"

	"github.com/Alia5/hidtree/element"
	"github.com/Alia5/hidtree/hiddesc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElementValueGenerationEvenAfterMutation(t *testing.T) {
	tree, err := element.BuildTree(variableSizeBundle())
	require.NoError(t, err)
	e := tree.ReportHandlers[3]

	e.SetValue(42, 7)
	assert.Equal(t, uint32(0), e.Value.Generation%2, "generation is even once the mutation completes")
	assert.Equal(t, uint32(42), e.GetValue())
	assert.Equal(t, uint64(7), e.GetTimestamp())
}

func TestElementValueMultiWordDataRoundTrip(t *testing.T) {
	bundle := hiddesc.Bundle{
		Root: hiddesc.Node{
			Collection: &hiddesc.CollectionNode{CollectionType: hiddesc.CollectionApplication},
			Children: []hiddesc.Node{
				{
					Value: &hiddesc.ValueCap{
						BitField:   hiddesc.FlagVariable,
						BitSize:    64,
						StartBit:   0,
						ReportID:   5,
						UsagePage:  0xFF00,
						LogicalMin: 0,
						LogicalMax: 0x7FFFFFFF,
					},
				},
			},
		},
	}
	tree, err := element.BuildTree(bundle)
	require.NoError(t, err)
	e := tree.ReportHandlers[5]

	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	e.SetDataValue(data, 3)
	assert.Equal(t, data, e.GetDataValue())
}
