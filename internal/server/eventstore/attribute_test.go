package eventstore

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"
)

func TestPayloadAttribute_NumbersKeepDecimalText(t *testing.T) {
	raw := []byte(`{"totalTime":1.1,"pic":0.3,"dayLandings":2}`)

	av, err := payloadAttribute(raw)
	require.NoError(t, err)

	m, ok := av.(*types.AttributeValueMemberM)
	require.True(t, ok)

	// 1.1 and 0.3 have no exact binary representation; the attribute must
	// carry the client's decimal text, not a float64 round-trip.
	require.Equal(t, "1.1", m.Value["totalTime"].(*types.AttributeValueMemberN).Value)
	require.Equal(t, "0.3", m.Value["pic"].(*types.AttributeValueMemberN).Value)
	require.Equal(t, "2", m.Value["dayLandings"].(*types.AttributeValueMemberN).Value)
}

func TestPayloadAttribute_NestedStructure(t *testing.T) {
	raw := []byte(`{
		"logbookEntries": {
			"created": [
				{"entryId": "e1", "flightTypes": ["training"], "signature": null, "holds": true}
			]
		}
	}`)

	av, err := payloadAttribute(raw)
	require.NoError(t, err)

	root := av.(*types.AttributeValueMemberM).Value
	entries := root["logbookEntries"].(*types.AttributeValueMemberM).Value
	created := entries["created"].(*types.AttributeValueMemberL).Value
	require.Len(t, created, 1)

	entry := created[0].(*types.AttributeValueMemberM).Value
	require.Equal(t, "e1", entry["entryId"].(*types.AttributeValueMemberS).Value)
	require.IsType(t, &types.AttributeValueMemberNULL{}, entry["signature"])
	require.True(t, entry["holds"].(*types.AttributeValueMemberBOOL).Value)

	flightTypes := entry["flightTypes"].(*types.AttributeValueMemberL).Value
	require.Equal(t, "training", flightTypes[0].(*types.AttributeValueMemberS).Value)
}

func TestPayloadAttribute_BadJSON(t *testing.T) {
	_, err := payloadAttribute([]byte(`{"broken":`))
	require.Error(t, err)
}

func TestToAttribute_InProcessFloat(t *testing.T) {
	av, err := toAttribute(1.5)
	require.NoError(t, err)
	require.Equal(t, "1.5", av.(*types.AttributeValueMemberN).Value)
}
