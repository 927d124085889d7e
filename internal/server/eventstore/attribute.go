package eventstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// payloadAttribute converts a raw JSON payload into a DynamoDB attribute
// value. Numbers are decoded with json.Number so binary floats never
// materialize: the number set reaches the table as the fixed-point decimal
// text the client wrote.
func payloadAttribute(raw []byte) (types.AttributeValue, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("payload decode error: %w", err)
	}
	return toAttribute(v)
}

func toAttribute(v any) (types.AttributeValue, error) {
	switch value := v.(type) {
	case nil:
		return &types.AttributeValueMemberNULL{Value: true}, nil
	case bool:
		return &types.AttributeValueMemberBOOL{Value: value}, nil
	case string:
		return &types.AttributeValueMemberS{Value: value}, nil
	case json.Number:
		return &types.AttributeValueMemberN{Value: value.String()}, nil
	case float64:
		// Reached only for payloads built in-process; 'f' keeps the
		// rendering fixed-point.
		return &types.AttributeValueMemberN{Value: strconv.FormatFloat(value, 'f', -1, 64)}, nil
	case []any:
		list := make([]types.AttributeValue, 0, len(value))
		for _, item := range value {
			av, err := toAttribute(item)
			if err != nil {
				return nil, err
			}
			list = append(list, av)
		}
		return &types.AttributeValueMemberL{Value: list}, nil
	case map[string]any:
		m := make(map[string]types.AttributeValue, len(value))
		for k, item := range value {
			av, err := toAttribute(item)
			if err != nil {
				return nil, err
			}
			m[k] = av
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	default:
		return nil, fmt.Errorf("unsupported payload value %T", v)
	}
}
