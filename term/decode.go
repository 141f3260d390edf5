package term

import (
	"encoding/json"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// The engine serializes reply terms as JSON: atoms and variables are
// strings, numbers are numbers, lists are arrays and compound terms are
// {"functor": Name, "args": [...]} objects. UseNumber keeps numeric
// literals intact so they survive a render round trip.
var decoder = jsoniter.Config{UseNumber: true}.Froze()

// Decode parses one reply payload into a Term.
func Decode(data []byte) (Term, error) {
	var raw interface{}
	if err := decoder.Unmarshal(data, &raw); err != nil {
		return Term{}, fmt.Errorf("malformed reply payload: %w", err)
	}
	return fromJSON(raw)
}

func fromJSON(v interface{}) (Term, error) {
	switch val := v.(type) {
	case string:
		return Text(val), nil
	case json.Number:
		return Number(val.String()), nil
	case bool:
		if val {
			return Text("true"), nil
		}
		return Text("false"), nil
	case []interface{}:
		items := make([]Term, len(val))
		for i, item := range val {
			t, err := fromJSON(item)
			if err != nil {
				return Term{}, err
			}
			items[i] = t
		}
		return NewList(items...), nil
	case map[string]interface{}:
		functor, ok := val["functor"].(string)
		if !ok {
			return Term{}, fmt.Errorf("term object missing functor: %v", val)
		}
		rawArgs, ok := val["args"].([]interface{})
		if !ok {
			return Term{}, fmt.Errorf("term object missing args: %v", val)
		}
		args := make([]Term, len(rawArgs))
		for i, arg := range rawArgs {
			t, err := fromJSON(arg)
			if err != nil {
				return Term{}, err
			}
			args[i] = t
		}
		return NewCompound(functor, args...), nil
	default:
		return Term{}, fmt.Errorf("unsupported term payload of type %T", v)
	}
}
