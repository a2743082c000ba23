package format

import (
	"encoding/json"
	"fmt"
	"math"
)

// jsonValue is the wire shape a Value marshals to and unmarshals from,
// used by the .nolt training-pair file's witness records. It
// names the runtime kind explicitly rather than relying on JSON's
// untyped number/bool/string distinctions, since NoLang distinguishes
// I64 from U64 from F64 at the type level.
type jsonValue struct {
	Kind     string      `json:"kind"`
	I64      *int64      `json:"i64,omitempty"`
	U64      *uint64     `json:"u64,omitempty"`
	F64      *float64    `json:"f64,omitempty"`
	Bool     *bool       `json:"bool,omitempty"`
	Char     *uint32     `json:"char,omitempty"`
	Tag      *uint16     `json:"tag,omitempty"`
	TagCount *uint16     `json:"tag_count,omitempty"`
	Payload  *jsonValue  `json:"payload,omitempty"`
	Elems    []jsonValue `json:"elements,omitempty"`
}

// MarshalJSON renders v in the tagged wire form .nolt witness records
// use. F64 is rejected if non-finite: the VM guarantees NaN and
// infinity never materialize as a Value, so there is nothing a
// well-formed witness could ever need to encode.
func (v Value) MarshalJSON() ([]byte, error) {
	jv, err := v.toJSONValue()
	if err != nil {
		return nil, err
	}
	return json.Marshal(jv)
}

func (v Value) toJSONValue() (jsonValue, error) {
	switch v.Kind {
	case KindI64:
		x := v.i64
		return jsonValue{Kind: "I64", I64: &x}, nil
	case KindU64:
		x := v.u64
		return jsonValue{Kind: "U64", U64: &x}, nil
	case KindF64:
		x := v.AsF64()
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return jsonValue{}, fmt.Errorf("F64 value is not finite")
		}
		return jsonValue{Kind: "F64", F64: &x}, nil
	case KindBool:
		x := v.b
		return jsonValue{Kind: "Bool", Bool: &x}, nil
	case KindChar:
		x := v.ch
		return jsonValue{Kind: "Char", Char: &x}, nil
	case KindUnit:
		return jsonValue{Kind: "Unit"}, nil
	case KindVariant:
		jv := jsonValue{Kind: "Variant"}
		tc, tag := v.variantTagCount, v.variantTag
		jv.TagCount, jv.Tag = &tc, &tag
		if v.variantPayload != nil {
			p, err := v.variantPayload.toJSONValue()
			if err != nil {
				return jsonValue{}, err
			}
			jv.Payload = &p
		}
		return jv, nil
	case KindTuple, KindArray:
		name := "Tuple"
		if v.Kind == KindArray {
			name = "Array"
		}
		elems := make([]jsonValue, len(v.elem))
		for i, e := range v.elem {
			je, err := e.toJSONValue()
			if err != nil {
				return jsonValue{}, err
			}
			elems[i] = je
		}
		return jsonValue{Kind: name, Elems: elems}, nil
	default:
		return jsonValue{}, fmt.Errorf("cannot marshal value of kind %d", v.Kind)
	}
}

// UnmarshalJSON parses the wire form MarshalJSON produces.
func (v *Value) UnmarshalJSON(b []byte) error {
	var jv jsonValue
	if err := json.Unmarshal(b, &jv); err != nil {
		return err
	}
	parsed, err := jv.toValue()
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (jv jsonValue) toValue() (Value, error) {
	switch jv.Kind {
	case "I64":
		if jv.I64 == nil {
			return Value{}, fmt.Errorf("I64 value missing i64 field")
		}
		return I64(*jv.I64), nil
	case "U64":
		if jv.U64 == nil {
			return Value{}, fmt.Errorf("U64 value missing u64 field")
		}
		return U64(*jv.U64), nil
	case "F64":
		if jv.F64 == nil {
			return Value{}, fmt.Errorf("F64 value missing f64 field")
		}
		if math.IsNaN(*jv.F64) || math.IsInf(*jv.F64, 0) {
			return Value{}, fmt.Errorf("F64 value is not finite")
		}
		return F64(*jv.F64), nil
	case "Bool":
		if jv.Bool == nil {
			return Value{}, fmt.Errorf("Bool value missing bool field")
		}
		return Bool(*jv.Bool), nil
	case "Char":
		if jv.Char == nil {
			return Value{}, fmt.Errorf("Char value missing char field")
		}
		return Char(*jv.Char), nil
	case "Unit":
		return Unit(), nil
	case "Variant":
		if jv.Tag == nil || jv.TagCount == nil {
			return Value{}, fmt.Errorf("Variant value missing tag/tag_count field")
		}
		var payload *Value
		if jv.Payload != nil {
			p, err := jv.Payload.toValue()
			if err != nil {
				return Value{}, err
			}
			payload = &p
		}
		return Variant(*jv.TagCount, *jv.Tag, payload), nil
	case "Tuple", "Array":
		elems := make([]Value, len(jv.Elems))
		for i, je := range jv.Elems {
			e, err := je.toValue()
			if err != nil {
				return Value{}, err
			}
			elems[i] = e
		}
		if jv.Kind == "Tuple" {
			return Tuple(elems), nil
		}
		return Array(elems), nil
	default:
		return Value{}, fmt.Errorf("unknown value kind %q", jv.Kind)
	}
}
