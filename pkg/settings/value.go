package settings

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/arthur-debert/nmm/pkg/errors"
	"github.com/arthur-debert/nmm/pkg/wire"
)

// Kind discriminates the variants of a Value in memory. It is not the wire
// tag; see TypeTag.
type Kind int

const (
	KindNone Kind = iota
	KindBool
	KindNumber
	KindString
)

// String returns the variant name.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Wire type tags. These are file format constants.
const (
	tagNone   uint32 = 0
	tagBool   uint32 = 1
	tagNumber uint32 = 2
	tagString uint32 = 3
)

// Value is a single typed setting value: none, bool, number or string.
// The zero Value is None. Values are comparable with ==, with the usual
// caveat that a NaN number never equals itself.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
}

// None returns the empty value.
func None() Value { return Value{} }

// Bool returns a boolean value.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// Number returns a numeric value.
func Number(v float64) Value { return Value{kind: KindNumber, n: v} }

// String returns a text value.
func String(v string) Value { return Value{kind: KindString, s: v} }

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// AsBool returns the boolean payload and whether v is a Bool.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsNumber returns the numeric payload and whether v is a Number.
func (v Value) AsNumber() (float64, bool) { return v.n, v.kind == KindNumber }

// AsString returns the text payload and whether v is a String.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// Interface returns the payload as a plain Go value (nil, bool, float64 or
// string), which is what the YAML dump and display code want.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	default:
		return nil
	}
}

// String formats the value the way it is shown to users, e.g. Number(1.5).
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return fmt.Sprintf("Bool(%t)", v.b)
	case KindNumber:
		return "Number(" + strconv.FormatFloat(v.n, 'g', -1, 64) + ")"
	case KindString:
		return fmt.Sprintf("String(%q)", v.s)
	default:
		return "None()"
	}
}

// TypeTag returns the wire tag of v. The tag is written separately from the
// payload because the two values of a pair may have different tags.
func TypeTag(v Value) uint32 {
	switch v.kind {
	case KindBool:
		return tagBool
	case KindNumber:
		return tagNumber
	case KindString:
		return tagString
	default:
		return tagNone
	}
}

// DecodeValue reads the payload of a value whose wire tag is tag.
func DecodeValue(r *wire.Reader, tag uint32) (Value, error) {
	switch tag {
	case tagNone:
		return None(), nil
	case tagBool:
		raw, err := r.Uint32(binary.BigEndian)
		if err != nil {
			return Value{}, errors.Context(err, "reading bool value")
		}
		switch raw {
		case 0:
			return Bool(false), nil
		case 1:
			return Bool(true), nil
		default:
			return Value{}, errors.Newf(errors.ErrInvalidBoolEncoding, "illegal bool value %d", raw)
		}
	case tagNumber:
		n, err := r.Float64(binary.BigEndian)
		if err != nil {
			return Value{}, errors.Context(err, "reading number value")
		}
		return Number(n), nil
	case tagString:
		s, err := r.String32(binary.BigEndian)
		if err != nil {
			return Value{}, errors.Context(err, "reading string value")
		}
		return String(s), nil
	default:
		return Value{}, errors.Newf(errors.ErrInvalidTypeID, "illegal setting type %d", tag).
			WithDetail("tag", tag)
	}
}

// EncodeValue writes the payload of v. The caller writes TypeTag(v) itself.
func EncodeValue(w *wire.Writer, v Value) error {
	switch v.kind {
	case KindBool:
		var raw uint32
		if v.b {
			raw = 1
		}
		return errors.Context(w.Uint32(binary.BigEndian, raw), "writing bool value %t", v.b)
	case KindNumber:
		return errors.Context(w.Float64(binary.BigEndian, v.n), "writing number value %v", v.n)
	case KindString:
		return errors.Context(w.String32(binary.BigEndian, v.s), "writing string value")
	default:
		return nil
	}
}

// Pair is the two values the game keeps per setting: the active one and the
// one that takes effect on next load.
type Pair struct {
	Current Value
	Next    Value
}

// String formats both values.
func (p Pair) String() string {
	return "current=" + p.Current.String() + " next=" + p.Next.String()
}
