package telemetry

import (
	"math"
	"strconv"
	"strings"

	"github.com/go-faster/jx"
)

type fieldKind uint8

const (
	fieldAbsent fieldKind = iota
	fieldScalar
	fieldWrapped
)

// field is a raw provider value after the single unwrap step: either the
// value itself (Scalar) or the payload of a {"value": ...} wrapper (Wrapped).
type field struct {
	kind  fieldKind
	value jx.Raw
}

func (f field) present() bool { return f.kind != fieldAbsent }

func unwrap(raw jx.Raw) field {
	if len(raw) == 0 {
		return field{}
	}

	d := jx.DecodeBytes(raw)
	switch d.Next() {
	case jx.Null, jx.Invalid:
		return field{}
	case jx.Object:
		var inner jx.Raw
		err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
			if string(key) != "value" {
				return d.Skip()
			}
			r, err := d.Raw()
			if err != nil {
				return err
			}
			inner = clone(r)
			return nil
		})
		if err != nil {
			return field{}
		}
		if inner == nil {
			return field{kind: fieldScalar, value: raw}
		}
		if inner.Type() == jx.Null {
			return field{}
		}
		return field{kind: fieldWrapped, value: inner}
	default:
		return field{kind: fieldScalar, value: raw}
	}
}

// latest collapses a time series of samples to its last element.
func (f field) latest() field {
	if !f.present() || f.value.Type() != jx.Array {
		return f
	}

	var last jx.Raw
	err := jx.DecodeBytes(f.value).Arr(func(d *jx.Decoder) error {
		r, err := d.Raw()
		if err != nil {
			return err
		}
		last = r
		return nil
	})
	if err != nil || last == nil {
		return field{}
	}

	return unwrap(clone(last))
}

func (f field) float() (float64, bool) {
	f = f.latest()
	if !f.present() {
		return 0, false
	}

	var (
		v   float64
		err error
	)
	d := jx.DecodeBytes(f.value)
	switch d.Next() {
	case jx.Number:
		v, err = d.Float64()
	case jx.String:
		var s string
		if s, err = d.Str(); err == nil {
			v, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		}
	default:
		return 0, false
	}
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}

	return v, true
}

func (f field) str() (string, bool) {
	f = f.latest()
	if !f.present() {
		return "", false
	}

	d := jx.DecodeBytes(f.value)
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		return s, err == nil
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return "", false
		}
		return n.String(), true
	case jx.Bool:
		b, err := d.Bool()
		return strconv.FormatBool(b), err == nil
	default:
		return "", false
	}
}

// object returns the members of an object value, each already unwrapped.
func (f field) object() (map[string]field, bool) {
	f = f.latest()
	if !f.present() || f.value.Type() != jx.Object {
		return nil, false
	}

	out := make(map[string]field)
	err := jx.DecodeBytes(f.value).ObjBytes(func(d *jx.Decoder, key []byte) error {
		r, err := d.Raw()
		if err != nil {
			return err
		}
		out[string(key)] = unwrap(clone(r))
		return nil
	})
	if err != nil {
		return nil, false
	}

	return out, true
}

// list returns the elements of an array value in order.
func (f field) list() []field {
	if !f.present() || f.value.Type() != jx.Array {
		return nil
	}

	var out []field
	err := jx.DecodeBytes(f.value).Arr(func(d *jx.Decoder) error {
		r, err := d.Raw()
		if err != nil {
			return err
		}
		out = append(out, unwrap(clone(r)))
		return nil
	})
	if err != nil {
		return nil
	}

	return out
}

func clone(r jx.Raw) jx.Raw {
	return append(jx.Raw(nil), r...)
}
