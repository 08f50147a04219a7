// Package rpcvalue implements the tagged-variant value lattice used by the
// GbxRemote 2 wire protocol: XML-RPC integers, doubles, booleans, strings,
// dates, binary blobs, arrays, and order-preserving structs, plus the
// protocol's fault value.
package rpcvalue

import (
	"fmt"
	"time"
)

// Kind identifies which alternative of the value lattice a Value holds.
type Kind int

const (
	KindNil Kind = iota
	KindInt
	KindDouble
	KindBool
	KindString
	KindDateTime
	KindBinary
	KindArray
	KindStruct
	KindFault
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindInt:
		return "int"
	case KindDouble:
		return "double"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindDateTime:
		return "dateTime"
	case KindBinary:
		return "binary"
	case KindArray:
		return "array"
	case KindStruct:
		return "struct"
	case KindFault:
		return "fault"
	default:
		return "unknown"
	}
}

// Member is a single ordered key/value pair of a struct. Structs use a
// slice of Member rather than a map so decode can preserve the member
// order encountered on the wire.
type Member struct {
	Name  string
	Value Value
}

// Fault is a well-formed XML-RPC fault response. It is carried as a value,
// never raised as a Go error, so callers can match on it explicitly.
type Fault struct {
	Code   int32
	String string
}

func (f Fault) Error() string {
	return fmt.Sprintf("fault %d: %s", f.Code, f.String)
}

// Value is a tagged union over the XML-RPC type lattice. The zero Value is
// KindNil.
type Value struct {
	kind    Kind
	i       int32
	f       float64
	b       bool
	s       string
	t       time.Time
	blob    []byte
	arr     []Value
	members []Member
	fault   Fault
}

func Nil() Value { return Value{kind: KindNil} }

func Int(v int32) Value { return Value{kind: KindInt, i: v} }

func Double(v float64) Value { return Value{kind: KindDouble, f: v} }

func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

func String(v string) Value { return Value{kind: KindString, s: v} }

func DateTime(v time.Time) Value { return Value{kind: KindDateTime, t: v} }

func Binary(v []byte) Value {
	cp := make([]byte, len(v))
	copy(cp, v)
	return Value{kind: KindBinary, blob: cp}
}

func Array(vs []Value) Value {
	cp := make([]Value, len(vs))
	copy(cp, vs)
	return Value{kind: KindArray, arr: cp}
}

func Struct(members []Member) Value {
	cp := make([]Member, len(members))
	copy(cp, members)
	return Value{kind: KindStruct, members: cp}
}

func FaultValue(code int32, s string) Value {
	return Value{kind: KindFault, fault: Fault{Code: code, String: s}}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNil() bool { return v.kind == KindNil }

func (v Value) Int() (int32, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

func (v Value) Double() (float64, bool) {
	if v.kind != KindDouble {
		return 0, false
	}
	return v.f, true
}

func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

func (v Value) String() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

func (v Value) DateTime() (time.Time, bool) {
	if v.kind != KindDateTime {
		return time.Time{}, false
	}
	return v.t, true
}

func (v Value) Binary() ([]byte, bool) {
	if v.kind != KindBinary {
		return nil, false
	}
	return v.blob, true
}

func (v Value) Array() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.arr, true
}

func (v Value) StructMembers() ([]Member, bool) {
	if v.kind != KindStruct {
		return nil, false
	}
	return v.members, true
}

func (v Value) AsFault() (Fault, bool) {
	if v.kind != KindFault {
		return Fault{}, false
	}
	return v.fault, true
}

// Field looks up a struct member by name. Returns KindNil, false if v is
// not a struct or has no such member.
func (v Value) Field(name string) (Value, bool) {
	if v.kind != KindStruct {
		return Nil(), false
	}
	for _, m := range v.members {
		if m.Name == name {
			return m.Value, true
		}
	}
	return Nil(), false
}

// GoValue renders a Value as a plain Go value (map[string]interface{} for
// structs, []interface{} for arrays) suitable for mapstructure decoding
// into typed structs.
func (v Value) GoValue() interface{} {
	switch v.kind {
	case KindNil:
		return nil
	case KindInt:
		return v.i
	case KindDouble:
		return v.f
	case KindBool:
		return v.b
	case KindString:
		return v.s
	case KindDateTime:
		return v.t
	case KindBinary:
		return v.blob
	case KindArray:
		out := make([]interface{}, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.GoValue()
		}
		return out
	case KindStruct:
		out := make(map[string]interface{}, len(v.members))
		for _, m := range v.members {
			out[m.Name] = m.Value.GoValue()
		}
		return out
	case KindFault:
		return v.fault
	default:
		return nil
	}
}
