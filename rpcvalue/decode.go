package rpcvalue

import (
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Decoded is the result of decoding one XML-RPC payload: either a
// methodCall (a server-pushed callback), a methodResponse carrying a
// result, or a methodResponse carrying a fault.
type Decoded struct {
	// Method is non-empty when the payload was a methodCall.
	Method string
	Params []Value

	// Result is the (possibly unwrapped) value of a methodResponse.
	// Unset (KindNil) when Method is non-empty or Fault is non-nil.
	Result Value

	// Fault is non-nil when the payload was a methodResponse fault.
	Fault *Fault
}

// IsCall reports whether the decoded payload is a server-pushed methodCall.
func (d *Decoded) IsCall() bool { return d.Method != "" }

// Decode parses a single XML-RPC payload (methodCall, methodResponse, or
// fault) from r. Struct member order is preserved exactly as encountered.
func Decode(r io.Reader) (*Decoded, error) {
	dec := xml.NewDecoder(r)

	root, err := nextElement(dec)
	if err != nil {
		return nil, err
	}

	switch root.Name.Local {
	case "methodCall":
		return decodeMethodCall(dec)
	case "methodResponse":
		return decodeMethodResponse(dec)
	default:
		return nil, fmt.Errorf("rpcvalue: unexpected root element %q", root.Name.Local)
	}
}

func decodeMethodCall(dec *xml.Decoder) (*Decoded, error) {
	var method string
	var params []Value

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "methodName":
				name, _, err := readText(dec)
				if err != nil {
					return nil, err
				}
				method = name
			case "params":
				ps, err := readParams(dec)
				if err != nil {
					return nil, err
				}
				params = ps
			default:
				if err := skipElement(dec); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "methodCall" {
				if method == "" {
					return nil, fmt.Errorf("rpcvalue: methodCall missing methodName")
				}
				return &Decoded{Method: method, Params: params}, nil
			}
		}
	}
}

func decodeMethodResponse(dec *xml.Decoder) (*Decoded, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "params":
				params, err := readParams(dec)
				if err != nil {
					return nil, err
				}
				result := Nil()
				switch len(params) {
				case 0:
					result = Nil()
				case 1:
					result = params[0]
				default:
					result = Array(params)
				}
				_ = drainUntil(dec, "methodResponse")
				return &Decoded{Result: result}, nil
			case "fault":
				v, err := readValueElement(dec)
				if err != nil {
					return nil, err
				}
				if err := expectEnd(dec, "fault"); err != nil {
					return nil, err
				}
				members, ok := v.StructMembers()
				if !ok {
					return nil, fmt.Errorf("rpcvalue: fault value is not a struct")
				}
				var f Fault
				for _, m := range members {
					switch m.Name {
					case "faultCode":
						if n, ok := m.Value.Int(); ok {
							f.Code = n
						}
					case "faultString":
						if s, ok := m.Value.String(); ok {
							f.String = s
						}
					}
				}
				_ = drainUntil(dec, "methodResponse")
				return &Decoded{Fault: &f}, nil
			default:
				if err := skipElement(dec); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "methodResponse" {
				return &Decoded{Result: Nil()}, nil
			}
		}
	}
}

func readParams(dec *xml.Decoder) ([]Value, error) {
	var params []Value
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "param" {
				return nil, fmt.Errorf("rpcvalue: expected <param>, got <%s>", t.Name.Local)
			}
			v, err := readValueElement(dec)
			if err != nil {
				return nil, err
			}
			if err := expectEnd(dec, "param"); err != nil {
				return nil, err
			}
			params = append(params, v)
		case xml.EndElement:
			if t.Name.Local == "params" {
				return params, nil
			}
		}
	}
}

// readValueElement reads a <value>...</value> element, including its
// opening tag, and returns the parsed Value.
func readValueElement(dec *xml.Decoder) (Value, error) {
	if err := expectStart(dec, "value"); err != nil {
		return Nil(), err
	}

	tok, err := dec.Token()
	if err != nil {
		return Nil(), err
	}

	switch t := tok.(type) {
	case xml.CharData:
		text := string(t)
		end, err := dec.Token()
		if err != nil {
			return Nil(), err
		}
		if e, ok := end.(xml.EndElement); !ok || e.Name.Local != "value" {
			return Nil(), fmt.Errorf("rpcvalue: malformed implicit string value")
		}
		return String(text), nil
	case xml.EndElement:
		if t.Name.Local == "value" {
			return String(""), nil
		}
		return Nil(), fmt.Errorf("rpcvalue: unexpected end element %q in value", t.Name.Local)
	case xml.StartElement:
		v, err := readTypedValue(dec, t.Name.Local)
		if err != nil {
			return Nil(), err
		}
		if err := expectEnd(dec, "value"); err != nil {
			return Nil(), err
		}
		return v, nil
	default:
		return Nil(), fmt.Errorf("rpcvalue: unexpected token in value")
	}
}

func readTypedValue(dec *xml.Decoder, typeName string) (Value, error) {
	switch typeName {
	case "i4", "int":
		s, _, err := readText(dec)
		if err != nil {
			return Nil(), err
		}
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
		if err != nil {
			return Nil(), fmt.Errorf("rpcvalue: malformed int %q: %w", s, err)
		}
		return Int(int32(n)), nil
	case "double":
		s, _, err := readText(dec)
		if err != nil {
			return Nil(), err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return Nil(), fmt.Errorf("rpcvalue: malformed double %q: %w", s, err)
		}
		return Double(f), nil
	case "boolean":
		s, _, err := readText(dec)
		if err != nil {
			return Nil(), err
		}
		s = strings.TrimSpace(s)
		return Bool(s == "1" || strings.EqualFold(s, "true")), nil
	case "string":
		s, _, err := readText(dec)
		if err != nil {
			return Nil(), err
		}
		return String(s), nil
	case "dateTime.iso8601":
		s, _, err := readText(dec)
		if err != nil {
			return Nil(), err
		}
		t, err := time.Parse(iso8601Layout, strings.TrimSpace(s))
		if err != nil {
			// dates are opaque per the wire contract; keep the zero time
			// rather than failing decode on an unrecognized variant.
			t = time.Time{}
		}
		return DateTime(t), nil
	case "base64":
		s, _, err := readText(dec)
		if err != nil {
			return Nil(), err
		}
		b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
		if err != nil {
			return Nil(), fmt.Errorf("rpcvalue: malformed base64: %w", err)
		}
		return Binary(b), nil
	case "nil":
		if err := expectEnd(dec, "nil"); err != nil {
			return Nil(), err
		}
		return Nil(), nil
	case "array":
		return readArrayBody(dec)
	case "struct":
		return readStructBody(dec)
	default:
		return Nil(), fmt.Errorf("rpcvalue: unknown value type %q", typeName)
	}
}

func readArrayBody(dec *xml.Decoder) (Value, error) {
	if err := expectStart(dec, "data"); err != nil {
		return Nil(), err
	}
	var elems []Value
	for {
		tok, err := dec.Token()
		if err != nil {
			return Nil(), err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "value" {
				return Nil(), fmt.Errorf("rpcvalue: expected <value> in array, got <%s>", t.Name.Local)
			}
			v, err := readValueElementAfterStart(dec)
			if err != nil {
				return Nil(), err
			}
			elems = append(elems, v)
		case xml.EndElement:
			if t.Name.Local == "data" {
				if err := expectEnd(dec, "array"); err != nil {
					return Nil(), err
				}
				return Array(elems), nil
			}
		}
	}
}

// readValueElementAfterStart parses a <value> element whose opening tag
// has already been consumed by the caller's token loop.
func readValueElementAfterStart(dec *xml.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Nil(), err
	}
	switch t := tok.(type) {
	case xml.CharData:
		text := string(t)
		end, err := dec.Token()
		if err != nil {
			return Nil(), err
		}
		if e, ok := end.(xml.EndElement); !ok || e.Name.Local != "value" {
			return Nil(), fmt.Errorf("rpcvalue: malformed implicit string value")
		}
		return String(text), nil
	case xml.EndElement:
		if t.Name.Local == "value" {
			return String(""), nil
		}
		return Nil(), fmt.Errorf("rpcvalue: unexpected end element %q in value", t.Name.Local)
	case xml.StartElement:
		v, err := readTypedValue(dec, t.Name.Local)
		if err != nil {
			return Nil(), err
		}
		if err := expectEnd(dec, "value"); err != nil {
			return Nil(), err
		}
		return v, nil
	default:
		return Nil(), fmt.Errorf("rpcvalue: unexpected token in value")
	}
}

func readStructBody(dec *xml.Decoder) (Value, error) {
	var members []Member
	for {
		tok, err := dec.Token()
		if err != nil {
			return Nil(), err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "member" {
				return Nil(), fmt.Errorf("rpcvalue: expected <member> in struct, got <%s>", t.Name.Local)
			}
			name, v, err := readMember(dec)
			if err != nil {
				return Nil(), err
			}
			members = append(members, Member{Name: name, Value: v})
		case xml.EndElement:
			if t.Name.Local == "struct" {
				return Struct(members), nil
			}
		}
	}
}

func readMember(dec *xml.Decoder) (string, Value, error) {
	if err := expectStart(dec, "name"); err != nil {
		return "", Nil(), err
	}
	name, _, err := readText(dec)
	if err != nil {
		return "", Nil(), err
	}
	v, err := readValueElement(dec)
	if err != nil {
		return "", Nil(), err
	}
	if err := expectEnd(dec, "member"); err != nil {
		return "", Nil(), err
	}
	return name, v, nil
}

// --- low-level token helpers -------------------------------------------

func nextElement(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			return xml.StartElement{}, err
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se, nil
		}
	}
}

func expectStart(dec *xml.Decoder, name string) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	se, ok := tok.(xml.StartElement)
	if !ok || se.Name.Local != name {
		return fmt.Errorf("rpcvalue: expected <%s>", name)
	}
	return nil
}

func expectEnd(dec *xml.Decoder, name string) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	ee, ok := tok.(xml.EndElement)
	if !ok || ee.Name.Local != name {
		return fmt.Errorf("rpcvalue: expected </%s>, got %#v", name, tok)
	}
	return nil
}

// readText reads character data up to and including the element's closing
// tag, returning the text and the end element that terminated it. It
// assumes the element has no nested child elements.
func readText(dec *xml.Decoder) (string, xml.EndElement, error) {
	var sb strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", xml.EndElement{}, err
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.EndElement:
			return sb.String(), t, nil
		}
	}
}

func skipElement(dec *xml.Decoder) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return nil
}

func drainUntil(dec *xml.Decoder, name string) error {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if ee, ok := tok.(xml.EndElement); ok && ee.Name.Local == name {
			return nil
		}
	}
}
