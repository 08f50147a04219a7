package rpcvalue

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
)

const iso8601Layout = "20060102T15:04:05"

// EncodeCall renders a methodCall payload for method with the given
// arguments, in standard XML-RPC 1.0 encoding.
func EncodeCall(method string, args []Value) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString("<methodCall><methodName>")
	if err := xml.EscapeText(&buf, []byte(method)); err != nil {
		return nil, err
	}
	buf.WriteString("</methodName><params>")
	for _, arg := range args {
		buf.WriteString("<param>")
		if err := writeValue(&buf, arg); err != nil {
			return nil, err
		}
		buf.WriteString("</param>")
	}
	buf.WriteString("</params></methodCall>")
	return buf.Bytes(), nil
}

// EncodeValue renders a single <value>...</value> element, exposed for
// tests exercising the round-trip law decode(encode(x)) == x.
func EncodeValue(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, v Value) error {
	buf.WriteString("<value>")
	switch v.kind {
	case KindNil:
		buf.WriteString("<nil/>")
	case KindInt:
		fmt.Fprintf(buf, "<int>%d</int>", v.i)
	case KindDouble:
		fmt.Fprintf(buf, "<double>%s</double>", formatDouble(v.f))
	case KindBool:
		if v.b {
			buf.WriteString("<boolean>1</boolean>")
		} else {
			buf.WriteString("<boolean>0</boolean>")
		}
	case KindString:
		buf.WriteString("<string>")
		if err := xml.EscapeText(buf, []byte(v.s)); err != nil {
			return err
		}
		buf.WriteString("</string>")
	case KindDateTime:
		buf.WriteString("<dateTime.iso8601>")
		buf.WriteString(v.t.UTC().Format(iso8601Layout))
		buf.WriteString("</dateTime.iso8601>")
	case KindBinary:
		buf.WriteString("<base64>")
		buf.WriteString(base64.StdEncoding.EncodeToString(v.blob))
		buf.WriteString("</base64>")
	case KindArray:
		buf.WriteString("<array><data>")
		for _, e := range v.arr {
			if err := writeValue(buf, e); err != nil {
				return err
			}
		}
		buf.WriteString("</data></array>")
	case KindStruct:
		buf.WriteString("<struct>")
		for _, m := range v.members {
			buf.WriteString("<member><name>")
			if err := xml.EscapeText(buf, []byte(m.Name)); err != nil {
				return err
			}
			buf.WriteString("</name>")
			if err := writeValue(buf, m.Value); err != nil {
				return err
			}
			buf.WriteString("</member>")
		}
		buf.WriteString("</struct>")
	case KindFault:
		return fmt.Errorf("rpcvalue: cannot encode a fault as a parameter value")
	default:
		return fmt.Errorf("rpcvalue: unknown kind %v", v.kind)
	}
	buf.WriteString("</value>")
	return nil
}

func formatDouble(f float64) string {
	s := fmt.Sprintf("%g", f)
	return s
}

// EncodeFaultResponse renders a methodResponse carrying a fault, mainly
// useful for building test fixtures / mock servers for the dispatch engine.
func EncodeFaultResponse(fault Fault) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString("<methodResponse><fault>")
	members := []Member{
		{Name: "faultCode", Value: Int(fault.Code)},
		{Name: "faultString", Value: String(fault.String)},
	}
	if err := writeValue(&buf, Struct(members)); err != nil {
		return nil, err
	}
	buf.WriteString("</fault></methodResponse>")
	return buf.Bytes(), nil
}

// EncodeResultResponse renders a methodResponse carrying a single result
// value, used by mock servers in tests.
func EncodeResultResponse(result Value) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString("<methodResponse><params><param>")
	if err := writeValue(&buf, result); err != nil {
		return nil, err
	}
	buf.WriteString("</param></params></methodResponse>")
	return buf.Bytes(), nil
}

// EncodeMethodCall renders a server-pushed methodCall (a callback frame),
// used by mock servers in tests that exercise callback dispatch.
func EncodeMethodCall(method string, args []Value) ([]byte, error) {
	return EncodeCall(method, args)
}

