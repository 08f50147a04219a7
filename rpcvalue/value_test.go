package rpcvalue

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, v Value) Value {
	t.Helper()
	payload, err := EncodeResultResponse(v)
	require.NoError(t, err)
	decoded, err := Decode(bytes.NewReader(payload))
	require.NoError(t, err)
	require.Nil(t, decoded.Fault)
	return decoded.Result
}

func TestRoundTripScalars(t *testing.T) {
	cases := []Value{
		Int(-42),
		Double(3.5),
		Bool(true),
		Bool(false),
		String("hello world"),
		Binary([]byte{0x00, 0x01, 0xff}),
	}

	for _, v := range cases {
		got := roundTrip(t, v)
		assert.Equal(t, v.Kind(), got.Kind())
		assert.Equal(t, v.GoValue(), got.GoValue())
	}
}

func TestRoundTripArray(t *testing.T) {
	v := Array([]Value{Int(1), Int(2), Array([]Value{Int(3), Bool(true)})})
	got := roundTrip(t, v)

	arr, ok := got.Array()
	require.True(t, ok)
	require.Len(t, arr, 3)

	inner, ok := arr[2].Array()
	require.True(t, ok)
	n, _ := inner[0].Int()
	assert.Equal(t, int32(3), n)
	b, _ := inner[1].Bool()
	assert.True(t, b)
}

func TestStructMemberOrderPreserved(t *testing.T) {
	v := Struct([]Member{
		{Name: "Zebra", Value: Int(1)},
		{Name: "Apple", Value: Int(2)},
		{Name: "Mango", Value: Int(3)},
	})
	got := roundTrip(t, v)

	members, ok := got.StructMembers()
	require.True(t, ok)
	require.Len(t, members, 3)
	assert.Equal(t, "Zebra", members[0].Name)
	assert.Equal(t, "Apple", members[1].Name)
	assert.Equal(t, "Mango", members[2].Name)
}

func TestDecodeFaultResponse(t *testing.T) {
	payload, err := EncodeFaultResponse(Fault{Code: -32500, String: "unknown method"})
	require.NoError(t, err)

	decoded, err := Decode(bytes.NewReader(payload))
	require.NoError(t, err)
	require.NotNil(t, decoded.Fault)
	assert.Equal(t, int32(-32500), decoded.Fault.Code)
	assert.Equal(t, "unknown method", decoded.Fault.String)
}

func TestDecodeMethodCallAsCallback(t *testing.T) {
	payload, err := EncodeMethodCall("ManiaPlanet.PlayerConnect", []Value{String("login1"), Bool(false)})
	require.NoError(t, err)

	decoded, err := Decode(bytes.NewReader(payload))
	require.NoError(t, err)
	assert.True(t, decoded.IsCall())
	assert.Equal(t, "ManiaPlanet.PlayerConnect", decoded.Method)
	require.Len(t, decoded.Params, 2)
	login, _ := decoded.Params[0].String()
	assert.Equal(t, "login1", login)
}

func TestDecodeMultiParamResponseIsWrappedAsArray(t *testing.T) {
	payload := []byte(`<?xml version="1.0"?><methodResponse><params>` +
		`<param><value><int>1</int></value></param>` +
		`<param><value><int>2</int></value></param>` +
		`</params></methodResponse>`)

	decoded, err := Decode(bytes.NewReader(payload))
	require.NoError(t, err)
	arr, ok := decoded.Result.Array()
	require.True(t, ok)
	require.Len(t, arr, 2)
}

func TestDecodeSingleParamResponseIsUnwrapped(t *testing.T) {
	payload, err := EncodeResultResponse(String("ok"))
	require.NoError(t, err)

	decoded, err := Decode(bytes.NewReader(payload))
	require.NoError(t, err)
	s, ok := decoded.Result.String()
	require.True(t, ok)
	assert.Equal(t, "ok", s)
}

func TestBooleanAcceptsZeroOrOne(t *testing.T) {
	payload := []byte(`<?xml version="1.0"?><methodResponse><params><param><value><boolean>1</boolean></value></param></params></methodResponse>`)
	decoded, err := Decode(bytes.NewReader(payload))
	require.NoError(t, err)
	b, ok := decoded.Result.Bool()
	require.True(t, ok)
	assert.True(t, b)

	payload = []byte(`<?xml version="1.0"?><methodResponse><params><param><value><boolean>0</boolean></value></param></params></methodResponse>`)
	decoded, err = Decode(bytes.NewReader(payload))
	require.NoError(t, err)
	b, ok = decoded.Result.Bool()
	require.True(t, ok)
	assert.False(t, b)
}

func TestDateTimeRoundTripIsOpaque(t *testing.T) {
	now := time.Date(2023, 4, 16, 10, 30, 0, 0, time.UTC)
	v := DateTime(now)
	got := roundTrip(t, v)

	gotTime, ok := got.DateTime()
	require.True(t, ok)
	assert.Equal(t, now, gotTime)
}

func TestFieldLookupOnStruct(t *testing.T) {
	v := Struct([]Member{{Name: "Login", Value: String("login1")}})
	field, ok := v.Field("Login")
	require.True(t, ok)
	s, _ := field.String()
	assert.Equal(t, "login1", s)

	_, ok = v.Field("Missing")
	assert.False(t, ok)
}

func TestEncodeCallEscapesStrings(t *testing.T) {
	payload, err := EncodeCall("Foo", []Value{String("<tag>&\"'")})
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "<tag>&\"'")
	assert.Contains(t, string(payload), "&lt;tag&gt;")
}

func TestEncodeFaultAsArgumentIsRejected(t *testing.T) {
	_, err := EncodeCall("Foo", []Value{FaultValue(1, "x")})
	assert.Error(t, err)
}
