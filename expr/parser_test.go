package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snixtho/clifga/rpcvalue"
)

func TestParseSimpleCall(t *testing.T) {
	method, args, err := Parse("GetVersion")
	require.NoError(t, err)
	assert.Equal(t, "GetVersion", method)
	assert.Empty(t, args)
}

func TestParseScalarArgs(t *testing.T) {
	method, args, err := Parse(`ChatSendServerMessage "hello" -4.5 true 3`)
	require.NoError(t, err)
	assert.Equal(t, "ChatSendServerMessage", method)
	require.Len(t, args, 4)

	s, ok := args[0].String()
	require.True(t, ok)
	assert.Equal(t, "hello", s)

	f, ok := args[1].Double()
	require.True(t, ok)
	assert.Equal(t, -4.5, f)

	b, ok := args[2].Bool()
	require.True(t, ok)
	assert.True(t, b)

	n, ok := args[3].Int()
	require.True(t, ok)
	assert.Equal(t, int32(3), n)
}

func TestParseNestedArrayExample(t *testing.T) {
	method, args, err := Parse(`SetMatchSettings "map" [1,2,[3,true]] -4.5`)
	require.NoError(t, err)
	assert.Equal(t, "SetMatchSettings", method)
	require.Len(t, args, 3)

	arr, ok := args[1].Array()
	require.True(t, ok)
	require.Len(t, arr, 3)

	n0, _ := arr[0].Int()
	assert.Equal(t, int32(1), n0)
	n1, _ := arr[1].Int()
	assert.Equal(t, int32(2), n1)

	inner, ok := arr[2].Array()
	require.True(t, ok)
	require.Len(t, inner, 2)
	n2, _ := inner[0].Int()
	assert.Equal(t, int32(3), n2)
	b, _ := inner[1].Bool()
	assert.True(t, b)

	f, ok := args[2].Double()
	require.True(t, ok)
	assert.Equal(t, -4.5, f)
}

func TestParseEmptyArray(t *testing.T) {
	_, args, err := Parse(`SetCallVoteRatios []`)
	require.NoError(t, err)
	require.Len(t, args, 1)
	arr, ok := args[0].Array()
	require.True(t, ok)
	assert.Empty(t, arr)
}

func TestParseStringEscape(t *testing.T) {
	_, args, err := Parse(`ChatSendServerMessage "say \"hi\""`)
	require.NoError(t, err)
	require.Len(t, args, 1)
	s, _ := args[0].String()
	assert.Equal(t, `say "hi"`, s)
}

func TestParseBackslashNotFollowedByQuoteIsLiteral(t *testing.T) {
	_, args, err := Parse(`Foo "a\nb"`)
	require.NoError(t, err)
	s, _ := args[0].String()
	assert.Equal(t, `a\nb`, s)
}

func TestParseTrueAsIdentifierPrefixIsIdentifier(t *testing.T) {
	_, args, err := Parse(`Foo trueish`)
	require.NoError(t, err)
	require.Len(t, args, 1)
	s, ok := args[0].String()
	require.True(t, ok)
	assert.Equal(t, "trueish", s)
}

func TestParseMalformedNumberSecondDot(t *testing.T) {
	_, _, err := Parse(`Foo 1.2.3`)
	require.Error(t, err)
	var malformed *MalformedNumberError
	require.ErrorAs(t, err, &malformed)
}

func TestParseUnterminatedString(t *testing.T) {
	_, _, err := Parse(`Foo "unterminated`)
	require.Error(t, err)
	var unterminated *UnterminatedStringError
	require.ErrorAs(t, err, &unterminated)
}

func TestParseFirstTokenNotIdentifier(t *testing.T) {
	_, _, err := Parse(`"foo" bar`)
	require.Error(t, err)
	var unexpected *UnexpectedTokenError
	require.ErrorAs(t, err, &unexpected)
}

func TestParseStrayArraySeparatorAtTopLevel(t *testing.T) {
	_, _, err := Parse(`Foo bar,baz`)
	require.Error(t, err)
}

func TestParseTrailingSeparatorInArray(t *testing.T) {
	_, _, err := Parse(`Foo [1,2,]`)
	require.Error(t, err)
}

func TestParseSeparatorBeforeFirstElement(t *testing.T) {
	_, _, err := Parse(`Foo [,1,2]`)
	require.Error(t, err)
}

func TestParseMissingWhitespaceBetweenArrayElements(t *testing.T) {
	_, _, err := Parse(`Foo [1 2]`)
	require.Error(t, err)
}

func TestParseUnexpectedEndOfInput(t *testing.T) {
	_, _, err := Parse(`Foo [1,2`)
	require.Error(t, err)
	var eoi *UnexpectedEndOfInputError
	require.ErrorAs(t, err, &eoi)
}

func TestParseRoundTripEncodesThroughRpcValue(t *testing.T) {
	_, args, err := Parse(`Foo 42`)
	require.NoError(t, err)
	payload, err := rpcvalue.EncodeCall("Foo", args)
	require.NoError(t, err)
	assert.Contains(t, string(payload), "<int>42</int>")
}
