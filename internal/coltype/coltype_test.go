package coltype

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	cases := []struct {
		in        string
		wantTag   Tag
		wantA     int
		wantB     int
	}{
		{"bigint", BigInt, 0, 0},
		{"int unsigned", IntUnsigned, 0, 0},
		{"varchar(20)", VarChar, 20, 0},
		{"nchar(16)", NChar, 16, 0},
		{"decimal(10,2)", Decimal, 10, 2},
		{"decimal", Decimal, 18, 2},
		{"geometry", Geometry, 0, 0},
	}
	for _, c := range cases {
		tag, a, b, err := ParseType(c.in)
		require.NoErrorf(t, err, "ParseType(%q)", c.in)
		require.Equal(t, c.wantTag, tag, c.in)
		require.Equal(t, c.wantA, a, c.in)
		require.Equal(t, c.wantB, b, c.in)
	}
}

func TestParseTypeRejectsUnknown(t *testing.T) {
	_, _, _, err := ParseType("not-a-type")
	require.Error(t, err)
}

func TestIntHandlerRoundTrip(t *testing.T) {
	h, err := HandlerFor(Config{Tag: BigInt})
	require.NoError(t, err)

	buf := make([]byte, BigInt.FixedSizeBytes())
	require.NoError(t, h.ToFixed(buf, int64(-12345)))

	got, err := h.FromFixed(buf)
	require.NoError(t, err)
	require.Equal(t, int64(-12345), got)
}

func TestUnsignedIntHandlerRejectsOutOfRange(t *testing.T) {
	h, err := HandlerFor(Config{Tag: TinyIntUnsigned})
	require.NoError(t, err)

	buf := make([]byte, TinyIntUnsigned.FixedSizeBytes())
	require.Error(t, h.ToFixed(buf, uint64(300)))
}

func TestDecimalRoundTrip(t *testing.T) {
	h, err := HandlerFor(Config{Tag: Decimal, Scale: 2})
	require.NoError(t, err)

	d, err := ParseDec128("-123.45", 2)
	require.NoError(t, err)

	buf := make([]byte, Decimal.FixedSizeBytes())
	require.NoError(t, h.ToFixed(buf, d))

	got, err := h.FromFixed(buf)
	require.NoError(t, err)
	require.Equal(t, "-123.45", got.(Dec128).String())
}

func TestNCharRoundTrip(t *testing.T) {
	h, err := HandlerFor(Config{Tag: NChar, MaxLength: 8})
	require.NoError(t, err)

	enc, err := h.ToVar(8, "héllo")
	require.NoError(t, err)

	got, err := h.FromVar(enc)
	require.NoError(t, err)
	require.Equal(t, "héllo", got)
}

func TestVarCharTruncatesOverLength(t *testing.T) {
	h, err := HandlerFor(Config{Tag: VarChar, MaxLength: 4})
	require.NoError(t, err)

	enc, err := h.ToVar(4, "toolong")
	require.NoError(t, err)
	require.Equal(t, "tool", string(enc))
}
