package encoding

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncode_HelloWorld(t *testing.T) {
	got, err := Encode([]byte("Hello World"))
	require.NoError(t, err)
	require.Equal(t, "SGVsbG8gV29ybGQ=", got)
}

func TestEncode_Empty(t *testing.T) {
	_, err := Encode(nil)
	require.ErrorIs(t, err, ErrEmptyInput)
}

func TestEncode_TooLarge(t *testing.T) {
	// 15 MiB + 1 байт дают больше 20 MiB base64
	data := make([]byte, 15*1024*1024+1)
	_, err := Encode(data)
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestEncode_MatchesStdlibAcrossChunks(t *testing.T) {
	for _, n := range []int{1, 2, 3, chunkSize - 1, chunkSize, chunkSize + 1, 3*chunkSize + 7} {
		data := bytes.Repeat([]byte{0xFB, 0xFF, 0x01, 'a'}, n/4+1)[:n]

		got, err := Encode(data)
		require.NoError(t, err)
		require.Equal(t, base64.StdEncoding.EncodeToString(data), got, "n=%d", n)
		require.True(t, Validate(got), "n=%d", n)
	}
}

func TestChecked_RejectsMalformedOutput(t *testing.T) {
	got, err := checked("SGVsbG8gV29ybGQ=")
	require.NoError(t, err)
	require.Equal(t, "SGVsbG8gV29ybGQ=", got)

	for _, bad := range []string{"", "SGVsbG8", "SG=sbG8=", "SGVs*G8="} {
		_, err := checked(bad)
		require.ErrorIs(t, err, ErrMalformed, bad)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"valid", "SGVsbG8gV29ybGQ=", true},
		{"two padding", "SGVsbG8=", true},
		{"no padding", "SGVs", true},
		{"empty", "", false},
		{"bad length", "SGVsbG8", false},
		{"bad char", "SGVs*G8=", false},
		{"whitespace", "SGVs bG8", false},
		{"url alphabet", "SGV-bG8_", false},
		{"padding in the middle", "SG=sbG8=", false},
		{"three padding", "S===", false},
		{"padding only", "====", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Validate(tt.input))
		})
	}
}
