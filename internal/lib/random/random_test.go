package random

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSixDigitCode(t *testing.T) {
	seen := make(map[string]struct{})

	for range 200 {
		code, err := SixDigitCode()
		require.NoError(t, err)
		require.Len(t, code, 6)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)

		seen[code] = struct{}{}
	}

	// 200 выпусков почти наверняка дают больше одного уникального кода.
	assert.Greater(t, len(seen), 1)
}

func TestHex(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantLen int
	}{
		{name: "reset token size", size: 32, wantLen: 64},
		{name: "small size", size: 8, wantLen: 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Hex(tt.size)
			require.NoError(t, err)
			assert.Len(t, got, tt.wantLen)

			other, err := Hex(tt.size)
			require.NoError(t, err)
			assert.NotEqual(t, got, other)
		})
	}
}
