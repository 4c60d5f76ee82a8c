package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID(t *testing.T) {
	tests := []struct {
		name string
		data string
		id   uint64
	}{
		{"empty string", "", 0xef46db3751d8e999},
		{"short string", "test", 0x4fdcca5ddb678139},
		{"long string", "this is a longer test string to hash", 0x69275f7f7ee59dbd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.id, ID(tt.data))
			assert.Equal(t, tt.id, Sum([]byte(tt.data)))
		})
	}
}

func TestFingerprint(t *testing.T) {
	a := NewFingerprint().AddString("-0.75").AddString("0").AddUint64(1000).AddFloat64(2).AddBool(true).Sum64()
	b := NewFingerprint().AddString("-0.75").AddString("0").AddUint64(1000).AddFloat64(2).AddBool(true).Sum64()
	require.Equal(t, a, b)

	require.NotEqual(t,
		NewFingerprint().AddString("ab").AddString("c").Sum64(),
		NewFingerprint().AddString("a").AddString("bc").Sum64())
	require.NotEqual(t,
		NewFingerprint().AddBool(true).Sum64(),
		NewFingerprint().AddBool(false).Sum64())
	require.NotEqual(t, a, NewFingerprint().AddString("-0.75").AddString("0").AddUint64(1001).AddFloat64(2).AddBool(true).Sum64())
}

func BenchmarkFingerprint(b *testing.B) {
	for b.Loop() {
		NewFingerprint().AddString("-1.7499999999999999999").AddString("0.0000000001").AddUint64(5000).Sum64()
	}
}
