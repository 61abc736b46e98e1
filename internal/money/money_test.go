package money

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestThousands(t *testing.T) {
	tests := map[int64]string{
		0:        "0",
		999:      "999",
		1000:     "1.000",
		4000:     "4.000",
		50000:    "50.000",
		1234567:  "1.234.567",
		-25000:   "-25.000",
		10000000: "10.000.000",
	}
	for in, want := range tests {
		require.Equal(t, want, Thousands(in), "input %d", in)
	}
}

func TestCLP(t *testing.T) {
	require.Equal(t, "$4.000", CLP(4000))
	require.Equal(t, "$0", CLP(0))
}
