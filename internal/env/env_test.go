package env

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStr(t *testing.T) {
	t.Setenv("ENVTEST_STR", "hello")
	require.Equal(t, "hello", Str("ENVTEST_STR", "fallback"))
	require.Equal(t, "fallback", Str("ENVTEST_STR_UNSET", "fallback"))
}

func TestInt(t *testing.T) {
	t.Setenv("ENVTEST_INT", "42")
	require.Equal(t, 42, Int("ENVTEST_INT", 7))
	require.Equal(t, 7, Int("ENVTEST_INT_UNSET", 7))

	// Garbage falls back rather than erroring.
	t.Setenv("ENVTEST_INT_BAD", "forty-two")
	require.Equal(t, 7, Int("ENVTEST_INT_BAD", 7))
}

func TestFloat(t *testing.T) {
	t.Setenv("ENVTEST_FLOAT", "0.85")
	require.Equal(t, 0.85, Float("ENVTEST_FLOAT", 0.5))
	require.Equal(t, 0.5, Float("ENVTEST_FLOAT_UNSET", 0.5))

	t.Setenv("ENVTEST_FLOAT_BAD", "high")
	require.Equal(t, 0.5, Float("ENVTEST_FLOAT_BAD", 0.5))
}
