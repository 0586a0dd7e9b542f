package prompts

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestForSessionDefaults(t *testing.T) {
	got := ForSession("", "", "")
	require.Equal(t, DefaultSystem, got)
}

func TestForSessionAppendsIdentity(t *testing.T) {
	got := ForSession("Be terse.", "Alex", "City Power")
	require.Equal(t, "Be terse. Your `user_id` is `Alex`. Your bill provider is `City Power`.", got)

	got = ForSession("", "Alex", "")
	require.Equal(t, DefaultSystem+" Your `user_id` is `Alex`.", got)
}
