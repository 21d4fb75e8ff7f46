package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFallbacks(t *testing.T) {
	t.Setenv("CALLTRACE_TEST_INT", "not-a-number")
	t.Setenv("CALLTRACE_TEST_FLOAT", "0.25")
	t.Setenv("CALLTRACE_TEST_DUR", "250ms")
	t.Setenv("CALLTRACE_TEST_BOOL", "true")

	require.Equal(t, "fallback", Str("CALLTRACE_TEST_UNSET", "fallback"))
	require.Equal(t, 7, Int("CALLTRACE_TEST_INT", 7))
	require.InDelta(t, 0.25, Float("CALLTRACE_TEST_FLOAT", 1), 1e-9)
	require.Equal(t, 250*time.Millisecond, Duration("CALLTRACE_TEST_DUR", time.Second))
	require.True(t, Bool("CALLTRACE_TEST_BOOL", false))
	require.Equal(t, time.Second, Duration("CALLTRACE_TEST_UNSET", time.Second))
}
