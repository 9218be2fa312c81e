package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mustState(t *testing.T, ch <-chan State, match func(State) bool) State {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case st, ok := <-ch:
			require.True(t, ok, "subscription closed")
			if match(st) {
				return st
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	require.FailNow(t, "expected state not published")
	return State{}
}
