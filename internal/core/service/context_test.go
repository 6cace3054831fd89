package service

import (
	"context"
	"testing"
)

// testContext returns a context canceled when the test finishes, like
// testing.T.Context on newer Go releases.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
