package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bawdo/sqlwindow/nodes"
)

// AssertSQL renders node with v and compares the result with expected.
func AssertSQL(t *testing.T, v nodes.Visitor, node nodes.Node, expected string) {
	t.Helper()
	assert.Equal(t, expected, node.Accept(v))
}

// RequireInvalidArgument fails the test unless err wraps
// nodes.ErrInvalidArgument and its message contains msg.
func RequireInvalidArgument(t *testing.T, err error, msg string) {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, nodes.ErrInvalidArgument)
	assert.Contains(t, err.Error(), msg)
}
