package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	SetVersion("1.2.3")
	cmd := newVersionCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "mcptest version 1.2.3\n", buf.String())
}

func TestSetVersion(t *testing.T) {
	SetVersion("0.9.0")
	assert.Equal(t, "0.9.0", GetVersion())
}
