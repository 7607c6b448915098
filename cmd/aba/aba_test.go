package aba_test

import (
	"testing"

	"fjacquet/claimflow/cmd/aba"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestABACommand_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range aba.Cmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["generate"])
	assert.True(t, names["submit"])
	assert.True(t, names["clear"])
}

func TestABACommand_Flags(t *testing.T) {
	require.NotNil(t, aba.GenerateCmd.Flags().Lookup("payment"))
	allPending := aba.GenerateCmd.Flags().Lookup("all-pending")
	require.NotNil(t, allPending)
	assert.Equal(t, "false", allPending.DefValue)
	dir := aba.GenerateCmd.Flags().Lookup("dir")
	require.NotNil(t, dir)
	assert.Equal(t, "d", dir.Shorthand)

	require.NotNil(t, aba.SubmitCmd.Flags().Lookup("batch"))
	require.NotNil(t, aba.SubmitCmd.Flags().Lookup("reference"))
	require.NotNil(t, aba.ClearCmd.Flags().Lookup("payment"))
}
