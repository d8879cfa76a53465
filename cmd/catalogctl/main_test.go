package main

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Structure(t *testing.T) {
	root := newRootCmd()

	migrate, _, err := root.Find([]string{"migrate", "down"})
	require.NoError(t, err)
	assert.Equal(t, "down", migrate.Name())
	steps := migrate.Flags().Lookup("steps")
	require.NotNil(t, steps)
	assert.Equal(t, "1", steps.DefValue)

	seedCmd, _, err := root.Find([]string{"seed"})
	require.NoError(t, err)
	assert.NotNil(t, seedCmd.Flags().Lookup("file"))
}

func TestRootCmd_FailsWithoutDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	require.NoError(t, os.Unsetenv("DATABASE_URL"))
	root := newRootCmd()
	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs([]string{"--env-file", "", "migrate", "up"})

	err := root.Execute()
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestMigrateDown_RejectsZeroSteps(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:1/unused")
	root := newRootCmd()
	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs([]string{"--env-file", "", "migrate", "down", "--steps", "0"})

	err := root.Execute()
	assert.ErrorContains(t, err, "--steps")
}
