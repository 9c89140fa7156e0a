package main

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"b3db/engine"
)

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e, err := engine.Open(afero.NewMemMapFs(), "test.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestDoMetaCommandExit(t *testing.T) {
	e := newTestEngine(t)
	require.Equal(t, MetaCommandExit, doMetaCommand(e, ".exit"))
}

func TestDoMetaCommandUnrecognized(t *testing.T) {
	e := newTestEngine(t)
	require.Equal(t, MetaCommandUnrecognizedCommand, doMetaCommand(e, ".bogus"))
}

func TestDoMetaCommandConstantsAndBtreeSucceed(t *testing.T) {
	e := newTestEngine(t)
	require.Equal(t, MetaCommandSuccess, doMetaCommand(e, ".constants"))
	require.Equal(t, MetaCommandSuccess, doMetaCommand(e, ".btree"))
}
