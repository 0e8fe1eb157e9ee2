package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"demos/internal/config"
	"demos/internal/domain"
	"demos/internal/engine"
)

func TestOpenWithoutConfigUsesDefaults(t *testing.T) {
	ws := t.TempDir()
	rt, err := Open(context.Background(), Options{Workspace: ws, LogLevel: "error"})
	require.NoError(t, err)
	defer rt.Close()

	assert.Equal(t, "America/New_York", rt.Engine.Clock.Loc.String())
	assert.FileExists(t, filepath.Join(ws, ".demos", "demos.db"))

	agg, err := rt.Engine.CreateApplication(context.Background(), engine.ApplicationCreateOptions{Name: "Bootstrap", ActorID: "tester"})
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseStarted, agg.Phase(domain.PhaseConcept))
}

func TestOpenReadsWorkspaceConfig(t *testing.T) {
	ws := t.TempDir()
	yml := "business:\n  timezone: America/Chicago\nlog:\n  level: warn\n  format: console\n"
	require.NoError(t, os.WriteFile(config.Path(ws), []byte(yml), 0o644))

	rt, err := Open(context.Background(), Options{Workspace: ws})
	require.NoError(t, err)
	defer rt.Close()
	assert.Equal(t, "America/Chicago", rt.Engine.Clock.Loc.String())
	assert.Equal(t, "console", rt.Config.Log.Format)
}

func TestOpenRejectsBadOverrides(t *testing.T) {
	ws := t.TempDir()
	_, err := Open(context.Background(), Options{Workspace: ws, Timezone: "Mars/Olympus"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timezone")

	_, err = Open(context.Background(), Options{Workspace: ws, Driver: "postgres"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dsn")
}
