package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nbflow.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())

	cfg, err := Load(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad(t *testing.T) {
	t.Setenv("NBFLOW_TEST_HOST", "kernel.internal")

	path := writeConfig(t, `
engine {
  transport            = "socketio"
  url                  = "https://${env.NBFLOW_TEST_HOST}:8443/comm"
  namespace            = "/ipyflow"
  event                = "frame"
  dial_timeout         = "3s"
  insecure_skip_verify = true
}

log {
  level = "debug"
}

healthcheck_port = 9090
`)

	cfg, err := Load(context.Background(), path)
	require.NoError(t, err)

	want := Default()
	want.Engine = Engine{
		Transport:          TransportSocketIO,
		URL:                "https://kernel.internal:8443/comm",
		Namespace:          "/ipyflow",
		Event:              "frame",
		CommTarget:         "ipyflow",
		DialTimeout:        3 * time.Second,
		InsecureSkipVerify: true,
	}
	want.Log.Level = "debug"
	want.HealthcheckPort = 9090

	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	testCases := []struct {
		name        string
		content     string
		invalid     bool
		errContains string
	}{
		{
			name:        "syntax error",
			content:     `engine {`,
			errContains: "failed to parse config file",
		},
		{
			name:        "unknown attribute",
			content:     `engine { colour = "blue" }`,
			errContains: "failed to decode config file",
		},
		{
			name:        "unknown env variable",
			content:     `engine { url = env.NBFLOW_SURELY_UNSET_VARIABLE }`,
			errContains: "failed to decode config file",
		},
		{
			name:        "bad duration",
			content:     `engine { dial_timeout = "soon" }`,
			invalid:     true,
			errContains: "engine.dial_timeout",
		},
		{
			name:        "bad transport",
			content:     `engine { transport = "carrier-pigeon" }`,
			invalid:     true,
			errContains: "engine.transport",
		},
		{
			name:        "relative url",
			content:     `engine { url = "localhost:8888" }`,
			invalid:     true,
			errContains: "engine.url",
		},
		{
			name:        "bad level",
			content:     `log { level = "loud" }`,
			invalid:     true,
			errContains: "log.level",
		},
		{
			name:        "bad format",
			content:     `log { format = "xml" }`,
			invalid:     true,
			errContains: "log.format",
		},
		{
			name:        "bad port",
			content:     `healthcheck_port = 70000`,
			invalid:     true,
			errContains: "healthcheck_port",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(context.Background(), writeConfig(t, tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errContains)
			if tc.invalid {
				assert.ErrorIs(t, err, ErrInvalid)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.hcl"))
	require.Error(t, err)
}

func TestEvalContext(t *testing.T) {
	ctx := evalContext([]string{"A=1", "B=x=y", "=skipped", "NOEQUALS"})
	env := ctx.Variables["env"]

	assert.Equal(t, "1", env.GetAttr("A").AsString())
	assert.Equal(t, "x=y", env.GetAttr("B").AsString())
	assert.Len(t, env.Type().AttributeTypes(), 2)
}
