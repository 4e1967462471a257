package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/cruise-in-go/pkg/config"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/cruiseconfig"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/cruiseconfig/mother"
)

func paramCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringArrayP("param", "P", nil, "")
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestGlobalParams(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    cruiseconfig.ParamsConfig
		wantErr string
	}{
		{name: "none", args: nil, want: nil},
		{
			name: "repeated",
			args: []string{"-P", "env=staging", "--param", "url=http://x?a=b"},
			want: cruiseconfig.ParamsConfig{cruiseconfig.NewParam("env", "staging"), cruiseconfig.NewParam("url", "http://x?a=b")},
		},
		{name: "empty value", args: []string{"-P", "env="}, want: cruiseconfig.ParamsConfig{cruiseconfig.NewParam("env", "")}},
		{name: "missing equals", args: []string{"-P", "env"}, wantErr: `invalid parameter "env"`},
		{name: "missing name", args: []string{"-P", "=x"}, wantErr: `invalid parameter "=x"`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			params, err := globalParams(paramCommand(t, tc.args...))
			if tc.wantErr != "" {
				assert.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, params)
		})
	}
}

func TestNewDataSourceResolvesGlobalParams(t *testing.T) {
	t.Setenv("CRUISE_CONFIG_PATH", t.TempDir())
	t.Setenv("CRUISE_DATA_KEY_FILE", "")
	require.NoError(t, config.Reload())

	cfg := mother.Config(mother.Pipeline("build", "dist"))
	cfg.Groups[0].Pipelines[0].LabelTemplate = "#{env}-${COUNT}"
	content, err := cruiseconfig.Marshal(cfg)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "cruise-config.yml")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	ds, err := newDataSource(paramCommand(t, "-P", "env=prod"), path)
	require.NoError(t, err)
	h, err := ds.Load()
	require.NoError(t, err)

	assert.Equal(t, "prod-${COUNT}", h.Config.PipelineByName("build").LabelTemplate)
	assert.Equal(t, "#{env}-${COUNT}", h.ConfigForEdit.PipelineByName("build").LabelTemplate)
}

func TestPrintValidationErrors(t *testing.T) {
	assert.False(t, printValidationErrors(errors.New("boom")))
	assert.True(t, printValidationErrors(&cruiseconfig.ValidationError{}))
}
