package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/cruise-in-go/pkg/config"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/configfile"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/cruiseconfig"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Work with pipeline configuration files",
	Long:  `Validate, print, graph and watch pipeline configuration files.`,
	Run: func(cmd *cobra.Command, args []string) {
		requireSubcommand(cmd, "validate, show, graph, watch")
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.PersistentFlags().StringArrayP("param", "P", nil, "global parameter as name=value, may be repeated")
}

// globalParams reads the --param flags
func globalParams(cmd *cobra.Command) (cruiseconfig.ParamsConfig, error) {
	values, err := cmd.Flags().GetStringArray("param")
	if err != nil {
		return nil, err
	}
	var params cruiseconfig.ParamsConfig
	for _, v := range values {
		name, value, ok := strings.Cut(v, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected name=value", v)
		}
		params = append(params, cruiseconfig.NewParam(name, value))
	}
	return params, nil
}

// newDataSource builds a data source for path using the data key and the
// --param flags.
func newDataSource(cmd *cobra.Command, path string) (*configfile.DataSource, error) {
	cipher, err := config.Get().Cipher()
	if err != nil {
		return nil, err
	}
	params, err := globalParams(cmd)
	if err != nil {
		return nil, err
	}
	opts := []configfile.Option{configfile.WithGlobalParams(params)}
	if cipher != nil {
		opts = append(opts, configfile.WithCipher(cipher))
	}
	return configfile.NewDataSource(path, opts...), nil
}

// printValidationErrors prints one line per validation failure. It reports
// whether err was a validation error.
func printValidationErrors(err error) bool {
	var validationErr *cruiseconfig.ValidationError
	if !errors.As(err, &validationErr) {
		return false
	}
	for _, msg := range validationErr.Messages() {
		fmt.Println("  -", msg)
	}
	return true
}
