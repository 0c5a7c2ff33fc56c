package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arloliu/go-aging/config"
)

func newValidateCmd(a *app) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a configuration file without opening any port",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadConfig(path)
			if err != nil {
				return err
			}

			table, err := f.CommandTable()
			if err != nil {
				return err
			}
			if err := table.Validate(); err != nil {
				return err
			}

			fmt.Fprintf(a.stdout, "%s %s\n", okStyle.Render("valid"), path)

			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "config", "c", "", "Path to the YAML configuration file (default: built-in defaults)")

	return cmd
}

// loadConfig loads path, or the defaults when path is empty.
func loadConfig(path string) (*config.File, error) {
	if path == "" {
		f := config.Default()
		return f, f.Validate()
	}

	return config.Load(path)
}
