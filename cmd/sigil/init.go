package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sigil-ui/sigil/internal/config"
	"github.com/sigil-ui/sigil/internal/errors"
)

func initCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [name]",
		Short: "Create a sigil.json in the current directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := os.Getwd()
			if err != nil {
				return err
			}

			path := filepath.Join(dir, config.ConfigFileName)
			if _, err := os.Stat(path); err == nil && !force {
				return errors.Newf(errors.CategoryCLI, "%s already exists", config.ConfigFileName).
					WithSuggestion("Use --force to overwrite")
			}

			cfg := config.New()
			if len(args) > 0 {
				cfg.Name = args[0]
			} else {
				cfg.Name = filepath.Base(dir)
			}

			if err := cfg.SaveTo(path); err != nil {
				return err
			}

			success("Created %s", config.ConfigFileName)
			info("Project: %s", cfg.Name)
			info("Inspector: http://%s", cfg.InspectorAddress())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing sigil.json")

	return cmd
}
