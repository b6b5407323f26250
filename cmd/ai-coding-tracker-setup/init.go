package main

import (
	"github.com/spf13/cobra"

	"github.com/pricepertoken/ai-coding-tracker/internal/config"
	"github.com/pricepertoken/ai-coding-tracker/internal/report"
	"github.com/pricepertoken/ai-coding-tracker/internal/service"
)

func newInitCmd(a *app) *cobra.Command {
	var (
		variant string
		force   bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter tracker.lua into the installation root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, _, err := a.loadSettings()
			if err != nil {
				return err
			}
			root, err := service.ResolveRoot(a.opts.root, settings, a.executable())
			if err != nil {
				return err
			}

			path, err := service.NewInitService(config.NewGenerator(), root).
				Execute(service.InitRequest{Variant: variant, Force: force})
			if err != nil {
				return err
			}
			return a.render(cmd, &report.Message{
				Summary: "manifest written",
				Data:    map[string]string{"path": path, "variant": variant},
			})
		},
	}
	cmd.Flags().StringVar(&variant, "variant", config.VariantBinary, "binary or interpreter")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing tracker.lua")
	return cmd
}
