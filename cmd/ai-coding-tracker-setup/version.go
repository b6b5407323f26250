package main

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/pricepertoken/ai-coding-tracker/internal/report"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.render(cmd, &report.Message{
				Summary: "ai-coding-tracker-setup " + Version,
				Data: map[string]string{
					"go":       runtime.Version(),
					"platform": runtime.GOOS + "/" + runtime.GOARCH,
				},
			})
		},
	}
}
