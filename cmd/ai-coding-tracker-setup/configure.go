package main

import (
	"github.com/spf13/cobra"

	"github.com/pricepertoken/ai-coding-tracker/internal/report"
	"github.com/pricepertoken/ai-coding-tracker/internal/service"
)

func newConfigureCmd(a *app) *cobra.Command {
	var apiURL string
	cmd := &cobra.Command{
		Use:   "configure <token>",
		Short: "Save your tracker token",
		Long: `Save the dashboard token to ~/.ai-usage-tracker/config.toml, readable only
by you. The launcher exports it to the engine as AI_USAGE_TRACKER_TOKEN.

An AI_USAGE_TRACKER_TOKEN already set in the environment still takes precedence
at run time.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := a.settingsDir()
			if err != nil {
				return err
			}
			res, err := service.NewConfigureService(dir).Execute(service.ConfigureRequest{Token: args[0], APIURL: apiURL})
			if err != nil {
				return err
			}

			msg := &report.Message{
				Summary: "token saved",
				Data:    map[string]string{"path": res.Path, "token": res.MaskedToken},
			}
			if res.APIURL != "" {
				msg.Data["api_url"] = res.APIURL
			}
			return a.render(cmd, msg)
		},
	}
	cmd.Flags().StringVar(&apiURL, "api-url", "", "dashboard URL exported as DJANGO_API_URL")
	return cmd
}
