package cli

import (
	"github.com/spf13/cobra"

	"github.com/mochilabs/tradescore/pkg/cloud"
)

func NewWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Caller identity",
		Long:  `Print the account and principal resolved from the active credentials.`,
		Run: func(cmd *cobra.Command, _ []string) {
			identity, err := cloud.CallerIdentity(cmd.Context(), stsAPI)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, identity)
		},
	}
}
