package main

import (
	"log"

	"github.com/aws/aws-sdk-go-v2/service/batch"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/spf13/cobra"

	"github.com/mochilabs/tradescore/cli"
	"github.com/mochilabs/tradescore/pkg/cloud"
)

var (
	region  string
	profile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tradescore-cli",
		Short: "Tradescore CLI",
		Long:  `Tradescore CLI renders and registers batch job definitions and submits analysis jobs.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cloud.LoadConfig(cmd.Context(), region, profile)
			if err != nil {
				return err
			}

			cli.SetBatchService(cloud.NewBatchClient(batch.NewFromConfig(cfg)))
			cli.SetSTSAPI(sts.NewFromConfig(cfg))

			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&region, "region", "", "AWS region")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "AWS shared config profile")

	rootCmd.AddCommand(cli.NewJobDefCmd())
	rootCmd.AddCommand(cli.NewJobsCmd())
	rootCmd.AddCommand(cli.NewWhoamiCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
