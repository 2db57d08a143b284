package cli

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/batch"
	"github.com/spf13/cobra"
)

var (
	jobQueue      string
	jobDefinition string
	jobParams     map[string]string
)

func NewJobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs [submit]",
		Short: "Batch jobs",
		Long:  `Submit jobs against a registered job definition.`,
	}

	submitCmd := &cobra.Command{
		Use:   "submit <name>",
		Short: "Submit job",
		Long: `Submit a job to a queue.

Examples:
  tradescore-cli jobs submit btc-analysis --queue trade-analysis --definition trade-analysis-runner --param symbol=btc-1mF`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			in := &batch.SubmitJobInput{
				JobName:       aws.String(args[0]),
				JobQueue:      aws.String(jobQueue),
				JobDefinition: aws.String(jobDefinition),
			}
			if len(jobParams) > 0 {
				in.Parameters = jobParams
			}

			res, err := batchSvc.SubmitJob(cmd.Context(), in)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, res)
		},
	}

	submitCmd.Flags().StringVar(&jobQueue, "queue", "", "job queue name or ARN")
	submitCmd.Flags().StringVar(&jobDefinition, "definition", "", "job definition name, name:revision or ARN")
	submitCmd.Flags().StringToStringVar(&jobParams, "param", map[string]string{}, "job parameter (repeatable, e.g. --param symbol=btc-1mF)")
	_ = submitCmd.MarkFlagRequired("queue")
	_ = submitCmd.MarkFlagRequired("definition")

	cmd.AddCommand(submitCmd)

	return cmd
}
