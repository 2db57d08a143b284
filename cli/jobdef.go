package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mochilabs/tradescore/jobdef"
	"github.com/mochilabs/tradescore/pkg/cloud"
)

var renderVars map[string]string

func NewJobDefCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobdef [render|register]",
		Short: "Job definitions",
		Long:  `Render and register batch job definitions from templates.`,
	}

	renderCmd := &cobra.Command{
		Use:   "render <template>",
		Short: "Render job definition template",
		Long: `Render a job definition template, substituting ${ACCOUNT_ID} with the
caller identity account and any --var overrides.

Examples:
  tradescore-cli jobdef render deploy/job-definition.tmpl.json
  tradescore-cli jobdef render deploy/job-definition.tmpl.json --var ACCOUNT_ID=123456789012`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			rendered, err := renderTemplate(cmd, args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", rendered)
		},
	}

	registerCmd := &cobra.Command{
		Use:   "register <template>",
		Short: "Register job definition",
		Long:  `Render a job definition template and register it with the batch service.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			rendered, err := renderTemplate(cmd, args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			def, err := jobdef.Parse(rendered)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			if err := def.Validate(); err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			res, err := batchSvc.RegisterJobDefinition(cmd.Context(), def.ToRegisterInput())
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, res)
		},
	}

	for _, c := range []*cobra.Command{renderCmd, registerCmd} {
		c.Flags().StringToStringVar(
			&renderVars,
			"var",
			map[string]string{},
			"template variable override (repeatable, e.g. --var ACCOUNT_ID=123456789012)",
		)
	}

	cmd.AddCommand(renderCmd)
	cmd.AddCommand(registerCmd)

	return cmd
}

func renderTemplate(cmd *cobra.Command, path string) ([]byte, error) {
	tmpl, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", path, err)
	}

	vars := make(map[string]string, len(renderVars)+1)
	for k, v := range renderVars {
		vars[k] = v
	}

	accountRef := []byte("${" + jobdef.AccountIDVar + "}")
	if _, ok := vars[jobdef.AccountIDVar]; !ok && bytes.Contains(tmpl, accountRef) {
		identity, err := cloud.CallerIdentity(cmd.Context(), stsAPI)
		if err != nil {
			return nil, err
		}
		vars[jobdef.AccountIDVar] = identity.Account
	}

	return jobdef.Render(tmpl, vars)
}
