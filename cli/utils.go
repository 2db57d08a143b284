// Package cli provides the tradescore operator commands.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/hokaccha/go-prettyjson"
	"github.com/spf13/cobra"

	"github.com/mochilabs/tradescore/pkg/cloud"
)

var (
	batchSvc cloud.BatchService
	stsAPI   cloud.STSAPI
)

// SetBatchService wires the batch control-plane client used by the commands.
func SetBatchService(svc cloud.BatchService) {
	batchSvc = svc
}

// SetSTSAPI wires the identity client used by the commands.
func SetSTSAPI(api cloud.STSAPI) {
	stsAPI = api
}

func logJSONCmd(cmd cobra.Command, iList ...any) {
	for _, i := range iList {
		m, err := json.Marshal(i)
		if err != nil {
			logErrorCmd(cmd, err)

			return
		}

		pj, err := prettyjson.Format(m)
		if err != nil {
			logErrorCmd(cmd, err)

			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n\n", string(pj))
	}
}

func logErrorCmd(cmd cobra.Command, err error) {
	boldRed := color.New(color.FgRed, color.Bold)
	fmt.Fprintf(cmd.ErrOrStderr(), "\nerror: %s\n\n", boldRed.Sprint(err.Error()))
}

func logUsageCmd(cmd cobra.Command, u string) {
	fmt.Fprintf(cmd.OutOrStdout(), color.YellowString("\nusage: %s\n\n"), u)
}
