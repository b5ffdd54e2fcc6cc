package cmd

import (
	"github.com/muesli/coral"
	"github.com/t-beigbeder/otvl_racl/packages/raclui"
)

var sendOptions raclui.SendOptions

var sendCmd = &coral.Command{
	Use:   "send source",
	Short: "writes the ACL stream of a tree",
	Long: `writes the ACL stream of the source tree to the standard output
or to the file given with --out`,
	Args: argsCount(1, 1, "one source directory"),
	RunE: func(cmd *coral.Command, args []string) error {
		var err error
		if sendOptions.BaseOptions, err = loadBaseOptions(cmd, nil); err != nil {
			return err
		}
		return raclui.CLIRun[raclui.SendOptions, *raclui.SendVars](
			cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(),
			sendOptions, args,
			raclui.SendStartup, raclui.SendShutdown)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&sendOptions.Out, "out", "o", "", "file receiving the ACL stream instead of the standard output")
}
