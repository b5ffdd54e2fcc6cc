package cmd

import (
	"github.com/muesli/coral"
	"github.com/t-beigbeder/otvl_racl/packages/raclui"
)

var receiveOptions raclui.ReceiveOptions

var receiveCmd = &coral.Command{
	Use:   "receive destination",
	Short: "applies an ACL stream to a tree",
	Long: `reads the ACL stream from the standard input or from the file given
with --in and applies it to the destination tree`,
	Args: argsCount(1, 1, "one destination directory"),
	RunE: func(cmd *coral.Command, args []string) error {
		var err error
		if receiveOptions.BaseOptions, err = loadBaseOptions(cmd, &receiveOptions.CreateDirs); err != nil {
			return err
		}
		return raclui.CLIRun[raclui.ReceiveOptions, *raclui.ReceiveVars](
			cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(),
			receiveOptions, args,
			raclui.ReceiveStartup, raclui.ReceiveShutdown)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(receiveCmd)
	receiveCmd.Flags().StringVarP(&receiveOptions.In, "in", "i", "", "file providing the ACL stream instead of the standard input")
	receiveCmd.Flags().BoolVar(&receiveOptions.CreateDirs, "create-dirs", false, "create the directories missing in the destination")
}
