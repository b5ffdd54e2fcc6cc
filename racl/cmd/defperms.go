package cmd

import (
	"github.com/muesli/coral"
	"github.com/t-beigbeder/otvl_racl/packages/raclui"
)

var defPermsOptions raclui.DefPermsOptions

var defPermsCmd = &coral.Command{
	Use:   "defperms directory...",
	Short: "displays the permissions of new entries",
	Long: `displays the permissions new files and directories get in each directory,
from its default ACL or from the umask`,
	Args: argsCount(1, -1, "at least one directory"),
	RunE: func(cmd *coral.Command, args []string) error {
		var err error
		if defPermsOptions.BaseOptions, err = loadBaseOptions(cmd, nil); err != nil {
			return err
		}
		return raclui.CLIRun[raclui.DefPermsOptions, *raclui.DefPermsVars](
			cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(),
			defPermsOptions, args,
			raclui.DefPermsStartup, raclui.DefPermsShutdown)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(defPermsCmd)
}
