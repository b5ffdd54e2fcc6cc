package cmd

import (
	"github.com/muesli/coral"
	"github.com/t-beigbeder/otvl_racl/packages/raclui"
)

var syncOptions raclui.SyncOptions

var syncCmd = &coral.Command{
	Use:   "sync source destination",
	Short: "transfers the ACLs of a tree to another one",
	Long:  `transfers the ACLs of the source tree to the destination tree`,
	Args:  argsCount(2, 2, "source and destination directories"),
	RunE: func(cmd *coral.Command, args []string) error {
		var err error
		if syncOptions.BaseOptions, err = loadBaseOptions(cmd, &syncOptions.CreateDirs); err != nil {
			return err
		}
		return raclui.CLIRun[raclui.SyncOptions, *raclui.SyncVars](
			cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(),
			syncOptions, args,
			raclui.SyncStartup, raclui.SyncShutdown)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().BoolVar(&syncOptions.CreateDirs, "create-dirs", false, "create the directories missing in the destination")
}
