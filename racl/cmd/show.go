package cmd

import (
	"github.com/muesli/coral"
	"github.com/t-beigbeder/otvl_racl/packages/raclui"
)

var showOptions raclui.ShowOptions

var showCmd = &coral.Command{
	Use:   "show path...",
	Short: "displays the ACLs of files",
	Long:  `displays the access and default ACLs of files in the getfacl format`,
	Args:  argsCount(1, -1, "at least one path"),
	RunE: func(cmd *coral.Command, args []string) error {
		var err error
		if showOptions.BaseOptions, err = loadBaseOptions(cmd, nil); err != nil {
			return err
		}
		return raclui.CLIRun[raclui.ShowOptions, *raclui.ShowVars](
			cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(),
			showOptions, args,
			raclui.ShowStartup, raclui.ShowShutdown)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVarP(&showOptions.Condensed, "condensed", "c", false, "omit the entries duplicating the mode bits")
}
