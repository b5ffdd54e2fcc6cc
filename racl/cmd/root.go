package cmd

import (
	"os"

	"github.com/muesli/coral"
	"github.com/t-beigbeder/otvl_racl/packages/raclui"
)

var rootCmd = &coral.Command{
	Use:   "racl",
	Short: "Transfer POSIX ACLs between two trees",
	Long: `Transfer the POSIX access and default ACLs of a source tree
to a destination tree, directly or through an ACL stream`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(raclui.ExitCode(err))
	}
}
