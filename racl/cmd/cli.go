package cmd

import (
	"fmt"

	"github.com/muesli/coral"
	"github.com/t-beigbeder/otvl_racl/packages/raclui"
)

var baseOptions raclui.BaseOptions

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&baseOptions.ConfigFile, "config", "", "YAML file providing default option values")
	pf.BoolVarP(&baseOptions.DryRun, "dryrun", "d", false, "don't modify anything, just report work to be done")
	pf.BoolVar(&baseOptions.NumericIds, "numeric-ids", false, "don't map user and group ids through their names")
	pf.BoolVar(&baseOptions.IncRecurse, "inc-recurse", false, "send names along with the ACL entries instead of id lists")
	pf.StringVar(&baseOptions.Umask, "umask", "022", "umask applied to new entries of directories without default ACL")
	pf.BoolVarP(&baseOptions.Verbose, "verbose", "v", false, "display the list of entries and statistics")
	pf.IntVar(&baseOptions.VerboseLevel, "debug", 0, "display debug messages if level >= 2")
}

// loadBaseOptions merges the configuration file if any with the command
// line flags, the latter taking precedence
func loadBaseOptions(cmd *coral.Command, createDirs *bool) (raclui.BaseOptions, error) {
	bos := baseOptions
	if bos.ConfigFile != "" {
		fc, err := raclui.LoadConfig(bos.ConfigFile)
		if err != nil {
			return bos, err
		}
		fc.Apply(&bos, createDirs, cmd.Flags().Changed)
	}
	if _, err := raclui.CheckUmask(bos.Umask); err != nil {
		return bos, fmt.Errorf("invalid umask %s: %w", bos.Umask, err)
	}
	return bos, nil
}

func argsCount(min, max int, what string) coral.PositionalArgs {
	return func(cmd *coral.Command, args []string) error {
		if len(args) < min || (max >= 0 && len(args) > max) {
			cmd.UsageFunc()(cmd)
			return fmt.Errorf("%s must be provided", what)
		}
		return nil
	}
}
