package raclui

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileConfig is the content of a YAML configuration file,
// absent keys keep the flag values
type FileConfig struct {
	DryRun       *bool  `yaml:"dryrun"`
	NumericIds   *bool  `yaml:"numeric-ids"`
	IncRecurse   *bool  `yaml:"inc-recurse"`
	Umask        string `yaml:"umask"`
	Verbose      *bool  `yaml:"verbose"`
	VerboseLevel *int   `yaml:"debug"`
	CreateDirs   *bool  `yaml:"create-dirs"`
}

func LoadConfig(path string) (FileConfig, error) {
	var fc FileConfig
	bs, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("in LoadConfig: %w", err)
	}
	if err = yaml.Unmarshal(bs, &fc); err != nil {
		return fc, fmt.Errorf("in LoadConfig: %s: %w", path, err)
	}
	if fc.Umask != "" {
		if _, err = CheckUmask(fc.Umask); err != nil {
			return fc, fmt.Errorf("in LoadConfig: %s: %w", path, err)
		}
	}
	return fc, nil
}

// Apply sets the options found in the configuration file
// unless the matching flag was given on the command line
func (fc FileConfig) Apply(bos *BaseOptions, createDirs *bool, changed func(flag string) bool) {
	setBool := func(flag string, dst *bool, src *bool) {
		if src != nil && dst != nil && !changed(flag) {
			*dst = *src
		}
	}
	setBool("dryrun", &bos.DryRun, fc.DryRun)
	setBool("numeric-ids", &bos.NumericIds, fc.NumericIds)
	setBool("inc-recurse", &bos.IncRecurse, fc.IncRecurse)
	setBool("verbose", &bos.Verbose, fc.Verbose)
	setBool("create-dirs", createDirs, fc.CreateDirs)
	if fc.Umask != "" && !changed("umask") {
		bos.Umask = fc.Umask
	}
	if fc.VerboseLevel != nil && !changed("debug") {
		bos.VerboseLevel = *fc.VerboseLevel
	}
}
