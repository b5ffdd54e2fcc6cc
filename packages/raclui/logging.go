package raclui

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/t-beigbeder/otvl_racl/packages/aclsync"
)

// NewLogger returns a logger writing to out at the level matching the
// verbosity options: warnings only by default, info with --verbose,
// debug and trace with --debug 2 and 3
func NewLogger(out io.Writer, bos BaseOptions) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})
	level := bos.VerboseLevel
	if bos.Verbose && level < 1 {
		level = 1
	}
	switch {
	case level >= 3:
		logger.SetLevel(logrus.TraceLevel)
	case level == 2:
		logger.SetLevel(logrus.DebugLevel)
	case level == 1:
		logger.SetLevel(logrus.InfoLevel)
	default:
		logger.SetLevel(logrus.WarnLevel)
	}
	return logger
}

// BeVerbose binds the verbosity callback of the library packages to logger,
// level 0 lines are warnings
func BeVerbose(logger *logrus.Logger) aclsync.BeVerboseFunc {
	return func(level int, line string) {
		switch level {
		case 0:
			logger.Warn(line)
		case 1:
			logger.Info(line)
		case 2:
			logger.Debug(line)
		default:
			logger.Trace(line)
		}
	}
}
