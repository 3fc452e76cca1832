package wrapper

import "github.com/SigmaG33/ccache/internal/common"

// anywhere in the wrapper code, use logWrapper.Info() and other methods for logging
var logWrapper *common.LoggerWrapper

func MakeLoggerWrapper(logFile string, verbosity int) error {
	var err error
	logWrapper, err = common.MakeLogger(logFile, verbosity, false)
	return err
}
