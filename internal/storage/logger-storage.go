package storage

import "github.com/SigmaG33/ccache/internal/common"

// anywhere in the storage code, use logStorage.Info() and other methods for logging
var logStorage *common.LoggerWrapper

func MakeLoggerStorage(logFile string, verbosity int) error {
	var err error
	logStorage, err = common.MakeLogger(logFile, verbosity, false)
	return err
}
