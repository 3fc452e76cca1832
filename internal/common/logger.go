package common

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/coreos/go-systemd/v22/journal"
)

// LoggerWrapper is a verbosity gate over the std log package.
// The sink is chosen once at start up: a file, stderr, the systemd journal,
// or nothing at all. A compiler wrapper must stay quiet unless asked,
// so logging is opt-in (an empty sink name means silent).
type LoggerWrapper struct {
	impl              *log.Logger
	toJournal         bool
	fileName          string
	verbosity         int
	duplicateToStderr bool
}

func MakeLogger(logFile string, verbosity int, duplicateToStderr bool) (*LoggerWrapper, error) {
	var impl *log.Logger
	toJournal := false

	switch logFile {
	case "":
		// silent
	case "stderr":
		impl = log.New(os.Stderr, "", 0)
	case "journal":
		toJournal = journal.Enabled()
	default:
		out, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
		if err != nil {
			return nil, err
		}
		impl = log.New(out, "", 0)
	}

	if verbosity < -1 || verbosity > 2 {
		return nil, errors.New("incorrect verbosity passed")
	}

	return &LoggerWrapper{
		impl:              impl,
		toJournal:         toJournal,
		fileName:          logFile,
		verbosity:         verbosity,
		duplicateToStderr: duplicateToStderr && logFile != "stderr",
	}, nil
}

func formatStr(prefix string, v ...any) string {
	return fmt.Sprintf("%s%s", prefix, fmt.Sprintln(v...))
}

func (logger *LoggerWrapper) Info(verbosity int, v ...any) {
	if logger == nil || logger.verbosity < verbosity {
		return
	}
	if logger.toJournal {
		_ = journal.Send(fmt.Sprintln(v...), journal.PriInfo, nil)
	} else if logger.impl != nil {
		_ = logger.impl.Output(0, formatStr("<6>", v...))
	}
}

func (logger *LoggerWrapper) Error(v ...any) {
	if logger == nil {
		return
	}
	if logger.toJournal {
		_ = journal.Send(fmt.Sprintln(v...), journal.PriErr, nil)
	} else if logger.impl != nil {
		_ = logger.impl.Output(0, formatStr("<3>", v...))
	}
	if logger.duplicateToStderr {
		_, _ = fmt.Fprint(os.Stderr, formatStr("", v...))
	}
}

func (logger *LoggerWrapper) TmpDebug(v ...any) {
	if logger == nil {
		return
	}
	if logger.toJournal {
		_ = journal.Send(fmt.Sprintln(v...), journal.PriDebug, nil)
	} else if logger.impl != nil {
		_ = logger.impl.Output(0, formatStr("<7>", v...))
	}
}

func (logger *LoggerWrapper) RotateLogFile() error {
	if logger.fileName == "" || logger.fileName == "stderr" || logger.fileName == "journal" {
		return nil
	}
	out, err := os.OpenFile(logger.fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		return err
	}

	logger.impl = log.New(out, "", 0)
	return nil
}

func (logger *LoggerWrapper) GetFileName() string {
	return logger.fileName
}
