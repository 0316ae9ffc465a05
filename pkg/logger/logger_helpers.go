package logger

import (
	"time"

	"go.uber.org/zap"
)

// Field constructors for the keys every dispatch log line uses.

func Target(name string) zap.Field {
	return zap.String(FieldTarget, name)
}

func Discipline(d string) zap.Field {
	return zap.String(FieldDiscipline, d)
}

func RunID(id string) zap.Field {
	return zap.String(FieldRunID, id)
}

func ExitCode(code int) zap.Field {
	return zap.Int(FieldExitCode, code)
}

func Pid(pid int) zap.Field {
	return zap.Int(FieldPid, pid)
}

func Operation(op string) zap.Field {
	return zap.String(FieldOperation, op)
}

// Generic shorthands for startup logging in cmd/.

func String(key, value string) zap.Field {
	return zap.String(key, value)
}

func Duration(key string, value time.Duration) zap.Field {
	return zap.Duration(key, value)
}

func Bool(key string, value bool) zap.Field {
	return zap.Bool(key, value)
}
