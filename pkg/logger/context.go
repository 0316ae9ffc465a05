package logger

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type ctxKey int

const (
	fieldsKey ctxKey = iota
	requestIDKey
)

// Keys shared by the canonical request line, job lines and component logs.
const (
	FieldRequestID  = "request_id"
	FieldOperation  = "operation"
	FieldTarget     = "target"
	FieldDiscipline = "discipline"
	FieldRunID      = "run_id"
	FieldExitCode   = "exit_code"
	FieldPid        = "pid"
	FieldSuccess    = "success"

	FieldStride = "stride"
	FieldCursor = "cursor"

	FieldJobName  = "job_name"
	FieldAffected = "affected"
)

// LogContext collects fields for one unit of work (a request or a job run)
// so they can be printed once, on a single line, when it ends.
type LogContext struct {
	mu     sync.Mutex
	fields []zap.Field
}

// Add is a no-op on a nil LogContext.
func (lc *LogContext) Add(fields ...zap.Field) {
	if lc == nil {
		return
	}
	lc.mu.Lock()
	lc.fields = append(lc.fields, fields...)
	lc.mu.Unlock()
}

// Fields returns a copy of everything added so far.
func (lc *LogContext) Fields() []zap.Field {
	if lc == nil {
		return nil
	}
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return append([]zap.Field(nil), lc.fields...)
}

// Begin starts a unit of work. A non-empty requestID is recorded both as a
// field and as the value returned by RequestID.
func Begin(ctx context.Context, requestID string) (context.Context, *LogContext) {
	lc := &LogContext{fields: make([]zap.Field, 0, 8)}
	ctx = context.WithValue(ctx, fieldsKey, lc)
	if requestID != "" {
		lc.Add(zap.String(FieldRequestID, requestID))
		ctx = context.WithValue(ctx, requestIDKey, requestID)
	}
	return ctx, lc
}

// FromContext returns the LogContext started by Begin, or nil.
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(fieldsKey).(*LogContext)
	return lc
}

// AddToContext adds fields to the unit of work ctx belongs to, if any.
func AddToContext(ctx context.Context, fields ...zap.Field) {
	FromContext(ctx).Add(fields...)
}

func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
