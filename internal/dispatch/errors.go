package dispatch

import (
	"fmt"
	"sort"
	"strings"
)

// UnknownTargetError is returned when a name is not on the allow-list of the
// requested discipline. Nothing is spawned.
type UnknownTargetError struct {
	Target     string
	Discipline Discipline
}

func (e *UnknownTargetError) Error() string {
	return fmt.Sprintf("unknown %s target %q", e.Discipline, e.Target)
}

// InvalidParamsError maps each offending key to what was wrong with it.
type InvalidParamsError struct {
	Target string
	Fields map[string]string
}

func (e *InvalidParamsError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("invalid params for %q: %s", e.Target, strings.Join(parts, "; "))
}

type ProcessExitError struct {
	Code int
}

func (e *ProcessExitError) Error() string {
	return fmt.Sprintf("process exited with code %d", e.Code)
}

// QueryParseError means a query exited cleanly but its stdout was not the
// expected JSON.
type QueryParseError struct {
	Target string
	Err    error
}

func (e *QueryParseError) Error() string {
	return fmt.Sprintf("query %q returned unparsable output: %v", e.Target, e.Err)
}

func (e *QueryParseError) Unwrap() error {
	return e.Err
}
