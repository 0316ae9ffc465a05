// Package dispatch runs allow-listed make targets as subprocesses.
//
// Every target belongs to exactly one discipline. Actions run to completion
// and report their exit status, queries additionally decode their stdout as
// JSON, and streams forward output to a consumer until either side closes.
package dispatch

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/Alwanly/mcs-agent/pkg/logger"
	"github.com/Alwanly/mcs-agent/pkg/validator"
	"golang.org/x/sync/singleflight"
)

type Discipline string

const (
	Action Discipline = "action"
	Query  Discipline = "query"
	Stream Discipline = "stream"
)

const (
	DefaultProgram   = "make"
	DefaultKillGrace = 5 * time.Second
)

type ParamKind int

const (
	KindString ParamKind = iota
	KindInt
)

// ParamSpec describes one accepted parameter. Rules is a validator tag string
// applied to the typed value.
type ParamSpec struct {
	Key   string
	Kind  ParamKind
	Rules string
}

type Target struct {
	Name       string
	Discipline Discipline
	// Command replaces the default "<program> <name>" prefix when set.
	Command []string
	Params  []ParamSpec
}

type Options struct {
	// Dir is the working directory of every child.
	Dir string
	// Program defaults to make.
	Program string

	// Stdout and Stderr receive action output. They default to the agent's own.
	Stdout io.Writer
	Stderr io.Writer

	// KillGrace is how long a cancelled stream gets between SIGINT and SIGKILL.
	KillGrace time.Duration

	// Dedupe shares one child between concurrent identical actions.
	Dedupe bool

	Logger *logger.CanonicalLogger
}

type Registry struct {
	opts    Options
	targets map[string]Target
	log     *logger.CanonicalLogger
	group   singleflight.Group
}

func NewRegistry(opts Options, targets ...Target) (*Registry, error) {
	if opts.Program == "" {
		opts.Program = DefaultProgram
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.KillGrace <= 0 {
		opts.KillGrace = DefaultKillGrace
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}

	r := &Registry{
		opts:    opts,
		targets: make(map[string]Target, len(targets)),
		log:     log.Component("dispatch"),
	}
	for _, t := range targets {
		if err := validator.ValidateVar(t.Name, "required,targetname"); err != nil {
			return nil, fmt.Errorf("target %q: invalid name", t.Name)
		}
		switch t.Discipline {
		case Action, Query, Stream:
		default:
			return nil, fmt.Errorf("target %q: unknown discipline %q", t.Name, t.Discipline)
		}
		if _, dup := r.targets[t.Name]; dup {
			return nil, fmt.Errorf("target %q registered twice", t.Name)
		}
		seen := make(map[string]bool, len(t.Params))
		for _, p := range t.Params {
			if p.Key == "" || seen[p.Key] {
				return nil, fmt.Errorf("target %q: bad or duplicate param key %q", t.Name, p.Key)
			}
			seen[p.Key] = true
			if err := validator.CheckRules(p.Rules); err != nil {
				return nil, fmt.Errorf("target %q param %s: %w", t.Name, p.Key, err)
			}
		}
		r.targets[t.Name] = t
	}
	return r, nil
}

// DefaultTargets is the production allow-list.
func DefaultTargets() []Target {
	bucket := []ParamSpec{{Key: "BUCKET", Rules: "omitempty,max=222,safearg"}}
	return []Target{
		{Name: "start-minecraft", Discipline: Action, Params: []ParamSpec{
			{Key: "JAVA_MEMORY", Kind: KindInt, Rules: "omitempty,min=1,max=256"},
		}},
		{Name: "kill-minecraft", Discipline: Action},
		{Name: "stop-minecraft", Discipline: Action},
		{Name: "exec-command-minecraft", Discipline: Action, Params: []ParamSpec{
			{Key: "COMMAND", Rules: "required,max=256,consolecmd"},
		}},
		{Name: "save-minecraft-data", Discipline: Action, Params: bucket},
		{Name: "load-minecraft-data", Discipline: Action, Params: bucket},
		{Name: "server-status", Discipline: Query},
		{Name: "log-minecraft", Discipline: Stream},
		{Name: "log-agent", Discipline: Stream},
	}
}

// Lookup returns the target registered under name for discipline d.
func (r *Registry) Lookup(name string, d Discipline) (Target, bool) {
	t, ok := r.targets[name]
	if !ok || t.Discipline != d {
		return Target{}, false
	}
	return t, true
}

// Names lists the targets of discipline d in lexical order.
func (r *Registry) Names(d Discipline) []string {
	var names []string
	for name, t := range r.targets {
		if t.Discipline == d {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// resolve checks name and params and builds the argv for the child.
func (r *Registry) resolve(name string, d Discipline, params map[string]string) (Target, []string, error) {
	t, ok := r.Lookup(name, d)
	if !ok {
		return Target{}, nil, &UnknownTargetError{Target: name, Discipline: d}
	}

	fields := make(map[string]string)
	known := make(map[string]bool, len(t.Params))
	for _, p := range t.Params {
		known[p.Key] = true
	}
	for k := range params {
		if !known[k] {
			fields[k] = "unknown parameter"
		}
	}

	var args []string
	for _, p := range t.Params {
		raw, present := params[p.Key]
		if msg := checkParam(p, raw); msg != "" {
			fields[p.Key] = msg
			continue
		}
		if present && raw != "" {
			args = append(args, p.Key+"="+raw)
		}
	}
	if len(fields) > 0 {
		return Target{}, nil, &InvalidParamsError{Target: name, Fields: fields}
	}

	argv := t.Command
	if len(argv) == 0 {
		argv = []string{r.opts.Program, t.Name}
	}
	out := make([]string, 0, len(argv)+len(args))
	out = append(out, argv...)
	return t, append(out, args...), nil
}

func checkParam(p ParamSpec, raw string) string {
	var value interface{} = raw
	if p.Kind == KindInt {
		n := 0
		if raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil {
				return "must be an integer"
			}
			n = v
		}
		value = n
	}
	if err := validator.ValidateVar(value, p.Rules); err != nil {
		if tag := validator.FailedTag(err); tag != "" {
			return fmt.Sprintf("failed on the '%s' rule", tag)
		}
		return err.Error()
	}
	return ""
}

// Validate reports whether name and params would be accepted for discipline
// d, without spawning anything.
func (r *Registry) Validate(name string, d Discipline, params map[string]string) error {
	_, _, err := r.resolve(name, d, params)
	return err
}
