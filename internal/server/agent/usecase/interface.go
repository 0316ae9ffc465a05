package usecase

import (
	"context"

	"github.com/Alwanly/mcs-agent/internal/dispatch"
	"github.com/Alwanly/mcs-agent/internal/server/agent/dto"
	"github.com/Alwanly/mcs-agent/pkg/wrapper"
)

// IDispatcher is the part of dispatch.Registry the usecase drives.
type IDispatcher interface {
	Validate(name string, d dispatch.Discipline, params map[string]string) error
	Dispatch(ctx context.Context, name string, params map[string]string) error
	Query(ctx context.Context, name string, params map[string]string, out interface{}) error
	Stream(ctx context.Context, name string, params map[string]string, sink dispatch.Sink) (*dispatch.ProcessHandle, error)
}

type IUseCase interface {
	ReadLog(ctx context.Context, req *dto.LogRequest) wrapper.Outcome
	ReadWholeLog(ctx context.Context, target string) (string, wrapper.Outcome)
	Make(ctx context.Context, req *dto.MakeRequest) wrapper.Outcome
	ServerStatus(ctx context.Context) wrapper.Outcome
	CheckStream(target string, params map[string]string) wrapper.Outcome
	Stream(ctx context.Context, target string, params map[string]string, sink dispatch.Sink) error
	ListRuns(ctx context.Context, req *dto.RunsRequest) wrapper.Outcome
	PruneRuns(ctx context.Context) error
}
