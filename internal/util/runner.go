package util

import "context"

// CmdRunner abstracts subprocess execution so pipelines can be tested with a
// fake runner.
type CmdRunner interface {
	Run(ctx context.Context, spec CmdSpec) (CmdResult, error)
}

type defaultRunner struct{}

func (defaultRunner) Run(ctx context.Context, spec CmdSpec) (CmdResult, error) {
	return Run(ctx, spec)
}

// NewDefaultRunner returns a CmdRunner backed by util.Run.
func NewDefaultRunner() CmdRunner {
	return defaultRunner{}
}
