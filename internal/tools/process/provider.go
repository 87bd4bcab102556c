// Package process provides the bare-subprocess tool group: spawn a program
// with piped stdio, feed it input, and kill it.
package process

import (
	"context"
	"fmt"
	"time"

	"github.com/ptybridge/ptybridge/internal/project"
	"github.com/ptybridge/ptybridge/internal/session"
	"github.com/ptybridge/ptybridge/internal/tools"
	"github.com/ptybridge/ptybridge/internal/types"
)

// Provider drives the singleton process session.
type Provider struct {
	sessions *session.Manager
	projects *project.Store
}

// NewProvider creates the process provider. projects may be nil.
func NewProvider(sessions *session.Manager, projects *project.Store) *Provider {
	return &Provider{sessions: sessions, projects: projects}
}

// Definition implements tools.Provider.
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:          "process",
		Name:        "Process",
		Description: "Bare subprocess sessions with piped stdio",
		Category:    types.CategoryProcess,
		Capabilities: []string{
			"spawn", "stdin", "kill",
		},
		Tools: []types.Tool{
			{
				ID:          "spawn",
				Name:        "Spawn",
				Description: "Spawn a program with piped stdin/stdout (no PTY)",
				Parameters: []types.Parameter{
					{Name: "command", Type: "string", Description: "Program to run", Required: true},
					{Name: "args", Type: "array", Description: "Program arguments"},
					{Name: "working_dir", Type: "string", Description: "Working directory"},
				},
				Returns: "initial output and PID",
			},
			{
				ID:          "send-proc",
				Name:        "Send to process",
				Description: "Send a line to the spawned process and read the response",
				Parameters: []types.Parameter{
					{Name: "message", Type: "string", Description: "Text to send", Required: true},
					{Name: "timeout", Type: "number", Description: "Read timeout in seconds (default: 2)"},
				},
				Returns: "process output",
			},
			{
				ID:          "kill-proc",
				Name:        "Kill process",
				Description: "Terminate the spawned process",
			},
		},
	}
}

// Execute implements tools.Provider.
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, _ *types.Context) (*types.Result, error) {
	switch toolID {
	case "spawn":
		return p.spawn(params)
	case "send-proc":
		return p.send(params)
	case "kill-proc":
		return p.kill()
	default:
		return types.Fail(fmt.Sprintf("unknown operation: %s", toolID)), nil
	}
}

func (p *Provider) spawn(params map[string]interface{}) (*types.Result, error) {
	spec := session.ProcessSpec{
		Command:    tools.StrArg(params, "command", ""),
		Args:       tools.StrSliceArg(params, "args"),
		WorkingDir: tools.StrArg(params, "working_dir", ""),
	}
	if spec.WorkingDir == "" && p.projects != nil {
		spec.WorkingDir = p.projects.WorkDir()
	}
	if p.projects != nil {
		spec.Env = p.projects.MergedEnv()
	}

	proc := p.sessions.Process()
	if err := proc.Start(spec); err != nil {
		return types.Failf(err), nil
	}

	out, err := proc.Read(time.Second)
	if err != nil {
		return types.Failf(err), nil
	}

	banner := fmt.Sprintf("Process started (pid %d)", proc.PID())
	if out != "" {
		banner += "\n" + out
	}
	return types.OkData(banner, map[string]interface{}{"pid": proc.PID()}), nil
}

func (p *Provider) send(params map[string]interface{}) (*types.Result, error) {
	proc := p.sessions.Process()
	if err := proc.Send(tools.StrArg(params, "message", "")); err != nil {
		return types.Failf(err), nil
	}
	out, err := proc.Read(tools.SecondsArg(params, "timeout", 2*time.Second))
	if err != nil {
		return types.Failf(err), nil
	}
	return types.Ok(out), nil
}

func (p *Provider) kill() (*types.Result, error) {
	proc := p.sessions.Process()
	if proc.State() != session.StateActive {
		return types.Fail("no active process to kill"), nil
	}
	if err := proc.Stop(); err != nil {
		return types.Failf(err), nil
	}
	return types.Ok("Process terminated"), nil
}
