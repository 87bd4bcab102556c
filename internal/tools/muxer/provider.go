// Package muxer provides the tmux tool group: named, persistent sessions
// that outlive this server and can be attached from a real terminal.
package muxer

import (
	"context"
	"fmt"
	"strings"

	"github.com/ptybridge/ptybridge/internal/monitoring"
	"github.com/ptybridge/ptybridge/internal/mux"
	"github.com/ptybridge/ptybridge/internal/project"
	"github.com/ptybridge/ptybridge/internal/tools"
	"github.com/ptybridge/ptybridge/internal/types"
)

// Provider drives the tmux session manager.
type Provider struct {
	mux      *mux.Mux
	projects *project.Store
	metrics  *monitoring.Metrics
}

// NewProvider creates the muxer provider. projects and metrics may be nil.
func NewProvider(m *mux.Mux, projects *project.Store, metrics *monitoring.Metrics) *Provider {
	return &Provider{mux: m, projects: projects, metrics: metrics}
}

// Definition implements tools.Provider.
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:          "muxer",
		Name:        "Multiplexer",
		Description: "Persistent named tmux sessions",
		Category:    types.CategoryMuxer,
		Capabilities: []string{
			"tmux", "detached", "capture",
		},
		Tools: []types.Tool{
			{
				ID:          "tmux-start",
				Name:        "Start tmux session",
				Description: "Start a detached tmux session running a command",
				Parameters: []types.Parameter{
					{Name: "session_name", Type: "string", Description: "Unique session name", Required: true},
					{Name: "command", Type: "string", Description: "Command to run", Required: true},
					{Name: "working_dir", Type: "string", Description: "Working directory"},
				},
			},
			{
				ID:          "tmux-list",
				Name:        "List tmux sessions",
				Description: "List all tmux sessions",
				Returns:     "one session per line with attach state",
			},
			{
				ID:          "tmux-send",
				Name:        "Send to tmux session",
				Description: "Send a command line to a tmux session",
				Parameters: []types.Parameter{
					{Name: "session_name", Type: "string", Description: "Target session", Required: true},
					{Name: "command", Type: "string", Description: "Command to send", Required: true},
				},
			},
			{
				ID:          "tmux-capture",
				Name:        "Capture tmux pane",
				Description: "Capture pane output without attaching",
				Parameters: []types.Parameter{
					{Name: "session_name", Type: "string", Description: "Session to capture", Required: true},
					{Name: "lines", Type: "number", Description: "Scrollback lines (default: visible pane)"},
				},
				Returns: "pane content",
			},
			{
				ID:          "tmux-attach",
				Name:        "Attach command",
				Description: "Return the command line to attach a real terminal to a session",
				Parameters: []types.Parameter{
					{Name: "session_name", Type: "string", Description: "Session to attach", Required: true},
				},
				Returns: "attach command line",
			},
			{
				ID:          "tmux-kill",
				Name:        "Kill tmux session",
				Description: "Terminate a tmux session; killing a missing session succeeds",
				Parameters: []types.Parameter{
					{Name: "session_name", Type: "string", Description: "Session to kill", Required: true},
				},
			},
		},
	}
}

// Execute implements tools.Provider.
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, _ *types.Context) (*types.Result, error) {
	if !p.mux.Available() {
		return types.Fail("tmux is not installed or not in PATH"), nil
	}

	switch toolID {
	case "tmux-start":
		return p.start(params)
	case "tmux-list":
		return p.list()
	case "tmux-send":
		return p.send(params)
	case "tmux-capture":
		return p.capture(params)
	case "tmux-attach":
		return p.attach(params)
	case "tmux-kill":
		return p.kill(params)
	default:
		return types.Fail(fmt.Sprintf("unknown operation: %s", toolID)), nil
	}
}

func (p *Provider) start(params map[string]interface{}) (*types.Result, error) {
	name := tools.StrArg(params, "session_name", "")
	command := tools.StrArg(params, "command", "")
	workDir := tools.StrArg(params, "working_dir", "")
	if workDir == "" && p.projects != nil {
		workDir = p.projects.WorkDir()
	}

	if err := p.mux.Start(name, workDir, command); err != nil {
		return types.Failf(err), nil
	}
	return types.Ok(fmt.Sprintf("Tmux session %q started: %s", name, command)), nil
}

func (p *Provider) list() (*types.Result, error) {
	sessions, err := p.mux.List()
	if err != nil {
		return types.Failf(err), nil
	}
	if p.metrics != nil {
		p.metrics.SetMuxSessions(len(sessions))
	}
	if len(sessions) == 0 {
		return types.Ok("No tmux sessions"), nil
	}

	var b strings.Builder
	data := make([]interface{}, 0, len(sessions))
	for _, s := range sessions {
		state := "detached"
		if s.Attached {
			state = "attached"
		}
		fmt.Fprintf(&b, "%s: %d windows, %s, created %s",
			s.Name, s.Windows, state, s.CreatedAt.Format("2006-01-02 15:04:05"))
		if s.Command != "" {
			fmt.Fprintf(&b, ", running %q", s.Command)
		}
		b.WriteString("\n")
		data = append(data, s)
	}
	return types.OkData(strings.TrimRight(b.String(), "\n"),
		map[string]interface{}{"sessions": data}), nil
}

func (p *Provider) send(params map[string]interface{}) (*types.Result, error) {
	name := tools.StrArg(params, "session_name", "")
	if err := p.mux.SendKeys(name, tools.StrArg(params, "command", ""), true); err != nil {
		return types.Failf(err), nil
	}
	return types.Ok(fmt.Sprintf("Sent to tmux session %q", name)), nil
}

func (p *Provider) capture(params map[string]interface{}) (*types.Result, error) {
	out, err := p.mux.Capture(
		tools.StrArg(params, "session_name", ""),
		tools.IntArg(params, "lines", 0))
	if err != nil {
		return types.Failf(err), nil
	}
	return types.Ok(out), nil
}

func (p *Provider) attach(params map[string]interface{}) (*types.Result, error) {
	argv, err := p.mux.AttachCommand(tools.StrArg(params, "session_name", ""))
	if err != nil {
		return types.Failf(err), nil
	}
	return types.Ok(fmt.Sprintf("Run in a terminal: %s", strings.Join(argv, " "))), nil
}

func (p *Provider) kill(params map[string]interface{}) (*types.Result, error) {
	name := tools.StrArg(params, "session_name", "")
	if err := p.mux.Kill(name); err != nil {
		return types.Failf(err), nil
	}
	return types.Ok(fmt.Sprintf("Tmux session %q killed", name)), nil
}
