// Package terminal provides the PTY-backed tool group: interactive shells,
// ssh and telnet clients, and the send/read/resize/disconnect operations
// against the singleton PTY session.
package terminal

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ptybridge/ptybridge/internal/project"
	"github.com/ptybridge/ptybridge/internal/session"
	"github.com/ptybridge/ptybridge/internal/tools"
	"github.com/ptybridge/ptybridge/internal/types"
)

// Provider drives the singleton PTY session.
type Provider struct {
	sessions *session.Manager
	projects *project.Store
}

// NewProvider creates the terminal provider. projects may be nil.
func NewProvider(sessions *session.Manager, projects *project.Store) *Provider {
	return &Provider{sessions: sessions, projects: projects}
}

// Definition implements tools.Provider.
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:          "terminal",
		Name:        "Terminal",
		Description: "Interactive PTY sessions: shells, ssh and telnet clients",
		Category:    types.CategoryTerminal,
		Capabilities: []string{
			"pty", "shell", "ssh", "telnet", "resize",
		},
		Tools: []types.Tool{
			{
				ID:          "connect",
				Name:        "Connect",
				Description: "Start an arbitrary command in a PTY",
				Parameters: []types.Parameter{
					{Name: "command", Type: "string", Description: "Command to run", Required: true},
					{Name: "args", Type: "array", Description: "Command arguments"},
					{Name: "working_dir", Type: "string", Description: "Initial working directory"},
				},
				Returns: "initial output",
			},
			{
				ID:          "bash",
				Name:        "Bash",
				Description: "Start an interactive bash shell in a PTY",
				Parameters: []types.Parameter{
					{Name: "working_dir", Type: "string", Description: "Initial working directory"},
				},
				Returns: "initial prompt",
			},
			{
				ID:          "send",
				Name:        "Send",
				Description: "Send input to the active PTY session and read the response",
				Parameters: []types.Parameter{
					{Name: "message", Type: "string", Description: "Text to send", Required: true},
					{Name: "timeout", Type: "number", Description: "Read timeout in seconds (default: 2)"},
				},
				Returns: "session output",
			},
			{
				ID:          "clear",
				Name:        "Clear",
				Description: "Clear the PTY screen",
			},
			{
				ID:          "resize",
				Name:        "Resize",
				Description: "Resize the PTY",
				Parameters: []types.Parameter{
					{Name: "width", Type: "number", Description: "Columns (default: 80)"},
					{Name: "height", Type: "number", Description: "Rows (default: 24)"},
				},
			},
			{
				ID:          "disconnect",
				Name:        "Disconnect",
				Description: "Stop the active PTY session",
			},
			{
				ID:          "ssh",
				Name:        "SSH",
				Description: "Connect to a remote host via ssh in a PTY",
				Parameters: []types.Parameter{
					{Name: "host", Type: "string", Description: "Host to connect to", Required: true},
					{Name: "user", Type: "string", Description: "Username"},
					{Name: "port", Type: "number", Description: "Port (default: 22)"},
					{Name: "key_file", Type: "string", Description: "Private key file"},
				},
				Returns: "initial output",
			},
			{
				ID:          "telnet",
				Name:        "Telnet",
				Description: "Connect to a remote host via the telnet client in a PTY",
				Parameters: []types.Parameter{
					{Name: "host", Type: "string", Description: "Host to connect to", Required: true},
					{Name: "port", Type: "number", Description: "Port (default: 23)"},
				},
				Returns: "initial output",
			},
		},
	}
}

// Execute implements tools.Provider.
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, _ *types.Context) (*types.Result, error) {
	switch toolID {
	case "connect":
		return p.connect(params)
	case "bash":
		return p.bash(params)
	case "send":
		return p.send(params)
	case "clear":
		return p.clear()
	case "resize":
		return p.resize(params)
	case "disconnect":
		return p.disconnect()
	case "ssh":
		return p.ssh(params)
	case "telnet":
		return p.telnet(params)
	default:
		return types.Fail(fmt.Sprintf("unknown operation: %s", toolID)), nil
	}
}

// startPTY starts the singleton PTY and returns its initial output.
func (p *Provider) startPTY(spec session.PTYSpec, banner string, initialRead time.Duration) (*types.Result, error) {
	if spec.WorkingDir == "" && p.projects != nil {
		spec.WorkingDir = p.projects.WorkDir()
	}
	if spec.Env == nil && p.projects != nil {
		spec.Env = p.projects.MergedEnv()
	}

	pty := p.sessions.PTY()
	if err := pty.Start(spec); err != nil {
		return types.Failf(err), nil
	}

	out, err := pty.Read(initialRead)
	if err != nil {
		return types.Failf(err), nil
	}
	if out == "" {
		return types.Ok(banner), nil
	}
	return types.Ok(banner + "\n" + out), nil
}

func (p *Provider) connect(params map[string]interface{}) (*types.Result, error) {
	return p.startPTY(session.PTYSpec{
		Command:    tools.StrArg(params, "command", ""),
		Args:       tools.StrSliceArg(params, "args"),
		WorkingDir: tools.StrArg(params, "working_dir", ""),
	}, "PTY session started", time.Second)
}

func (p *Provider) bash(params map[string]interface{}) (*types.Result, error) {
	return p.startPTY(session.PTYSpec{
		Command:    "bash",
		WorkingDir: tools.StrArg(params, "working_dir", ""),
	}, "Bash PTY session started", time.Second)
}

func (p *Provider) send(params map[string]interface{}) (*types.Result, error) {
	pty := p.sessions.PTY()
	if err := pty.Send(tools.StrArg(params, "message", "")); err != nil {
		return types.Failf(err), nil
	}
	out, err := pty.Read(tools.SecondsArg(params, "timeout", 2*time.Second))
	if err != nil {
		return types.Failf(err), nil
	}
	return types.Ok(out), nil
}

func (p *Provider) clear() (*types.Result, error) {
	// Clear screen and move the cursor home.
	if err := p.sessions.PTY().SendRaw([]byte("\x1b[2J\x1b[H")); err != nil {
		return types.Failf(err), nil
	}
	return types.Ok("PTY terminal cleared"), nil
}

func (p *Provider) resize(params map[string]interface{}) (*types.Result, error) {
	cols := tools.IntArg(params, "width", 80)
	rows := tools.IntArg(params, "height", 24)
	if err := p.sessions.PTY().Resize(cols, rows); err != nil {
		return types.Failf(err), nil
	}
	return types.Ok(fmt.Sprintf("Terminal resized to %dx%d", cols, rows)), nil
}

func (p *Provider) disconnect() (*types.Result, error) {
	if err := p.sessions.PTY().Stop(); err != nil {
		return types.Failf(err), nil
	}
	return types.Ok("PTY session disconnected"), nil
}

func (p *Provider) ssh(params map[string]interface{}) (*types.Result, error) {
	host := tools.StrArg(params, "host", "")
	user := tools.StrArg(params, "user", "")
	port := tools.IntArg(params, "port", 22)

	args := []string{
		"-o", "StrictHostKeyChecking=no",
		"-o", "UserKnownHostsFile=/dev/null",
		"-p", strconv.Itoa(port),
	}
	if keyFile := tools.StrArg(params, "key_file", ""); keyFile != "" {
		args = append(args, "-i", keyFile)
	}
	target := host
	if user != "" {
		target = user + "@" + host
	}
	args = append(args, target)

	return p.startPTY(session.PTYSpec{Command: "ssh", Args: args},
		fmt.Sprintf("SSH session started to %s:%d", target, port), 2*time.Second)
}

func (p *Provider) telnet(params map[string]interface{}) (*types.Result, error) {
	host := tools.StrArg(params, "host", "")
	port := tools.IntArg(params, "port", 23)

	return p.startPTY(session.PTYSpec{
		Command: "telnet",
		Args:    []string{host, strconv.Itoa(port)},
	}, fmt.Sprintf("Telnet session started to %s:%d", host, port), 2*time.Second)
}
