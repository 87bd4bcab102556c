// Package system provides the introspection and context tool group: session
// status, project activation, environment variables, one-shot command
// execution and bounded file access.
package system

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	osexec "os/exec"
	"sort"
	"strings"
	"time"

	"github.com/ptybridge/ptybridge/internal/mux"
	"github.com/ptybridge/ptybridge/internal/project"
	"github.com/ptybridge/ptybridge/internal/session"
	"github.com/ptybridge/ptybridge/internal/tools"
	"github.com/ptybridge/ptybridge/internal/types"
)

// maxFileBytes bounds file tool reads and writes.
const maxFileBytes = 1 << 20

// Provider exposes server-wide state and utilities.
type Provider struct {
	sessions *session.Manager
	mux      *mux.Mux
	projects *project.Store
	started  time.Time
}

// NewProvider creates the system provider. mux and projects may be nil.
func NewProvider(sessions *session.Manager, m *mux.Mux, projects *project.Store) *Provider {
	return &Provider{sessions: sessions, mux: m, projects: projects, started: time.Now()}
}

// Definition implements tools.Provider.
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:          "system",
		Name:        "System",
		Description: "Server status, projects, environment and one-shot utilities",
		Category:    types.CategorySystem,
		Capabilities: []string{
			"status", "projects", "env", "exec", "file",
		},
		Tools: []types.Tool{
			{
				ID:          "status",
				Name:        "Status",
				Description: "Report the state of every session medium",
				Parameters: []types.Parameter{
					{Name: "verbose", Type: "boolean", Description: "Include detail strings (default: false)"},
				},
				Returns: "status JSON",
			},
			{
				ID:          "sessions",
				Name:        "Sessions",
				Description: "List active sessions across all media",
				Parameters: []types.Parameter{
					{Name: "format", Type: "string", Description: "json or summary (default: summary)"},
				},
			},
			{
				ID:          "projects",
				Name:        "Projects",
				Description: "List registered projects",
			},
			{
				ID:          "activate",
				Name:        "Activate project",
				Description: "Make a registered project the active working context",
				Parameters: []types.Parameter{
					{Name: "project_name", Type: "string", Description: "Project to activate", Required: true},
				},
			},
			{
				ID:          "env",
				Name:        "Environment",
				Description: "Get, set, unset or list environment variables",
				Parameters: []types.Parameter{
					{Name: "action", Type: "string", Description: "get, set, list or unset", Required: true},
					{Name: "name", Type: "string", Description: "Variable name"},
					{Name: "value", Type: "string", Description: "Value for set"},
					{Name: "filter", Type: "string", Description: "Substring filter for list"},
				},
			},
			{
				ID:          "exec",
				Name:        "Exec",
				Description: "Run a command to completion with the merged project environment",
				Parameters: []types.Parameter{
					{Name: "command", Type: "string", Description: "Program to run", Required: true},
					{Name: "args", Type: "array", Description: "Program arguments"},
					{Name: "working_dir", Type: "string", Description: "Working directory"},
					{Name: "timeout", Type: "number", Description: "Run timeout in seconds (default: 30)"},
				},
				Returns: "combined output",
			},
			{
				ID:          "file",
				Name:        "File",
				Description: "Bounded file read or write",
				Parameters: []types.Parameter{
					{Name: "action", Type: "string", Description: "read or write", Required: true},
					{Name: "path", Type: "string", Description: "File path", Required: true},
					{Name: "content", Type: "string", Description: "Content for write"},
				},
			},
		},
	}
}

// Execute implements tools.Provider.
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, _ *types.Context) (*types.Result, error) {
	switch toolID {
	case "status":
		return p.status(params)
	case "sessions":
		return p.listSessions(params)
	case "projects":
		return p.listProjects()
	case "activate":
		return p.activate(params)
	case "env":
		return p.env(params)
	case "exec":
		return p.exec(ctx, params)
	case "file":
		return p.file(params)
	default:
		return types.Fail(fmt.Sprintf("unknown operation: %s", toolID)), nil
	}
}

func (p *Provider) status(params map[string]interface{}) (*types.Result, error) {
	verbose := tools.BoolArg(params, "verbose", false)

	status := map[string]interface{}{
		"uptime_seconds": int(time.Since(p.started).Seconds()),
		"active_count":   p.sessions.ActiveCount(),
	}
	for _, st := range p.sessions.Status() {
		entry := map[string]interface{}{"state": st.State.String()}
		if verbose && st.Detail != "" {
			entry["detail"] = st.Detail
		}
		status[string(st.Medium)] = entry
	}

	if p.projects != nil {
		if active, err := p.projects.Active(); err == nil {
			status["active_project"] = active.Name
		}
	}
	if p.mux != nil && p.mux.Available() {
		if sessions, err := p.mux.List(); err == nil {
			status["mux_sessions"] = len(sessions)
		}
	}

	out, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return types.Failf(err), nil
	}
	return types.Ok(string(out)), nil
}

func (p *Provider) listSessions(params map[string]interface{}) (*types.Result, error) {
	format := tools.StrArg(params, "format", "summary")

	var active []session.MediumStatus
	for _, st := range p.sessions.Status() {
		if st.State == session.StateActive {
			active = append(active, st)
		}
	}

	if format == "json" {
		out, err := json.MarshalIndent(active, "", "  ")
		if err != nil {
			return types.Failf(err), nil
		}
		return types.Ok(string(out)), nil
	}

	if len(active) == 0 {
		return types.Ok("No active sessions"), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d active session(s):\n", len(active))
	for _, st := range active {
		fmt.Fprintf(&b, "- %s", st.Medium)
		if st.Detail != "" {
			fmt.Fprintf(&b, ": %s", st.Detail)
		}
		b.WriteString("\n")
	}
	return types.Ok(strings.TrimRight(b.String(), "\n")), nil
}

func (p *Provider) listProjects() (*types.Result, error) {
	if p.projects == nil {
		return types.Fail("project registry not configured"), nil
	}

	list := p.projects.List()
	if len(list) == 0 {
		return types.Ok("No projects registered"), nil
	}

	activeName := ""
	if active, err := p.projects.Active(); err == nil {
		activeName = active.Name
	}

	var b strings.Builder
	for _, proj := range list {
		marker := " "
		if proj.Name == activeName {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s %s: %s\n", marker, proj.Name, proj.Path)
	}
	return types.Ok(strings.TrimRight(b.String(), "\n")), nil
}

func (p *Provider) activate(params map[string]interface{}) (*types.Result, error) {
	if p.projects == nil {
		return types.Fail("project registry not configured"), nil
	}
	proj, err := p.projects.Activate(tools.StrArg(params, "project_name", ""))
	if err != nil {
		return types.Failf(err), nil
	}
	return types.Ok(fmt.Sprintf("Activated project %q (%s)", proj.Name, proj.Path)), nil
}

func (p *Provider) env(params map[string]interface{}) (*types.Result, error) {
	action := tools.StrArg(params, "action", "")
	name := tools.StrArg(params, "name", "")

	switch action {
	case "get":
		if name == "" {
			return types.Fail("variable name required for get action"), nil
		}
		value, ok := os.LookupEnv(name)
		if !ok {
			return types.Fail(fmt.Sprintf("environment variable %q not found", name)), nil
		}
		return types.Ok(value), nil

	case "set":
		if name == "" {
			return types.Fail("variable name required for set action"), nil
		}
		value := tools.StrArg(params, "value", "")
		if err := os.Setenv(name, value); err != nil {
			return types.Failf(err), nil
		}
		return types.Ok(fmt.Sprintf("Set %s=%s", name, value)), nil

	case "unset":
		if name == "" {
			return types.Fail("variable name required for unset action"), nil
		}
		if _, ok := os.LookupEnv(name); !ok {
			return types.Fail(fmt.Sprintf("variable %q not found", name)), nil
		}
		if err := os.Unsetenv(name); err != nil {
			return types.Failf(err), nil
		}
		return types.Ok(fmt.Sprintf("Unset %s", name)), nil

	case "list":
		filter := strings.ToLower(tools.StrArg(params, "filter", ""))
		vars := make(map[string]string)
		for _, kv := range os.Environ() {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				continue
			}
			if filter != "" && !strings.Contains(strings.ToLower(k), filter) {
				continue
			}
			if len(v) > 100 {
				v = v[:97] + "..."
			}
			vars[k] = v
		}
		if len(vars) == 0 {
			return types.Ok("No matching environment variables found"), nil
		}
		keys := make([]string, 0, len(vars))
		for k := range vars {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		for _, k := range keys {
			fmt.Fprintf(&b, "%s=%s\n", k, vars[k])
		}
		return types.Ok(strings.TrimRight(b.String(), "\n")), nil

	default:
		return types.Fail(fmt.Sprintf("unknown action %q: want get, set, list or unset", action)), nil
	}
}

func (p *Provider) exec(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	timeout := tools.SecondsArg(params, "timeout", 30*time.Second)
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := osexec.CommandContext(runCtx,
		tools.StrArg(params, "command", ""),
		tools.StrSliceArg(params, "args")...)
	cmd.Dir = tools.StrArg(params, "working_dir", "")
	if p.projects != nil {
		if cmd.Dir == "" {
			cmd.Dir = p.projects.WorkDir()
		}
		cmd.Env = p.projects.MergedEnv()
	}

	out, err := cmd.CombinedOutput()
	if runCtx.Err() == context.DeadlineExceeded {
		return types.Fail(fmt.Sprintf("command timed out after %s", timeout)), nil
	}
	if err != nil {
		msg := err.Error()
		if len(out) > 0 {
			msg += "\n" + string(out)
		}
		return types.Fail(msg), nil
	}
	return types.Ok(string(out)), nil
}

func (p *Provider) file(params map[string]interface{}) (*types.Result, error) {
	action := tools.StrArg(params, "action", "")
	path := tools.StrArg(params, "path", "")

	switch action {
	case "read":
		info, err := os.Stat(path)
		if err != nil {
			return types.Failf(err), nil
		}
		if info.Size() > maxFileBytes {
			return types.Fail(fmt.Sprintf("file too large: %d bytes (limit %d)", info.Size(), maxFileBytes)), nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return types.Failf(err), nil
		}
		return types.Ok(string(data)), nil

	case "write":
		content := tools.StrArg(params, "content", "")
		if len(content) > maxFileBytes {
			return types.Fail(fmt.Sprintf("content too large: %d bytes (limit %d)", len(content), maxFileBytes)), nil
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return types.Failf(err), nil
		}
		return types.Ok(fmt.Sprintf("Wrote %d bytes to %s", len(content), path)), nil

	default:
		return types.Fail(fmt.Sprintf("unknown action %q: want read or write", action)), nil
	}
}
