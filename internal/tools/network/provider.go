// Package network provides the socket tool group: TCP/UDP connections and
// the raw telnet client mode with IAC negotiation.
package network

import (
	"context"
	"fmt"
	"time"

	"github.com/ptybridge/ptybridge/internal/session"
	"github.com/ptybridge/ptybridge/internal/tools"
	"github.com/ptybridge/ptybridge/internal/types"
)

// Provider drives the singleton socket session.
type Provider struct {
	sessions *session.Manager
}

// NewProvider creates the network provider.
func NewProvider(sessions *session.Manager) *Provider {
	return &Provider{sessions: sessions}
}

// Definition implements tools.Provider.
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:          "network",
		Name:        "Network",
		Description: "Raw TCP/UDP socket sessions and telnet protocol handling",
		Category:    types.CategoryNetwork,
		Capabilities: []string{
			"tcp", "udp", "telnet",
		},
		Tools: []types.Tool{
			{
				ID:          "socket-open",
				Name:        "Open socket",
				Description: "Open a TCP or UDP connection",
				Parameters: []types.Parameter{
					{Name: "host", Type: "string", Description: "Host to connect to", Required: true},
					{Name: "port", Type: "number", Description: "Port number", Required: true},
					{Name: "protocol", Type: "string", Description: "tcp or udp (default: tcp)"},
				},
			},
			{
				ID:          "socket-read",
				Name:        "Read socket",
				Description: "Read pending data from the open socket",
				Parameters: []types.Parameter{
					{Name: "timeout", Type: "number", Description: "Read timeout in seconds (default: 2)"},
				},
				Returns: "received data, empty on timeout",
			},
			{
				ID:          "socket-write",
				Name:        "Write socket",
				Description: "Write data to the open socket",
				Parameters: []types.Parameter{
					{Name: "data", Type: "string", Description: "Data to send", Required: true},
				},
			},
			{
				ID:          "socket-message",
				Name:        "Socket round trip",
				Description: "Send a message and read the reply in one call",
				Parameters: []types.Parameter{
					{Name: "message", Type: "string", Description: "Message to send", Required: true},
					{Name: "add_newline", Type: "boolean", Description: "Append newline (default: true)"},
					{Name: "prompt_timeout", Type: "number", Description: "Reply timeout in seconds (default: 5)"},
				},
				Returns: "reply data",
			},
			{
				ID:          "socket-telnet",
				Name:        "Telnet socket",
				Description: "Open a telnet-mode TCP connection that answers option negotiation",
				Parameters: []types.Parameter{
					{Name: "host", Type: "string", Description: "Host to connect to", Required: true},
					{Name: "port", Type: "number", Description: "Port (default: 23)"},
					{Name: "initial_read", Type: "boolean", Description: "Read the banner after connecting (default: true)"},
					{Name: "timeout", Type: "number", Description: "Connect timeout in seconds (default: 10)"},
				},
				Returns: "connection banner",
			},
			{
				ID:          "socket-close",
				Name:        "Close socket",
				Description: "Close the open socket",
			},
		},
	}
}

// Execute implements tools.Provider.
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, _ *types.Context) (*types.Result, error) {
	switch toolID {
	case "socket-open":
		return p.open(params)
	case "socket-read":
		return p.read(params)
	case "socket-write":
		return p.write(params)
	case "socket-message":
		return p.message(params)
	case "socket-telnet":
		return p.telnet(params)
	case "socket-close":
		return p.close()
	default:
		return types.Fail(fmt.Sprintf("unknown operation: %s", toolID)), nil
	}
}

func (p *Provider) open(params map[string]interface{}) (*types.Result, error) {
	sock := p.sessions.Socket()
	err := sock.Start(session.SocketSpec{
		Host:     tools.StrArg(params, "host", ""),
		Port:     tools.IntArg(params, "port", 0),
		Protocol: tools.StrArg(params, "protocol", "tcp"),
	})
	if err != nil {
		return types.Failf(err), nil
	}
	return types.Ok(fmt.Sprintf("Socket opened: %s", sock.Remote())), nil
}

func (p *Provider) read(params map[string]interface{}) (*types.Result, error) {
	out, err := p.sessions.Socket().Read(tools.SecondsArg(params, "timeout", 2*time.Second))
	if err != nil {
		return types.Failf(err), nil
	}
	return types.Ok(out), nil
}

func (p *Provider) write(params map[string]interface{}) (*types.Result, error) {
	data := tools.StrArg(params, "data", "")
	if err := p.sessions.Socket().Send([]byte(data)); err != nil {
		return types.Failf(err), nil
	}
	return types.Ok(fmt.Sprintf("Sent %d bytes", len(data))), nil
}

func (p *Provider) message(params map[string]interface{}) (*types.Result, error) {
	msg := tools.StrArg(params, "message", "")
	if tools.BoolArg(params, "add_newline", true) {
		msg += "\n"
	}
	out, err := p.sessions.Socket().Message([]byte(msg),
		tools.SecondsArg(params, "prompt_timeout", 5*time.Second))
	if err != nil {
		return types.Failf(err), nil
	}
	return types.Ok(out), nil
}

func (p *Provider) telnet(params map[string]interface{}) (*types.Result, error) {
	sock := p.sessions.Socket()
	err := sock.Start(session.SocketSpec{
		Host:        tools.StrArg(params, "host", ""),
		Port:        tools.IntArg(params, "port", 23),
		Protocol:    "tcp",
		Telnet:      true,
		DialTimeout: tools.SecondsArg(params, "timeout", 10*time.Second),
	})
	if err != nil {
		return types.Failf(err), nil
	}

	banner := fmt.Sprintf("Telnet connection opened: %s", sock.Remote())
	if tools.BoolArg(params, "initial_read", true) {
		out, err := sock.Read(2 * time.Second)
		if err != nil {
			return types.Failf(err), nil
		}
		if out != "" {
			banner += "\n" + out
		}
	}
	return types.Ok(banner), nil
}

func (p *Provider) close() (*types.Result, error) {
	if err := p.sessions.Socket().Stop(); err != nil {
		return types.Failf(err), nil
	}
	return types.Ok("Socket closed"), nil
}
