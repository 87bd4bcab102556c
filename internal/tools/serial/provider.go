// Package serial provides the serial-port tool group.
package serial

import (
	"context"
	"fmt"
	"time"

	"github.com/ptybridge/ptybridge/internal/session"
	"github.com/ptybridge/ptybridge/internal/tools"
	"github.com/ptybridge/ptybridge/internal/types"
)

// Provider drives the singleton serial session.
type Provider struct {
	sessions *session.Manager
}

// NewProvider creates the serial provider.
func NewProvider(sessions *session.Manager) *Provider {
	return &Provider{sessions: sessions}
}

// Definition implements tools.Provider.
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:          "serial",
		Name:        "Serial",
		Description: "Serial port sessions (8N1 framing)",
		Category:    types.CategorySerial,
		Capabilities: []string{
			"serial", "baud",
		},
		Tools: []types.Tool{
			{
				ID:          "serial-open",
				Name:        "Open serial port",
				Description: "Open a serial device",
				Parameters: []types.Parameter{
					{Name: "device", Type: "string", Description: "Device path (e.g. /dev/ttyUSB0)", Required: true},
					{Name: "baudrate", Type: "number", Description: "Baud rate (default: 9600)"},
				},
			},
			{
				ID:          "serial-read",
				Name:        "Read serial port",
				Description: "Read pending data from the open port",
				Parameters: []types.Parameter{
					{Name: "timeout", Type: "number", Description: "Read timeout in seconds (default: 2)"},
				},
				Returns: "received data, empty on timeout",
			},
			{
				ID:          "serial-write",
				Name:        "Write serial port",
				Description: "Write data to the open port",
				Parameters: []types.Parameter{
					{Name: "data", Type: "string", Description: "Data to send", Required: true},
				},
			},
			{
				ID:          "serial-message",
				Name:        "Serial round trip",
				Description: "Send a message and read the reply in one call",
				Parameters: []types.Parameter{
					{Name: "message", Type: "string", Description: "Message to send", Required: true},
					{Name: "add_newline", Type: "boolean", Description: "Append newline (default: true)"},
					{Name: "timeout", Type: "number", Description: "Reply timeout in seconds (default: 5)"},
				},
				Returns: "reply data",
			},
			{
				ID:          "serial-close",
				Name:        "Close serial port",
				Description: "Close the open port",
			},
		},
	}
}

// Execute implements tools.Provider.
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, _ *types.Context) (*types.Result, error) {
	switch toolID {
	case "serial-open":
		return p.open(params)
	case "serial-read":
		return p.read(params)
	case "serial-write":
		return p.write(params)
	case "serial-message":
		return p.message(params)
	case "serial-close":
		return p.close()
	default:
		return types.Fail(fmt.Sprintf("unknown operation: %s", toolID)), nil
	}
}

func (p *Provider) open(params map[string]interface{}) (*types.Result, error) {
	ser := p.sessions.Serial()
	err := ser.Start(session.SerialSpec{
		Device:   tools.StrArg(params, "device", ""),
		BaudRate: tools.IntArg(params, "baudrate", 9600),
	})
	if err != nil {
		return types.Failf(err), nil
	}
	return types.Ok(fmt.Sprintf("Serial port opened: %s", ser.Device())), nil
}

func (p *Provider) read(params map[string]interface{}) (*types.Result, error) {
	out, err := p.sessions.Serial().Read(tools.SecondsArg(params, "timeout", 2*time.Second))
	if err != nil {
		return types.Failf(err), nil
	}
	return types.Ok(out), nil
}

func (p *Provider) write(params map[string]interface{}) (*types.Result, error) {
	data := tools.StrArg(params, "data", "")
	if err := p.sessions.Serial().Send([]byte(data)); err != nil {
		return types.Failf(err), nil
	}
	return types.Ok(fmt.Sprintf("Sent %d bytes", len(data))), nil
}

func (p *Provider) message(params map[string]interface{}) (*types.Result, error) {
	msg := tools.StrArg(params, "message", "")
	if tools.BoolArg(params, "add_newline", true) {
		msg += "\n"
	}
	out, err := p.sessions.Serial().Message([]byte(msg),
		tools.SecondsArg(params, "timeout", 5*time.Second))
	if err != nil {
		return types.Failf(err), nil
	}
	return types.Ok(out), nil
}

func (p *Provider) close() (*types.Result, error) {
	if err := p.sessions.Serial().Stop(); err != nil {
		return types.Failf(err), nil
	}
	return types.Ok("Serial port closed"), nil
}
