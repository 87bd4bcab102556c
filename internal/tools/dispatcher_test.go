package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ptybridge/ptybridge/internal/logging"
	"github.com/ptybridge/ptybridge/internal/types"
)

// stubProvider exposes a configurable set of tools backed by one handler.
type stubProvider struct {
	def     types.Service
	handler func(toolID string, params map[string]interface{}) (*types.Result, error)
}

func (s *stubProvider) Definition() types.Service { return s.def }

func (s *stubProvider) Execute(_ context.Context, toolID string, params map[string]interface{}, _ *types.Context) (*types.Result, error) {
	return s.handler(toolID, params)
}

func echoProvider() *stubProvider {
	return &stubProvider{
		def: types.Service{
			ID:       "echo",
			Name:     "Echo",
			Category: types.CategorySystem,
			Tools: []types.Tool{
				{
					ID: "echo-say",
					Parameters: []types.Parameter{
						{Name: "text", Type: "string", Required: true},
						{Name: "count", Type: "number", Required: false},
					},
				},
			},
		},
		handler: func(_ string, params map[string]interface{}) (*types.Result, error) {
			return types.Ok(params["text"].(string)), nil
		},
	}
}

func newTestDispatcher(t *testing.T, providers ...Provider) *Dispatcher {
	t.Helper()
	reg := NewRegistry()
	for _, p := range providers {
		require.NoError(t, reg.Register(p))
	}
	return NewDispatcher(reg, logging.NewNop(), nil)
}

func TestDispatchSuccess(t *testing.T) {
	d := newTestDispatcher(t, echoProvider())

	res := d.Dispatch(context.Background(), "echo-say", map[string]interface{}{"text": "hello"}, nil)
	assert.True(t, res.Success)
	assert.Equal(t, "hello", res.Content)
}

func TestAfterDispatchHookRunsPerInvocation(t *testing.T) {
	failing := echoProvider()
	failing.handler = func(toolID string, params map[string]interface{}) (*types.Result, error) {
		if params["text"] == "boom" {
			return nil, errors.New("boom")
		}
		return types.Ok(params["text"].(string)), nil
	}
	d := newTestDispatcher(t, failing)

	calls := 0
	d.AfterDispatch(func() { calls++ })

	d.Dispatch(context.Background(), "echo-say", map[string]interface{}{"text": "hello"}, nil)
	assert.Equal(t, 1, calls)

	// Handler failures still reach the hook; a failed call may have
	// changed session state before erroring.
	d.Dispatch(context.Background(), "echo-say", map[string]interface{}{"text": "boom"}, nil)
	assert.Equal(t, 2, calls)

	// Unknown operations never reach a handler, so nothing to refresh.
	d.Dispatch(context.Background(), "no-such-tool", nil, nil)
	assert.Equal(t, 2, calls)
}

func TestDispatchUnknownOperation(t *testing.T) {
	d := newTestDispatcher(t, echoProvider())

	res := d.Dispatch(context.Background(), "no-such-tool", nil, nil)
	require.False(t, res.Success)
	assert.Contains(t, *res.Error, "unknown operation")
	assert.Contains(t, *res.Error, "no-such-tool")
}

func TestDispatchMissingRequiredParameter(t *testing.T) {
	d := newTestDispatcher(t, echoProvider())

	res := d.Dispatch(context.Background(), "echo-say", map[string]interface{}{}, nil)
	require.False(t, res.Success)
	assert.Contains(t, *res.Error, `"text"`)
}

func TestDispatchWrongParameterType(t *testing.T) {
	d := newTestDispatcher(t, echoProvider())

	res := d.Dispatch(context.Background(), "echo-say",
		map[string]interface{}{"text": 42}, nil)
	require.False(t, res.Success)
	assert.Contains(t, *res.Error, `"text"`)
	assert.Contains(t, *res.Error, "string")
}

func TestDispatchOptionalParameterTypes(t *testing.T) {
	d := newTestDispatcher(t, echoProvider())

	// JSON decoding yields float64; native ints must pass too.
	for _, count := range []interface{}{float64(3), 3} {
		res := d.Dispatch(context.Background(), "echo-say",
			map[string]interface{}{"text": "x", "count": count}, nil)
		assert.True(t, res.Success)
	}

	res := d.Dispatch(context.Background(), "echo-say",
		map[string]interface{}{"text": "x", "count": "three"}, nil)
	assert.False(t, res.Success)
}

func TestDispatchRecoversPanic(t *testing.T) {
	p := &stubProvider{
		def: types.Service{
			ID:    "boom",
			Tools: []types.Tool{{ID: "boom-go"}},
		},
		handler: func(string, map[string]interface{}) (*types.Result, error) {
			panic("handler bug")
		},
	}
	d := newTestDispatcher(t, p)

	res := d.Dispatch(context.Background(), "boom-go", nil, nil)
	require.False(t, res.Success)
	assert.Contains(t, *res.Error, "internal error")
}

func TestDispatchHandlerError(t *testing.T) {
	p := &stubProvider{
		def: types.Service{
			ID:    "fail",
			Tools: []types.Tool{{ID: "fail-now"}},
		},
		handler: func(string, map[string]interface{}) (*types.Result, error) {
			return nil, errors.New("backend exploded")
		},
	}
	d := newTestDispatcher(t, p)

	res := d.Dispatch(context.Background(), "fail-now", nil, nil)
	require.False(t, res.Success)
	assert.Equal(t, "backend exploded", *res.Error)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(echoProvider()))

	assert.Error(t, reg.Register(echoProvider()))

	other := &stubProvider{
		def: types.Service{
			ID:    "other",
			Tools: []types.Tool{{ID: "echo-say"}},
		},
	}
	assert.Error(t, reg.Register(other))
}

func TestRegistryListAndTools(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(echoProvider()))

	services := reg.List(nil)
	require.Len(t, services, 1)
	assert.Equal(t, "echo", services[0].ID)

	system := types.CategorySystem
	assert.Len(t, reg.List(&system), 1)
	terminal := types.CategoryTerminal
	assert.Empty(t, reg.List(&terminal))

	toolDefs := reg.Tools()
	require.Len(t, toolDefs, 1)
	assert.Equal(t, "echo-say", toolDefs[0].ID)

	stats := reg.Stats()
	assert.Equal(t, 1, stats["total_services"])
	assert.Equal(t, 1, stats["total_tools"])
}
