package tools

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ptybridge/ptybridge/internal/logging"
	"github.com/ptybridge/ptybridge/internal/monitoring"
	"github.com/ptybridge/ptybridge/internal/types"
)

// Dispatcher routes tool calls through the registry with argument
// validation, panic recovery, logging and metrics. Every call produces a
// Result; the error return is reserved for transport-level problems and is
// always nil today.
type Dispatcher struct {
	registry *Registry
	logger   *logging.Logger
	metrics  *monitoring.Metrics
	after    func()
}

// NewDispatcher creates a dispatcher. metrics may be nil.
func NewDispatcher(registry *Registry, logger *logging.Logger, metrics *monitoring.Metrics) *Dispatcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Dispatcher{registry: registry, logger: logger, metrics: metrics}
}

// Registry exposes the underlying registry for listings.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// AfterDispatch registers a hook run after every handler invocation, used
// to refresh session gauges that track state a call may have changed.
func (d *Dispatcher) AfterDispatch(fn func()) { d.after = fn }

// Dispatch executes one tool call.
func (d *Dispatcher) Dispatch(ctx context.Context, toolID string, params map[string]interface{}, tctx *types.Context) *types.Result {
	start := time.Now()
	if tctx == nil {
		tctx = &types.Context{}
	}

	provider, tool, service, ok := d.registry.Lookup(toolID)
	if !ok {
		d.logger.Warn("unknown tool", zap.String("tool", toolID), zap.String("request_id", tctx.RequestID))
		d.recordError("unknown", toolID, "unknown_operation")
		return types.Fail(fmt.Sprintf("unknown operation: %s", toolID))
	}

	if msg := validateParams(tool, params); msg != "" {
		d.logger.Warn("invalid arguments",
			zap.String("tool", toolID),
			zap.String("reason", msg),
			zap.String("request_id", tctx.RequestID))
		d.recordError(service, toolID, "invalid_arguments")
		return types.Fail(msg)
	}

	result := d.invoke(ctx, provider, toolID, params, tctx)
	if d.after != nil {
		d.after()
	}

	status := "ok"
	if !result.Success {
		status = "error"
	}
	if d.metrics != nil {
		d.metrics.RecordToolCall(service, toolID, status, time.Since(start))
	}
	d.logger.Debug("tool dispatched",
		zap.String("service", service),
		zap.String("tool", toolID),
		zap.Bool("success", result.Success),
		zap.Duration("duration", time.Since(start)),
		zap.String("request_id", tctx.RequestID))
	return result
}

// invoke calls the handler with a recover guard so a panicking provider
// yields a failed result instead of taking down the control loop.
func (d *Dispatcher) invoke(ctx context.Context, provider Provider, toolID string, params map[string]interface{}, tctx *types.Context) (result *types.Result) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("tool handler panicked",
				zap.String("tool", toolID),
				zap.Any("panic", r),
				zap.Stack("stack"))
			d.recordError("", toolID, "panic")
			result = types.Fail(fmt.Sprintf("%s: internal error", toolID))
		}
	}()

	res, err := provider.Execute(ctx, toolID, params, tctx)
	if err != nil {
		return types.Failf(err)
	}
	if res == nil {
		return types.Fail(fmt.Sprintf("%s: handler returned no result", toolID))
	}
	return res
}

func (d *Dispatcher) recordError(service, tool, errorType string) {
	if d.metrics != nil {
		d.metrics.RecordToolError(service, tool, errorType)
	}
}

// validateParams checks declared parameters against the supplied arguments,
// returning a message naming the offending field, or "" when valid.
// Undeclared extra arguments pass through untouched.
func validateParams(tool types.Tool, params map[string]interface{}) string {
	for _, p := range tool.Parameters {
		val, present := params[p.Name]
		if !present || val == nil {
			if p.Required {
				return fmt.Sprintf("%s: missing required parameter %q", tool.ID, p.Name)
			}
			continue
		}
		if !typeMatches(p.Type, val) {
			return fmt.Sprintf("%s: parameter %q must be a %s", tool.ID, p.Name, p.Type)
		}
	}
	return ""
}

// typeMatches checks primitive JSON types. Numbers arrive as float64 from
// JSON decoding but handlers also get exercised with native ints in tests.
func typeMatches(declared string, val interface{}) bool {
	switch declared {
	case "string":
		_, ok := val.(string)
		return ok
	case "number", "integer":
		switch val.(type) {
		case float64, float32, int, int32, int64:
			return true
		}
		return false
	case "boolean":
		_, ok := val.(bool)
		return ok
	case "object":
		_, ok := val.(map[string]interface{})
		return ok
	case "array":
		_, ok := val.([]interface{})
		return ok
	default:
		return true
	}
}
