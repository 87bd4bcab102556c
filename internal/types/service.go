package types

// Category represents tool provider categories
type Category string

const (
	CategoryTerminal Category = "terminal"
	CategoryProcess  Category = "process"
	CategoryNetwork  Category = "network"
	CategorySerial   Category = "serial"
	CategoryMuxer    Category = "muxer"
	CategorySystem   Category = "system"
)

// Service represents a tool provider definition
type Service struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Category     Category `json:"category"`
	Capabilities []string `json:"capabilities"`
	Tools        []Tool   `json:"tools"`
}

// Tool represents a single dispatchable operation
type Tool struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []Parameter `json:"parameters"`
	Returns     string      `json:"returns"`
}

// Parameter represents a tool parameter
type Parameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// Context provides execution context for tool calls. RequestID is assigned
// by the transport surface; Caller identifies the control channel in use
// ("stdio" or "http").
type Context struct {
	RequestID string `json:"request_id,omitempty"`
	Caller    string `json:"caller,omitempty"`
}

// Result represents a tool execution result. Exactly one of Content/Error is
// meaningful depending on Success. This is the only shape crossing the
// dispatcher boundary.
type Result struct {
	Success bool                   `json:"success"`
	Content string                 `json:"content,omitempty"`
	Error   *string                `json:"error,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// Ok builds a successful result.
func Ok(content string) *Result {
	return &Result{Success: true, Content: content}
}

// OkData builds a successful result carrying structured data.
func OkData(content string, data map[string]interface{}) *Result {
	return &Result{Success: true, Content: content, Data: data}
}

// Fail builds a failed result.
func Fail(msg string) *Result {
	return &Result{Success: false, Error: &msg}
}

// Failf builds a failed result from an error.
func Failf(err error) *Result {
	msg := err.Error()
	return &Result{Success: false, Error: &msg}
}

// Text returns the user-visible text for the result: content on success,
// the error description otherwise.
func (r *Result) Text() string {
	if r.Success {
		return r.Content
	}
	if r.Error != nil {
		return "Error: " + *r.Error
	}
	return "Error: " + r.Content
}
