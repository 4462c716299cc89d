package types

// ExecuteRequest represents a service execution request
type ExecuteRequest struct {
	ToolID string                 `json:"tool_id" binding:"required"`
	Params map[string]interface{} `json:"params"`
}

// InitRequest is the body of a session init call
type InitRequest struct {
	Cwd string `json:"cwd"`
}

// WriteRequest is the body of a session write call
type WriteRequest struct {
	Data string `json:"data"`
}

// ResizeRequest is the body of a session resize call
type ResizeRequest struct {
	Cols int `json:"cols" binding:"required,gt=0"`
	Rows int `json:"rows" binding:"required,gt=0"`
}
