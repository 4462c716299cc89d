package terminal

import (
	"context"
	"fmt"

	"github.com/GriffinCanCode/termhub/internal/shared/types"
	"github.com/GriffinCanCode/termhub/internal/shared/utils"
)

// Provider exposes the session manager as a tool service
type Provider struct {
	manager *Manager
}

// NewProvider creates a terminal provider over manager
func NewProvider(manager *Manager) *Provider {
	return &Provider{manager: manager}
}

// Definition returns service metadata
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:          "terminal",
		Name:        "Terminal Service",
		Description: "Interactive shell sessions with PTY support keyed by caller-chosen ids",
		Category:    types.CategoryTerminal,
		Capabilities: []string{
			"pty",
			"shell",
			"interactive",
			"resize",
			"tree_kill",
		},
		Tools: p.getTools(),
	}
}

// Execute routes to appropriate operation
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "terminal.init":
		return p.init(params)
	case "terminal.write":
		return p.write(params)
	case "terminal.resize":
		return p.resize(params)
	case "terminal.kill":
		return p.kill(params)
	case "terminal.list":
		return p.list()
	case "terminal.get":
		return p.get(params)
	default:
		return nil, fmt.Errorf("unknown tool: %s", toolID)
	}
}

func sessionIDParam() types.Parameter {
	return types.Parameter{
		Name:        "session_id",
		Type:        "string",
		Description: "Terminal session ID",
		Required:    true,
	}
}

func (p *Provider) getTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "terminal.init",
			Name:        "Init Terminal Session",
			Description: "Start a shell for the id; succeeds without spawning if one is already running",
			Parameters: []types.Parameter{
				sessionIDParam(),
				{
					Name:        "cwd",
					Type:        "string",
					Description: "Initial working directory. Falls back to the user's home when missing",
					Required:    false,
				},
			},
			Returns: "boolean",
		},
		{
			ID:          "terminal.write",
			Name:        "Write to Terminal",
			Description: "Send input to a terminal session",
			Parameters: []types.Parameter{
				sessionIDParam(),
				{
					Name:        "data",
					Type:        "string",
					Description: "Input to send to the shell",
					Required:    true,
				},
			},
			Returns: "success",
		},
		{
			ID:          "terminal.resize",
			Name:        "Resize Terminal",
			Description: "Change terminal dimensions",
			Parameters: []types.Parameter{
				sessionIDParam(),
				{
					Name:        "cols",
					Type:        "number",
					Description: "New width in columns",
					Required:    true,
				},
				{
					Name:        "rows",
					Type:        "number",
					Description: "New height in rows",
					Required:    true,
				},
			},
			Returns: "success",
		},
		{
			ID:          "terminal.kill",
			Name:        "Kill Terminal Session",
			Description: "Terminate a session together with every process it started",
			Parameters:  []types.Parameter{sessionIDParam()},
			Returns:     "boolean",
		},
		{
			ID:          "terminal.list",
			Name:        "List Terminal Sessions",
			Description: "List all live terminal sessions",
			Parameters:  []types.Parameter{},
			Returns:     "sessions_list",
		},
		{
			ID:          "terminal.get",
			Name:        "Get Session Info",
			Description: "Get information about a terminal session",
			Parameters:  []types.Parameter{sessionIDParam()},
			Returns:     "session_info",
		},
	}
}

func (p *Provider) init(params map[string]interface{}) (*types.Result, error) {
	sessionID, ok := params["session_id"].(string)
	if !ok || sessionID == "" {
		return nil, fmt.Errorf("session_id is required")
	}
	cwd, _ := params["cwd"].(string)

	started := p.manager.Init(sessionID, cwd)
	if !started {
		return types.Failure("failed to start shell"), nil
	}
	return &types.Result{
		Success: true,
		Data:    map[string]interface{}{"started": true},
	}, nil
}

func (p *Provider) write(params map[string]interface{}) (*types.Result, error) {
	sessionID, ok := params["session_id"].(string)
	if !ok {
		return nil, fmt.Errorf("session_id is required")
	}

	data, ok := params["data"].(string)
	if !ok {
		return nil, fmt.Errorf("data is required")
	}

	p.manager.Write(sessionID, []byte(data))

	return &types.Result{
		Success: true,
		Data:    map[string]interface{}{"success": true},
	}, nil
}

func (p *Provider) resize(params map[string]interface{}) (*types.Result, error) {
	sessionID, ok := params["session_id"].(string)
	if !ok {
		return nil, fmt.Errorf("session_id is required")
	}

	// JSON numbers decode as float64
	cols, ok := params["cols"].(float64)
	if !ok {
		return nil, fmt.Errorf("cols is required")
	}

	rows, ok := params["rows"].(float64)
	if !ok {
		return nil, fmt.Errorf("rows is required")
	}

	if err := utils.ValidateGeometry(int(cols), int(rows)); err != nil {
		return types.Failure(err.Error()), nil
	}

	p.manager.Resize(sessionID, int(cols), int(rows))

	return &types.Result{
		Success: true,
		Data:    map[string]interface{}{"success": true},
	}, nil
}

func (p *Provider) kill(params map[string]interface{}) (*types.Result, error) {
	sessionID, ok := params["session_id"].(string)
	if !ok {
		return nil, fmt.Errorf("session_id is required")
	}

	return &types.Result{
		Success: p.manager.Kill(sessionID),
		Data:    map[string]interface{}{"killed": true},
	}, nil
}

func (p *Provider) list() (*types.Result, error) {
	sessions := p.manager.List()

	return &types.Result{
		Success: true,
		Data: map[string]interface{}{
			"sessions": sessions,
			"count":    len(sessions),
		},
	}, nil
}

func (p *Provider) get(params map[string]interface{}) (*types.Result, error) {
	sessionID, ok := params["session_id"].(string)
	if !ok {
		return nil, fmt.Errorf("session_id is required")
	}

	info, found := p.manager.Get(sessionID)
	if !found {
		return types.Failure(fmt.Sprintf("session not found: %s", sessionID)), nil
	}

	return &types.Result{
		Success: true,
		Data: map[string]interface{}{
			"id":          info.ID,
			"shell":       info.Shell,
			"working_dir": info.WorkingDir,
			"pid":         info.PID,
			"cols":        info.Cols,
			"rows":        info.Rows,
			"started_at":  info.StartedAt,
			"active":      info.Active,
		},
	}, nil
}
