package service

import (
	"context"
	"testing"

	"github.com/GriffinCanCode/termhub/internal/shared/types"
)

type mockProvider struct {
	id string
}

func (m *mockProvider) Definition() types.Service {
	return types.Service{
		ID:           m.id,
		Name:         "Mock Service",
		Description:  "A mock service for testing",
		Category:     types.CategoryTerminal,
		Capabilities: []string{"read", "write"},
		Tools: []types.Tool{
			{
				ID:          m.id + ".test",
				Name:        "Test Tool",
				Description: "A test tool",
				Returns:     "string",
			},
		},
	}
}

func (m *mockProvider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	return &types.Result{
		Success: true,
		Data:    map[string]interface{}{"result": "success"},
	}, nil
}

func TestRegister(t *testing.T) {
	r := NewRegistry()
	p := &mockProvider{id: "test"}

	if err := r.Register(p); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, ok := r.Get("test"); !ok {
		t.Error("Service should be registered")
	}
}

func TestList(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockProvider{id: "test1"})
	r.Register(&mockProvider{id: "test2"})

	services := r.List(nil)
	if len(services) != 2 {
		t.Errorf("Expected 2 services, got %d", len(services))
	}

	cat := types.CategoryTerminal
	filtered := r.List(&cat)
	if len(filtered) != 2 {
		t.Errorf("Expected 2 terminal services, got %d", len(filtered))
	}
}

func TestDiscover(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockProvider{id: "terminal"})

	results := r.Discover("terminal read write", 5)
	if len(results) == 0 {
		t.Fatal("Should discover terminal service")
	}

	if results[0].ID != "terminal" {
		t.Errorf("Expected terminal service, got %s", results[0].ID)
	}
}

func TestDiscoverRanksAndLimits(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockProvider{id: "beta"})
	r.Register(&mockProvider{id: "alpha"})
	r.Register(&mockProvider{id: "gamma"})

	// "gamma" matches by ID on top of the shared description words.
	results := r.Discover("gamma mock", 2)
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].ID != "gamma" {
		t.Errorf("Expected gamma first, got %s", results[0].ID)
	}
	if results[1].ID != "alpha" {
		t.Errorf("Expected ties in ID order, got %s", results[1].ID)
	}
}

func TestDiscoverNoMatch(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockProvider{id: "terminal"})

	if results := r.Discover("database", 5); len(results) != 0 {
		t.Errorf("Expected no matches, got %d", len(results))
	}
	// Partial words do not count.
	if results := r.Discover("term", 5); len(results) != 0 {
		t.Errorf("Expected no matches for a word fragment, got %d", len(results))
	}
	if results := r.Discover("terminal", 0); len(results) != 0 {
		t.Errorf("Expected no results for a zero limit, got %d", len(results))
	}
}

func TestExecute(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockProvider{id: "test"})

	ctx := context.Background()
	result, err := r.Execute(ctx, "test.test", map[string]interface{}{}, nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if !result.Success {
		t.Error("Expected successful execution")
	}
}

func TestStats(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockProvider{id: "test1"})
	r.Register(&mockProvider{id: "test2"})

	stats := r.Stats()
	totalServices := stats["total_services"].(int)
	if totalServices != 2 {
		t.Errorf("Expected 2 total services, got %d", totalServices)
	}

	totalTools := stats["total_tools"].(int)
	if totalTools != 2 {
		t.Errorf("Expected 2 total tools, got %d", totalTools)
	}
}

func TestExecuteUnknownService(t *testing.T) {
	r := NewRegistry()

	result, err := r.Execute(context.Background(), "ghost.run", nil, nil)
	if err == nil {
		t.Fatal("Expected error for unknown service")
	}
	if result == nil || result.Success {
		t.Error("Expected failure result")
	}
}

func TestExecuteInvalidToolID(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockProvider{id: "test"})

	if _, err := r.Execute(context.Background(), "test", nil, nil); err == nil {
		t.Error("Expected error for tool ID without service prefix")
	}
}

func TestListSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockProvider{id: "zeta"})
	r.Register(&mockProvider{id: "alpha"})

	services := r.List(nil)
	if len(services) != 2 || services[0].ID != "alpha" {
		t.Errorf("Expected services ordered by ID, got %v", services)
	}
}
