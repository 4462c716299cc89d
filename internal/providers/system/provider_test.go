package system

import (
	"context"
	"testing"
)

type fixedSessions int

func (f fixedSessions) Len() int { return int(f) }

func TestSystemInfo(t *testing.T) {
	sys := NewProvider("/bin/sh", fixedSessions(3))
	ctx := context.Background()

	result, err := sys.Execute(ctx, "system.info", nil, nil)

	if err != nil || !result.Success {
		t.Fatalf("System info failed: %v", err)
	}

	if result.Data["go_version"] == nil {
		t.Error("Expected go_version in response")
	}
	if result.Data["shell"] != "/bin/sh" {
		t.Errorf("Expected shell /bin/sh, got %v", result.Data["shell"])
	}
	if result.Data["sessions"] != 3 {
		t.Errorf("Expected 3 sessions, got %v", result.Data["sessions"])
	}
}

func TestSystemInfoWithoutSessions(t *testing.T) {
	sys := NewProvider("", nil)

	result, err := sys.Execute(context.Background(), "system.info", nil, nil)

	if err != nil || !result.Success {
		t.Fatalf("System info failed: %v", err)
	}
	if result.Data["sessions"] != 0 {
		t.Errorf("Expected 0 sessions, got %v", result.Data["sessions"])
	}
}

func TestSystemTime(t *testing.T) {
	sys := NewProvider("", nil)
	ctx := context.Background()

	result, err := sys.Execute(ctx, "system.time", nil, nil)

	if err != nil || !result.Success {
		t.Fatalf("System time failed: %v", err)
	}

	if result.Data["timestamp"] == nil {
		t.Error("Expected timestamp in response")
	}
}

func TestSystemPing(t *testing.T) {
	sys := NewProvider("", nil)

	result, err := sys.Execute(context.Background(), "system.ping", nil, nil)

	if err != nil || !result.Success {
		t.Fatalf("Ping failed: %v", err)
	}
	if result.Data["pong"] != true {
		t.Error("Expected pong")
	}
}

func TestUnknownTool(t *testing.T) {
	sys := NewProvider("", nil)

	result, err := sys.Execute(context.Background(), "system.reboot", nil, nil)

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Success || result.Error == nil {
		t.Error("Expected failure result for unknown tool")
	}
}
