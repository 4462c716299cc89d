// Package service provides the tool registry the HTTP and WebSocket layers
// dispatch through.
//
// A Provider describes itself as a Service with a list of Tools and executes
// tool calls addressed as "<service>.<tool>".
//
// Components:
//   - Registry: Central service catalog
//   - Provider: Interface for service implementations
//
// Example Usage:
//
//	registry := service.NewRegistry()
//	registry.Register(terminal.NewProvider(manager))
//	result, err := registry.Execute(ctx, "terminal.init", params, appCtx)
package service
