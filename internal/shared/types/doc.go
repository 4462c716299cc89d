// Package types provides shared data structures for the termhub server.
//
// Core Types:
//   - Service: Service provider definition
//   - Tool: Service tool specification
//   - Context: Execution context for operations
//   - Result: Standard operation result
//
// Request Types:
//   - ExecuteRequest: Service tool execution
//   - InitRequest, WriteRequest, ResizeRequest: Session REST bodies
package types
