// Package common provides shared utilities for MCP tool implementations.
//
// InstrumentedToolHandler wraps tool handlers with invocation metrics and
// debug logging; the WithService variant additionally attributes the call to
// one of the simulated backend services. JSONResult formats store documents
// as indented JSON tool results.
package common
