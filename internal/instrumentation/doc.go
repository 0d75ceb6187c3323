// Package instrumentation provides OpenTelemetry metrics for the mockbox
// server.
//
// The package wires a meter provider with a configurable exporter
// (prometheus, otlp or stdout) and exposes a Metrics recorder with
// counters and histograms for MCP tool invocations, simulated backend
// store operations and HTTP requests.
//
// # Usage
//
//	config := instrumentation.DefaultConfig()
//	provider, err := instrumentation.NewProvider(ctx, config)
//	if err != nil { ... }
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordToolInvocation(ctx, "gmail_send_message",
//	    instrumentation.StatusSuccess, duration)
package instrumentation
