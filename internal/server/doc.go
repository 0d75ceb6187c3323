// Package server provides the MCP server context, seed loading, and the
// operational HTTP endpoints for the mockbox application.
//
// # Key Components
//
// ServerContext owns the simulated Gmail and GitHub stores together with the
// logger and instrumentation provider. Tool handlers receive the context and
// operate on the stores through it. A read-only flag controls whether
// mutating tools are registered at all.
//
// SeedFile describes the YAML fixture format that populates both stores at
// startup. A single file can carry gmail and github sections; either may be
// omitted.
//
// HealthChecker exposes /healthz and /readyz handlers for Kubernetes probes,
// and MetricsServer serves Prometheus metrics on a dedicated port so that
// operational data stays off the MCP transport.
package server
