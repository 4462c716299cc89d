/*
Package monitoring provides Prometheus metrics for termhub.

# Overview

Each Metrics value owns a private registry so tests and embedded instances do
not collide on the global default registry.

# Features

- HTTP request metrics (latency, status) via Gin middleware
- Pty session lifecycle metrics (spawns, exits by reason, live sessions)
- Output volume and process-tree kill latency
- WebSocket connection and message metrics
- Uptime plus Go runtime and process collectors

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTreeKillTimer(metrics)
	err := proctree.Kill(ctx, pid)
	timer.Stop("success")
*/
package monitoring
