// Package middleware provides ready-made channel interceptors:
// Prometheus metrics and OpenTelemetry tracing around request dispatch.
//
// Interceptors wrap every dispatched request, both calls and publishes,
// on whichever side installs them:
//
//	srv := server.New(&server.Config{
//	    Routes: routes,
//	    Interceptors: []channel.Interceptor{
//	        middleware.Prometheus(),
//	        middleware.OpenTelemetry(),
//	    },
//	})
package middleware
