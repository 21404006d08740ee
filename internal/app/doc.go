// Package app wires the featurepipe web service together: configuration,
// telemetry, the pipeline and health services, the chi router with its
// middleware chain, and the HTTP server lifecycle.
//
// # Initialization Flow
//
//  1. Initialize OpenTelemetry (tracer, meter, Prometheus registry)
//  2. Build the stage set, pinning the clock when pipeline.today is set
//  3. Create the pipeline and health services
//  4. Mount handlers and middleware
//  5. Create the HTTP server
//
// # Middleware Order
//
// RequestID and RealIP run for every route. API routes additionally pass
// through tracing, structured logging, panic recovery, security headers,
// the body size limit and the optional rate limiter. /metrics sits outside
// that group.
//
// # Usage
//
//	application, err := app.NewApplication(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
package app
