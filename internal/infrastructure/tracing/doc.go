/*
Package tracing provides lightweight request tracing for the termhub API.

Every HTTP request gets a span. The trace id is taken from the X-Trace-ID
header when the caller sends one, so a CLI invocation and the server log lines
it caused share an id. Finished spans are written to the log by a background
collector.

# Usage

	tracer := tracing.New("termhub", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))
*/
package tracing
