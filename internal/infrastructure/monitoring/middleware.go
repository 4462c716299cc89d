package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware creates a Gin middleware for metrics collection
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		// Route template keeps label cardinality bounded (":id" instead of each id).
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// Timer measures operation duration
type Timer struct {
	start    time.Time
	observer func(status string, d time.Duration)
}

// NewTreeKillTimer starts timing a process-tree termination.
func NewTreeKillTimer(metrics *Metrics) *Timer {
	return &Timer{
		start: time.Now(),
		observer: func(status string, d time.Duration) {
			metrics.TreeKillDuration.WithLabelValues(status).Observe(d.Seconds())
		},
	}
}

// Stop stops the timer and records the duration
func (t *Timer) Stop(status string) time.Duration {
	d := time.Since(t.start)
	if t.observer != nil {
		t.observer(status, d)
	}
	return d
}
