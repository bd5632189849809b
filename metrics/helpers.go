package metrics

import "time"

// Timer measures one pipeline stage.
type Timer struct {
	stage string
	start time.Time
}

func NewTimer(stage string) *Timer {
	return &Timer{stage: stage, start: time.Now()}
}

// ObserveDuration records the elapsed time labelled by the outcome of err.
func (t *Timer) ObserveDuration(err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	RunDuration.WithLabelValues(t.stage, status).Observe(time.Since(t.start).Seconds())
}

func RecordCacheHit(keyPrefix string) {
	CacheHits.WithLabelValues(keyPrefix).Inc()
}

func RecordCacheMiss(keyPrefix string) {
	CacheMisses.WithLabelValues(keyPrefix).Inc()
}
