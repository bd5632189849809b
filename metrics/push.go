package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Push replaces the metrics grouped under job on the Pushgateway at
// gatewayURL with the current state of the default registry. Batch commands
// exit when their run ends, so this is the only way their pipeline counters
// reach Prometheus.
func Push(ctx context.Context, gatewayURL, job string) error {
	return pushFrom(ctx, prometheus.DefaultGatherer, gatewayURL, job)
}

func pushFrom(ctx context.Context, g prometheus.Gatherer, gatewayURL, job string) error {
	if err := push.New(gatewayURL, job).Gatherer(g).PushContext(ctx); err != nil {
		return fmt.Errorf("metrics: push %s to %s: %w", job, gatewayURL, err)
	}
	return nil
}
