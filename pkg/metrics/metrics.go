// Package metrics provides the centralized Prometheus registry reference for
// the harvester. Metrics are defined in their owning packages (client,
// harvest) to avoid circular dependencies; this package documents them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry. All metrics register
// automatically via promauto in their owning packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - wdi_requests_total{endpoint, status} (Counter): requests by endpoint and HTTP status
//   - wdi_request_duration_seconds{endpoint} (Histogram): request duration by endpoint
//
// Retry Metrics (pkg/client):
//   - wdi_retries_total (Counter): retry attempts
//   - wdi_retry_backoff_seconds (Histogram): backoff duration before retries
//   - wdi_retry_exhausted_total (Counter): logical requests that exhausted all attempts
//
// Harvest Metrics (pkg/harvest):
//   - wdi_harvest_indicators_total (Counter): indicators whose series fetch was attempted
//   - wdi_harvest_indicator_failures_total (Counter): indicators skipped after fetch failure
//   - wdi_harvest_observations_total (Counter): observation rows collected
