// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// UserInfoMetrics records the outcome and latency of user info calls.
type UserInfoMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewUserInfoMetrics creates the user info collectors and registers them on reg.
func NewUserInfoMetrics(reg prometheus.Registerer) (*UserInfoMetrics, error) {
	m := &UserInfoMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "userinfo_requests_total",
				Help: "Total number of user info requests by result",
			},
			[]string{"result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "userinfo_request_duration_seconds",
				Help:    "Duration of user info requests in seconds",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
			},
			[]string{"result"},
		),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.requests, m.duration} {
			if err := reg.Register(c); err != nil {
				return nil, fmt.Errorf("failed to register collector: %w", err)
			}
		}
	}
	return m, nil
}

// Observe counts one request with the given result label.
func (m *UserInfoMetrics) Observe(result string, elapsed time.Duration) {
	m.requests.WithLabelValues(result).Inc()
	m.duration.WithLabelValues(result).Observe(elapsed.Seconds())
}
