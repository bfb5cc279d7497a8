// Copyright 2025 Palletic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package server

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics
var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warevec_http_requests_total",
			Help: "Total number of HTTP requests by route, method and status code",
		},
		[]string{"route", "method", "code"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "warevec_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds by route",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
		},
		[]string{"route"},
	)
	ingestionJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warevec_ingestion_jobs_total",
			Help: "Total number of finished ingestion jobs by final status",
		},
		[]string{"status"},
	)
	ingestionJobsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "warevec_ingestion_jobs_active",
			Help: "Number of ingestion jobs currently running",
		},
	)
	materialsIndexed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "warevec_materials_indexed_total",
			Help: "Total number of materials successfully written to the vector index",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		ingestionJobsTotal,
		ingestionJobsActive,
		materialsIndexed,
	)
}
