// Package metrics defines the Prometheus collectors exported on /metrics.
//
// HTTP:
//   - http_requests_total{method,route,status}
//   - http_request_duration_seconds{method,route}
//
// Catalog:
//   - filmorate_entities_created_total{kind}
//   - filmorate_likes_total{op}
//   - filmorate_friendships_total{op}
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	EntitiesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmorate_entities_created_total",
			Help: "Films and users created",
		},
		[]string{"kind"},
	)

	Likes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmorate_likes_total",
			Help: "Likes added and removed",
		},
		[]string{"op"},
	)

	Friendships = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmorate_friendships_total",
			Help: "Friend edges added and removed",
		},
		[]string{"op"},
	)
)

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// EntityCreated counts a created film or user.
func EntityCreated(kind string) { EntitiesCreated.WithLabelValues(kind).Inc() }

// LikeChanged counts a like being added or removed.
func LikeChanged(op string) { Likes.WithLabelValues(op).Inc() }

// FriendshipChanged counts a friend edge being added or removed.
func FriendshipChanged(op string) { Friendships.WithLabelValues(op).Inc() }
