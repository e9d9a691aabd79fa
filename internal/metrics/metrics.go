// Package metrics defines the prometheus collectors for the dashboard.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Discord API metrics
var (
	// DiscordCallsTotal tracks outbound Discord REST calls by endpoint and status.
	DiscordCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discord_api_calls_total",
			Help: "Total Discord API calls by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)

	// DiscordCallDuration tracks outbound Discord call latency in seconds.
	DiscordCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "discord_api_call_duration_seconds",
			Help:    "Discord API call duration in seconds",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)
)

// Session and persistence metrics
var (
	// LoginsTotal counts completed OAuth logins.
	LoginsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "logins_total",
			Help: "Total completed OAuth logins",
		},
	)

	// WelcomeSavesTotal counts welcome-config saves by outcome.
	WelcomeSavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "welcome_saves_total",
			Help: "Total welcome config saves by status",
		},
		[]string{"status"},
	)
)
