// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package plugin

import "github.com/prometheus/client_golang/prometheus"

// PluginsLoaded is the gauge of currently loaded plugins per engine.
// Use RegisterMetrics to register this with a Prometheus registry.
var PluginsLoaded = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "parley_plugins_loaded",
		Help: "Number of currently loaded plugins",
	},
	[]string{"engine"},
)

// HookDispatches counts hook walks by hook name.
// Use RegisterMetrics to register this with a Prometheus registry.
var HookDispatches = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "parley_hook_dispatches_total",
		Help: "Total number of hook dispatch walks",
	},
	[]string{"hook"},
)

// HookFailures counts plugin hook invocations that errored or
// panicked. Use RegisterMetrics to register this with a Prometheus
// registry.
var HookFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "parley_hook_failures_total",
		Help: "Total number of failed plugin hook invocations",
	},
	[]string{"hook", "engine"},
)

// MessageReplacements counts transform invocations that replaced the
// message. Use RegisterMetrics to register this with a Prometheus
// registry.
var MessageReplacements = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "parley_message_replacements_total",
		Help: "Total number of message replacements made by plugins",
	},
	[]string{"hook"},
)

// RegisterMetrics registers plugin package metrics with the given
// Prometheus registry. This must be called at startup to make metrics
// available on /metrics. Panics if registration fails (following
// prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(PluginsLoaded)
	reg.MustRegister(HookDispatches)
	reg.MustRegister(HookFailures)
	reg.MustRegister(MessageReplacements)
}
