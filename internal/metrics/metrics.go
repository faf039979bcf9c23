// Package metrics exposes Prometheus counters and histograms for the NCI
// host stack and the Casimir emulator: commands sent, responses received,
// notifications delivered, command timeouts, credit grants/spends,
// segments reassembled/split, RF bytes relayed, and active logical
// connections/device slots.
//
// All recording functions are safe to call before Init; they are no-ops
// until metrics are enabled, matching the teacher's "nil metrics = zero
// overhead" idiom.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	enabled atomic.Bool
	reg     *prometheus.Registry

	commandsSent          prometheus.Counter
	responsesReceived     prometheus.Counter
	notificationsDelivered prometheus.Counter
	commandTimeouts       prometheus.Counter

	creditsGranted *counterAccum
	creditsSpent   *counterAccum

	segmentsReassembled *counterAccum
	segmentsSplit       *counterAccum

	rfBytesRelayed *counterAccum

	activeLogicalConnections prometheus.Gauge
	activeDeviceSlots        prometheus.Gauge
)

// counterAccum wraps a prometheus.Counter behind an Add(int) helper, since
// several of our call sites add counts rather than incrementing by one.
type counterAccum struct{ c prometheus.Counter }

func (a *counterAccum) add(n int) {
	if a == nil || n <= 0 {
		return
	}
	a.c.Add(float64(n))
}

// Init registers all metrics against reg and enables recording. Call once
// at process startup before any NCI traffic flows.
func Init(r *prometheus.Registry) {
	reg = r

	commandsSent = promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name: "casimir_nci_commands_sent_total",
		Help: "Total NCI commands submitted to the dispatcher.",
	})
	responsesReceived = promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name: "casimir_nci_responses_received_total",
		Help: "Total NCI responses matched to a pending command.",
	})
	notificationsDelivered = promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name: "casimir_nci_notifications_delivered_total",
		Help: "Total NCI notifications delivered to a registered sink.",
	})
	commandTimeouts = promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name: "casimir_nci_command_timeouts_total",
		Help: "Total commands dropped from the pending slot after the 20ms timeout.",
	})

	creditsGranted = &counterAccum{c: promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name: "casimir_nci_credits_granted_total",
		Help: "Total credits granted to logical connections via ConnCredits notifications and data-packet credit returns.",
	})}
	creditsSpent = &counterAccum{c: promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name: "casimir_nci_credits_spent_total",
		Help: "Total credits consumed dispatching queued data packets.",
	})}

	segmentsReassembled = &counterAccum{c: promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name: "casimir_nci_segments_reassembled_total",
		Help: "Total inbound segments folded into reassembled packets.",
	})}
	segmentsSplit = &counterAccum{c: promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name: "casimir_nci_segments_split_total",
		Help: "Total outbound segments produced by splitting oversize packets.",
	})}

	rfBytesRelayed = &counterAccum{c: promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name: "casimir_rf_bytes_relayed_total",
		Help: "Total RF payload bytes relayed between emulated devices.",
	})}

	activeLogicalConnections = promauto.With(reg).NewGauge(prometheus.GaugeOpts{
		Name: "casimir_nci_active_logical_connections",
		Help: "Currently open logical connections across all controllers.",
	})
	activeDeviceSlots = promauto.With(reg).NewGauge(prometheus.GaugeOpts{
		Name: "casimir_active_device_slots",
		Help: "Currently occupied emulator device slots.",
	})

	enabled.Store(true)
}

// IsEnabled reports whether Init has been called.
func IsEnabled() bool { return enabled.Load() }

// Registry returns the registry passed to Init, or nil if metrics are disabled.
func Registry() *prometheus.Registry { return reg }

func CommandSent() {
	if IsEnabled() {
		commandsSent.Inc()
	}
}

func ResponseReceived() {
	if IsEnabled() {
		responsesReceived.Inc()
	}
}

func NotificationDelivered() {
	if IsEnabled() {
		notificationsDelivered.Inc()
	}
}

func CommandTimedOut() {
	if IsEnabled() {
		commandTimeouts.Inc()
	}
}

func CreditsGranted(n int) {
	if IsEnabled() {
		creditsGranted.add(n)
	}
}

func CreditsSpent(n int) {
	if IsEnabled() {
		creditsSpent.add(n)
	}
}

func SegmentsReassembled(n int) {
	if IsEnabled() {
		segmentsReassembled.add(n)
	}
}

func SegmentsSplit(n int) {
	if IsEnabled() {
		segmentsSplit.add(n)
	}
}

func RFBytesRelayed(n int) {
	if IsEnabled() {
		rfBytesRelayed.add(n)
	}
}

func ActiveLogicalConnections(n int) {
	if IsEnabled() {
		activeLogicalConnections.Set(float64(n))
	}
}

func ActiveDeviceSlots(n int) {
	if IsEnabled() {
		activeDeviceSlots.Set(float64(n))
	}
}
