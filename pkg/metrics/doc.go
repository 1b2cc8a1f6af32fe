/*
Package metrics provides Prometheus metrics and health reporting for irrelay.

All metrics live in the global Prometheus registry and are registered at
package init. Nothing is exposed unless the daemon is started with a metrics
address, in which case Serve publishes three endpoints:

	/metrics  Prometheus text exposition
	/health   liveness, 200 while no registered component is unhealthy
	/ready    readiness, 200 once source, classifier, broadcast and server
	          are all up

# Metrics Catalog

Source:

irrelay_source_lines_total:
  - Type: Counter
  - Description: Lines read from the lircd socket, malformed ones included

irrelay_source_parse_errors_total:
  - Type: Counter
  - Description: Lines dropped because they did not decode

Classifier:

irrelay_classified_events_total{kind}:
  - Type: Counter
  - Labels: kind (new, hold, passthrough)
  - Example: irrelay_classified_events_total{kind="hold"} 12

irrelay_orphan_repeats_total:
  - Type: Counter
  - Description: Repeat reports that arrived with no press pending

irrelay_pending_discarded_total:
  - Type: Counter
  - Description: Presses still pending when a stop was requested

irrelay_press_duration_seconds{kind}:
  - Type: Histogram
  - Description: Time from the original press to its classification
  - Buckets: 0.05, 0.1, 0.2, 0.3, 0.5, 0.75, 1, 2, 5

Broadcast and server:

irrelay_subscribers:
  - Type: Gauge
  - Description: Clients currently registered with the hub

irrelay_broadcast_events_total:
  - Type: Counter

irrelay_subscriber_drops_total{reason}:
  - Type: Counter
  - Labels: reason (write, queue, hangup)

irrelay_connections_total:
  - Type: Counter

irrelay_client_write_duration_seconds:
  - Type: Histogram

# Usage

Timing a write:

	timer := metrics.NewTimer()
	_, err := conn.Write(buf)
	timer.ObserveDuration(metrics.ClientWriteDuration)

Reporting component health:

	metrics.UpdateComponent(metrics.ComponentSource, true, "")
	defer metrics.UpdateComponent(metrics.ComponentSource, false, "input closed")
*/
package metrics
