// Package metrics declares the Prometheus collectors exported by relay-gateway.
//
// # Collectors
//
// Collectors are registered on the default registry at package init and
// served by the gateway at the configured metrics path. Every name carries
// the relay_gateway_ prefix.
//
// Labels are kept low-cardinality: provider IDs, query mode (direct or agent),
// outcome, and cache name. Query text and session IDs never appear as labels.
package metrics
