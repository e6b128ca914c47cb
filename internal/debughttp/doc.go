// Package debughttp serves a local inspection API over a running client:
// session snapshots as JSON, Prometheus metrics and a few control
// endpoints. It is meant for 127.0.0.1 only and has no authentication.
package debughttp
