// Package internaldefs holds the metric names and bucket layout shared by the
// exporters.
//
// Both the Prometheus and OTel exporters read these definitions so that an
// engine counter has one name wherever it is exported.
//
// # What this package must NOT do
//
//   - Import an exporter package.
//   - Perform I/O.
package internaldefs
