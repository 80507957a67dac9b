// Package instrumentation provides OpenTelemetry metrics for the
// outlook-mail-reader application.
//
// The package exposes metric instruments only; it does not install an
// exporter. A caller embedding the library can register any reader or
// exporter against the meter provider it passes in. All record methods are
// nil-receiver safe so components can run unmetered.
package instrumentation
