// Package logging builds the slog loggers used across lantern.
//
// Diagnostics are kept strictly separate from the watched event feed: the
// feed goes to stdout, loggers from this package write to stderr (or a file).
// The console handler renders a compact human format with the deployment and
// group pulled into the line header; the JSON handler emits one object per
// record for machine consumption.
package logging
