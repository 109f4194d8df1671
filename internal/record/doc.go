// Package record archives the emitted event feed to a local SQLite file
// so a watch can be inspected after the fact with `lantern record`. The
// archive is an output artifact only: cursors and deployment status are
// never stored, and a fresh watch never reads a previous archive.
package record
