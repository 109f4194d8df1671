// Package main hosts the lantern CLI entrypoint and command graph.
//
// The Cobra-based command tree turns terminal invocations into watches over
// live deployments: it resolves log groups, runs the poll-driven merge loop,
// renders the ordered feed, and offers one-shot helpers for group discovery,
// archive inspection, and configuration scaffolding. It centralizes
// configuration resolution and structured logging setup so subcommands can
// focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
