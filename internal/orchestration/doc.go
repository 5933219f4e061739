// Package orchestration runs a batch of heat simulations concurrently and
// turns their lifecycle into an ordered stream of events. It decouples the
// solver from presentation via the EventReporter and ResultPresenter
// interfaces, so the CLI, the TUI and the WebSocket server all consume the
// same Session.
package orchestration
