// Package tui implements the interactive dashboard mode. A bubbletea model
// shows one progress bar per simulation, a scrollable event log, runtime
// metrics and a braille chart of the residual history, fed by a bridge that
// turns a Session's events into bubbletea messages.
package tui
