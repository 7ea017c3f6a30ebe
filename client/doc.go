// Package client is a thin orchestrator for driving the scoregate protocol
// from the player side: challenge login, game session lifecycle, and the
// score commit, including the optional delayed-commit timer. It keeps only
// the state a well-behaved player needs; every check of record happens on the
// server.
package client
