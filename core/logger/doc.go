// Package logger builds the operator log: structured JSON lines kept apart
// from anything the user sees on the terminal.
package logger
