// Package handlers wires the relay into HTTP routes and maps its errors
// onto JSON responses.
package handlers
