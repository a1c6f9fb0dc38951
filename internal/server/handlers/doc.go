// Package handlers implements the docsite HTTP endpoints: the llms.txt export,
// per-page text routes, the layout and tree APIs, and health.
package handlers
