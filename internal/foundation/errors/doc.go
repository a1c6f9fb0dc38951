// Package errors provides the classified error type shared by docsite packages.
//
// A ClassifiedError carries a category, a severity, a retry hint and a
// context map. Content scanning failures use CategoryContent, page
// rendering failures use CategoryRender and carry the page URL.
// HTTPErrorAdapter and CLIErrorAdapter translate them into status codes,
// JSON payloads and exit codes.
//
// Example usage:
//
//	err := errors.RenderError("include target not found").
//		WithContext("url", page.URL).
//		WithContext("file", page.File).
//		WithCause(cause).
//		Build()
package errors
