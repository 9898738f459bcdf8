// Package errors provides the classified error primitives used across mediaindex.
//
// Every failure that leaves a package is a ClassifiedError carrying a category
// (config, filesystem, network, template, ...), a severity and a retry hint.
// The CLI and HTTP adapters turn those into exit codes and status codes.
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryNetwork, "fetch failed").
//		Retryable().
//		WithContext("url", u).
//		Build()
package errors
