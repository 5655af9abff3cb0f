// Package errors provides classified errors for the companion engine.
//
// A ClassifiedError carries a category (config, validation, store, ...), a
// severity and a retry hint, plus free-form context. Errors are assembled with
// the fluent ErrorBuilder:
//
//	err := errors.StoreError("kv write failed").
//		WithCause(cause).
//		WithContext("key", key).
//		Build()
//
// The engine itself never fails fatally: store and validation errors are
// logged and absorbed by the callers. Only configuration and CLI errors reach
// the CLIErrorAdapter, which maps categories to exit codes.
package errors
