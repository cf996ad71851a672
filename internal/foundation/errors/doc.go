// Package errors provides the classified error primitives used across makeomatic.
//
// Every failure that leaves a component is a ClassifiedError carrying a category. The
// category decides the canonical return code of a build run, so downstream tooling can
// branch on the process exit status:
//
//	0  success
//	1  build failed (a step action returned non-zero, timed out, or a tool failed)
//	2  configuration error (bad input, invalid override, unusable working directory)
//	3  internal error (contract violations inside the engine or a plugin)
//
// Example usage:
//
//	err := errors.ConfigError("unknown step in override").
//		WithContext("step", name).
//		Build()
package errors
