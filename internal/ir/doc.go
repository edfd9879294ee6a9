// Package ir provides the value and event representation shared by the
// criteria engine, the event store, and the CLI.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Event fields are IRValue variants, never interface{} - every coercion
//     is an explicit (value, ok) function and a mismatch is a false result,
//     not a panic
//   - Integers stay int64 (IRInt); only JSON literals with a fraction or an
//     exponent become IRFloat
//   - Field names are the constants in event.go, never ad-hoc strings
//   - Canonical JSON (RFC 8785 key order) is the only encoding used for
//     content-addressed identity
package ir
