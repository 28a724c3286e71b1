// Package retry provides exponential backoff for transient failures.
//
// [Do] retries an operation with configurable max attempts, initial delay
// and maximum delay. It is used when dialing SSH hosts that may still be
// booting or briefly unreachable. Errors wrapped with [Fatal], such as
// rejected credentials, stop the loop immediately.
package retry
