// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import "errors"

// Queue protocol errors. Operations wrap these with detail, so callers
// should compare with errors.Is.
var (
	// ErrQueueFull is returned by RequestBuffer when no slot is free and
	// the queue is already at capacity.
	ErrQueueFull = errors.New("surface: queue full")

	// ErrOutOfRange is returned by SetQueueSize for sizes outside [1, MaxQueueSize].
	ErrOutOfRange = errors.New("surface: queue size out of range")

	// ErrQueueBusy is returned when a shrink would drop a slot that is in use.
	ErrQueueBusy = errors.New("surface: queue busy")

	// ErrInvalidSequence is returned when a sequence does not name a slot in
	// the state the operation requires.
	ErrInvalidSequence = errors.New("surface: invalid sequence")

	// ErrNoBuffer is returned by AcquireBuffer when nothing is queued.
	ErrNoBuffer = errors.New("surface: no buffer available")

	// ErrBadConfig is returned for malformed request or flush configs.
	ErrBadConfig = errors.New("surface: bad config")

	// ErrInvalidBuffer is returned when a buffer handle is not acquired.
	ErrInvalidBuffer = errors.New("surface: invalid buffer")
)

// Lifecycle and collaborator errors.
var (
	// ErrNotInitialized is returned by queue operations before Init.
	ErrNotInitialized = errors.New("surface: queue not initialized")

	// ErrAlreadyInitialized is returned by a second Init.
	ErrAlreadyInitialized = errors.New("surface: queue already initialized")

	// ErrQueueClosed is returned by queue operations after Close.
	ErrQueueClosed = errors.New("surface: queue closed")

	// ErrCacheMiss is returned by a producer surface when the queue answers
	// with an unchanged buffer for a slot it never cached.
	ErrCacheMiss = errors.New("surface: buffer not in producer cache")

	// ErrFenceTimeout is returned by Fence.Wait when the timeout expires.
	ErrFenceTimeout = errors.New("surface: fence wait timed out")

	// ErrFenceUnsupported is returned on platforms without sync fences.
	ErrFenceUnsupported = errors.New("surface: fences not supported on this platform")

	// ErrNoAllocator is returned when a named allocator is not registered.
	ErrNoAllocator = errors.New("surface: allocator not registered")

	// ErrAllocFailed is returned when an allocator cannot create a buffer.
	ErrAllocFailed = errors.New("surface: buffer allocation failed")
)

// ErrorCode is the integer form of a surface error, for transports that
// carry results as numbers.
type ErrorCode int32

// Error codes. CodeOK is zero so that a zero result means success.
const (
	CodeOK ErrorCode = iota
	CodeQueueFull
	CodeOutOfRange
	CodeQueueBusy
	CodeInvalidSequence
	CodeNoBuffer
	CodeBadConfig
	CodeInvalidBuffer
	CodeNotInitialized
	CodeAlreadyInitialized
	CodeQueueClosed
	CodeCacheMiss
	CodeFenceTimeout
	CodeFenceUnsupported
	CodeNoAllocator
	CodeAllocFailed
	CodeUnknown
)

var codeErrors = []struct {
	code ErrorCode
	err  error
}{
	{CodeQueueFull, ErrQueueFull},
	{CodeOutOfRange, ErrOutOfRange},
	{CodeQueueBusy, ErrQueueBusy},
	{CodeInvalidSequence, ErrInvalidSequence},
	{CodeNoBuffer, ErrNoBuffer},
	{CodeBadConfig, ErrBadConfig},
	{CodeInvalidBuffer, ErrInvalidBuffer},
	{CodeNotInitialized, ErrNotInitialized},
	{CodeAlreadyInitialized, ErrAlreadyInitialized},
	{CodeQueueClosed, ErrQueueClosed},
	{CodeCacheMiss, ErrCacheMiss},
	{CodeFenceTimeout, ErrFenceTimeout},
	{CodeFenceUnsupported, ErrFenceUnsupported},
	{CodeNoAllocator, ErrNoAllocator},
	{CodeAllocFailed, ErrAllocFailed},
}

// Code maps err to its ErrorCode. A nil error is CodeOK; errors that wrap
// none of the package sentinels are CodeUnknown.
func Code(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}
	for _, ce := range codeErrors {
		if errors.Is(err, ce.err) {
			return ce.code
		}
	}
	return CodeUnknown
}

// Err returns the sentinel error for c, or nil for CodeOK.
func (c ErrorCode) Err() error {
	if c == CodeOK {
		return nil
	}
	for _, ce := range codeErrors {
		if ce.code == c {
			return ce.err
		}
	}
	return errors.New("surface: unknown error")
}

// String returns the symbolic name of the code.
func (c ErrorCode) String() string {
	switch c {
	case CodeOK:
		return "OK"
	case CodeQueueFull:
		return "QUEUE_FULL"
	case CodeOutOfRange:
		return "OUT_OF_RANGE"
	case CodeQueueBusy:
		return "QUEUE_BUSY"
	case CodeInvalidSequence:
		return "INVALID_SEQUENCE"
	case CodeNoBuffer:
		return "NO_BUFFER"
	case CodeBadConfig:
		return "BAD_CONFIG"
	case CodeInvalidBuffer:
		return "INVALID_BUFFER"
	case CodeNotInitialized:
		return "NOT_INITIALIZED"
	case CodeAlreadyInitialized:
		return "ALREADY_INITIALIZED"
	case CodeQueueClosed:
		return "QUEUE_CLOSED"
	case CodeCacheMiss:
		return "CACHE_MISS"
	case CodeFenceTimeout:
		return "FENCE_TIMEOUT"
	case CodeFenceUnsupported:
		return "FENCE_UNSUPPORTED"
	case CodeNoAllocator:
		return "NO_ALLOCATOR"
	case CodeAllocFailed:
		return "ALLOC_FAILED"
	default:
		return "UNKNOWN"
	}
}
