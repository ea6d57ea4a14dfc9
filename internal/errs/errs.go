// Package errs defines the five error kinds of the decompiler's error
// handling design: InputError, FormatError, LiftError, IOError and
// ResourceError. Each is a sentinel wrapped with context via %w, the
// same flat-var-block style the teacher uses for its error catalogue.
package errs

import "errors"

var (
	// ErrInput covers a missing/unreadable path or an unrecognized
	// magic number. Fatal for the whole process.
	ErrInput = errors.New("input error")

	// ErrFormat covers a DexHeader/class-file invariant violation,
	// ULEB128 overflow, or a section lying outside the file. Fatal for
	// the entry that failed; in archive mode, peers continue.
	ErrFormat = errors.New("format error")

	// ErrLift covers an unknown opcode, a truncated payload, or a CFG
	// inconsistency discovered while lifting one method. Local to the
	// method; the class continues with a stub.
	ErrLift = errors.New("lift error")

	// ErrIO covers a failure to create an output directory or write a
	// file. Fatal for the task that hit it; other tasks continue.
	ErrIO = errors.New("io error")

	// ErrResource covers an arena allocation failure. Fatal
	// process-wide.
	ErrResource = errors.New("resource error")

	// ErrTruncated is returned by binreader when a read runs past the
	// end of the buffer.
	ErrTruncated = errors.New("truncated")

	// ErrBadEncoding is returned by binreader for a malformed
	// ULEB128/SLEB128 sequence or an invalid MUTF-8 escape.
	ErrBadEncoding = errors.New("bad encoding")
)
