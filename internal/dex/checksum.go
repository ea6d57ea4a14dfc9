package dex

import (
	"crypto/sha1"
	"hash/adler32"
)

// VerifyChecksum reports whether data (the whole file) matches its own
// embedded header checksum (adler32 over everything after the
// checksum field) and signature (SHA-1 over everything after the
// signature field). Grounded on the single-hash accumulator idea of
// `internal/utils/cryptoutil/hashwriter.go`'s HashWriter, generalized
// to the two hashes a DEX file carries.
//
// The default pipeline never calls this (see DESIGN.md Open Question
// 2); it exists for callers who want to upgrade a bare FormatError
// into a checksum/signature mismatch.
func VerifyChecksum(data []byte, hdr Header) (checksumOK, signatureOK bool) {
	if len(data) < HeaderSize {
		return false, false
	}
	afterChecksum := data[12:] // checksum field ends at offset 12
	sum := adler32.Checksum(afterChecksum)
	checksumOK = sum == hdr.Checksum

	afterSignature := data[32:] // signature field ends at offset 32
	sig := sha1.Sum(afterSignature)
	signatureOK = sig == hdr.Signature
	return checksumOK, signatureOK
}
