// Package dochash computes the stable content hash of a document being
// signed. Every other evidentiary component keys off this hash.
package dochash

import (
	"crypto/sha256"
	"encoding/hex"
)

// Algorithm is the only hash algorithm the core emits.
const Algorithm = "SHA-256"

// DocumentHash binds a document's content digest to its original filename.
// It is derived deterministically from the bytes and never mutated; a
// mismatch on re-hash signals tampering.
type DocumentHash struct {
	Hash         string `json:"hash"`
	Algorithm    string `json:"algorithm"`
	OriginalName string `json:"originalName"`
}

// Hash computes the SHA-256 digest of content. Empty content is hashed like
// any other input; the digest of the empty string is a legitimate value.
func Hash(content []byte, filename string) DocumentHash {
	sum := sha256.Sum256(content)
	return DocumentHash{
		Hash:         hex.EncodeToString(sum[:]),
		Algorithm:    Algorithm,
		OriginalName: filename,
	}
}

// HashString hashes the UTF-8 bytes of content.
func HashString(content string, filename string) DocumentHash {
	return Hash([]byte(content), filename)
}
