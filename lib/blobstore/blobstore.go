// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package blobstore holds byte blobs addressed by their BLAKE3 digest
// and hands out opaque blob URLs for them. It backs the "download"
// operation: a caller turns a namespace file into a URL it can fetch
// later over RPC, without the file's bytes crossing the boundary
// twice.
//
// Storing identical content twice yields the same URL and one copy.
package blobstore

import (
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/zeebo/blake3"
)

// URLPrefix starts every blob URL.
const URLPrefix = "blob:toolfed/"

// Hash is a 32-byte BLAKE3 digest.
type Hash [32]byte

// blobDomainKey separates blob digests from any other BLAKE3 use of
// the same bytes. ASCII "toolfed.blob", zero-padded to 32 bytes.
var blobDomainKey = [32]byte{
	't', 'o', 'o', 'l', 'f', 'e', 'd', '.', 'b', 'l', 'o', 'b',
}

// HashBlob returns the keyed BLAKE3 digest of data.
func HashBlob(data []byte) Hash {
	hasher, err := blake3.NewKeyed(blobDomainKey[:])
	if err != nil {
		panic("blobstore: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var hash Hash
	copy(hash[:], hasher.Sum(nil))
	return hash
}

// URL returns the blob URL for hash.
func (h Hash) URL() string {
	return URLPrefix + hex.EncodeToString(h[:])
}

// ParseURL extracts the digest from a blob URL.
func ParseURL(url string) (Hash, error) {
	var hash Hash
	encoded, ok := strings.CutPrefix(url, URLPrefix)
	if !ok {
		return hash, fmt.Errorf("not a blob URL: %q", url)
	}
	decoded, err := hex.DecodeString(encoded)
	if err != nil {
		return hash, fmt.Errorf("parsing blob URL: %w", err)
	}
	if len(decoded) != len(hash) {
		return hash, fmt.Errorf("blob digest is %d bytes, want %d", len(decoded), len(hash))
	}
	copy(hash[:], decoded)
	return hash, nil
}

// Store is an in-memory content-addressed blob store.
type Store struct {
	mu    sync.RWMutex
	blobs map[Hash][]byte
}

// New creates an empty store.
func New() *Store {
	return &Store{blobs: make(map[Hash][]byte)}
}

// Put stores a copy of data and returns its URL.
func (s *Store) Put(data []byte) string {
	hash := HashBlob(data)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.blobs[hash]; !exists {
		s.blobs[hash] = append([]byte(nil), data...)
	}
	return hash.URL()
}

// Get returns the blob behind url.
func (s *Store) Get(url string) ([]byte, bool) {
	hash, err := ParseURL(url)
	if err != nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[hash]
	return data, ok
}

// Len returns the number of distinct blobs held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
