// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"github.com/bureau-foundation/toolfed/federation"
	"github.com/bureau-foundation/toolfed/lib/namespace"
)

// Mount input kinds.
const (
	KindFile = "file"
	KindBlob = "blob"
	KindURL  = "url"
)

// MountInput is the wire form of a federation.MountInput.
type MountInput struct {
	Kind string `json:"kind"`
	Path string `json:"path,omitempty"`
	Name string `json:"name,omitempty"`
	Data []byte `json:"data,omitempty"`
	URL  string `json:"url,omitempty"`
}

// FileInput mounts a file read from the server's host filesystem.
func FileInput(path string) MountInput { return MountInput{Kind: KindFile, Path: path} }

// BlobInput mounts in-memory content under name.
func BlobInput(name string, data []byte) MountInput {
	return MountInput{Kind: KindBlob, Name: name, Data: data}
}

// URLInput mounts a lazily fetched remote file.
func URLInput(url string) MountInput { return MountInput{Kind: KindURL, URL: url} }

type mountRequest struct {
	Inputs []MountInput `json:"inputs"`
}

type MountResponse struct {
	Paths []string `json:"paths"`
}

type MountsResponse struct {
	Files []string `json:"files"`
}

type ToolsResponse struct {
	Tools []federation.ToolStatus `json:"tools"`
}

type execRequest struct {
	Command string   `json:"command,omitempty"`
	Program string   `json:"program,omitempty"`
	Args    []string `json:"args,omitempty"`
}

// ExecResponse is the captured output of a command. Fault is the tool
// failure message, empty when the tool finished normally.
type ExecResponse struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
	Fault  string `json:"fault,omitempty"`
}

type toolRequest struct {
	Tool string `json:"tool"`
}

type pathRequest struct {
	Path string `json:"path"`
}

type PathResponse struct {
	Path string `json:"path"`
}

type CatResponse struct {
	Found bool   `json:"found"`
	Text  string `json:"text,omitempty"`
}

type LsResponse struct {
	Found bool                `json:"found"`
	Names []string            `json:"names,omitempty"`
	File  *namespace.FileInfo `json:"file,omitempty"`
}

type DownloadResponse struct {
	Found bool   `json:"found"`
	URL   string `json:"url,omitempty"`
}

type blobRequest struct {
	URL string `json:"url"`
}

type BlobResponse struct {
	Found bool   `json:"found"`
	Data  []byte `json:"data,omitempty"`
}

type readRequest struct {
	Path   string `json:"path"`
	Offset int64  `json:"offset,omitempty"`
	Length int64  `json:"length"`
}

type ReadResponse struct {
	Data []byte `json:"data"`
}

type writeRequest struct {
	Path     string `json:"path"`
	Offset   int64  `json:"offset,omitempty"`
	Data     []byte `json:"data,omitempty"`
	Truncate bool   `json:"truncate,omitempty"`
}
