// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package namespace

import (
	"errors"
	"io/fs"
)

// Errors returned by namespace and backend operations, usually wrapped
// in an *fs.PathError. Test with errors.Is.
var (
	ErrNotExist   = fs.ErrNotExist
	ErrExist      = fs.ErrExist
	ErrInvalid    = fs.ErrInvalid
	ErrNotDir     = errors.New("not a directory")
	ErrIsDir      = errors.New("is a directory")
	ErrNotEmpty   = errors.New("directory not empty")
	ErrReadOnly   = errors.New("read-only file system")
	ErrNotMounted = errors.New("not mounted")
	ErrBusy       = errors.New("mount point busy")
	ErrLoop       = errors.New("too many levels of symbolic links")
	ErrNotLink    = errors.New("not a symbolic link")
	ErrBadStream  = errors.New("bad stream descriptor")
)

func pathError(op, path string, err error) error {
	return &fs.PathError{Op: op, Path: path, Err: err}
}
