// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package nsfuse

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"syscall"
	"testing"
	"time"

	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/bureau-foundation/toolfed/lib/clock"
	"github.com/bureau-foundation/toolfed/lib/namespace"
)

var testEpoch = time.Unix(1735689600, 0).UTC() // 2025-01-01T00:00:00Z

// fuseAvailable checks whether /dev/fuse is accessible. Tests that
// need a real FUSE mount call this and skip if the device is absent.
func fuseAvailable(t *testing.T) {
	t.Helper()
	if _, err := os.Stat("/dev/fuse"); err != nil {
		t.Skip("skipping: /dev/fuse not available")
	}
}

// sampleNamespace builds a small tool namespace:
//
//	/samtools/examples/toy.sam
//	/data/reads.fq -> /samtools/examples/toy.sam
//	/data/gone -> /nowhere
func sampleNamespace(t *testing.T) *namespace.FS {
	t.Helper()
	ns := namespace.New(namespace.Options{Clock: clock.Fake(testEpoch)})
	for _, dir := range []string{"/samtools", "/samtools/examples", "/data"} {
		if err := ns.Mkdir(dir); err != nil {
			t.Fatalf("Mkdir %s: %v", dir, err)
		}
	}
	if err := ns.WriteFile("/samtools/examples/toy.sam", []byte("@SQ\tSN:ref\tLN:45\n")); err != nil {
		t.Fatal(err)
	}
	if err := ns.Symlink("/samtools/examples/toy.sam", "/data/reads.fq"); err != nil {
		t.Fatal(err)
	}
	if err := ns.Symlink("/nowhere", "/data/gone"); err != nil {
		t.Fatal(err)
	}
	return ns
}

func testMount(t *testing.T, ns namespace.Namespace, root string) string {
	t.Helper()
	fuseAvailable(t)
	mountpoint := filepath.Join(t.TempDir(), "mount")
	server, err := Mount(Options{Mountpoint: mountpoint, Source: ns, Root: root})
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	t.Cleanup(func() {
		if err := server.Unmount(); err != nil {
			t.Errorf("Unmount: %v", err)
		}
	})
	return mountpoint
}

func TestExportReadsFilesAndFollowsLinks(t *testing.T) {
	ns := sampleNamespace(t)
	mountpoint := testMount(t, ns, "")

	got, err := os.ReadFile(filepath.Join(mountpoint, "data", "reads.fq"))
	if err != nil {
		t.Fatalf("ReadFile through link: %v", err)
	}
	if string(got) != "@SQ\tSN:ref\tLN:45\n" {
		t.Errorf("content = %q", got)
	}

	entries, err := os.ReadDir(filepath.Join(mountpoint, "data"))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
		if entry.Type()&fs.ModeSymlink != 0 {
			t.Errorf("%s exported as a symlink", entry.Name())
		}
	}
	if !slices.Equal(names, []string{"reads.fq"}) {
		t.Errorf("names = %v, want the dangling link omitted", names)
	}
}

func TestExportSeesLaterChanges(t *testing.T) {
	ns := sampleNamespace(t)
	mountpoint := testMount(t, ns, "/data")

	if err := ns.WriteFile("/data/calls.vcf", []byte("##fileformat=VCFv4.2\n")); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(filepath.Join(mountpoint, "calls.vcf"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "##fileformat=VCFv4.2\n" {
		t.Errorf("content = %q", got)
	}
}

func TestExportIsReadOnly(t *testing.T) {
	ns := sampleNamespace(t)
	mountpoint := testMount(t, ns, "")

	err := os.WriteFile(filepath.Join(mountpoint, "samtools", "examples", "toy.sam"), []byte("x"), 0o644)
	if err == nil {
		t.Fatal("write through the export succeeded")
	}
	if err := os.Mkdir(filepath.Join(mountpoint, "new"), 0o755); err == nil {
		t.Error("mkdir through the export succeeded")
	}
}

func TestMountValidation(t *testing.T) {
	ns := sampleNamespace(t)
	tests := []struct {
		name    string
		options Options
	}{
		{"no mountpoint", Options{Source: ns}},
		{"no source", Options{Mountpoint: t.TempDir()}},
		{"missing root", Options{Mountpoint: t.TempDir(), Source: ns, Root: "/absent"}},
		{"file root", Options{Mountpoint: t.TempDir(), Source: ns, Root: "/samtools/examples/toy.sam"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if server, err := Mount(test.options); err == nil {
				server.Unmount()
				t.Error("Mount succeeded")
			}
		})
	}
}

func TestErrnoMapping(t *testing.T) {
	n := &node{options: &Options{Logger: slog.New(slog.DiscardHandler)}, path: "/x"}
	tests := []struct {
		err  error
		want syscall.Errno
	}{
		{&fs.PathError{Op: "stat", Path: "/x", Err: namespace.ErrNotExist}, syscall.ENOENT},
		{namespace.ErrLoop, syscall.ENOENT},
		{namespace.ErrNotDir, syscall.ENOTDIR},
		{namespace.ErrIsDir, syscall.EISDIR},
		{namespace.ErrReadOnly, syscall.EROFS},
		{errors.New("range fetch failed"), syscall.EIO},
	}
	for _, test := range tests {
		if got := n.errno("stat", "/x", test.err); got != test.want {
			t.Errorf("errno(%v) = %v, want %v", test.err, got, test.want)
		}
	}
}

func TestFillAttr(t *testing.T) {
	var attr fuse.Attr
	fillAttr(&attr, namespace.FileInfo{Kind: namespace.KindFile, Size: 1000, ModTime: testEpoch})
	if attr.Mode != syscall.S_IFREG|0o444 || attr.Size != 1000 || attr.Blocks != 2 {
		t.Errorf("file attr = %+v", attr)
	}
	if attr.Mtime != uint64(testEpoch.Unix()) {
		t.Errorf("mtime = %d", attr.Mtime)
	}

	attr = fuse.Attr{}
	fillAttr(&attr, namespace.FileInfo{Kind: namespace.KindDir})
	if attr.Mode != syscall.S_IFDIR|0o555 {
		t.Errorf("dir mode = %o", attr.Mode)
	}
}
