// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package jsmodule

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/bureau-foundation/toolfed/lib/assets"
	"github.com/bureau-foundation/toolfed/lib/module"
	"github.com/bureau-foundation/toolfed/lib/namespace"
)

// mapFetcher serves assets from memory keyed by location.
type mapFetcher map[string][]byte

func (m mapFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	data, ok := m[location]
	if !ok {
		return nil, fmt.Errorf("fetching %s: %w", location, assets.ErrNotFound)
	}
	return data, nil
}

type captured struct {
	stdout, stderr []string
}

func instantiate(t *testing.T, fetcher mapFetcher, program string) (module.Instance, *captured) {
	t.Helper()
	runtime, err := New(Options{Fetcher: fetcher})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	output := &captured{}
	instance, err := runtime.Instantiate(context.Background(), module.Options{
		Program: program,
		Locate:  func(path string) string { return "bundle/" + path },
		Stdout:  func(line string) { output.stdout = append(output.stdout, line) },
		Stderr:  func(line string) { output.stderr = append(output.stderr, line) },
	})
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	return instance, output
}

func tarArchive(t *testing.T, files map[string]string, links map[string]string) []byte {
	t.Helper()
	var buffer bytes.Buffer
	writer := tar.NewWriter(&buffer)
	for name, content := range files {
		header := &tar.Header{Name: name, Typeflag: tar.TypeReg, Mode: 0o644, Size: int64(len(content))}
		if err := writer.WriteHeader(header); err != nil {
			t.Fatalf("WriteHeader: %v", err)
		}
		if _, err := writer.Write([]byte(content)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	for name, target := range links {
		if err := writer.WriteHeader(&tar.Header{Name: name, Typeflag: tar.TypeSymlink, Linkname: target}); err != nil {
			t.Fatalf("WriteHeader: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return buffer.Bytes()
}

func TestMainReceivesArgsAndPrints(t *testing.T) {
	instance, output := instantiate(t, mapFetcher{
		"bundle/echo.js": []byte(`
			function main(args) {
				print("argc", args.length);
				print(args.join(" "));
				printErr("done");
			}
		`),
	}, "echo")

	if err := instance.Main([]string{"--version", "x"}); err != nil {
		t.Fatalf("Main: %v", err)
	}
	if strings.Join(output.stdout, "|") != "argc 2|--version x" {
		t.Errorf("stdout = %q", output.stdout)
	}
	if len(output.stderr) != 1 || output.stderr[0] != "done" {
		t.Errorf("stderr = %q", output.stderr)
	}
}

func TestGlobalsPersistAcrossRuns(t *testing.T) {
	instance, output := instantiate(t, mapFetcher{
		"bundle/counter.js": []byte(`
			var runs = 0;
			function main(args) { runs++; print(runs); }
		`),
	}, "counter")
	for range 3 {
		if err := instance.Main(nil); err != nil {
			t.Fatalf("Main: %v", err)
		}
	}
	if strings.Join(output.stdout, ",") != "1,2,3" {
		t.Errorf("stdout = %q, want 1,2,3", output.stdout)
	}
}

func TestWriteBuffersPartialLines(t *testing.T) {
	instance, output := instantiate(t, mapFetcher{
		"bundle/partial.js": []byte(`function main() { write(1, "no newline"); }`),
	}, "partial")
	if err := instance.Main(nil); err != nil {
		t.Fatalf("Main: %v", err)
	}
	if len(output.stdout) != 0 {
		t.Fatalf("partial line emitted early: %q", output.stdout)
	}
	if err := instance.Namespace().CloseStream(namespace.Stdout); err != nil {
		t.Fatalf("CloseStream: %v", err)
	}
	if len(output.stdout) != 1 || output.stdout[0] != "no newline" {
		t.Errorf("stdout after close = %q", output.stdout)
	}
}

func TestFaults(t *testing.T) {
	tests := []struct {
		name   string
		source string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "throw",
			source: `function main() { throw new Error("bad input"); }`,
			check: func(t *testing.T, err error) {
				if err == nil || !strings.Contains(err.Error(), "bad input") {
					t.Errorf("error = %v, want the thrown message", err)
				}
			},
		},
		{
			name:   "exit nonzero",
			source: `function main() { print("before"); exit(3); print("after"); }`,
			check: func(t *testing.T, err error) {
				var exit *ExitError
				if !errors.As(err, &exit) || exit.Code != 3 {
					t.Errorf("error = %v, want exit status 3", err)
				}
			},
		},
		{
			name:   "exit zero",
			source: `function main() { exit(0); }`,
			check: func(t *testing.T, err error) {
				if err != nil {
					t.Errorf("error = %v, want nil", err)
				}
			},
		},
		{
			name:   "missing file",
			source: `function main() { fs.readFile("/nope"); }`,
			check: func(t *testing.T, err error) {
				if err == nil {
					t.Error("reading a missing file did not fail")
				}
			},
		},
		{
			name:   "no main",
			source: `var x = 1;`,
			check: func(t *testing.T, err error) {
				if err == nil || !strings.Contains(err.Error(), "main") {
					t.Errorf("error = %v, want missing main", err)
				}
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			instance, _ := instantiate(t, mapFetcher{"bundle/tool.js": []byte(test.source)}, "tool")
			test.check(t, instance.Main(nil))
			// The instance stays usable after a fault.
			if _, ok := instance.(*Instance); !ok {
				t.Fatalf("instance type %T", instance)
			}
		})
	}
}

func TestExitLeavesInstanceUsable(t *testing.T) {
	instance, output := instantiate(t, mapFetcher{
		"bundle/tool.js": []byte(`function main(args) { print(args[0]); if (args[0] === "stop") exit(1); }`),
	}, "tool")
	if err := instance.Main([]string{"stop"}); err == nil {
		t.Fatal("exit(1) did not fail Main")
	}
	if err := instance.Main([]string{"go"}); err != nil {
		t.Fatalf("Main after exit: %v", err)
	}
	if strings.Join(output.stdout, ",") != "stop,go" {
		t.Errorf("stdout = %q", output.stdout)
	}
}

func TestFilesystemBindings(t *testing.T) {
	instance, output := instantiate(t, mapFetcher{
		"bundle/fsy.js": []byte(`
			function main(args) {
				fs.mkdir("/work");
				fs.chdir("/work");
				fs.writeFile("out.txt", "a");
				fs.appendFile("out.txt", "b");
				fs.symlink("/work/out.txt", "/work/link");
				print(fs.readFile("link"), fs.readlink("link"), fs.cwd());
				print(fs.readdir(".").join(","), fs.stat("out.txt").size, fs.isDir("/work"));
				try { fs.mkdir("/work"); } catch (e) { print("caught"); }
			}
		`),
	}, "fsy")
	if err := instance.Main(nil); err != nil {
		t.Fatalf("Main: %v", err)
	}
	want := []string{"ab /work/out.txt /work", "link,out.txt 2 true", "caught"}
	if strings.Join(output.stdout, "\n") != strings.Join(want, "\n") {
		t.Errorf("stdout = %q, want %q", output.stdout, want)
	}
	data, err := instance.Namespace().ReadFile("/work/out.txt")
	if err != nil || string(data) != "ab" {
		t.Errorf("namespace content = %q, %v", data, err)
	}
}

func TestSampleDataPreloaded(t *testing.T) {
	archive := tarArchive(t,
		map[string]string{"./samtools/examples/toy.sam": "@HD\tVN:1.6\n"},
		map[string]string{"samtools/latest": "examples/toy.sam"},
	)
	instance, _ := instantiate(t, mapFetcher{
		"bundle/samtools.js":   []byte(`function main() {}`),
		"bundle/samtools.data": archive,
	}, "samtools")

	data, err := instance.Namespace().ReadFile("/samtools/latest")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "@HD\tVN:1.6\n" {
		t.Errorf("sample data = %q", data)
	}
}

func TestInstantiateErrors(t *testing.T) {
	runtime, err := New(Options{Fetcher: mapFetcher{"bundle/broken.js": []byte("function (")}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	locate := func(path string) string { return "bundle/" + path }

	if _, err := runtime.Instantiate(context.Background(), module.Options{Program: "absent", Locate: locate}); !errors.Is(err, assets.ErrNotFound) {
		t.Errorf("missing program = %v, want ErrNotFound", err)
	}
	if _, err := runtime.Instantiate(context.Background(), module.Options{Program: "broken", Locate: locate}); err == nil {
		t.Error("syntax error did not fail instantiation")
	}
	if _, err := runtime.Instantiate(context.Background(), module.Options{Program: "broken"}); err == nil {
		t.Error("missing locator did not fail instantiation")
	}
	if _, err := New(Options{}); err == nil {
		t.Error("New without fetcher succeeded")
	}
}
