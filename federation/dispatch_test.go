// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package federation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestExecActivatesLazyTool(t *testing.T) {
	tools := basicTools()
	tools[2].Loading = LoadingLazy
	h := newHarness(t, tools, nil, harnessOptions{})
	h.init(t)

	if state := h.status(t, "bcftools").State; state != "not-loaded" {
		t.Fatalf("state before Exec = %s", state)
	}
	result, err := h.system.Exec(context.Background(), "bcftools --version")
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if result.Stdout == "" {
		t.Error("stdout is empty")
	}
	if result.Stdout != "bcftools --version\n" {
		t.Errorf("stdout = %q", result.Stdout)
	}
	status := h.status(t, "bcftools")
	if status.State != "ready" || status.Loading != "eager" {
		t.Errorf("after Exec: %s/%s, want ready/eager", status.State, status.Loading)
	}
	if status.Cwd != "/shared/data" {
		t.Errorf("cwd = %q, want /shared/data", status.Cwd)
	}

	if _, err := h.system.Exec(context.Background(), "bcftools"); err != nil {
		t.Fatalf("second Exec: %v", err)
	}
	if count := h.runtime.count("bcftools"); count != 1 {
		t.Errorf("instantiated %d times, want 1", count)
	}
}

func TestExecUnknownCommand(t *testing.T) {
	h := newHarness(t, basicTools(), nil, harnessOptions{})
	h.init(t)
	ctx := context.Background()

	if _, err := h.system.Exec(ctx, "samtools idxstats"); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	_, err := h.system.Exec(ctx, "bwa mem")
	if !errors.Is(err, ErrCommandNotFound) {
		t.Fatalf("Exec error = %v, want ErrCommandNotFound", err)
	}
	for _, d := range h.system.tools {
		stdout, stderr := d.output.snapshot()
		want := ""
		if d.Tool == "samtools" {
			want = "samtools idxstats\n"
		}
		if stdout != want || stderr != "" {
			t.Errorf("%s buffers changed: stdout %q stderr %q", d.Tool, stdout, stderr)
		}
	}

	if _, err := h.system.Exec(ctx, "   "); !errors.Is(err, ErrCommandNotFound) {
		t.Errorf("empty command error = %v, want ErrCommandNotFound", err)
	}
}

func TestExecAmbiguousProgram(t *testing.T) {
	tools := []ToolConfig{
		{Tool: "base"},
		{Tool: "samtools", Program: "view"},
		{Tool: "bcftools", Program: "view"},
	}
	h := newHarness(t, tools, nil, harnessOptions{})
	h.init(t)
	if _, err := h.system.Exec(context.Background(), "view"); !errors.Is(err, ErrCommandNotFound) {
		t.Fatalf("Exec error = %v, want ErrCommandNotFound", err)
	}
}

func TestExecRunsRootProgram(t *testing.T) {
	h := newHarness(t, basicTools(), nil, harnessOptions{})
	h.init(t)
	result, err := h.system.Exec(context.Background(), "base ls")
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if result.Stdout != "base ls\n" {
		t.Errorf("stdout = %q", result.Stdout)
	}
}

func chatty(s *session, args []string) error {
	s.println("first")
	s.eprintln("warning")
	fmt.Fprint(s.stdout, "no newline")
	return nil
}

func TestExecCapturesStreams(t *testing.T) {
	h := newHarness(t, basicTools(), map[string]fakeProgram{
		"samtools": {main: chatty},
	}, harnessOptions{})
	h.init(t)

	result, err := h.system.Exec(context.Background(), "samtools")
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	// The unterminated last line is flushed as a line of its own.
	if result.Stdout != "first\nno newline\n" {
		t.Errorf("stdout = %q", result.Stdout)
	}
	if result.Stderr != "warning\n" {
		t.Errorf("stderr = %q", result.Stderr)
	}
	if result.Fault != nil {
		t.Errorf("unexpected fault: %v", result.Fault)
	}

	// The partial line was flushed and the stream reopened, so the next
	// run starts clean.
	result, err = h.system.Exec(context.Background(), "samtools")
	if err != nil {
		t.Fatalf("second Exec: %v", err)
	}
	if result.Stdout != "first\nno newline\n" {
		t.Errorf("second stdout = %q", result.Stdout)
	}
}

func TestExecInterleavedOutput(t *testing.T) {
	h := newHarness(t, basicTools(), map[string]fakeProgram{
		"samtools": {main: chatty},
	}, harnessOptions{printInterleaved: true})
	h.init(t)

	result, err := h.system.Exec(context.Background(), "samtools")
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if result.Stdout != "first\nwarning\nno newline\n" {
		t.Errorf("stdout = %q", result.Stdout)
	}
	if result.Stderr != "" {
		t.Errorf("stderr = %q, want empty", result.Stderr)
	}
}

var errBadInput = errors.New("truncated file")

func TestExecReportsFaults(t *testing.T) {
	programs := func() map[string]fakeProgram {
		return map[string]fakeProgram{
			"samtools": {main: func(s *session, args []string) error {
				s.println("partial")
				return errBadInput
			}},
			"bcftools": {main: func(s *session, args []string) error {
				s.println("before")
				panic("index out of range")
			}},
		}
	}

	t.Run("lenient", func(t *testing.T) {
		h := newHarness(t, basicTools(), programs(), harnessOptions{})
		h.init(t)

		result, err := h.system.Exec(context.Background(), "samtools view")
		if err != nil {
			t.Fatalf("Exec error = %v, want nil", err)
		}
		if result.Fault == nil || !errors.Is(result.Fault, errBadInput) {
			t.Fatalf("fault = %v, want errBadInput", result.Fault)
		}
		if result.Fault.Tool != "samtools" {
			t.Errorf("fault tool = %q", result.Fault.Tool)
		}
		if result.Stdout != "partial\n" {
			t.Errorf("stdout = %q, want output produced before the fault", result.Stdout)
		}

		result, err = h.system.Exec(context.Background(), "bcftools")
		if err != nil {
			t.Fatalf("Exec error = %v, want nil", err)
		}
		if result.Fault == nil || !strings.Contains(result.Fault.Error(), "index out of range") {
			t.Fatalf("fault = %v, want recovered panic", result.Fault)
		}
		if result.Stdout != "before\n" {
			t.Errorf("stdout = %q", result.Stdout)
		}
		if state := h.status(t, "bcftools").State; state != "ready" {
			t.Errorf("state after panic = %s, want ready", state)
		}
	})

	t.Run("strict", func(t *testing.T) {
		h := newHarness(t, basicTools(), programs(), harnessOptions{strict: true})
		h.init(t)

		result, err := h.system.Exec(context.Background(), "samtools view")
		var fault *ToolFault
		if !errors.As(err, &fault) || !errors.Is(err, errBadInput) {
			t.Fatalf("Exec error = %v, want *ToolFault wrapping errBadInput", err)
		}
		if result.Stdout != "partial\n" {
			t.Errorf("stdout = %q", result.Stdout)
		}
	})
}

func counter(s *session, args []string) error {
	s.println(s.runs)
	return nil
}

func TestExecReusesInstance(t *testing.T) {
	h := newHarness(t, basicTools(), map[string]fakeProgram{
		"samtools": {main: counter},
	}, harnessOptions{})
	h.init(t)

	var outputs []string
	for range 2 {
		result, err := h.system.Exec(context.Background(), "samtools")
		if err != nil {
			t.Fatalf("Exec: %v", err)
		}
		outputs = append(outputs, result.Stdout)
	}
	if outputs[0] != "1\n" || outputs[1] != "2\n" {
		t.Errorf("outputs = %q, want one instance counting runs", outputs)
	}
}

func TestExecReinitializesAfterEachRun(t *testing.T) {
	tools := basicTools()
	tools[2].Reinit = true
	h := newHarness(t, tools, map[string]fakeProgram{
		"bcftools": {main: counter},
	}, harnessOptions{})
	h.init(t)
	ctx := context.Background()

	if err := h.system.Mkdir("/shared/data/calls"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := h.system.Cd("calls"); err != nil {
		t.Fatalf("Cd: %v", err)
	}

	for run := range 2 {
		result, err := h.system.Exec(ctx, "bcftools")
		if err != nil {
			t.Fatalf("Exec: %v", err)
		}
		if result.Stdout != "1\n" {
			t.Errorf("run %d stdout = %q, want a fresh instance", run, result.Stdout)
		}
	}
	if count := h.runtime.count("bcftools"); count != 3 {
		t.Errorf("instantiated %d times, want 3", count)
	}
	if cwd := h.status(t, "bcftools").Cwd; cwd != "/shared/data/calls" {
		t.Errorf("cwd after reinit = %q, want /shared/data/calls", cwd)
	}
}

func TestReinitRebridgesSampleData(t *testing.T) {
	h := newHarness(t, basicTools(), map[string]fakeProgram{
		"bcftools": {files: map[string]string{"/bcftools/calls.vcf": "##fileformat=VCFv4.2\n"}},
	}, harnessOptions{})
	h.init(t)

	bcftools := h.namespace(t, "bcftools")
	if err := bcftools.WriteFile("/bcftools/scratch.txt", []byte("old instance")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	samtools := h.namespace(t, "samtools")
	if !samtools.Analyze("/bcftools/scratch.txt").Exists {
		t.Fatal("sample folder not bridged before reinit")
	}

	if err := h.system.Reinit(context.Background(), "bcftools"); err != nil {
		t.Fatalf("Reinit: %v", err)
	}
	if samtools.Analyze("/bcftools/scratch.txt").Exists {
		t.Error("bridge still points at the discarded instance")
	}
	data, err := samtools.ReadFile("/bcftools/calls.vcf")
	if err != nil {
		t.Fatalf("ReadFile through new bridge: %v", err)
	}
	if string(data) != "##fileformat=VCFv4.2\n" {
		t.Errorf("read %q", data)
	}
}

func TestReinitErrors(t *testing.T) {
	tools := basicTools()
	tools[2].Loading = LoadingLazy
	h := newHarness(t, tools, nil, harnessOptions{})
	h.init(t)
	ctx := context.Background()

	if err := h.system.Reinit(ctx, "base"); !errors.Is(err, ErrConfiguration) {
		t.Errorf("Reinit root error = %v, want ErrConfiguration", err)
	}
	if err := h.system.Reinit(ctx, "bwa"); !errors.Is(err, ErrConfiguration) {
		t.Errorf("Reinit unknown error = %v, want ErrConfiguration", err)
	}
	if err := h.system.Reinit(ctx, "bcftools"); !errors.Is(err, ErrActivation) {
		t.Errorf("Reinit lazy error = %v, want ErrActivation", err)
	}
}

func TestToolOutputIsSharedThroughRoot(t *testing.T) {
	h := newHarness(t, basicTools(), map[string]fakeProgram{
		"bcftools": {main: func(s *session, args []string) error {
			return s.fs.WriteFile(args[0], []byte("chr1\t100\n"))
		}},
	}, harnessOptions{})
	h.init(t)

	result, err := h.system.Exec(context.Background(), "bcftools calls.txt")
	if err != nil || result.Fault != nil {
		t.Fatalf("Exec: %v %v", err, result.Fault)
	}
	text, ok := h.system.Cat("calls.txt")
	if !ok || text != "chr1\t100\n" {
		t.Errorf("Cat = %q, %v", text, ok)
	}
	if _, err := h.system.Root().Stat("/data/calls.txt"); err != nil {
		t.Errorf("root Stat: %v", err)
	}
}

func TestFailedPrimaryReinitRecoversOnExec(t *testing.T) {
	h := newHarness(t, basicTools(), nil, harnessOptions{})
	h.init(t)
	ctx := context.Background()

	h.runtime.setFail("samtools", errors.New("cdn down"))
	if err := h.system.Reinit(ctx, "samtools"); !errors.Is(err, ErrActivation) {
		t.Fatalf("Reinit error = %v, want ErrActivation", err)
	}
	if state := h.status(t, "samtools").State; state != "not-loaded" {
		t.Errorf("primary state = %q, want not-loaded", state)
	}

	// File operations report the primary as down instead of failing
	// on its missing namespace.
	if _, err := h.system.Pwd(); !errors.Is(err, ErrNotReady) {
		t.Errorf("Pwd error = %v, want ErrNotReady", err)
	}
	if err := h.system.Cd("/shared"); !errors.Is(err, ErrNotReady) {
		t.Errorf("Cd error = %v, want ErrNotReady", err)
	}
	if err := h.system.Mkdir("x"); !errors.Is(err, ErrNotReady) {
		t.Errorf("Mkdir error = %v, want ErrNotReady", err)
	}
	if _, ok := h.system.Cat("x"); ok {
		t.Error("Cat succeeded without a primary")
	}
	if _, ok := h.system.Ls("."); ok {
		t.Error("Ls succeeded without a primary")
	}
	if _, ok := h.system.Download("x"); ok {
		t.Error("Download succeeded without a primary")
	}
	if _, err := h.system.Read(ReadRequest{Path: "x", Length: -1}); !errors.Is(err, ErrNotReady) {
		t.Errorf("Read error = %v, want ErrNotReady", err)
	}
	if err := h.system.Write(WriteRequest{Path: "x", Data: []byte("y")}); !errors.Is(err, ErrNotReady) {
		t.Errorf("Write error = %v, want ErrNotReady", err)
	}
	if _, err := h.system.Mount(ctx, NamedBlob{Name: "a.txt", Data: []byte("a")}); !errors.Is(err, ErrNotReady) {
		t.Errorf("Mount error = %v, want ErrNotReady", err)
	}

	// Other tools keep working.
	if result, err := h.system.Exec(ctx, "bcftools"); err != nil || result.Stdout != "bcftools\n" {
		t.Errorf("Exec bcftools = %+v, %v", result, err)
	}

	// While the runtime is still failing, Exec reports the activation
	// error and the system stays usable.
	if _, err := h.system.Exec(ctx, "samtools"); !errors.Is(err, ErrActivation) {
		t.Errorf("Exec with runtime down error = %v, want ErrActivation", err)
	}

	h.runtime.setFail("samtools", nil)
	result, err := h.system.Exec(ctx, "samtools")
	if err != nil {
		t.Fatalf("Exec after recovery: %v", err)
	}
	if result.Stdout != "samtools\n" {
		t.Errorf("stdout = %q", result.Stdout)
	}
	cwd, err := h.system.Pwd()
	if err != nil {
		t.Fatalf("Pwd after recovery: %v", err)
	}
	if cwd != "/shared/data" {
		t.Errorf("Pwd = %q, want /shared/data", cwd)
	}
	if text, ok := h.system.Cat("/shared/data"); ok {
		t.Errorf("Cat of a directory = %q", text)
	}
}
