// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	var buffer bytes.Buffer
	if err := WriteJSON(&buffer, normalizeNilSlice([]string(nil))); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if got := strings.TrimSpace(buffer.String()); got != "[]" {
		t.Errorf("nil slice encoded as %q, want []", got)
	}

	buffer.Reset()
	if err := WriteJSON(&buffer, map[string]string{"path": "/shared/data"}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if got := buffer.String(); got != "{\n  \"path\": \"/shared/data\"\n}\n" {
		t.Errorf("indented output = %q", got)
	}
}

func TestEmitJSONDisabled(t *testing.T) {
	var output JSONOutput
	done, err := output.EmitJSON([]int{1})
	if done || err != nil {
		t.Errorf("EmitJSON without --json = %v, %v", done, err)
	}
}

func TestPlainStylesPassThrough(t *testing.T) {
	styles := newStyles(false)
	for _, text := range []string{"", "[main] bad option\n", "partial"} {
		if got := styles.Stderr(text); got != text {
			t.Errorf("Stderr(%q) = %q", text, got)
		}
	}
	if got := styles.Fault("samtools (samtools): exit status 2"); got != "samtools (samtools): exit status 2" {
		t.Errorf("Fault = %q", got)
	}
	var zero Styles
	if got := zero.Stderr("x\n"); got != "x\n" {
		t.Errorf("zero Stderr = %q", got)
	}
}

func TestTerminalStylesKeepLines(t *testing.T) {
	styles := newStyles(true)
	got := styles.Stderr("first\n\nsecond\n")
	if strings.Count(got, "\n") != 3 {
		t.Errorf("line structure changed: %q", got)
	}
	for _, want := range []string{"first", "second"} {
		if !strings.Contains(got, want) {
			t.Errorf("styled output %q lost %q", got, want)
		}
	}
	if !strings.HasSuffix(got, "\n") {
		t.Errorf("trailing newline lost: %q", got)
	}
}
