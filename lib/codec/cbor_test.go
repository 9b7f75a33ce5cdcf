// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

type execRequest struct {
	Action  string   `cbor:"action"`
	Command string   `cbor:"command"`
	Args    []string `cbor:"args,omitempty"`
}

type fileStatus struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
	Target  string    `json:"target,omitempty"`
}

func TestMarshalDeterministic(t *testing.T) {
	request := map[string]any{"action": "exec", "command": "samtools", "args": []string{"view", "-H"}}
	first, err := Marshal(request)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for range 10 {
		again, err := Marshal(request)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("encoding changed: %x != %x", first, again)
		}
	}
}

func TestStreamCarriesMultipleValues(t *testing.T) {
	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	sent := []execRequest{
		{Action: "exec", Command: "samtools", Args: []string{"--version"}},
		{Action: "exec", Command: "bcftools"},
	}
	for _, request := range sent {
		if err := encoder.Encode(request); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	decoder := NewDecoder(&buffer)
	for index, want := range sent {
		var got execRequest
		if err := decoder.Decode(&got); err != nil {
			t.Fatalf("Decode %d: %v", index, err)
		}
		if got.Command != want.Command || len(got.Args) != len(want.Args) {
			t.Errorf("value %d = %+v, want %+v", index, got, want)
		}
	}
}

func TestJSONTagsAndTime(t *testing.T) {
	modTime := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	data, err := Marshal(fileStatus{Name: "reads.bam", Size: 2048, ModTime: modTime})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	diagnostic, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	for _, want := range []string{`"name"`, `"mod_time"`, `"2026-03-01T09:30:00Z"`} {
		if !strings.Contains(diagnostic, want) {
			t.Errorf("diagnostic %s lacks %s", diagnostic, want)
		}
	}
	if strings.Contains(diagnostic, `"target"`) {
		t.Errorf("omitempty field encoded: %s", diagnostic)
	}

	var decoded fileStatus
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !decoded.ModTime.Equal(modTime) || decoded.Size != 2048 {
		t.Errorf("decoded %+v", decoded)
	}
}

func TestAnyMapsUseStringKeys(t *testing.T) {
	data, err := Marshal(map[string]any{"action": "ls", "options": map[string]any{"long": true}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded map[string]any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, ok := decoded["options"].(map[string]any); !ok {
		t.Errorf("nested map decoded as %T", decoded["options"])
	}
}

func TestUnmarshalInvalid(t *testing.T) {
	var decoded execRequest
	if err := Unmarshal([]byte{0xff, 0x00}, &decoded); err == nil {
		t.Error("invalid CBOR accepted")
	}
}
