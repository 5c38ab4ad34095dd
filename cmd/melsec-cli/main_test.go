package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bruceunx/melsec"
)

func TestParseTagArg(t *testing.T) {
	type testCase struct {
		name        string
		arg         string
		expected    melsec.QueryTag
		expectError bool
	}

	tests := []testCase{
		{
			name:     "bare device defaults to word",
			arg:      "D100",
			expected: melsec.QueryTag{Device: "D100", Type: melsec.Word},
		},
		{
			name:     "bit suffix",
			arg:      "M8304:bit",
			expected: melsec.QueryTag{Device: "M8304", Type: melsec.Bit},
		},
		{
			name:     "dword suffix",
			arg:      "D200:dword",
			expected: melsec.QueryTag{Device: "D200", Type: melsec.DWord},
		},
		{
			name:     "uppercase type name",
			arg:      "D0:WORD",
			expected: melsec.QueryTag{Device: "D0", Type: melsec.Word},
		},
		{
			name:        "unknown type",
			arg:         "D100:qword",
			expectError: true,
		},
		{
			name:        "empty device",
			arg:         ":word",
			expectError: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tag, err := parseTagArg(tc.arg)
			if err != nil && !tc.expectError {
				t.Errorf("expected no error but got %v", err)
				return
			}
			if tc.expectError && err == nil {
				t.Error("expected an error but didn't get one")
				return
			}
			if err != nil {
				return
			}
			if !cmp.Equal(tag, tc.expected) {
				t.Errorf("expected %v but got %v. Diff: %v", tc.expected, tag, cmp.Diff(tc.expected, tag))
			}
		})
	}
}

func TestParseWrites(t *testing.T) {
	writes, err := parseWrites([]string{"D100=0x1234", "M0:bit=1", "D200:dword=70000"})
	if err != nil {
		t.Fatalf("expected no error but got %v", err)
	}
	expected := []melsec.TagWrite{
		{Tag: melsec.QueryTag{Device: "D100", Type: melsec.Word}, Value: 0x1234},
		{Tag: melsec.QueryTag{Device: "M0", Type: melsec.Bit}, Value: 1},
		{Tag: melsec.QueryTag{Device: "D200", Type: melsec.DWord}, Value: 70000},
	}
	if !cmp.Equal(writes, expected) {
		t.Errorf("expected %v but got %v. Diff: %v", expected, writes, cmp.Diff(expected, writes))
	}

	if _, err := parseWrites([]string{"D100"}); err == nil {
		t.Error("expected an error for a missing '=' but didn't get one")
	}
	if _, err := parseWrites([]string{"D100=notanumber"}); err == nil {
		t.Error("expected an error for a bad value but didn't get one")
	}
}

func TestLoadTagFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.yaml")
	content := `tags:
  - device: D100
    type: word
  - device: M8304
    type: bit
  - device: D200
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	tags, err := loadTagFile(path)
	if err != nil {
		t.Fatalf("expected no error but got %v", err)
	}
	expected := []melsec.QueryTag{
		{Device: "D100", Type: melsec.Word},
		{Device: "M8304", Type: melsec.Bit},
		{Device: "D200", Type: melsec.Word},
	}
	if !cmp.Equal(tags, expected) {
		t.Errorf("expected %v but got %v. Diff: %v", expected, tags, cmp.Diff(expected, tags))
	}
}

func TestLoadTagFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.yaml")
	if err := os.WriteFile(path, []byte("tags: []\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadTagFile(path); err == nil {
		t.Error("expected an error for an empty tag list but didn't get one")
	}
}

func TestNewHandler(t *testing.T) {
	for _, dialect := range []string{"binary", "ascii"} {
		for _, frame := range []string{"3E", "4E"} {
			if _, err := newHandler(&rootFlags{address: "127.0.0.1:5007", frame: frame, dialect: dialect, series: "Q"}); err != nil {
				t.Errorf("%s/%s: expected no error but got %v", dialect, frame, err)
			}
		}
	}

	if _, err := newHandler(&rootFlags{frame: "1E", dialect: "binary", series: "Q"}); err == nil {
		t.Error("expected an error for frame 1E but didn't get one")
	}
	if _, err := newHandler(&rootFlags{frame: "3E", dialect: "binary", series: "FX"}); err == nil {
		t.Error("expected an error for unknown series but didn't get one")
	}
	if _, err := newHandler(&rootFlags{frame: "3E", dialect: "morse", series: "Q"}); err == nil {
		t.Error("expected an error for unknown dialect but didn't get one")
	}
}
