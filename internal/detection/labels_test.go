package detection

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseLabelMap(t *testing.T) {
	tests := []struct {
		name string
		data string
		want map[int]string
	}{
		{
			name: "names list",
			data: "path: ../datasets/coco\nnames: [person, bicycle, car]\n",
			want: map[int]string{0: "person", 1: "bicycle", 2: "car"},
		},
		{
			name: "names mapping",
			data: "names:\n  0: person\n  5: bus\n",
			want: map[int]string{0: "person", 5: "bus"},
		},
		{
			name: "bare list",
			data: "- cat\n- dog\n",
			want: map[int]string{0: "cat", 1: "dog"},
		},
		{
			name: "json mapping",
			data: `{"names": {"0": "person", "1": "cup"}}`,
			want: map[int]string{0: "person", 1: "cup"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseLabelMap([]byte(tt.data))
			if err != nil {
				t.Fatalf("ParseLabelMap failed: %v", err)
			}
			if m.Len() != len(tt.want) {
				t.Errorf("Len: got %d, want %d", m.Len(), len(tt.want))
			}
			for k, v := range tt.want {
				got, err := m.Lookup(k)
				if err != nil || got != v {
					t.Errorf("Lookup(%d): got %q, %v; want %q", k, got, err, v)
				}
			}
		})
	}
}

func TestParseLabelMap_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"no names", "path: ../datasets\n"},
		{"scalar names", "names: person\n"},
		{"non-integer key", "names:\n  zero: person\n"},
		{"invalid yaml", "names: [person\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseLabelMap([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadLabelMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.yaml")
	if err := os.WriteFile(path, []byte("names: [rectangle, circle]\n"), 0o644); err != nil {
		t.Fatalf("failed to write label file: %v", err)
	}

	m, err := LoadLabelMap(path)
	if err != nil {
		t.Fatalf("LoadLabelMap failed: %v", err)
	}
	if name, _ := m.Lookup(1); name != "circle" {
		t.Errorf("Lookup(1): got %q, want circle", name)
	}

	if _, err := LoadLabelMap(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLabelMap_Lookup(t *testing.T) {
	m := LabelMapFromList([]string{"person", ""})

	if _, err := m.Lookup(0); err != nil {
		t.Errorf("Lookup(0) failed: %v", err)
	}
	if _, err := m.Lookup(1); err == nil {
		t.Error("empty name should not resolve")
	}
	if _, err := m.Lookup(99); err == nil {
		t.Error("out of range index should not resolve")
	}

	var zero LabelMap
	if _, err := zero.Lookup(0); err == nil {
		t.Error("zero LabelMap should not resolve")
	}
}

func TestLabelMap_Merge(t *testing.T) {
	base := LabelMapFromList([]string{"a", "b"})
	merged := base.Merge(NewLabelMap(map[int]string{1: "B", 2: "c"}))

	if got := merged.Classes(); len(got) != 3 || got[0] != 0 || got[2] != 2 {
		t.Errorf("Classes: got %v", got)
	}
	if name, _ := merged.Lookup(1); name != "B" {
		t.Errorf("override: got %q, want B", name)
	}
	if name, _ := base.Lookup(1); name != "b" {
		t.Error("Merge modified the receiver")
	}
}

func TestCOCOLabels(t *testing.T) {
	m := COCOLabels()
	if m.Len() != 80 {
		t.Errorf("Len: got %d, want 80", m.Len())
	}
	if name, _ := m.Lookup(41); name != "cup" {
		t.Errorf("Lookup(41): got %q, want cup", name)
	}
}
