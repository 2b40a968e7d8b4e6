package domain

import "testing"

func TestHasUsableName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Tifa Lockhart", true},
		{"", false},
		{"Unknown", false},
		{"N/A", false},
		{"none", false},
	}
	for _, tt := range tests {
		record := &PerformerRecord{Name: tt.name}
		if got := record.HasUsableName(); got != tt.want {
			t.Errorf("HasUsableName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}

	var nilRecord *PerformerRecord
	if nilRecord.HasUsableName() {
		t.Error("nil record has no name")
	}
}

func TestAddTagDeduplicates(t *testing.T) {
	record := &PerformerRecord{}
	record.AddTag("Final Fantasy VII")
	record.AddTag("Final Fantasy VII")
	record.AddTag("  ")

	if len(record.Tags) != 1 {
		t.Errorf("tags = %v", record.Tags)
	}
}
