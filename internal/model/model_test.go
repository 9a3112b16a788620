package model

import "testing"

func TestKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind   Kind
		letter string
		name   string
	}{
		{KindTarget, "t", "target"},
		{KindItem, "i", "item"},
		{KindProperty, "p", "property"},
		{Kind(9), "?", "Kind(9)"},
	}
	for _, tt := range tests {
		if got := tt.kind.Letter(); got != tt.letter {
			t.Errorf("%v.Letter() = %q, want %q", tt.kind, got, tt.letter)
		}
		if got := tt.kind.String(); got != tt.name {
			t.Errorf("Kind(%d).String() = %q, want %q", int(tt.kind), got, tt.name)
		}
	}
}

func TestDocumentTarget(t *testing.T) {
	t.Parallel()

	build := &Target{Name: "Build", Location: &Location{File: "/a.proj", Line: 3}}
	doc := &Document{Targets: []*Target{{Name: "Restore"}, build}}

	tests := []struct {
		name string
		want *Target
	}{
		{"Build", build},
		{"build", build},
		{"BUILD", build},
		{"Pack", nil},
	}
	for _, tt := range tests {
		if got := doc.Target(tt.name); got != tt.want {
			t.Errorf("Target(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
