package msbuild

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExpand(t *testing.T) {
	t.Parallel()

	env := fakeEnv{
		props: map[string]string{
			"outdir":  "bin/",
			"name":    "app",
			"version": " 1.0 ",
		},
		items: map[string][]string{
			"compile": {"a.cs", "b.cs"},
		},
	}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello", "hello"},
		{"property", "$(OutDir)$(Name).dll", "bin/app.dll"},
		{"case insensitive", "$(NAME)", "app"},
		{"undefined", "x$(Nope)y", "xy"},
		{"instance call", "$(Version.Trim())", " 1.0 "},
		{"static function", "$([System.IO.Path]::Combine('a', 'b'))", ""},
		{"nested static function", "$([MSBuild]::Add($(Version), 1))/x", "/x"},
		{"registry", "$(Registry:HKEY_LOCAL_MACHINE\\Software@Value)", ""},
		{"item list", "@(Compile)", "a.cs;b.cs"},
		{"item list separator", "@(Compile, ',')", "a.cs,b.cs"},
		{"item transform", "@(Compile->'%(Filename)')", "@(Compile->'%(Filename)')"},
		{"metadata", "%(Compile.Identity)", "%(Compile.Identity)"},
		{"unbalanced", "$(OutDir", "$(OutDir"},
		{"dollar alone", "cost $5", "cost $5"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := expand(tt.in, env); got != tt.want {
				t.Errorf("expand(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	t.Parallel()

	got := splitList(" a.cs ;;b.cs; ")
	if diff := cmp.Diff([]string{"a.cs", "b.cs"}, got); diff != "" {
		t.Errorf("splitList mismatch (-want +got):\n%s", diff)
	}
}

func TestValidName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"Configuration", true},
		{"_Private", true},
		{"Foo-Bar2", true},
		{"2Foo", false},
		{"", false},
		{"a.b", false},
	}
	for _, tt := range tests {
		if got := validName(tt.in); got != tt.want {
			t.Errorf("validName(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
