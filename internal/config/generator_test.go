package config

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestGenerator_RoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		manifest *Manifest
	}{
		{"default binary", DefaultManifest(VariantBinary)},
		{"default interpreter", DefaultManifest(VariantInterpreter)},
		{
			name: "everything",
			manifest: &Manifest{
				Name:    "ai-coding-tracker",
				Version: "1.4.0",
				Variant: VariantBinary,
				Binary:  "cli",
				Policy:  "strict",
				Health:  HealthConfig{Arg: "--help", Timeout: 20 * time.Second, Marker: "usage:"},
				Dependencies: []Dependency{{
					Name:        "cli",
					CheckScript: `test -x "{root}/dist/{os}-{arch}/cli"`,
					Strategies: []Strategy{
						{
							Kind:         StrategyRelease,
							URL:          "https://example.com/releases/{version}/cli-{os}-{arch}.tar.gz",
							SignatureURL: "https://example.com/releases/{version}/cli-{os}-{arch}.tar.gz.asc",
							ChecksumsURL: "https://example.com/releases/{version}/SHA256SUMS",
							Keyring:      "keys/release.asc",
							Binary:       "cli",
						},
						{Kind: StrategyCommand, Script: "echo \"manual\"\tstep"},
						{Kind: StrategyCommand, Label: "slow", Timeout: 1500 * time.Millisecond, Run: []string{"a", "b c"}},
					},
					Remediation: "download cli from https://example.com",
				}, {
					Name:      "collector",
					CheckFile: "cli_tool/collector.py",
				}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := NewGenerator().Generate(tt.manifest)
			if err != nil {
				t.Fatal(err)
			}
			got, err := NewParser(nil).ParseString(context.Background(), code)
			if err != nil {
				t.Fatalf("generated manifest does not parse: %v\n%s", err, code)
			}

			want := *tt.manifest
			want.applyDefaults()
			if !reflect.DeepEqual(*got, want) {
				t.Errorf("round trip mismatch\n got: %+v\nwant: %+v\n%s", *got, want, code)
			}
		})
	}
}

func TestGenerator_Nil(t *testing.T) {
	if _, err := NewGenerator().Generate(nil); err == nil {
		t.Error("expected error for nil manifest")
	}
}

func TestGenerator_ShortStrategyForm(t *testing.T) {
	m := DefaultManifest(VariantInterpreter)
	m.Dependencies[0].Strategies = []Strategy{{Kind: StrategyCommand, Script: "pip install requests"}}

	code, err := NewGenerator().Generate(m)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(code, `"pip install requests",`) || strings.Contains(code, `kind = "command"`) {
		t.Errorf("unlabeled shell strategy should use the string form:\n%s", code)
	}
}

func TestQuoteLuaString(t *testing.T) {
	g := NewGenerator()
	tests := []struct {
		in, want string
	}{
		{"hello", `"hello"`},
		{`say "hi"`, `"say \"hi\""`},
		{"a\nb", `"a\nb"`},
		{`C:\tools`, `"C:\\tools"`},
	}
	for _, tt := range tests {
		if got := g.quoteLuaString(tt.in); got != tt.want {
			t.Errorf("quoteLuaString(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
