package config

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Generator renders a Manifest as tracker.lua source.
type Generator struct {
	indent string // Indentation string (default: two spaces)
}

// NewGenerator creates a new manifest generator.
func NewGenerator() *Generator {
	return &Generator{indent: "  "}
}

// Generate renders m. The output parses back to an equivalent Manifest.
func (g *Generator) Generate(m *Manifest) (string, error) {
	if m == nil {
		return "", fmt.Errorf("nil manifest")
	}
	var buf bytes.Buffer

	buf.WriteString("-- ai-coding-tracker installation manifest\n")
	buf.WriteString("-- Generated: ")
	buf.WriteString(time.Now().UTC().Format(time.RFC3339))
	buf.WriteString("\n\n")
	buf.WriteString(luaGlobalTracker + " = {\n")

	g.field(&buf, 1, luaFieldName, m.Name)
	g.field(&buf, 1, luaFieldVersion, m.Version)
	g.field(&buf, 1, luaFieldVariant, m.Variant)
	g.field(&buf, 1, luaFieldScript, m.Script)
	if m.Binary != m.Name {
		g.field(&buf, 1, luaFieldBinary, m.Binary)
	}
	g.field(&buf, 1, luaFieldPolicy, m.Policy)

	ic := m.Interpreter
	if len(ic.Candidates) > 0 || ic.Pattern != "" || ic.Minimum != "" {
		g.open(&buf, 1, luaFieldInterpreter)
		g.list(&buf, 2, luaFieldCandidates, ic.Candidates)
		g.field(&buf, 2, luaFieldPattern, ic.Pattern)
		g.field(&buf, 2, luaFieldMinimum, ic.Minimum)
		g.close(&buf, 1)
	}

	if h := m.Health; h.Arg != "" || h.Timeout > 0 || h.Marker != "" {
		g.open(&buf, 1, luaFieldHealth)
		g.field(&buf, 2, luaFieldArg, h.Arg)
		g.seconds(&buf, 2, luaFieldTimeout, h.Timeout)
		g.field(&buf, 2, luaFieldMarker, h.Marker)
		g.close(&buf, 1)
	}

	if len(m.Dependencies) > 0 {
		g.open(&buf, 1, luaFieldDeps)
		for _, dep := range m.Dependencies {
			g.writeDependency(&buf, dep)
		}
		g.close(&buf, 1)
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

func (g *Generator) writeDependency(buf *bytes.Buffer, dep Dependency) {
	g.pad(buf, 2)
	buf.WriteString("{\n")
	g.field(buf, 3, luaFieldName, dep.Name)
	g.field(buf, 3, luaFieldMinimum, dep.Minimum)
	switch {
	case dep.CheckFile != "":
		g.open(buf, 3, luaFieldCheck)
		g.field(buf, 4, luaFieldFile, dep.CheckFile)
		g.close(buf, 3)
	case dep.CheckScript != "":
		g.field(buf, 3, luaFieldCheck, dep.CheckScript)
	default:
		g.list(buf, 3, luaFieldCheck, dep.Check)
	}
	if len(dep.Strategies) > 0 {
		g.open(buf, 3, luaFieldStrategies)
		for _, s := range dep.Strategies {
			g.writeStrategy(buf, s)
		}
		g.close(buf, 3)
	}
	g.field(buf, 3, luaFieldRemediation, dep.Remediation)
	g.close(buf, 2)
}

func (g *Generator) writeStrategy(buf *bytes.Buffer, s Strategy) {
	g.pad(buf, 4)
	// Unlabeled shell commands use the short string form.
	if s.Kind == StrategyCommand && s.Label == "" && s.Timeout == 0 && len(s.Run) == 0 {
		buf.WriteString(g.quoteLuaString(s.Script))
		buf.WriteString(",\n")
		return
	}

	buf.WriteString("{\n")
	g.field(buf, 5, luaFieldKind, s.Kind)
	g.field(buf, 5, luaFieldLabel, s.Label)
	g.seconds(buf, 5, luaFieldTimeout, s.Timeout)
	if s.Script != "" {
		g.field(buf, 5, luaFieldRun, s.Script)
	} else {
		g.list(buf, 5, luaFieldRun, s.Run)
	}
	g.field(buf, 5, luaFieldURL, s.URL)
	g.field(buf, 5, luaFieldRef, s.Ref)
	g.field(buf, 5, luaFieldDest, s.Dest)
	g.field(buf, 5, luaFieldSignature, s.SignatureURL)
	g.field(buf, 5, luaFieldChecksums, s.ChecksumsURL)
	g.field(buf, 5, luaFieldKeyring, s.Keyring)
	g.field(buf, 5, luaFieldBinary, s.Binary)
	g.close(buf, 4)
}

func (g *Generator) pad(buf *bytes.Buffer, depth int) {
	buf.WriteString(strings.Repeat(g.indent, depth))
}

func (g *Generator) open(buf *bytes.Buffer, depth int, key string) {
	g.pad(buf, depth)
	buf.WriteString(key + " = {\n")
}

func (g *Generator) close(buf *bytes.Buffer, depth int) {
	g.pad(buf, depth)
	buf.WriteString("},\n")
}

// field writes key = "value", and nothing for an empty value.
func (g *Generator) field(buf *bytes.Buffer, depth int, key, value string) {
	if value == "" {
		return
	}
	g.pad(buf, depth)
	buf.WriteString(key + " = " + g.quoteLuaString(value) + ",\n")
}

func (g *Generator) seconds(buf *bytes.Buffer, depth int, key string, d time.Duration) {
	if d <= 0 {
		return
	}
	g.pad(buf, depth)
	buf.WriteString(key + " = " + strconv.FormatFloat(d.Seconds(), 'f', -1, 64) + ",\n")
}

func (g *Generator) list(buf *bytes.Buffer, depth int, key string, items []string) {
	if len(items) == 0 {
		return
	}
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = g.quoteLuaString(item)
	}
	g.pad(buf, depth)
	buf.WriteString(key + " = { " + strings.Join(quoted, ", ") + " },\n")
}

// quoteLuaString quotes a string for Lua, handling special characters.
func (g *Generator) quoteLuaString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\") // backslashes first
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return "\"" + s + "\""
}

// DefaultManifest returns the manifest written by "ai-coding-tracker-setup init".
func DefaultManifest(variant string) *Manifest {
	m := &Manifest{Name: DefaultName, Variant: variant}
	if variant == VariantInterpreter {
		m.Script = DefaultScript
		m.Interpreter = InterpreterConfig{Minimum: "3.8"}
		m.Dependencies = []Dependency{{
			Name:        "requests",
			Check:       []string{"{interpreter}", "-c", "import requests; print(requests.__version__)"},
			Strategies:  []Strategy{{Kind: StrategyCommand, Run: []string{"{interpreter}", "-m", "pip", "install", "--user", "requests"}}},
			Remediation: "python3 -m pip install --user requests",
		}}
	}
	m.applyDefaults()
	return m
}
