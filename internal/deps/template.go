package deps

import (
	"sort"
	"strings"
)

// Vars are the placeholders available to manifest commands, keyed without braces:
// interpreter, root, name, version, os, arch.
type Vars map[string]string

// Expand replaces every {key} in s with its value. Unknown placeholders are left
// untouched so literal braces in scripts survive.
func (v Vars) Expand(s string) string {
	if len(v) == 0 || !strings.Contains(s, "{") {
		return s
	}
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", v[k])
	}
	return strings.NewReplacer(pairs...).Replace(s)
}

// ExpandAll expands every element of args.
func (v Vars) ExpandAll(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = v.Expand(a)
	}
	return out
}

// With returns a copy of v with key set to value.
func (v Vars) With(key, value string) Vars {
	out := make(Vars, len(v)+1)
	for k, val := range v {
		out[k] = val
	}
	out[key] = value
	return out
}
