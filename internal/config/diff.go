package config

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
)

// reloadable lists the paths a running daemon applies on Reload. Every other
// path takes effect only after a restart.
var reloadable = map[string]bool{
	"log_level":     true,
	"window.width":  true,
	"window.height": true,
}

// Reloadable reports whether a change at path is applied by a daemon reload.
func Reloadable(path string) bool { return reloadable[path] }

// Change is one path whose effective value differs between two configs.
type Change struct {
	Path       string
	Old, New   any
	Reloadable bool
}

func (c Change) String() string {
	return fmt.Sprintf("%s: %s -> %s", c.Path, formatValue(c.Old), formatValue(c.New))
}

// Diff compares every path Explain knows, in Paths order. engine.env is
// reported per variable.
func Diff(old, cur *Config) []Change {
	if old == nil || cur == nil {
		return nil
	}
	var out []Change
	for _, p := range Paths() {
		if p == "engine.env" {
			out = append(out, envChanges(old.Engine.Env, cur.Engine.Env)...)
			continue
		}
		a, b := fieldGetters[p](old), fieldGetters[p](cur)
		if reflect.DeepEqual(a, b) {
			continue
		}
		out = append(out, Change{Path: p, Old: a, New: b, Reloadable: Reloadable(p)})
	}
	return out
}

func envChanges(old, cur map[string]string) []Change {
	names := slices.Collect(maps.Keys(old))
	for k := range cur {
		if _, ok := old[k]; !ok {
			names = append(names, k)
		}
	}
	slices.Sort(names)

	var out []Change
	for _, k := range names {
		a, inOld := old[k]
		b, inCur := cur[k]
		if inOld == inCur && a == b {
			continue
		}
		c := Change{Path: "engine.env." + k}
		if inOld {
			c.Old = a
		}
		if inCur {
			c.New = b
		}
		out = append(out, c)
	}
	return out
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "(unset)"
	case string:
		if v == "" {
			return `""`
		}
		return v
	case []string:
		return "[" + strings.Join(v, " ") + "]"
	}
	return fmt.Sprint(v)
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	out := *c
	out.Engine.Args = slices.Clone(c.Engine.Args)
	out.Engine.Env = maps.Clone(c.Engine.Env)
	return &out
}
