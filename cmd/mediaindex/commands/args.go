package commands

import "strings"

// singleDashFlags are long flags also accepted with one dash
// (`-media-dir d`, `-prefix=P`).
var singleDashFlags = []string{"media-dir", "init-dataset", "prefix"}

// NormalizeArgs rewrites the single-dash spellings of singleDashFlags to the
// double-dash form kong parses. Arguments after "--" are left alone.
func NormalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i, arg := range args {
		if arg == "--" {
			return append(out, args[i:]...)
		}
		out = append(out, normalizeArg(arg))
	}
	return out
}

func normalizeArg(arg string) string {
	if !strings.HasPrefix(arg, "-") || strings.HasPrefix(arg, "--") {
		return arg
	}
	name, _, _ := strings.Cut(arg[1:], "=")
	for _, flag := range singleDashFlags {
		if name == flag {
			return "-" + arg
		}
	}
	return arg
}
