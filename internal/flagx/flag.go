// Package flagx picks the flags a component owns out of a shared argument
// list, so several flag sets can read the same os.Args without tripping
// over each other's unknown flags.
package flagx

import (
	"flag"
	"strings"
)

// Known describes the flags a caller accepts. The value reports whether the
// flag consumes a following argument; boolean flags map to false.
type Known map[string]bool

// FilterArgs returns the arguments from args that belong to known flags,
// keeping their values. Both "-f value" and "-f=value" forms are recognised.
// The result is never nil.
func FilterArgs(args []string, known Known) []string {
	out := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			continue
		}

		name, _, inline := strings.Cut(arg, "=")
		takesValue, ok := known[name]
		if !ok {
			continue
		}
		out = append(out, arg)

		if inline || !takesValue {
			continue
		}
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			out = append(out, args[i+1])
			i++
		}
	}

	return out
}

// ConfigFile returns the JSON config path given with -c or -config, or ""
// when neither is present.
func ConfigFile(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(FilterArgs(args, Known{"-c": true, "-config": true, "--config": true}))

	return path
}
