package backend

import (
	"regexp"
	"strings"
)

var substToken = regexp.MustCompile(`@([A-Za-z_][A-Za-z0-9_]*)@`)

// substituteConfig replaces every @NAME@ whose NAME is in vars. Unknown
// tokens are left as they are.
func substituteConfig(input string, vars map[string]string) string {
	return substToken.ReplaceAllStringFunc(input, func(tok string) string {
		if v, ok := vars[tok[1:len(tok)-1]]; ok {
			return v
		}
		return tok
	})
}

var headerDirective = regexp.MustCompile(`^\s*#\s*([a-z]+)(?:\s+(\S+)(?:\s+(\S+))?)?`)

// substituteHeader resolves preprocessor lines against lookup:
//
//	#undef NAME      -> #define NAME VALUE, or /* #undef NAME */ when unknown
//	#define NAME OLD -> #define NAME VALUE when NAME is known, unchanged otherwise
//
// Everything else passes through.
func substituteHeader(input string, lookup func(string) (string, bool)) string {
	lines := strings.SplitAfter(input, "\n")
	for i, line := range lines {
		m := headerDirective.FindStringSubmatchIndex(line)
		if m == nil || m[4] < 0 {
			continue
		}
		cmd := line[m[2]:m[3]]
		name := line[m[4]:m[5]]
		value, known := lookup(name)

		switch cmd {
		case "define":
			if m[6] >= 0 && known {
				lines[i] = line[:m[6]] + value + line[m[7]:]
			}
		case "undef":
			if known {
				lines[i] = line[:m[2]] + "define" + line[m[3]:m[5]] + " " + value + line[m[5]:]
			} else {
				lines[i] = "/* " + line[:m[5]] + " */" + line[m[5]:]
			}
		}
	}
	return strings.Join(lines, "")
}
