// Package nodename derives file system friendly names for instruction nodes and identifies
// the machine a build runs on.
package nodename

import (
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// EnvNodeName overrides the reported host name.
const EnvNodeName = "MOM_NODENAME"

// Host returns $MOM_NODENAME when set, the host name otherwise.
func Host() string {
	if v := os.Getenv(EnvNodeName); v != "" {
		return v
	}
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}

// Folder turns an arbitrary node name into a folder name. Accents are folded to their base
// letters, runs of characters other than letters, digits, '.', '-' and '_' become a
// single '_', and leading or trailing '_' are trimmed. An empty result yields "_".
func Folder(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	pendingSep := false
	for _, r := range folded {
		if isFolderRune(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "_"
	}
	return out
}

func isFolderRune(r rune) bool {
	if r > unicode.MaxASCII {
		return false
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '-' || r == '_'
}
