package chapters

import (
	"regexp"
	"strconv"
	"strings"
)

var namePattern = regexp.MustCompile(`^(\d+)(?:\.(\d+))?_(.+)$`)

// Name is a parsed chapter directory name of the form number[.subnumber]_slug.
type Name struct {
	Raw    string `json:"raw"`
	Number int    `json:"number"`
	Sub    int    `json:"sub,omitempty"`
	HasSub bool   `json:"has_sub,omitempty"`
	Slug   string `json:"slug"`
}

// ParseName parses a directory name. Names that do not match get number 0 and
// keep the raw name as slug.
func ParseName(raw string) Name {
	m := namePattern.FindStringSubmatch(raw)
	if m == nil {
		return Name{Raw: raw, Slug: raw}
	}
	n := Name{Raw: raw, Slug: strings.ReplaceAll(m[3], "_", " ")}
	n.Number, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		n.Sub, _ = strconv.Atoi(m[2])
		n.HasSub = true
	}
	return n
}

// Matched reports whether the name followed the numbered convention.
func (n Name) Matched() bool {
	return n.Number != 0 || n.HasSub || n.Slug != n.Raw
}

// ID renders the numeric part, e.g. "3" or "3.2". Unnumbered names return "".
func (n Name) ID() string {
	if !n.Matched() {
		return ""
	}
	if n.HasSub {
		return strconv.Itoa(n.Number) + "." + strconv.Itoa(n.Sub)
	}
	return strconv.Itoa(n.Number)
}
