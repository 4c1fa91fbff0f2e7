// Package links renders markdown-style [label](url) links found in
// feedback resources.
package links

import "regexp"

// linkPattern matches a complete [label](url). Labels may not contain
// brackets and URLs may not contain whitespace or parentheses, so anything
// else is left as literal text.
var linkPattern = regexp.MustCompile(`\[([^\[\]\n]+)\]\(([^()\s]+)\)`)

// Rewrite replaces every well-formed link in text with render(label, url).
func Rewrite(text string, render func(label, url string) string) string {
	return linkPattern.ReplaceAllStringFunc(text, func(m string) string {
		sub := linkPattern.FindStringSubmatch(m)
		return render(sub[1], sub[2])
	})
}

// Terminal renders links as OSC 8 hyperlinks, clickable in most terminals.
func Terminal(text string) string {
	return Rewrite(text, func(label, url string) string {
		return "\x1b]8;;" + url + "\x1b\\" + label + "\x1b]8;;\x1b\\"
	})
}

// Plain renders links as "label <url>" for files and non-TTY output.
func Plain(text string) string {
	return Rewrite(text, func(label, url string) string {
		return label + " <" + url + ">"
	})
}
