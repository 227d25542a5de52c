// Package manifest normalizes dependency manifests and derives the content
// identifier used to locate provisioned environments.
package manifest

import (
	"bytes"
	_ "crypto/sha256"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/opencontainers/go-digest"
)

// Language is a supported model source language.
type Language string

const (
	Python Language = "python"
	R      Language = "r"
)

// Languages lists every supported language.
var Languages = []Language{Python, R}

// ErrUnsupportedLanguage indicates a language tag outside Languages.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// grammars are the accepted package lines per language. Anything else in a
// manifest (comments, editable installs, URLs, option flags) is dropped.
var grammars = map[Language]*regexp.Regexp{
	Python: regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._\-\[\],]*==[A-Za-z0-9.*+!_\-]+$`),
	R:      regexp.MustCompile(`^[A-Za-z][A-Za-z0-9.]*,[A-Za-z0-9.\-]+$`),
}

var separators = map[Language]string{
	Python: "==",
	R:      ",",
}

// ParseLanguage resolves a case-insensitive language tag.
func ParseLanguage(s string) (Language, error) {
	lang := Language(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := grammars[lang]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, s)
	}
	return lang, nil
}

// Manifest is a normalized dependency list for one language.
type Manifest struct {
	Language Language
	Lines    []string
}

// Len returns the number of package lines.
func (m Manifest) Len() int {
	return len(m.Lines)
}

// Bytes returns the canonical file form: every line terminated by "\n".
func (m Manifest) Bytes() []byte {
	var b bytes.Buffer
	for _, line := range m.Lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.Bytes()
}

// Normalize keeps the lines of raw that match the language grammar and sorts
// them. Duplicates are kept.
func Normalize(raw []byte, lang Language) (Manifest, error) {
	grammar, ok := grammars[lang]
	if !ok {
		return Manifest{}, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}

	lines := make([]string, 0)
	for l := range bytes.Lines(raw) {
		line := strings.TrimRight(string(l), "\r\n")
		if grammar.MatchString(line) {
			lines = append(lines, line)
		}
	}
	slices.Sort(lines)

	return Manifest{Language: lang, Lines: lines}, nil
}

// Identifier is the lowercase hex sha256 naming a provisioned environment.
type Identifier string

// Identify digests language, version, and the normalized manifest bytes in
// that order. The same inputs always produce the same identifier.
func Identify(normalized []byte, lang Language, version string) Identifier {
	d := digest.SHA256.Digester()
	h := d.Hash()
	h.Write([]byte(lang))
	h.Write([]byte(version))
	h.Write(normalized)
	return Identifier(d.Digest().Encoded())
}

// Parse maps package names to versions from a normalized manifest. Later
// duplicates win.
func Parse(normalized []byte, lang Language) map[string]string {
	sep := separators[lang]
	result := make(map[string]string)
	if sep == "" {
		return result
	}

	for line := range strings.SplitSeq(string(normalized), "\n") {
		name, version, ok := strings.Cut(line, sep)
		if !ok || name == "" {
			continue
		}
		result[name] = version
	}
	return result
}
