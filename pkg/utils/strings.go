package utils

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	nonWordSpaceDash = regexp.MustCompile(`[^\w\s-]`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
	nonWordDash      = regexp.MustCompile(`[^\w-]`)
	curlyBraces      = regexp.MustCompile(`[{}]`)
	pathParamBraces  = regexp.MustCompile(`\{([^}]*)\}`)
	leadingSlash     = regexp.MustCompile(`^/`)
)

// minorWords stay lowercase inside a title unless they open it.
var minorWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "as": {}, "at": {}, "but": {}, "by": {},
	"for": {}, "from": {}, "if": {}, "in": {}, "into": {}, "nor": {}, "of": {},
	"on": {}, "or": {}, "per": {}, "so": {}, "the": {}, "to": {}, "via": {},
	"vs": {}, "with": {}, "yet": {},
}

// SanitizeFileName turns a free-form label (typically an OpenAPI tag) into a
// directory or file name: special characters dropped, whitespace runs become
// dashes, everything lowercased.
func SanitizeFileName(name string) string {
	s := nonWordSpaceDash.ReplaceAllString(name, "")
	s = whitespaceRun.ReplaceAllString(s, "-")
	return strings.ToLower(s)
}

// SanitizePath turns an API path template into a slug fragment.
// "/users/{id}/posts" becomes "users-id-posts".
func SanitizePath(path string) string {
	s := leadingSlash.ReplaceAllString(path, "")
	s = strings.ReplaceAll(s, "/", "-")
	s = curlyBraces.ReplaceAllString(s, "")
	s = nonWordDash.ReplaceAllString(s, "")
	return strings.ToLower(s)
}

// EndpointSlug returns the file base name used for one operation.
func EndpointSlug(method, path string) string {
	return strings.ToLower(method) + "-" + SanitizePath(path)
}

// EndpointFilePath returns the collection-relative path of a generated
// endpoint page. It depends on nothing but its arguments.
func EndpointFilePath(tag, method, path, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	return "api-documentation/" + SanitizeFileName(tag) + "/" + EndpointSlug(method, path) + "." + ext
}

// EndpointURL returns the public URL of a generated endpoint page.
func EndpointURL(tag, method, path string) string {
	return "/docs/api-documentation/" + SanitizeFileName(tag) + "/" + EndpointSlug(method, path)
}

// FormatDescription flattens a description onto one line and wraps path
// parameter placeholders in inline code.
func FormatDescription(description string) string {
	s := strings.ReplaceAll(description, "\n", " ")
	return pathParamBraces.ReplaceAllString(s, "`{$1}`")
}

// TitleCase capitalizes every word that starts with a letter, leaving minor
// words lowercase unless they open the title. The rest of each word is kept
// as written so acronyms survive.
func TitleCase(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	caser := cases.Title(language.English, cases.NoLower)
	words := strings.Fields(s)
	for i, w := range words {
		r, _ := utf8.DecodeRuneInString(w)
		if !unicode.IsLetter(r) {
			continue
		}
		if _, minor := minorWords[strings.ToLower(w)]; minor && i > 0 && i < len(words)-1 {
			words[i] = strings.ToLower(w)
			continue
		}
		words[i] = caser.String(w)
	}
	return strings.Join(words, " ")
}
