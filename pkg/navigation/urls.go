package navigation

import "strings"

// DocsRoot is the URL of the documentation homepage.
const DocsRoot = "/docs"

// Options configures how storage paths map to URLs.
type Options struct {
	// Homepage is the storage path of the docs homepage without the
	// "content" prefix and extension, e.g. "/docs/index".
	Homepage string
}

// DefaultOptions returns the options for the standard layout.
func DefaultOptions() Options {
	return Options{Homepage: "/docs/index"}
}

func (o Options) homepage() string {
	if o.Homepage == "" {
		return DefaultOptions().Homepage
	}
	return "/" + strings.Trim(o.Homepage, "/")
}

// HomepageSlug returns the storage form of the homepage,
// "content/docs/index.mdx" by default.
func (o Options) HomepageSlug() string {
	return "content" + o.homepage() + ".mdx"
}

// URL converts a slug in storage or URL form into a URL. The homepage maps
// to DocsRoot.
func (o Options) URL(slug string) string {
	if slug == o.HomepageSlug() {
		return DocsRoot
	}
	u := GetURL(slug)
	if u == o.homepage() {
		return DocsRoot
	}
	return u
}

// Slug converts a request path into the storage form.
func (o Options) Slug(path string) string {
	if strings.HasPrefix(path, "content/") {
		return path
	}
	path = canonicalPath(path)
	if path == DocsRoot {
		return o.HomepageSlug()
	}
	return "content" + path + ".mdx"
}

// GetURL strips the "content" prefix and the .mdx/.md extension from a slug
// and makes it absolute. "/docs/index" becomes "/docs".
func GetURL(slug string) string {
	u := strings.TrimPrefix(slug, "content")
	if s, ok := strings.CutSuffix(u, ".mdx"); ok {
		u = s
	} else {
		u = strings.TrimSuffix(u, ".md")
	}
	if u == "/docs/index" {
		u = DocsRoot
	}
	if !strings.HasPrefix(u, "/") {
		u = "/" + u
	}
	return u
}

// RemoveHash drops everything from the last "#".
func RemoveHash(u string) string {
	if i := strings.LastIndexByte(u, '#'); i >= 0 {
		return u[:i]
	}
	return u
}

// RemoveQuery drops everything from the last "?".
func RemoveQuery(u string) string {
	if i := strings.LastIndexByte(u, '?'); i >= 0 {
		return u[:i]
	}
	return u
}

// RemoveTrailingSlash drops one trailing "/".
func RemoveTrailingSlash(u string) string {
	return strings.TrimSuffix(u, "/")
}

// MatchActualTarget reports whether two URLs name the same page, ignoring
// hash fragments, query strings and a trailing slash.
func MatchActualTarget(a, b string) bool {
	return RemoveTrailingSlash(RemoveQuery(RemoveHash(a))) == RemoveTrailingSlash(RemoveQuery(RemoveHash(b)))
}

// canonicalPath strips hash, query and trailing slash; the empty path is "/".
func canonicalPath(p string) string {
	p = RemoveTrailingSlash(RemoveQuery(RemoveHash(p)))
	if p == "" {
		return "/"
	}
	return p
}
