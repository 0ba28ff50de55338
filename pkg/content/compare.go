package content

import (
	"fmt"
	"log/slog"
)

// DefaultRootTolerance is the children-count drift tolerated at the body root.
const DefaultRootTolerance = 2

// Comparator decides whether a stored page and a freshly generated one are
// equivalent.
type Comparator struct {
	// RootTolerance is the maximum children-count difference at the body
	// root for which the essential-elements check decides the result.
	RootTolerance int
	Logger        *slog.Logger
}

// NewComparator returns a comparator with the given root tolerance. A
// negative tolerance selects DefaultRootTolerance.
func NewComparator(tolerance int, logger *slog.Logger) *Comparator {
	if tolerance < 0 {
		tolerance = DefaultRootTolerance
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Comparator{RootTolerance: tolerance, Logger: logger}
}

// CompareMarkdown compares two pages with the default tolerance.
func CompareMarkdown(existing, fresh Document) bool {
	return NewComparator(DefaultRootTolerance, nil).Equal(existing, fresh)
}

// Equal reports whether existing and fresh are equivalent. Titles and SEO
// fields must match exactly; bodies are compared structurally by node type.
// last_edited and auto_generated are not compared.
func (c *Comparator) Equal(existing, fresh Document) bool {
	log := c.logger().With("title", existing.Title)

	switch {
	case existing.Title != fresh.Title:
		log.Debug("document mismatch", "reason", "title")
		return false
	case existing.SEO.Title != fresh.SEO.Title:
		log.Debug("document mismatch", "reason", "seo title")
		return false
	case existing.SEO.Description != fresh.SEO.Description:
		log.Debug("document mismatch", "reason", "seo description")
		return false
	}

	return c.compareNode(existing.Body, fresh.Body, "body", log)
}

func (c *Comparator) compareNode(a, b Node, path string, log *slog.Logger) bool {
	if a.Type != b.Type {
		log.Debug("document mismatch", "reason", "type", "at", path, "existing", a.Type, "fresh", b.Type)
		return false
	}
	if a.HasChildren() && b.HasChildren() {
		return c.compareChildren(a.Children, b.Children, path, log)
	}
	if a.HasChildren() || b.HasChildren() {
		log.Debug("document mismatch", "reason", "children", "at", path)
		return false
	}
	return true
}

func (c *Comparator) compareChildren(a, b []Node, path string, log *slog.Logger) bool {
	if path == "body" {
		if c.sameChildren(a, b, path) {
			return true
		}
		diff := len(a) - len(b)
		if diff < 0 {
			diff = -diff
		}
		if diff > c.RootTolerance {
			log.Debug("document mismatch", "reason", "root children count", "existing", len(a), "fresh", len(b))
			return false
		}
		// Within tolerance the root is decided by the reference scaffold alone.
		if !hasEssentialElements(a) || !hasEssentialElements(b) {
			log.Debug("document mismatch", "reason", "missing api reference elements")
			return false
		}
		return true
	}

	if len(a) != len(b) {
		log.Debug("document mismatch", "reason", "children count", "at", path, "existing", len(a), "fresh", len(b))
		return false
	}
	for i := range a {
		if !c.compareNode(a[i], b[i], fmt.Sprintf("%s.children[%d]", path, i), log) {
			return false
		}
	}
	return true
}

// sameChildren reports whether two root child lists are structurally
// identical, without logging mismatches.
func (c *Comparator) sameChildren(a, b []Node, path string) bool {
	if len(a) != len(b) {
		return false
	}
	quiet := slog.New(slog.DiscardHandler)
	for i := range a {
		if !c.compareNode(a[i], b[i], fmt.Sprintf("%s.children[%d]", path, i), quiet) {
			return false
		}
	}
	return true
}

func (c *Comparator) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// hasEssentialElements reports whether a root child list carries an h2
// heading and the apiReference block.
func hasEssentialElements(children []Node) bool {
	var heading, reference bool
	for _, n := range children {
		switch {
		case n.Type == TypeH2:
			heading = true
		case n.Type == TypeJSXFlow && n.Name == APIReferenceElement:
			reference = true
		}
	}
	return heading && reference
}
