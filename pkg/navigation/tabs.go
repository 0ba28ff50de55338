package navigation

// FindTabWithPath returns the first tab holding a page at path, matching API
// endpoint pages in API tabs too. Without a match it falls back to the first
// tab; only an empty tab list yields (-1, nil). Leaf slugs map to URLs
// through opts, so a custom homepage resolves to DocsRoot.
func FindTabWithPath(tabs []Tab, path string, opts Options) (int, *Tab) {
	for i := range tabs {
		if hasNestedSlug(tabs[i].Groups, path, opts) {
			return i, &tabs[i]
		}
		if tabs[i].IsAPI() && hasMatchingAPIEndpoint(tabs[i].Groups, path) {
			return i, &tabs[i]
		}
	}
	if len(tabs) == 0 {
		return -1, nil
	}
	return 0, &tabs[0]
}

func hasNestedSlug(items Items, path string, opts Options) bool {
	for _, item := range items {
		switch it := item.(type) {
		case *Leaf:
			if it.Slug != "" && MatchActualTarget(opts.URL(it.Slug), path) {
				return true
			}
		case *Group:
			if hasNestedSlug(it.Items, path, opts) {
				return true
			}
		}
	}
	return false
}

func hasMatchingAPIEndpoint(items Items, path string) bool {
	found := false
	walk(items, func(item Item) {
		g, ok := item.(*APIGroup)
		if !ok || found || g.Tag == "" {
			return
		}
		for _, ep := range g.Endpoints {
			if MatchActualTarget(ep.URL(g.Tag), path) {
				found = true
				return
			}
		}
	})
	return found
}
