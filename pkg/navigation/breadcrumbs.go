package navigation

// Crumb is one step of a breadcrumb trail. The current page has no URL.
type Crumb struct {
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

const untitled = "Untitled"

// Breadcrumbs returns the trail from the supermenu group down to the page at
// currentPath, or nil when no leaf matches. The first match wins.
func Breadcrumbs(tabs []Tab, currentPath string, opts Options) []Crumb {
	if currentPath == "" {
		return nil
	}
	current := canonicalPath(currentPath)
	for _, tab := range tabs {
		for _, item := range tab.Groups {
			group, ok := item.(*Group)
			if !ok || len(group.Items) == 0 {
				continue
			}
			found := searchItems(group.Items, current, opts)
			if len(found) == 0 {
				continue
			}
			var trail []Crumb
			if group.Title != "" {
				trail = append(trail, Crumb{Title: group.Title, URL: firstPageURL(group.Items, opts)})
			}
			return append(trail, found...)
		}
	}
	return nil
}

func searchItems(items Items, current string, opts Options) []Crumb {
	for _, item := range items {
		switch it := item.(type) {
		case *Leaf:
			if it.Slug != "" && canonicalPath(opts.URL(it.Slug)) == current {
				return []Crumb{{Title: orUntitled(it.Title)}}
			}
		case *Group:
			if nested := searchItems(it.Items, current, opts); len(nested) > 0 {
				crumb := Crumb{Title: orUntitled(it.Title), URL: firstPageURL(it.Items, opts)}
				return append([]Crumb{crumb}, nested...)
			}
		}
	}
	return nil
}

// firstPageURL returns the URL of the first leaf below items, or "".
func firstPageURL(items Items, opts Options) string {
	for _, item := range items {
		switch it := item.(type) {
		case *Leaf:
			if it.Slug != "" {
				return opts.URL(it.Slug)
			}
		case *Group:
			if u := firstPageURL(it.Items, opts); u != "" {
				return u
			}
		}
	}
	return ""
}

func orUntitled(title string) string {
	if title == "" {
		return untitled
	}
	return title
}
