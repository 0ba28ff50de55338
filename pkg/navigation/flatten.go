package navigation

// Page is one leaf of the menu in reading order.
type Page struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Pagination holds the neighbours of the current page.
type Pagination struct {
	Prev *Page `json:"prev"`
	Next *Page `json:"next"`
}

// Flatten lists every leaf with a slug across all tabs in document order.
// API groups contribute no pages.
func Flatten(tabs []Tab, opts Options) []Page {
	var pages []Page
	for _, tab := range tabs {
		walk(tab.Groups, func(item Item) {
			leaf, ok := item.(*Leaf)
			if !ok || leaf.Slug == "" {
				return
			}
			pages = append(pages, Page{Slug: leaf.Slug, Title: leaf.Title, URL: opts.URL(leaf.Slug)})
		})
	}
	return pages
}

// Paginate finds currentPath among pages and returns its neighbours. Both
// are nil when the page is not listed.
func Paginate(pages []Page, currentPath string, opts Options) Pagination {
	target := opts.URL(opts.Slug(currentPath))
	for i, p := range pages {
		if p.URL != target {
			continue
		}
		var out Pagination
		if i > 0 {
			prev := pages[i-1]
			out.Prev = &prev
		}
		if i < len(pages)-1 {
			next := pages[i+1]
			out.Next = &next
		}
		return out
	}
	return Pagination{}
}
