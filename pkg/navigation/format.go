package navigation

import "strings"

// Formatted is the menu as handed to page rendering.
type Formatted struct {
	Tabs          []Tab       `json:"data"`
	SHA           string      `json:"sha"`
	Preview       bool        `json:"preview"`
	CTAButtons    *CTAButtons `json:"ctaButtons,omitempty"`
	LightModeLogo string      `json:"lightModeLogo"`
	DarkModeLogo  string      `json:"darkModeLogo"`
}

// Format rewrites every leaf slug of cfg from storage form to URL form and
// attaches the logos to each tab. cfg is not modified.
func Format(cfg *Config, preview bool, opts Options) Formatted {
	out := Formatted{Preview: preview}
	if cfg == nil {
		out.Tabs = []Tab{}
		return out
	}
	out.CTAButtons = cfg.CTAButtons
	out.LightModeLogo = cfg.LightModeLogo
	out.DarkModeLogo = cfg.DarkModeLogo

	out.Tabs = make([]Tab, 0, len(cfg.Tabs))
	for _, tab := range cfg.Tabs {
		out.Tabs = append(out.Tabs, Tab{
			Title:         tab.Title,
			Template:      tab.Template,
			Typename:      tab.Typename,
			Groups:        formatItems(tab.Groups, opts),
			LightModeLogo: cfg.LightModeLogo,
			DarkModeLogo:  cfg.DarkModeLogo,
		})
	}
	return out
}

func formatItems(items Items, opts Options) Items {
	out := make(Items, 0, len(items))
	for _, item := range items {
		switch it := item.(type) {
		case *Leaf:
			leaf := *it
			if strings.HasPrefix(leaf.Slug, "content") {
				leaf.Slug = opts.URL(leaf.Slug)
			}
			out = append(out, &leaf)
		case *Group:
			out = append(out, &Group{
				Template: it.Template,
				Title:    it.Title,
				Items:    formatItems(it.Items, opts),
			})
		default:
			out = append(out, item)
		}
	}
	return out
}
