// Package navigation normalizes the documentation menu and answers the
// questions page rendering asks of it: which tab is active, where the page
// sits in the tree and which pages come before and after it.
package navigation

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Item templates used by the menu configuration
const (
	TemplateItem     = "item"
	TemplateItems    = "items"
	TemplateSubMenu  = "documentSubMenu"
	TemplateAPIGroup = "groupOfApiReferences"
	TemplateAPITab   = "apiTab"
	TypenameAPITab   = "NavigationBarTabsApiTab"
)

// Item is one entry of the menu tree: a *Leaf, a *Group or an *APIGroup.
type Item interface {
	navItem()
}

// Leaf links to a single page.
type Leaf struct {
	Template string
	Title    string
	// Slug is the storage form ("content/docs/x.mdx") until the tree is
	// formatted, the URL form ("/docs/x") after.
	Slug string
}

// Group nests items under a title.
type Group struct {
	Template string
	Title    string
	Items    Items
}

func (*Leaf) navItem()     {}
func (*Group) navItem()    {}
func (*APIGroup) navItem() {}

// Items is an ordered list of menu entries.
type Items []Item

// Tab is one tab of the navigation bar. Groups holds its supermenu groups.
type Tab struct {
	Title    string
	Template string
	Typename string
	Groups   Items

	// Set by Format
	LightModeLogo string
	DarkModeLogo  string
}

// IsAPI reports whether the tab lists API references.
func (t Tab) IsAPI() bool {
	return t.Typename == TypenameAPITab || t.Template == TemplateAPITab
}

// Button is a call-to-action button of the navigation bar.
type Button struct {
	Label   string `json:"label,omitempty"`
	Link    string `json:"link,omitempty"`
	Variant string `json:"variant,omitempty"`
}

// CTAButtons are the navigation bar buttons.
type CTAButtons struct {
	Button1 *Button `json:"button1,omitempty"`
	Button2 *Button `json:"button2,omitempty"`
}

// Config is the raw menu configuration.
type Config struct {
	LightModeLogo string      `json:"lightModeLogo,omitempty"`
	DarkModeLogo  string      `json:"darkModeLogo,omitempty"`
	CTAButtons    *CTAButtons `json:"ctaButtons,omitempty"`
	Tabs          []Tab       `json:"tabs"`
}

// ParseConfig decodes a menu configuration. A {"navigationBar": {...}}
// envelope is accepted.
func ParseConfig(data []byte) (*Config, error) {
	var envelope struct {
		NavigationBar *Config `json:"navigationBar"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.NavigationBar != nil {
		return envelope.NavigationBar, nil
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode navigation: %w", err)
	}
	return &cfg, nil
}

type tabJSON struct {
	Title          string `json:"title"`
	Template       string `json:"_template,omitempty"`
	Typename       string `json:"__typename,omitempty"`
	SupermenuGroup Items  `json:"supermenuGroup,omitempty"`
	Groups         Items  `json:"groups,omitempty"`
	Items          Items  `json:"items,omitempty"`
	LightModeLogo  string `json:"lightModeLogo,omitempty"`
	DarkModeLogo   string `json:"darkModeLogo,omitempty"`
}

// UnmarshalJSON accepts the supermenu groups under "supermenuGroup",
// "groups" or "items".
func (t *Tab) UnmarshalJSON(data []byte) error {
	var raw tabJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	groups := raw.SupermenuGroup
	if groups == nil {
		groups = raw.Groups
	}
	if groups == nil {
		groups = raw.Items
	}
	*t = Tab{
		Title:         raw.Title,
		Template:      raw.Template,
		Typename:      raw.Typename,
		Groups:        groups,
		LightModeLogo: raw.LightModeLogo,
		DarkModeLogo:  raw.DarkModeLogo,
	}
	return nil
}

// MarshalJSON writes the supermenu groups under "supermenuGroup".
func (t Tab) MarshalJSON() ([]byte, error) {
	groups := t.Groups
	if groups == nil {
		groups = Items{}
	}
	return json.Marshal(tabJSON{
		Title:          t.Title,
		Template:       t.Template,
		Typename:       t.Typename,
		SupermenuGroup: groups,
		LightModeLogo:  t.LightModeLogo,
		DarkModeLogo:   t.DarkModeLogo,
	})
}

type itemJSON struct {
	Template string          `json:"_template,omitempty"`
	Title    string          `json:"title,omitempty"`
	Slug     json.RawMessage `json:"slug,omitempty"`
	Href     string          `json:"href,omitempty"`
	Items    json.RawMessage `json:"items,omitempty"`
	APIGroup json.RawMessage `json:"apiGroup,omitempty"`
}

type slugJSON struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Sys   struct {
		RelativePath string `json:"relativePath"`
	} `json:"_sys"`
}

// UnmarshalJSON decodes each entry by its _template, or by its shape when
// the template is missing.
func (items *Items) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	out := make(Items, 0, len(raws))
	for i, raw := range raws {
		if isNull(raw) {
			continue
		}
		item, err := decodeItem(raw)
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, item)
	}
	*items = out
	return nil
}

func decodeItem(data []byte) (Item, error) {
	var raw itemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	hasItems := !isNull(raw.Items)
	hasSlug := !isNull(raw.Slug) || raw.Href != ""

	switch {
	case raw.Template == TemplateAPIGroup || !isNull(raw.APIGroup):
		group := &APIGroup{Title: raw.Title}
		payload, err := ParseAPIGroupPayload(raw.APIGroup)
		if err != nil {
			group.Err = err
		} else {
			group.Schema, group.Tag, group.Endpoints = payload.Schema, payload.Tag, payload.Endpoints
		}
		return group, nil

	case raw.Template == TemplateItems || (!hasSlug && (hasItems || raw.Template == "")):
		group := &Group{Template: raw.Template, Title: raw.Title}
		if hasItems {
			if err := json.Unmarshal(raw.Items, &group.Items); err != nil {
				return nil, err
			}
		}
		return group, nil
	}

	leaf := &Leaf{Template: raw.Template, Title: raw.Title, Slug: raw.Href}
	if !isNull(raw.Slug) {
		slug, title, err := decodeSlug(raw.Slug)
		if err != nil {
			return nil, err
		}
		leaf.Slug = slug
		if title != "" {
			leaf.Title = title
		}
	}
	return leaf, nil
}

// decodeSlug accepts a plain string or a document reference object.
func decodeSlug(data []byte) (slug, title string, err error) {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte(`"`)) {
		err = json.Unmarshal(data, &slug)
		return slug, "", err
	}
	var ref slugJSON
	if err := json.Unmarshal(data, &ref); err != nil {
		return "", "", fmt.Errorf("decode slug: %w", err)
	}
	if ref.ID == "" && ref.Sys.RelativePath != "" {
		ref.ID = "content/docs/" + ref.Sys.RelativePath
	}
	return ref.ID, ref.Title, nil
}

// MarshalJSON implements json.Marshaler.
func (l *Leaf) MarshalJSON() ([]byte, error) {
	template := l.Template
	if template == "" {
		template = TemplateItem
	}
	return json.Marshal(struct {
		Template string `json:"_template"`
		Title    string `json:"title,omitempty"`
		Slug     string `json:"slug"`
	}{template, l.Title, l.Slug})
}

// MarshalJSON implements json.Marshaler.
func (g *Group) MarshalJSON() ([]byte, error) {
	template := g.Template
	if template == "" {
		template = TemplateItems
	}
	items := g.Items
	if items == nil {
		items = Items{}
	}
	return json.Marshal(struct {
		Template string `json:"_template"`
		Title    string `json:"title,omitempty"`
		Items    Items  `json:"items"`
	}{template, g.Title, items})
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
