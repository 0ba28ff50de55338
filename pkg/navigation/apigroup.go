package navigation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/blimu-dev/apidocs/pkg/utils"
)

// ErrInvalidAPIGroup is returned for API group payloads that cannot be decoded.
var ErrInvalidAPIGroup = errors.New("invalid apiGroup payload")

// APIGroup lists the endpoints of one tag of a schema file. In the menu
// configuration its payload is a JSON string.
type APIGroup struct {
	Title     string
	Schema    string
	Tag       string
	Endpoints []APIEndpoint
	// Err is set when the payload could not be decoded
	Err error
}

// APIEndpoint is one endpoint of an API group.
type APIEndpoint struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Summary     string `json:"summary,omitempty"`
	Description string `json:"description,omitempty"`
	OperationID string `json:"operationId,omitempty"`
	// Legacy marks endpoints given as "METHOD:/path" strings
	Legacy bool `json:"-"`
}

// URL returns the page URL of the endpoint within tag.
func (e APIEndpoint) URL(tag string) string {
	return utils.EndpointURL(tag, e.Method, e.Path)
}

// APIGroupPayload is the decoded apiGroup value.
type APIGroupPayload struct {
	Schema    string        `json:"schema"`
	Tag       string        `json:"tag"`
	Endpoints []APIEndpoint `json:"endpoints"`
}

// ParseAPIGroupPayload decodes an apiGroup value, given either as a JSON
// string holding the payload or as the payload object itself. Endpoints may
// be objects or legacy "METHOD:/path" strings.
func ParseAPIGroupPayload(data []byte) (APIGroupPayload, error) {
	data = bytes.TrimSpace(data)
	if bytes.HasPrefix(data, []byte(`"`)) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return APIGroupPayload{}, fmt.Errorf("%w: %w", ErrInvalidAPIGroup, err)
		}
		data = []byte(s)
	}

	var raw struct {
		Schema    string            `json:"schema"`
		Tag       string            `json:"tag"`
		Endpoints []json.RawMessage `json:"endpoints"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return APIGroupPayload{}, fmt.Errorf("%w: %w", ErrInvalidAPIGroup, err)
	}

	payload := APIGroupPayload{Schema: raw.Schema, Tag: raw.Tag}
	for _, e := range raw.Endpoints {
		ep, err := decodeEndpoint(e)
		if err != nil {
			return APIGroupPayload{}, fmt.Errorf("%w: %w", ErrInvalidAPIGroup, err)
		}
		payload.Endpoints = append(payload.Endpoints, ep)
	}
	return payload, nil
}

func decodeEndpoint(data []byte) (APIEndpoint, error) {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte(`"`)) {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return APIEndpoint{}, err
		}
		return ParseEndpointID(id), nil
	}
	var ep APIEndpoint
	if err := json.Unmarshal(data, &ep); err != nil {
		return APIEndpoint{}, err
	}
	if ep.Method == "" {
		ep.Method = "GET"
	}
	return ep, nil
}

// ParseEndpointID decodes the legacy "METHOD:/path" form.
func ParseEndpointID(id string) APIEndpoint {
	method, path, _ := strings.Cut(id, ":")
	if method == "" {
		method = "GET"
	}
	return APIEndpoint{
		Method:      method,
		Path:        path,
		Summary:     method + " " + path,
		OperationID: id,
		Legacy:      true,
	}
}

// MarshalJSON writes the group with its payload as a JSON string.
func (g *APIGroup) MarshalJSON() ([]byte, error) {
	endpoints := g.Endpoints
	if endpoints == nil {
		endpoints = []APIEndpoint{}
	}
	payload, err := json.Marshal(APIGroupPayload{Schema: g.Schema, Tag: g.Tag, Endpoints: endpoints})
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Template string `json:"_template"`
		Title    string `json:"title,omitempty"`
		APIGroup string `json:"apiGroup"`
	}{TemplateAPIGroup, g.Title, string(payload)})
}

// APIGroups returns the API groups of every API tab, in menu order.
func APIGroups(tabs []Tab) []*APIGroup {
	var out []*APIGroup
	for _, tab := range tabs {
		if !tab.IsAPI() {
			continue
		}
		walk(tab.Groups, func(item Item) {
			if g, ok := item.(*APIGroup); ok {
				out = append(out, g)
			}
		})
	}
	return out
}

// walk visits items depth first in document order.
func walk(items Items, visit func(Item)) {
	for _, item := range items {
		visit(item)
		if g, ok := item.(*Group); ok {
			walk(g.Items, visit)
		}
	}
}
