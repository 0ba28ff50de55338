package generator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blimu-dev/apidocs/pkg/content"
	"github.com/blimu-dev/apidocs/pkg/ir"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestBuildDocument(t *testing.T) {
	ep := ir.Endpoint{
		Method:      "get",
		Path:        "/users/{id}",
		Summary:     "get a user by id",
		Description: "Returns the user\nwith the given {id}.",
	}
	doc := BuildDocument(ep, "users.json", fixedNow)

	assert.Equal(t, "Get a User by Id", doc.Title)
	assert.Equal(t, doc.Title, doc.SEO.Title)
	assert.Equal(t, "Returns the user with the given `{id}`.", doc.SEO.Description)
	assert.True(t, doc.AutoGenerated)
	assert.Equal(t, fixedNow, doc.LastEdited)

	body := doc.Body
	assert.Equal(t, content.TypeRoot, body.Type)
	require.Len(t, body.Children, 7)

	types := make([]string, 0, len(body.Children))
	for _, n := range body.Children {
		types = append(types, n.Type)
	}
	assert.Equal(t, []string{"p", "h2", "p", "p", "p", "h2", "mdxJsxFlowElement"}, types)

	assert.Equal(t, "Returns the user with the given `{id}`.", body.Children[0].Children[0].Text)
	assert.Equal(t, "Endpoint Details", body.Children[1].Children[0].Text)

	method := body.Children[2].Children
	require.Len(t, method, 3)
	assert.Equal(t, content.Node{Type: content.TypeText, Text: "Method:", Bold: true}, method[0])
	assert.Equal(t, " ", method[1].Text)
	assert.Equal(t, content.Node{Type: content.TypeText, Text: "GET", Code: true}, method[2])

	assert.Equal(t, " ", body.Children[3].Children[0].Text)
	assert.Equal(t, "/users/{id}", body.Children[4].Children[2].Text)
	assert.Equal(t, "API Reference", body.Children[5].Children[0].Text)

	ref := body.Children[6]
	assert.Equal(t, content.APIReferenceElement, ref.Name)
	assert.Equal(t, map[string]string{"schemaFile": "users.json|GET:/users/{id}"}, ref.Props)
	require.Len(t, ref.Children, 1)
	assert.Equal(t, "", ref.Children[0].Text)
}

func TestBuildDocumentFallbacks(t *testing.T) {
	doc := BuildDocument(ir.Endpoint{Method: "DELETE", Path: "/pets/{id}"}, "pets.json", fixedNow)

	assert.Equal(t, "DELETE /pets/{id}", doc.Title)
	assert.Equal(t, "API endpoint for DELETE /pets/{id}", doc.SEO.Description)
	assert.Equal(t, "", doc.Body.Children[0].Children[0].Text, "body keeps the empty description")
}

func TestBuildDocumentIsDeterministic(t *testing.T) {
	ep := ir.Endpoint{Method: "POST", Path: "/pets", Summary: "add pet"}
	a := BuildDocument(ep, "pets.json", fixedNow)
	b := BuildDocument(ep, "pets.json", fixedNow.Add(time.Hour))

	assert.True(t, content.CompareMarkdown(a, b), "only last_edited differs")
}

func TestSchemaFileProp(t *testing.T) {
	assert.Equal(t, "api.json|PATCH:/a/{b}", SchemaFileProp("api.json", "patch", "/a/{b}"))
}
