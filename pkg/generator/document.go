package generator

import (
	"strings"
	"time"

	"github.com/blimu-dev/apidocs/pkg/content"
	"github.com/blimu-dev/apidocs/pkg/ir"
	"github.com/blimu-dev/apidocs/pkg/utils"
)

// BuildDocument renders the generated page of one endpoint. schemaFile names
// the schema the embedded API reference reads from.
func BuildDocument(ep ir.Endpoint, schemaFile string, now time.Time) content.Document {
	method := strings.ToUpper(ep.Method)
	signature := method + " " + ep.Path

	title := utils.TitleCase(ep.Summary)
	if title == "" {
		title = signature
	}
	description := utils.FormatDescription(ep.Description)
	seoDescription := description
	if seoDescription == "" {
		seoDescription = "API endpoint for " + signature
	}

	return content.Document{
		Title: title,
		SEO: content.SEO{
			Title:       title,
			Description: seoDescription,
		},
		AutoGenerated: true,
		LastEdited:    now.UTC(),
		Body: content.Root(
			content.Element(content.TypeParagraph, content.Text(description)),
			content.Element(content.TypeH2, content.Text("Endpoint Details")),
			content.Element(content.TypeParagraph, content.Bold("Method:"), content.Text(" "), content.Code(method)),
			content.Element(content.TypeParagraph, content.Text(" ")),
			content.Element(content.TypeParagraph, content.Bold("Path:"), content.Text(" "), content.Code(ep.Path)),
			content.Element(content.TypeH2, content.Text("API Reference")),
			content.Embed(content.APIReferenceElement, map[string]string{
				"schemaFile": SchemaFileProp(schemaFile, method, ep.Path),
			}),
		),
	}
}

// SchemaFileProp formats the apiReference embed prop, "schema|METHOD:path".
func SchemaFileProp(schemaFile, method, path string) string {
	return schemaFile + "|" + strings.ToUpper(method) + ":" + path
}
