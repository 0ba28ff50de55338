package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blimu-dev/apidocs/pkg/ir"
	"github.com/blimu-dev/apidocs/pkg/openapi"
)

func parseDoc(t *testing.T, src string) *openapi.Document {
	t.Helper()
	doc, err := openapi.ParseDocument([]byte(src))
	require.NoError(t, err)
	return doc
}

const usersV3 = `{
  "openapi": "3.0.3",
  "info": {"title": "Users", "version": "1.0.0"},
  "paths": {
    "/users/{id}": {
      "summary": "a single user",
      "parameters": [
        {"name": "id", "in": "path", "required": true, "schema": {"type": "string"}},
        {"name": "trace", "in": "header", "schema": {"type": "string"}}
      ],
      "put": {
        "tags": ["users"],
        "summary": "replace user",
        "parameters": [{"$ref": "#/components/parameters/Trace"}],
        "requestBody": {"$ref": "#/components/requestBodies/UserBody"},
        "responses": {
          "200": {"description": "ok", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/User"}}}},
          "404": {"$ref": "#/components/responses/NotFound"}
        }
      },
      "get": {
        "tags": ["users"],
        "operationId": "getUser",
        "description": "Returns the user.",
        "deprecated": true,
        "responses": {
          "200": {"description": "ok", "content": {"application/xml": {"schema": {"type": "string"}}, "application/json": {"schema": {"$ref": "#/components/schemas/User"}}}},
          "default": {"description": "error"}
        }
      },
      "x-internal": {"get": "not an operation"}
    },
    "/users": {
      "servers": [{"url": "https://api.example.com"}],
      "post": {"responses": {"201": {"description": "created"}}}
    }
  },
  "components": {
    "parameters": {"Trace": {"name": "trace", "in": "header", "required": true, "schema": {"type": "integer"}}},
    "requestBodies": {"UserBody": {"required": true, "content": {"application/json": {"schema": {"$ref": "#/components/schemas/User"}}}}},
    "responses": {"NotFound": {"description": "missing"}},
    "schemas": {"User": {"type": "object", "properties": {"id": {"type": "string"}}}}
  }
}`

const usersV3YAML = `
openapi: 3.0.3
info:
  title: Users
  version: 1.0.0
paths:
  /users/{id}:
    summary: a single user
    parameters:
      - name: id
        in: path
        required: true
        schema:
          type: string
      - name: trace
        in: header
        schema:
          type: string
    put:
      tags: [users]
      summary: replace user
      parameters:
        - $ref: '#/components/parameters/Trace'
      requestBody:
        $ref: '#/components/requestBodies/UserBody'
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/User'
        "404":
          $ref: '#/components/responses/NotFound'
    get:
      tags: [users]
      operationId: getUser
      description: Returns the user.
      deprecated: true
      responses:
        "200":
          description: ok
          content:
            application/xml:
              schema:
                type: string
            application/json:
              schema:
                $ref: '#/components/schemas/User'
        default:
          description: error
    x-internal:
      get: not an operation
  /users:
    servers:
      - url: https://api.example.com
    post:
      responses:
        "201":
          description: created
components:
  parameters:
    Trace:
      name: trace
      in: header
      required: true
      schema:
        type: integer
  requestBodies:
    UserBody:
      required: true
      content:
        application/json:
          schema:
            $ref: '#/components/schemas/User'
  responses:
    NotFound:
      description: missing
  schemas:
    User:
      type: object
      properties:
        id:
          type: string
`

const petsV2 = `{
  "swagger": "2.0",
  "info": {"title": "Pets", "version": "1"},
  "paths": {
    "/pets": {
      "post": {
        "tags": ["pets"],
        "summary": "add pet",
        "parameters": [
          {"name": "dryRun", "in": "query", "type": "boolean"},
          {"name": "pet", "in": "body", "required": true, "description": "the pet", "schema": {"$ref": "#/definitions/Pet"}}
        ],
        "responses": {"200": {"description": "ok", "schema": {"$ref": "#/definitions/Pet"}}}
      }
    }
  },
  "definitions": {"Pet": {"type": "object", "properties": {"name": {"type": "string"}}}}
}`

func keys(endpoints []ir.Endpoint) []string {
	out := make([]string, 0, len(endpoints))
	for _, ep := range endpoints {
		out = append(out, ep.Key())
	}
	return out
}

func TestExtractEndpointsOrder(t *testing.T) {
	endpoints := ExtractEndpoints(parseDoc(t, usersV3))
	assert.Equal(t, []string{"PUT /users/{id}", "GET /users/{id}", "POST /users"}, keys(endpoints),
		"paths and methods keep document order; non-method keys are skipped")
}

func TestExtractEndpointsIdempotent(t *testing.T) {
	doc := parseDoc(t, usersV3)
	assert.Equal(t, ExtractEndpoints(doc), ExtractEndpoints(doc))
}

func TestExtractEndpointsFields(t *testing.T) {
	endpoints := ExtractEndpoints(parseDoc(t, usersV3))
	put, get, post := endpoints[0], endpoints[1], endpoints[2]

	t.Run("path parameters merge first and refs resolve", func(t *testing.T) {
		require.Len(t, put.Parameters, 2)
		assert.Equal(t, "id", put.Parameters[0].Name)
		assert.Equal(t, "trace", put.Parameters[1].Name)
		assert.True(t, put.Parameters[1].Required, "operation parameter replaces the path-level one")
		assert.Equal(t, "integer", put.Parameters[1].Schema.String("type"))

		require.Len(t, get.Parameters, 2)
		assert.False(t, get.Parameters[1].Required)
	})

	t.Run("request body ref", func(t *testing.T) {
		require.NotNil(t, put.RequestBody)
		assert.True(t, put.RequestBody.Required)
		assert.Equal(t, "#/components/schemas/User", put.RequestBody.Schema().String("$ref"))
		assert.Nil(t, get.RequestBody)
	})

	t.Run("responses keep order and prefer json", func(t *testing.T) {
		require.Len(t, get.Responses, 2)
		assert.Equal(t, "200", get.Responses[0].Code)
		assert.Equal(t, "default", get.Responses[1].Code)
		assert.Equal(t, "#/components/schemas/User", get.Responses[0].Schema().String("$ref"))
		assert.True(t, get.Responses[0].Expandable())
		assert.False(t, get.Responses[1].Expandable())

		require.Len(t, put.Responses, 2)
		assert.Equal(t, "missing", put.Responses[1].Description)
	})

	t.Run("metadata", func(t *testing.T) {
		assert.Equal(t, "getUser", get.OperationID)
		assert.True(t, get.Deprecated)
		assert.Equal(t, []string{"users"}, get.Tags)
		assert.Equal(t, "GET /users/{id}", get.Summary, "summary defaults to METHOD path")
		assert.Equal(t, "replace user", put.Summary)
		assert.Empty(t, post.Tags)
	})
}

func TestExtractEndpointsJSONAndYAMLAgree(t *testing.T) {
	fromJSON := ExtractEndpoints(parseDoc(t, usersV3))
	fromYAML := ExtractEndpoints(parseDoc(t, usersV3YAML))

	require.Equal(t, keys(fromJSON), keys(fromYAML))
	for i := range fromJSON {
		a, b := fromJSON[i], fromYAML[i]
		assert.Equal(t, a.Summary, b.Summary)
		assert.Equal(t, a.Description, b.Description)
		assert.Equal(t, a.Tags, b.Tags)
		assert.Equal(t, len(a.Parameters), len(b.Parameters))
		assert.Equal(t, len(a.Responses), len(b.Responses))
		assert.Equal(t, a.RequestBody != nil, b.RequestBody != nil)
	}
}

func TestExtractEndpointsSwaggerBodyParameter(t *testing.T) {
	endpoints := ExtractEndpoints(parseDoc(t, petsV2))
	require.Len(t, endpoints, 1)
	ep := endpoints[0]

	require.Len(t, ep.Parameters, 1, "body parameter is absorbed")
	assert.Equal(t, "dryRun", ep.Parameters[0].Name)
	assert.Equal(t, "boolean", ep.Parameters[0].Schema.String("type"), "swagger parameters carry their own type")

	require.NotNil(t, ep.RequestBody)
	assert.True(t, ep.RequestBody.Required)
	assert.Equal(t, "the pet", ep.RequestBody.Description)
	require.Len(t, ep.RequestBody.Content, 1)
	assert.Equal(t, "application/json", ep.RequestBody.Content[0].ContentType)
	assert.Equal(t, "#/definitions/Pet", ep.RequestBody.Schema().String("$ref"))

	require.Len(t, ep.Responses, 1)
	assert.Equal(t, "#/definitions/Pet", ep.Responses[0].Schema().String("$ref"))
}

func TestExtractEndpointsEmpty(t *testing.T) {
	assert.Empty(t, ExtractEndpoints(parseDoc(t, `{"openapi": "3.0.0", "info": {"title": "x", "version": "1"}}`)))
	assert.Nil(t, ExtractEndpoints(nil))
}

func TestExtractEndpointsUnresolvedRefsAreDropped(t *testing.T) {
	endpoints := ExtractEndpoints(parseDoc(t, `{
	  "openapi": "3.0.0",
	  "paths": {"/a": {"get": {"parameters": [{"$ref": "#/components/parameters/Missing"}], "responses": {}}}}
	}`))
	require.Len(t, endpoints, 1)
	assert.Empty(t, endpoints[0].Parameters)
}
