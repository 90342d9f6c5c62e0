package contract_test

import (
	"testing"

	"github.com/brennhill/replayverify/internal/contract"
	"github.com/brennhill/replayverify/internal/route"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `{
  "paths": {
    "/api/products/:id": {
      "get": {
        "responses": {
          "200": {
            "content": {
              "application/json": { "example": {"id": "42", "name": "widget"} }
            }
          },
          "404": {
            "content": { "application/json": { "example": {"error": "not found"} } }
          }
        }
      }
    },
    "/api/orders": {
      "post": {
        "responses": {
          "201": {
            "examples": {
              "default": "{\"orderId\":\"o1\"}"
            }
          }
        }
      }
    }
  }
}`

func TestImportRegistersRoutesFromExamples(t *testing.T) {
	doc, err := contract.Parse([]byte(sampleDoc))
	require.NoError(t, err)

	resolver := route.NewResolver()
	imp := contract.NewImporter()
	templates, err := imp.Import(doc, resolver)
	require.NoError(t, err)
	require.Len(t, templates, 2)

	m := resolver.Resolve("GET", "/api/products/42")
	require.NotNil(t, m)
	tmpl := m.Route.Handler.(contract.RouteTemplate)
	assert.Equal(t, 200, tmpl.StatusCode)
	body := tmpl.Body.(map[string]any)
	assert.Equal(t, "42", body["id"])
}

func TestImportParsesJSONStringExample(t *testing.T) {
	doc, err := contract.Parse([]byte(sampleDoc))
	require.NoError(t, err)

	resolver := route.NewResolver()
	imp := contract.NewImporter()
	_, err = imp.Import(doc, resolver)
	require.NoError(t, err)

	m := resolver.Resolve("POST", "/api/orders")
	require.NotNil(t, m)
	tmpl := m.Route.Handler.(contract.RouteTemplate)
	body := tmpl.Body.(map[string]any)
	assert.Equal(t, "o1", body["orderId"])
}

const sampleDocYAML = `
paths:
  /api/products/:id:
    get:
      responses:
        "200":
          content:
            application/json:
              example:
                id: "42"
                name: widget
`

func TestParseAcceptsYAML(t *testing.T) {
	doc, err := contract.Parse([]byte(sampleDocYAML))
	require.NoError(t, err)

	resolver := route.NewResolver()
	templates, err := contract.NewImporter().Import(doc, resolver)
	require.NoError(t, err)
	require.Len(t, templates, 1)

	m := resolver.Resolve("GET", "/api/products/42")
	require.NotNil(t, m)
	tmpl := m.Route.Handler.(contract.RouteTemplate)
	assert.Equal(t, 200, tmpl.StatusCode)
}

func TestImportSkipsPathsWithNo2xxResponse(t *testing.T) {
	doc, err := contract.Parse([]byte(`{
      "paths": { "/api/broken": { "get": { "responses": { "500": { "content": {} } } } } }
    }`))
	require.NoError(t, err)

	resolver := route.NewResolver()
	templates, err := contract.NewImporter().Import(doc, resolver)
	require.NoError(t, err)
	assert.Empty(t, templates)
}

func TestPreferStatusPicksConfiguredCode(t *testing.T) {
	doc, err := contract.Parse([]byte(`{
      "paths": { "/api/multi": { "get": { "responses": {
        "200": { "content": { "application/json": { "example": {"v": "200"} } } },
        "201": { "content": { "application/json": { "example": {"v": "201"} } } }
      } } } }
    }`))
	require.NoError(t, err)

	resolver := route.NewResolver()
	imp := &contract.Importer{Policy: contract.PreferStatus, PreferredCodes: map[string]int{"get /api/multi": 201}}
	_, err = imp.Import(doc, resolver)
	require.NoError(t, err)

	m := resolver.Resolve("GET", "/api/multi")
	require.NotNil(t, m)
	tmpl := m.Route.Handler.(contract.RouteTemplate)
	assert.Equal(t, 201, tmpl.StatusCode)
}
