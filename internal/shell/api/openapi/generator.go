// Package openapi builds the OpenAPI 3 description of the HTTP API by
// reflecting on the response types.
package openapi

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
)

// =============================================================================
// Generator
// =============================================================================

// Generator produces OpenAPI 3.0 specifications from registered resources.
type Generator struct {
	title       string
	version     string
	description string
	servers     []string
	resources   []ResourceInfo
	mu          sync.RWMutex
	cachedSpec  *openapi3.T
}

// ResourceInfo describes one collection under /api/v1.
type ResourceInfo struct {
	Name         string     // Collection name (e.g., "deployments")
	Model        any        // Response struct for schema extraction
	ListFilters  []string   // Extra string query filters for the list operation
	SupportsList bool       // GET /{name}
	SupportsGet  bool       // GET /{name}/{id}
	Upload       *UploadForm // POST /{name} as multipart/form-data when set
}

// UploadForm describes a multipart create operation.
type UploadForm struct {
	FileField string   // Binary part name
	Fields    []string // Required text fields
	Secret    []string // Text fields holding credentials (format: password)
}

// Option configures the generator.
type Option func(*Generator)

// WithTitle sets the API title.
func WithTitle(title string) Option {
	return func(g *Generator) {
		g.title = title
	}
}

// WithVersion sets the API version.
func WithVersion(version string) Option {
	return func(g *Generator) {
		g.version = version
	}
}

// WithDescription sets the API description.
func WithDescription(description string) Option {
	return func(g *Generator) {
		g.description = description
	}
}

// WithServer adds a server URL.
func WithServer(url string) Option {
	return func(g *Generator) {
		g.servers = append(g.servers, url)
	}
}

// NewGenerator creates a new OpenAPI generator.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		title:   "DockaForge API",
		version: "1.0.0",
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// RegisterResource adds a resource to the generator for spec generation.
func (g *Generator) RegisterResource(info ResourceInfo) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resources = append(g.resources, info)
	g.cachedSpec = nil
}

// Generate produces the complete OpenAPI 3.0 specification.
func (g *Generator) Generate() *openapi3.T {
	g.mu.RLock()
	if g.cachedSpec != nil {
		spec := g.cachedSpec
		g.mu.RUnlock()
		return spec
	}
	g.mu.RUnlock()

	g.mu.Lock()
	defer g.mu.Unlock()

	// Double-check after acquiring write lock
	if g.cachedSpec != nil {
		return g.cachedSpec
	}

	spec := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       g.title,
			Version:     g.version,
			Description: g.description,
		},
		Paths: openapi3.NewPaths(),
		Components: &openapi3.Components{
			Schemas: make(openapi3.Schemas),
		},
	}
	for _, url := range g.servers {
		spec.Servers = append(spec.Servers, &openapi3.Server{URL: url})
	}

	spec.Components.Schemas["Error"] = g.extractSchema(errorBody{})

	for _, res := range g.resources {
		g.addResource(spec, res)
	}

	g.cachedSpec = spec
	return spec
}

// Handler returns an HTTP handler that serves the OpenAPI specification.
func (g *Generator) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		spec := g.Generate()

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(spec); err != nil {
			http.Error(w, "Failed to encode OpenAPI spec", http.StatusInternalServerError)
		}
	}
}

// errorBody mirrors the API error shape.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// =============================================================================
// Paths
// =============================================================================

func (g *Generator) addResource(spec *openapi3.T, res ResourceInfo) {
	basePath := "/api/v1/" + res.Name
	schemaName := capitalize(singularize(res.Name))
	spec.Components.Schemas[schemaName] = g.extractSchema(res.Model)

	collection := &openapi3.PathItem{}
	if res.SupportsList {
		collection.Get = g.listOperation(res, schemaName)
	}
	if res.Upload != nil {
		collection.Post = g.uploadOperation(res, schemaName)
	}
	if collection.Get != nil || collection.Post != nil {
		spec.Paths.Set(basePath, collection)
	}

	if res.SupportsGet {
		spec.Paths.Set(basePath+"/{id}", &openapi3.PathItem{
			Parameters: openapi3.Parameters{
				&openapi3.ParameterRef{Value: openapi3.NewPathParameter("id").WithSchema(openapi3.NewStringSchema())},
			},
			Get: &openapi3.Operation{
				OperationID: "get" + schemaName,
				Summary:     "Get a " + singularize(res.Name),
				Tags:        []string{capitalize(res.Name)},
				Responses: openapi3.NewResponses(
					openapi3.WithStatus(http.StatusOK, jsonResponse("The "+singularize(res.Name), schemaRef(schemaName))),
					openapi3.WithStatus(http.StatusNotFound, jsonResponse("Not found", schemaRef("Error"))),
				),
			},
		})
	}
}

func (g *Generator) listOperation(res ResourceInfo, schemaName string) *openapi3.Operation {
	params := openapi3.Parameters{
		&openapi3.ParameterRef{Value: openapi3.NewQueryParameter("limit").WithSchema(openapi3.NewIntegerSchema())},
		&openapi3.ParameterRef{Value: openapi3.NewQueryParameter("offset").WithSchema(openapi3.NewIntegerSchema())},
	}
	for _, f := range res.ListFilters {
		params = append(params, &openapi3.ParameterRef{Value: openapi3.NewQueryParameter(f).WithSchema(openapi3.NewStringSchema())})
	}

	list := openapi3.NewObjectSchema().
		WithProperty("limit", openapi3.NewIntegerSchema()).
		WithProperty("offset", openapi3.NewIntegerSchema()).
		WithProperty("total", openapi3.NewIntegerSchema())
	items := openapi3.NewArraySchema()
	items.Items = schemaRef(schemaName)
	list.Properties[res.Name] = &openapi3.SchemaRef{Value: items}

	return &openapi3.Operation{
		OperationID: "list" + capitalize(res.Name),
		Summary:     "List " + res.Name,
		Tags:        []string{capitalize(res.Name)},
		Parameters:  params,
		Responses: openapi3.NewResponses(
			openapi3.WithStatus(http.StatusOK, jsonResponse("A page of "+res.Name, &openapi3.SchemaRef{Value: list})),
		),
	}
}

func (g *Generator) uploadOperation(res ResourceInfo, schemaName string) *openapi3.Operation {
	form := openapi3.NewObjectSchema()
	form.WithProperty(res.Upload.FileField, openapi3.NewStringSchema().WithFormat("binary"))
	required := []string{res.Upload.FileField}
	for _, f := range res.Upload.Fields {
		form.WithProperty(f, openapi3.NewStringSchema())
		required = append(required, f)
	}
	for _, f := range res.Upload.Secret {
		form.WithProperty(f, openapi3.NewStringSchema().WithFormat("password"))
		required = append(required, f)
	}
	form.Required = required

	return &openapi3.Operation{
		OperationID: "create" + schemaName,
		Summary:     "Run a " + singularize(res.Name),
		Tags:        []string{capitalize(res.Name)},
		RequestBody: &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().WithRequired(true).WithFormDataSchema(form),
		},
		Responses: openapi3.NewResponses(
			openapi3.WithStatus(http.StatusCreated, jsonResponse("Completed, possibly with warnings", schemaRef(schemaName))),
			openapi3.WithStatus(http.StatusBadRequest, jsonResponse("Invalid upload", schemaRef("Error"))),
			openapi3.WithStatus(http.StatusUnprocessableEntity, jsonResponse("A stage failed", schemaRef(schemaName))),
		),
	}
}

func jsonResponse(description string, schema *openapi3.SchemaRef) *openapi3.ResponseRef {
	return &openapi3.ResponseRef{
		Value: openapi3.NewResponse().
			WithDescription(description).
			WithContent(openapi3.NewContentWithJSONSchemaRef(schema)),
	}
}

func schemaRef(name string) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("#/components/schemas/"+name, nil)
}

// =============================================================================
// Schema Generation
// =============================================================================

// extractSchema extracts an OpenAPI schema from a Go struct.
func (g *Generator) extractSchema(model any) *openapi3.SchemaRef {
	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	schema := &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Properties: make(openapi3.Schemas),
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}
		name := field.Name
		if jsonTag != "" {
			if parts := strings.Split(jsonTag, ","); parts[0] != "" {
				name = parts[0]
			}
		}

		if propSchema := g.goTypeToSchema(field.Type); propSchema != nil {
			schema.Properties[name] = propSchema
		}
	}

	return &openapi3.SchemaRef{Value: schema}
}

// goTypeToSchema converts a Go type to an OpenAPI schema.
func (g *Generator) goTypeToSchema(t reflect.Type) *openapi3.SchemaRef {
	switch t.Kind() {
	case reflect.String:
		return &openapi3.SchemaRef{Value: openapi3.NewStringSchema()}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		return &openapi3.SchemaRef{Value: openapi3.NewInt32Schema()}

	case reflect.Int64:
		if t == reflect.TypeOf(time.Duration(0)) {
			schema := openapi3.NewInt64Schema()
			schema.Description = "nanoseconds"
			return &openapi3.SchemaRef{Value: schema}
		}
		return &openapi3.SchemaRef{Value: openapi3.NewInt64Schema()}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &openapi3.SchemaRef{Value: openapi3.NewIntegerSchema()}

	case reflect.Float32, reflect.Float64:
		return &openapi3.SchemaRef{Value: openapi3.NewFloat64Schema()}

	case reflect.Bool:
		return &openapi3.SchemaRef{Value: openapi3.NewBoolSchema()}

	case reflect.Slice, reflect.Array:
		return &openapi3.SchemaRef{Value: openapi3.NewArraySchema().WithItems(g.goTypeToSchema(t.Elem()).Value)}

	case reflect.Map:
		return &openapi3.SchemaRef{Value: openapi3.NewObjectSchema().WithAdditionalProperties(g.goTypeToSchema(t.Elem()).Value)}

	case reflect.Ptr:
		schema := g.goTypeToSchema(t.Elem())
		if schema != nil && schema.Value != nil {
			schema.Value.Nullable = true
		}
		return schema

	case reflect.Struct:
		if t == reflect.TypeOf(time.Time{}) {
			return &openapi3.SchemaRef{Value: openapi3.NewDateTimeSchema()}
		}
		return g.extractSchema(reflect.New(t).Interface())

	default:
		return &openapi3.SchemaRef{Value: openapi3.NewObjectSchema()}
	}
}

// =============================================================================
// Helpers
// =============================================================================

// capitalize returns the string with the first letter capitalized.
func capitalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// singularize performs basic singularization (removes trailing 's').
func singularize(s string) string {
	if strings.HasSuffix(s, "ies") {
		return s[:len(s)-3] + "y"
	}
	if strings.HasSuffix(s, "s") {
		return s[:len(s)-1]
	}
	return s
}
