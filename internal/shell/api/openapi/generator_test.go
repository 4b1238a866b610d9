package openapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleResource struct {
	ID        string            `json:"id"`
	Count     int               `json:"count"`
	Labels    map[string]string `json:"labels,omitempty"`
	Tags      []string          `json:"tags"`
	Note      *string           `json:"note"`
	CreatedAt time.Time         `json:"created_at"`
	hidden    string
	Skipped   string `json:"-"`
}

func newSampleGenerator() *Generator {
	g := NewGenerator(WithTitle("Test API"), WithVersion("9.9.9"), WithServer("/"))
	g.RegisterResource(ResourceInfo{
		Name:         "samples",
		Model:        sampleResource{},
		ListFilters:  []string{"status"},
		SupportsList: true,
		SupportsGet:  true,
		Upload: &UploadForm{
			FileField: "archive",
			Fields:    []string{"username"},
			Secret:    []string{"password"},
		},
	})
	return g
}

func TestGenerate_Paths(t *testing.T) {
	spec := newSampleGenerator().Generate()

	assert.Equal(t, "Test API", spec.Info.Title)
	assert.Equal(t, "9.9.9", spec.Info.Version)

	collection := spec.Paths.Value("/api/v1/samples")
	require.NotNil(t, collection)
	assert.NotNil(t, collection.Get)
	assert.NotNil(t, collection.Post)
	assert.Equal(t, "createSample", collection.Post.OperationID)

	item := spec.Paths.Value("/api/v1/samples/{id}")
	require.NotNil(t, item)
	assert.Equal(t, "getSample", item.Get.OperationID)

	var names []string
	for _, p := range collection.Get.Parameters {
		names = append(names, p.Value.Name)
	}
	assert.Equal(t, []string{"limit", "offset", "status"}, names)
}

func TestGenerate_Schema(t *testing.T) {
	spec := newSampleGenerator().Generate()

	schema := spec.Components.Schemas["Sample"]
	require.NotNil(t, schema)
	props := schema.Value.Properties

	assert.Contains(t, props, "id")
	assert.Contains(t, props, "labels")
	assert.NotContains(t, props, "hidden")
	assert.NotContains(t, props, "Skipped")
	assert.True(t, props["note"].Value.Nullable)
	assert.Equal(t, "date-time", props["created_at"].Value.Format)
	assert.True(t, props["tags"].Value.Type.Is(openapi3.TypeArray))
}

func TestGenerate_UploadForm(t *testing.T) {
	spec := newSampleGenerator().Generate()

	body := spec.Paths.Value("/api/v1/samples").Post.RequestBody.Value
	media := body.Content.Get("multipart/form-data")
	require.NotNil(t, media)

	form := media.Schema.Value
	assert.ElementsMatch(t, []string{"archive", "username", "password"}, form.Required)
	assert.Equal(t, "binary", form.Properties["archive"].Value.Format)
	assert.Equal(t, "password", form.Properties["password"].Value.Format)
}

func TestGenerate_Cached(t *testing.T) {
	g := newSampleGenerator()
	first := g.Generate()
	assert.Same(t, first, g.Generate())

	g.RegisterResource(ResourceInfo{Name: "others", Model: sampleResource{}, SupportsList: true})
	assert.NotSame(t, first, g.Generate())
}

func TestHandler_ServesJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	newSampleGenerator().Handler()(rec, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "3.0.3", doc["openapi"])
}

func TestSingularize(t *testing.T) {
	assert.Equal(t, "deployment", singularize("deployments"))
	assert.Equal(t, "entry", singularize("entries"))
	assert.Equal(t, "repo", singularize("repo"))
}
