package openrouter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modelsJSON = `{"data":[
	{"id":"mistralai/mistral-7b-instruct","name":"Mistral 7B","context_length":32768},
	{"id":"qwen/qwen-2.5-72b","name":"Qwen","context_length":131072},
	{"id":"google/gemini-2.0-flash-001","name":"Gemini Flash","context_length":1048576}
]}`

func modelsServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestListModels(t *testing.T) {
	server := modelsServer(t, http.StatusOK, modelsJSON)
	ms := NewModelSelector(NewClient(testConfig(server.URL)))

	models, err := ms.ListModels(context.Background())

	require.NoError(t, err)
	require.Len(t, models, 3)
	assert.Equal(t, "Qwen", models[1].Name)
	assert.Equal(t, 131072, models[1].ContextLength)
}

func TestListModelsError(t *testing.T) {
	server := modelsServer(t, http.StatusForbidden, `{"error":{"message":"forbidden"}}`)
	ms := NewModelSelector(NewClient(testConfig(server.URL)))

	_, err := ms.ListModels(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "forbidden")
}

func TestSelectBestModel(t *testing.T) {
	server := modelsServer(t, http.StatusOK, modelsJSON)
	ms := NewModelSelector(NewClient(testConfig(server.URL)))

	model, err := ms.SelectBestModel(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "google/gemini-2.0-flash-001", model)
}

func TestSelectBestFallsBackToLargestContext(t *testing.T) {
	model, err := selectBest([]ModelInfo{
		{ID: "a/small", ContextLength: 4096},
		{ID: "b/large", ContextLength: 200000},
	})
	require.NoError(t, err)
	assert.Equal(t, "b/large", model)

	_, err = selectBest(nil)
	assert.Error(t, err)
}

func TestRecommend(t *testing.T) {
	models := []ModelInfo{
		{ID: "qwen/qwen-2.5-72b", ContextLength: 32000},
		{ID: "openai/gpt-4o-mini", ContextLength: 128000},
	}

	model, err := Recommend(models, "qwen/qwen-2.5-72b")
	require.NoError(t, err)
	assert.Equal(t, "qwen/qwen-2.5-72b", model)

	model, err = Recommend(models, "missing/model")
	require.NoError(t, err)
	assert.Equal(t, "openai/gpt-4o-mini", model)

	_, err = Recommend(nil, "missing/model")
	assert.Error(t, err)
}
