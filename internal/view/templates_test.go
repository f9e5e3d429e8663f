package view

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

func TestRenderNilEngine(t *testing.T) {
	var engine *Engine
	err := engine.Render(httptest.NewRecorder(), "pages/dashboard.html", TemplateData{})
	require.Error(t, err)
}

func TestRenderDashboardWithoutEmployee(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	err = engine.Render(rec, "pages/dashboard.html", TemplateData{
		Title: "HR Dashboard",
		User:  "Ana",
		Data:  map[string]any{"State": map[string]any{"Manager": false}},
	})
	require.NoError(t, err)
	body := rec.Body.String()
	assert.Contains(t, body, "No employee is linked")
	assert.Contains(t, body, `<span class="user">Ana</span>`)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
}

func TestRenderUnknownTemplateWritesNothing(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.Error(t, engine.Render(rec, "pages/missing.html", TemplateData{}))
	assert.Empty(t, rec.Body.String())
	assert.Empty(t, rec.Header().Get("Content-Type"))
}
