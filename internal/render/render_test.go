package render

import (
	"context"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return r
}

func TestStreamWritesShellThenSections(t *testing.T) {
	r := testRenderer(t)
	w := httptest.NewRecorder()

	r.Stream(context.Background(), w, "home", map[string]string{"Title": "Home"},
		Section{Slot: "featured", Render: func(ctx context.Context) (template.HTML, error) {
			return template.HTML("<p>featured-body</p>"), nil
		}},
		Section{Slot: "categories", Render: func(ctx context.Context) (template.HTML, error) {
			return template.HTML("<p>categories-body</p>"), nil
		}},
	)

	body := w.Body.String()
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, w.Flushed)
	assert.Contains(t, body, "featured-body")
	assert.Contains(t, body, "categories-body")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(body), "</html>"))

	// Every streamed chunk appears after the full shell.
	assert.Greater(t, strings.Index(body, "<template data-deferred="), strings.Index(body, `data-slot="categories"`))
}

func TestStreamSectionFailureDegrades(t *testing.T) {
	r := testRenderer(t)
	w := httptest.NewRecorder()

	r.Stream(context.Background(), w, "home", map[string]string{"Title": "Home"},
		Section{Slot: "featured", Render: func(ctx context.Context) (template.HTML, error) {
			return "", errors.New("upstream exploded")
		}},
	)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "currently unavailable")
	assert.NotContains(t, w.Body.String(), "upstream exploded")
}

func TestStreamSectionPanicDegrades(t *testing.T) {
	r := testRenderer(t)
	w := httptest.NewRecorder()

	r.Stream(context.Background(), w, "home", map[string]string{"Title": "Home"},
		Section{Slot: "featured", Render: func(ctx context.Context) (template.HTML, error) {
			panic("boom")
		}},
	)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "currently unavailable")
}

func TestErrorPage(t *testing.T) {
	r := testRenderer(t)
	w := httptest.NewRecorder()

	r.ErrorPage(w, http.StatusBadGateway, "The catalog is temporarily unavailable.", "dial tcp: timeout")

	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "temporarily unavailable")
	assert.Contains(t, w.Body.String(), "dial tcp: timeout")
	assert.Contains(t, w.Body.String(), "Try again")
}

func TestNotFoundPage(t *testing.T) {
	r := testRenderer(t)
	w := httptest.NewRecorder()

	r.NotFoundPage(w, "That product")

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "That product")
}

func TestFragmentUnknownTemplate(t *testing.T) {
	r := testRenderer(t)
	_, err := r.Fragment("does-not-exist", nil)
	assert.Error(t, err)
}
