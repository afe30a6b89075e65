package display

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageRendererWritesFrame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overlay.html")
	page, err := NewPageRenderer(path, nil)
	require.NoError(t, err)
	page.Debug = true

	page.Render(Frame{
		Markup: "<h1>Hello</h1>",
		Typography: Typography{
			FontFamily:    "Inter, 'Segoe UI'; } body { color: red",
			FontSizePx:    48,
			TextAlign:     "left",
			LineHeight:    1.5,
			VerticalAlign: "bottom",
		},
		Transition: Transition{Type: "fade", DurationMs: 300},
		SlideID:    "slide-1",
		Total:      1,
	})
	page.StartCountdown(2 * time.Second)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)

	assert.Contains(t, html, "<h1>Hello</h1>")
	assert.Contains(t, html, `data-state="ready"`)
	assert.Contains(t, html, `data-slide="slide-1"`)
	assert.Contains(t, html, `data-transition="fade" data-transition-ms="300"`)
	assert.Contains(t, html, "--font-size-target: 48px")
	assert.Contains(t, html, "--transition-duration: 300ms")
	assert.Contains(t, html, "justify-content: flex-end; align-items: flex-start;")
	assert.Contains(t, html, "font-family: Inter, 'Segoe UI'  body  color: red;")
	assert.Contains(t, html, `data-duration-ms="2000"`)
	assert.Contains(t, html, "state: ready (#1/1)")
	assert.NotContains(t, html, "http-equiv")
}

func TestPageRendererPlaceholderEscapes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overlay.html")
	page, err := NewPageRenderer(path, nil)
	require.NoError(t, err)
	page.Refresh = time.Second

	page.StartCountdown(time.Second)
	page.Placeholder(StatusError, "<b>down</b>")
	page.ClearCountdown()

	data, err := page.Page()
	require.NoError(t, err)
	html := string(data)

	assert.Contains(t, html, `data-state="error"`)
	assert.NotContains(t, html, `class="debug"`)
	assert.Contains(t, html, "<p>&lt;b&gt;down&lt;/b&gt;</p>")
	assert.NotContains(t, html, "slide-progress\" style")
	assert.Contains(t, html, `<meta http-equiv="refresh" content="1">`)

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, html, string(onDisk))
}
