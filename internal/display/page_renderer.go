package display

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"sync"
	"time"

	"obs-text-slides/internal/fsutil"
)

const pageHTML = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
{{- if .RefreshSeconds}}
<meta http-equiv="refresh" content="{{.RefreshSeconds}}">
{{- end}}
<title>OBS Text Slides</title>
<style>
html, body { margin: 0; height: 100%; background: transparent; color: #fff; }
.slide-container { display: flex; flex-direction: column; height: 100%; padding: 4vh 6vw; box-sizing: border-box; }
.slide-body { animation-duration: var(--transition-duration); animation-fill-mode: both; }
.slide-body.transition-crossfade, .slide-body.transition-fade { animation-name: fade-in; }
.slide-body.transition-slide, .slide-body.transition-push { animation-name: slide-in; }
.slide-body.transition-zoom { animation-name: zoom-in; }
.slide-progress { position: fixed; left: 0; bottom: 0; height: 6px; background: rgba(255,255,255,.8); animation: progress linear both; }
.debug { position: fixed; top: 0; right: 0; font: 12px monospace; background: rgba(0,0,0,.6); padding: 2px 6px; }
@keyframes fade-in { from { opacity: 0; } to { opacity: 1; } }
@keyframes slide-in { from { transform: translateX(8%); opacity: 0; } to { transform: none; opacity: 1; } }
@keyframes zoom-in { from { transform: scale(.9); opacity: 0; } to { transform: none; opacity: 1; } }
@keyframes progress { from { width: 0%; } to { width: 100%; } }
{{.Style}}
</style>
</head>
<body>
<div id="app" data-state="{{.Status}}"{{if .SlideID}} data-slide="{{.SlideID}}"{{end}}>
<div class="slide-container">
<div class="slide-body transition-{{.Transition.Type}}" data-transition="{{.Transition.Type}}" data-transition-ms="{{.Transition.DurationMs}}">
{{.Markup}}
</div>
</div>
{{- if .CountdownMs}}
<div class="slide-progress" style="animation-duration: {{.CountdownMs}}ms" data-duration-ms="{{.CountdownMs}}"></div>
{{- end}}
{{- if .Debug}}
<div class="debug">{{.Debug}}</div>
{{- end}}
</div>
</body>
</html>
`

type pageModel struct {
	Status         Status
	SlideID        string
	Markup         template.HTML
	Style          template.CSS
	Transition     Transition
	Index          int
	Total          int
	CountdownMs    int64
	RefreshSeconds int
	Debug          string
}

// PageRenderer writes a self-contained HTML page for an OBS browser source.
// Every call rewrites the page atomically.
type PageRenderer struct {
	path   string
	tmpl   *template.Template
	logger *slog.Logger

	// Refresh, when positive, makes the page reload itself.
	Refresh time.Duration
	// Debug shows a status badge such as "state: ready (#2/5)".
	Debug bool

	mu    sync.Mutex
	model pageModel
}

// NewPageRenderer creates a renderer writing to path.
func NewPageRenderer(path string, logger *slog.Logger) (*PageRenderer, error) {
	tmpl, err := template.New("page").Parse(pageHTML)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PageRenderer{
		path:   path,
		tmpl:   tmpl,
		logger: logger,
		model:  pageModel{Status: StatusLoading, Transition: Builtin().Transition},
	}, nil
}

func (p *PageRenderer) Render(frame Frame) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.model.Status = StatusReady
	p.model.SlideID = frame.SlideID
	p.model.Markup = template.HTML(frame.Markup)
	p.model.Style = typographyStyle(frame.Typography, frame.Transition)
	p.model.Transition = frame.Transition
	p.model.Index = frame.Index
	p.model.Total = frame.Total
	p.write()
}

func (p *PageRenderer) Placeholder(status Status, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.model.Status = status
	p.model.SlideID = ""
	p.model.Markup = template.HTML("<p>" + template.HTMLEscapeString(message) + "</p>")
	p.model.Transition = Transition{Type: "none"}
	p.write()
}

func (p *PageRenderer) StartCountdown(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.model.CountdownMs = d.Milliseconds()
	p.write()
}

func (p *PageRenderer) ClearCountdown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.model.CountdownMs == 0 {
		return
	}
	p.model.CountdownMs = 0
	p.write()
}

// Page renders the current page without writing it.
func (p *PageRenderer) Page() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.render()
}

func (p *PageRenderer) render() ([]byte, error) {
	model := p.model
	model.RefreshSeconds = int(p.Refresh.Round(time.Second) / time.Second)
	if p.Debug {
		model.Debug = "state: " + string(model.Status)
		if model.Status == StatusReady {
			model.Debug = fmt.Sprintf("state: ready (#%d/%d)", model.Index+1, model.Total)
		}
	}
	if model.Style == "" {
		model.Style = typographyStyle(Builtin().Typography, Builtin().Transition)
	}

	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, model); err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}
	return buf.Bytes(), nil
}

func (p *PageRenderer) write() {
	data, err := p.render()
	if err == nil {
		err = fsutil.WriteFileAtomic(p.path, data)
	}
	if err != nil {
		p.logger.Error("failed to write overlay page", slog.String("path", p.path), slog.String("error", err.Error()))
	}
}

// typographyStyle builds the rules that apply the resolved typography.
func typographyStyle(t Typography, tr Transition) template.CSS {
	var b strings.Builder
	fmt.Fprintf(&b, ":root { --font-size-target: %gpx; --transition-duration: %dms; }\n", t.FontSizePx, tr.DurationMs)
	fmt.Fprintf(&b, ".slide-body { font-family: %s; font-size: var(--font-size-target); text-align: %s; line-height: %g; }\n",
		cssValue(t.FontFamily), cssValue(t.TextAlign), t.LineHeight)
	fmt.Fprintf(&b, ".slide-container { justify-content: %s; align-items: %s; }",
		justifyContent(t.VerticalAlign), alignItems(t.TextAlign))
	return template.CSS(b.String())
}

func justifyContent(verticalAlign string) string {
	switch verticalAlign {
	case "top":
		return "flex-start"
	case "bottom":
		return "flex-end"
	case "":
		return "center"
	}
	return cssValue(verticalAlign)
}

func alignItems(textAlign string) string {
	switch textAlign {
	case "left":
		return "flex-start"
	case "right":
		return "flex-end"
	default:
		return "center"
	}
}

// cssValue strips characters that could end a declaration or rule.
func cssValue(v string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ';', '{', '}', '<', '>', '\\', '\n', '\r':
			return -1
		}
		return r
	}, v)
}
