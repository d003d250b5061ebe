package site

import (
	"fmt"
	"html/template"
)

// Built-in page templates. The generated markup is intentionally plain: step
// cards carry data attributes and the waiting/firing/done/next status
// classes are toggled at view time from the timer API's display state.

const baseLayout = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{ block "title" . }}{{ .SiteTitle }}{{ end }}</title>
<link rel="stylesheet" href="{{ .BaseURL }}/static/style.css">
</head>
<body>
<header><a href="{{ .BaseURL }}/">{{ .SiteTitle }}</a></header>
<main>
{{ block "content" . }}{{ end }}
</main>
</body>
</html>`

const indexContent = `{{ define "content" }}
<h1>{{ .SiteTitle }}</h1>
{{ if .SiteDescription }}<p class="site-description">{{ .SiteDescription }}</p>{{ end }}
<ul class="recipe-list">
{{ range .Recipes }}
  <li class="recipe-card">
    <a href="{{ $.BaseURL }}/{{ .Slug }}/">{{ .Title }}</a>
    <span class="meta">serves {{ .Servings }}{{ if .HasTimer }} &middot; {{ .TotalMinutes }} min{{ end }}</span>
  </li>
{{ end }}
</ul>
{{ end }}`

const recipeContent = `{{ define "title" }}{{ .Recipe.Title }} &mdash; {{ .SiteTitle }}{{ end }}
{{ define "content" }}
<article class="recipe" data-recipe="{{ .Slug }}">
<h1>{{ .Recipe.Title }}</h1>
{{ .DescriptionHTML }}

<section class="servings">
  <label>Servings</label>
  <span class="serving-size" data-base-servings="{{ .Recipe.Servings }}">{{ .Recipe.Servings }}</span>
</section>

{{ if .Recipe.Ingredients }}
<section class="ingredients">
<h2>Ingredients</h2>
<ul>
{{ range .Recipe.Ingredients }}
  <li data-quantity="{{ .Quantity }}">{{ if .Quantity }}{{ .Quantity }} {{ .Unit }} {{ end }}{{ .Name }}</li>
{{ end }}
</ul>
</section>
{{ end }}

{{ if .HasTimer }}
<section class="timer-controls" data-state="stopped">
  <button class="start">Start cooking</button>
  <button class="pause">Pause</button>
  <button class="resume">Resume</button>
  <button class="reset">Reset</button>
  <span class="elapsed"></span>
</section>
{{ end }}

<section class="steps">
<h2>Steps</h2>
{{ range .Steps }}
  <div class="step-card waiting" id="step-{{ .ID }}" data-step="{{ .ID }}"
       data-start-minute="{{ .StartMinute }}" data-duration-minutes="{{ .DurationMinutes }}"
       {{ if .Resource }}data-resource="{{ .Resource }}"{{ end }}>
    {{ if .Critical }}<span class="critical-badge">critical</span>{{ end }}
    <span class="countdown"></span>
    {{ .TextHTML }}
    {{ if .Image }}<img src="{{ .Image }}" alt="">{{ end }}
  </div>
{{ end }}
</section>
</article>
{{ end }}`

const styleSheet = `body { font-family: system-ui, sans-serif; max-width: 42rem; margin: 0 auto; padding: 1rem; }
header a { text-decoration: none; font-weight: 600; color: inherit; }
.recipe-list { list-style: none; padding: 0; }
.recipe-card { padding: .5rem 0; border-bottom: 1px solid #eee; }
.recipe-card .meta { color: #777; margin-left: .5rem; font-size: .9em; }
.step-card { border: 1px solid #ddd; border-radius: 6px; padding: .75rem; margin: .5rem 0; position: relative; }
.step-card.done { border-color: #2e7d32; }
.step-card.next { border-color: #1565c0; }
.step-card.firing { border-color: #e65100; animation: pulse 1s infinite alternate; }
.step-card.hidden { display: none; }
.step-card .countdown { float: right; font-variant-numeric: tabular-nums; color: #555; }
.critical-badge { font-size: .7em; text-transform: uppercase; color: #b71c1c; }
.timer-controls button { margin-right: .5rem; }
@keyframes pulse { from { box-shadow: none; } to { box-shadow: 0 0 6px #e65100; } }
`

func parsePage(content string) (*template.Template, error) {
	t, err := template.New("base").Parse(baseLayout)
	if err != nil {
		return nil, fmt.Errorf("parse base layout: %w", err)
	}
	if _, err := t.Parse(content); err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	return t, nil
}
