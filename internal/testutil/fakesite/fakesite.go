// Package fakesite serves a local stand-in for the translator page. It keeps
// the two DOM contracts the adapter relies on: a textarea reachable by its
// accessible name and an output div carrying the full class chain.
package fakesite

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
)

const (
	InputLabel    = "Input Your Singlish Text Here."
	OutputClasses = "w-full h-80 p-3 rounded-lg ring-1 ring-slate-300 whitespace-pre-wrap"

	// Debounce is how long the page waits after the last keystroke before rendering.
	Debounce = 300 * time.Millisecond

	// SlowRequest bounds how long /api/slow holds a request open.
	SlowRequest = 10 * time.Second
)

var letters = map[rune]string{
	'a': "අ", 'b': "බ", 'c': "ච", 'd': "ද", 'e': "එ", 'f': "ෆ", 'g': "ග",
	'h': "හ", 'i': "ඉ", 'j': "ජ", 'k': "ක", 'l': "ල", 'm': "ම", 'n': "න",
	'o': "ඔ", 'p': "ප", 'q': "ක", 'r': "ර", 's': "ස", 't': "ත", 'u': "උ",
	'v': "ව", 'w': "ව", 'x': "ක්ෂ", 'y': "ය", 'z': "ස",
}

// Transliterate maps ASCII letters one by one to Sinhala letters and keeps
// everything else. Input without any letter renders nothing, which is how the
// real site treats blank and digit-only text.
func Transliterate(s string) string {
	if strings.IndexFunc(s, unicode.IsLetter) < 0 {
		return ""
	}
	var b strings.Builder
	for _, r := range s {
		if si, ok := letters[unicode.ToLower(r)]; ok {
			b.WriteString(si)
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// Router returns the gin engine serving the page and its translate endpoint.
func Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
	})
	r.GET("/api/translate", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"output": Transliterate(c.Query("q"))})
	})
	r.GET("/busy", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(busyPage))
	})
	r.GET("/api/slow", func(c *gin.Context) {
		select {
		case <-c.Request.Context().Done():
		case <-time.After(SlowRequest):
		}
		c.Status(http.StatusNoContent)
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	return r
}

// busyPage keeps one request in flight at all times, so it never goes network-idle.
var busyPage = strings.NewReplacer(
	"{{label}}", InputLabel,
	"{{classes}}", OutputClasses,
).Replace(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Swift Translator fixture (busy)</title>
</head>
<body>
<div class="{{classes}}">
  <textarea placeholder="{{label}}" aria-label="{{label}}"></textarea>
</div>
<div class="{{classes}}"></div>
<script>
(function poll() {
  fetch('/api/slow').catch(function () {}).then(poll);
})();
</script>
</body>
</html>
`)

// Start serves the fixture on a random local port. Callers must Close it.
func Start() *httptest.Server {
	return httptest.NewServer(Router())
}

var page = strings.NewReplacer(
	"{{label}}", InputLabel,
	"{{classes}}", OutputClasses,
	"{{debounce}}", strings.TrimSuffix(Debounce.String(), "ms"),
).Replace(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Swift Translator fixture</title>
</head>
<body>
<main>
  <div class="{{classes}}">
    <textarea id="input" class="w-full h-full" placeholder="{{label}}" aria-label="{{label}}"></textarea>
  </div>
  <div id="output" class="{{classes}}"></div>
</main>
<script>
(function () {
  var input = document.getElementById('input');
  var output = document.getElementById('output');
  var timer = null;
  var seq = 0;
  function render() {
    var mine = ++seq;
    fetch('/api/translate?q=' + encodeURIComponent(input.value))
      .then(function (r) { return r.json(); })
      .then(function (body) { if (mine === seq) { output.textContent = body.output; } });
  }
  input.addEventListener('input', function () {
    clearTimeout(timer);
    if (input.value === '') { seq++; output.textContent = ''; return; }
    timer = setTimeout(render, {{debounce}});
  });
})();
</script>
</body>
</html>
`)
