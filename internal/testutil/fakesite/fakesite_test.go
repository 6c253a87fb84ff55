package fakesite

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestTransliterate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Empty", "", ""},
		{"Blank", "   ", ""},
		{"Digits only", "123456789", ""},
		{"Punctuation only", "!!! ???", ""},
		{"Letters", "mama", "මඅමඅ"},
		{"Upper case", "MAMA", "මඅමඅ"},
		{"Digits are kept", "Rs.5000", "රස.5000"},
		{"Trimmed", "  mama  ", "මඅමඅ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Transliterate(tt.input))
		})
	}
}

func TestRouter(t *testing.T) {
	router := Router()

	t.Run("GET / serves both DOM contracts", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, err := http.NewRequest("GET", "/", nil)
		require.NoError(t, err)

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, `aria-label="`+InputLabel+`"`)
		assert.Contains(t, body, `placeholder="`+InputLabel+`"`)
		assert.Contains(t, body, `<div id="output" class="`+OutputClasses+`">`)
		assert.Contains(t, body, "setTimeout(render, 300)")
	})

	t.Run("GET /api/translate renders the input", func(t *testing.T) {
		for input, want := range map[string]string{
			"mama yami": Transliterate("mama yami"),
			"123456789": "",
		} {
			w := httptest.NewRecorder()
			req, err := http.NewRequest("GET", "/api/translate?q="+url.QueryEscape(input), nil)
			require.NoError(t, err)

			router.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			var response map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, want, response["output"], input)
		}
	})
}

func TestBusyPage(t *testing.T) {
	router := Router()

	t.Run("GET /busy keeps polling the slow endpoint", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, err := http.NewRequest("GET", "/busy", nil)
		require.NoError(t, err)

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "fetch('/api/slow')")
		assert.Contains(t, w.Body.String(), `aria-label="`+InputLabel+`"`)
	})

	t.Run("GET /api/slow returns once the client goes away", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		w := httptest.NewRecorder()
		req, err := http.NewRequestWithContext(ctx, "GET", "/api/slow", nil)
		require.NoError(t, err)

		done := make(chan struct{})
		go func() {
			router.ServeHTTP(w, req)
			close(done)
		}()
		cancel()

		select {
		case <-done:
		case <-time.After(SlowRequest / 2):
			t.Fatal("slow request outlived its client")
		}
	})
}

func TestStart(t *testing.T) {
	srv := Start()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
