package app

import (
	"bytes"
	"compress/gzip"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcdh/teicompleter/internal/config"
	"github.com/bcdh/teicompleter/internal/transform"
)

const (
	signatures = `{"sgns":[{"v":"suggestion1","d":"some-selection:some-dependent"},{"v":"suggestion2","d":"some-selection:some-dependent"}]}`

	upperCEL = `{"tc:suggestion": content.sgns.map(s, {"tc:value": s.v.upperAscii()})}`

	slowScript = `package main

import "time"

func Transform(content string) (string, error) {
	time.Sleep(time.Second)
	return content, nil
}
`
)

func newTestServer(t *testing.T) *httpexpect.Expect {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "upper.cel"), []byte(upperCEL), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "slow.go"), []byte(slowScript), 0o600))

	mapping := transform.DefaultMapping
	cfg := config.Default()
	cfg.Transformations = []config.Transformation{
		{Name: "canonical"},
		{Name: "sgns", Mapping: &mapping},
		{Name: "upper", Script: filepath.Join(dir, "upper.cel")},
		{Name: "slow", Script: filepath.Join(dir, "slow.go")},
	}
	require.NoError(t, cfg.Validate())

	logger := slog.New(slog.DiscardHandler)
	loader, err := transform.NewLoader(8)
	require.NoError(t, err)
	engine := transform.NewEngine(loader,
		transform.WithTimeout(50*time.Millisecond),
		transform.WithLogger(logger),
	)

	server := httptest.NewServer(New(true, logger, cfg, engine))
	t.Cleanup(server.Close)
	return httpexpect.Default(t, server.URL)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	e := newTestServer(t)
	resp := e.GET("/healthz").Expect().Status(http.StatusOK)
	resp.JSON().Object().HasValue("status", "ok")
	resp.Header(echo.HeaderXRequestID).NotEmpty()
}

func TestListTransformations(t *testing.T) {
	t.Parallel()

	e := newTestServer(t)
	list := e.GET("/transformations").Expect().Status(http.StatusOK).JSON().Array()
	list.Length().IsEqual(4)
	list.Value(0).Object().HasValue("name", "canonical").HasValue("kind", "none").NotContainsKey("script")
	list.Value(1).Object().HasValue("name", "sgns").HasValue("kind", "mapping")
	list.Value(2).Object().HasValue("name", "upper").HasValue("kind", "script")
}

func TestTransform(t *testing.T) {
	t.Parallel()

	e := newTestServer(t)

	t.Run("mapping to JSON", func(t *testing.T) {
		t.Parallel()
		resp := e.POST("/transformations/sgns").
			WithHeader("Content-Type", "application/json; charset=utf-8").
			WithBytes([]byte(signatures)).
			Expect().
			Status(http.StatusOK)
		resp.HasContentType("application/json")
		items := resp.JSON().Object().Value("tc:suggestion").Array()
		items.Length().IsEqual(2)
		items.Value(0).Object().
			HasValue("tc:value", "suggestion1").
			HasValue("tc:description", "some-selection:some-dependent")
	})

	t.Run("script to XML", func(t *testing.T) {
		t.Parallel()
		resp := e.POST("/transformations/upper").
			WithHeader("Content-Type", "application/json").
			WithHeader("Accept", "application/xml, application/json;q=0.5").
			WithBytes([]byte(signatures)).
			Expect().
			Status(http.StatusOK)
		resp.Header("Content-Type").Contains("application/xml")
		body := resp.Body()
		body.Contains(`<suggestions xmlns="http://humanistika.org/ns/tei-completer">`)
		body.Contains("<value>SUGGESTION1</value>")
		body.Contains("<value>SUGGESTION2</value>")
	})

	t.Run("canonical XML passthrough", func(t *testing.T) {
		t.Parallel()
		e.POST("/transformations/canonical").
			WithHeader("Content-Type", "text/xml").
			WithBytes([]byte(`<suggestions><suggestion><value>a</value></suggestion></suggestions>`)).
			Expect().
			Status(http.StatusOK).
			JSON().Object().Value("tc:suggestion").Array().Value(0).Object().
			HasValue("tc:value", "a").
			HasValue("tc:description", "")
	})
}

func TestTransformErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		path        string
		contentType string
		body        string
		status      int
	}{
		{
			name:        "unknown transformation",
			path:        "/transformations/missing",
			contentType: "application/json",
			body:        signatures,
			status:      http.StatusNotFound,
		},
		{
			name:        "unsupported media type",
			path:        "/transformations/sgns",
			contentType: "text/html",
			body:        "<p>hello</p>",
			status:      http.StatusUnsupportedMediaType,
		},
		{
			name:        "malformed body",
			path:        "/transformations/sgns",
			contentType: "application/json",
			body:        `{"sgns":`,
			status:      http.StatusUnprocessableEntity,
		},
		{
			name:        "missing fields",
			path:        "/transformations/sgns",
			contentType: "application/json",
			body:        `{"entries":[]}`,
			status:      http.StatusUnprocessableEntity,
		},
		{
			name:        "script timeout",
			path:        "/transformations/slow",
			contentType: "application/json",
			body:        signatures,
			status:      http.StatusGatewayTimeout,
		},
	}

	e := newTestServer(t)
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			e.POST(test.path).
				WithHeader("Content-Type", test.contentType).
				WithBytes([]byte(test.body)).
				Expect().
				Status(test.status).
				JSON().Object().ContainsKey("message")
		})
	}
}

func TestWantsXML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		accept string
		want   bool
	}{
		{"", false},
		{"*/*", false},
		{"application/json", false},
		{"application/xml", true},
		{"text/xml; charset=utf-8", true},
		{"application/tei+xml, application/json", true},
		{"application/json, application/xml", false},
		{"text/html, application/xml", true},
		{"application/json;q=0.1, application/xml;q=0.9", true},
		{"application/xml;q=0.5, application/json", false},
		{"application/json;q=0, application/xml", true},
		{"application/xml;q=0", false},
		{"application/json;q=0.8, application/xml;q=0.8", false},
		{"application/xml;q=0.8, application/json;q=0.8", true},
		{"application/json;q=bogus, application/xml;q=0.1", true},
	}
	for _, test := range tests {
		t.Run(test.accept, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, test.want, wantsXML(test.accept))
		})
	}
}

func TestTransformBodyLimit(t *testing.T) {
	t.Parallel()

	document := []byte(`{"tc:suggestion":[{"tc:value":"a","tc:description":"b"}]}`)
	oversized := append(bytes.Repeat([]byte(" "), 9<<20), document...)

	e := newTestServer(t)

	t.Run("plain body over the limit", func(t *testing.T) {
		t.Parallel()
		e.POST("/transformations/canonical").
			WithHeader("Content-Type", "application/json").
			WithBytes(oversized).
			Expect().
			Status(http.StatusRequestEntityTooLarge)
	})

	t.Run("gzip body over the limit once decompressed", func(t *testing.T) {
		t.Parallel()
		compressed := gzipBytes(t, oversized)
		require.Less(t, len(compressed), 1<<20)
		e.POST("/transformations/canonical").
			WithHeader("Content-Type", "application/json").
			WithHeader(echo.HeaderContentEncoding, "gzip").
			WithBytes(compressed).
			Expect().
			Status(http.StatusRequestEntityTooLarge).
			JSON().Object().ContainsKey("message")
	})

	t.Run("gzip body within the limit", func(t *testing.T) {
		t.Parallel()
		e.POST("/transformations/canonical").
			WithHeader("Content-Type", "application/json").
			WithHeader(echo.HeaderContentEncoding, "gzip").
			WithBytes(gzipBytes(t, document)).
			Expect().
			Status(http.StatusOK).
			JSON().Object().Value("tc:suggestion").Array().Value(0).Object().
			HasValue("tc:value", "a")
	})
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}
