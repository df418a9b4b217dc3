// Package devservice provides a fake lexicon upstream for development and
// testing. It serves completion responses in the shapes transformations are
// written against: compact JSON, compact XML and the canonical documents.
package devservice

import (
	"encoding/json"
	"encoding/xml"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/bcdh/teicompleter/internal/suggestion"
)

// Lexicon generation constants.
const (
	minHeadwords  = 200
	maxExtraWords = 100 // 200-300 headwords total
	defaultLimit  = 20
	maxLimit      = 200
)

// Seed returns the dev service seed from the DEV_SERVICE_SEED environment
// variable, or a random value if not set.
func Seed() uint64 {
	if env := os.Getenv("DEV_SERVICE_SEED"); env != "" {
		if seed, err := strconv.ParseUint(env, 10, 64); err == nil {
			return seed
		}
	}
	return rand.Uint64() //nolint:gosec // intentionally weak random for test data
}

// Service is an HTTP server that serves fake lexicon lookups.
type Service struct {
	mux     *http.ServeMux
	lexicon []suggestion.Suggestion
}

// New creates a new dev service with a seeded random lexicon.
func New(seed uint64) *Service {
	faker := gofakeit.New(seed)
	svc := &Service{
		mux:     http.NewServeMux(),
		lexicon: generateLexicon(faker, minHeadwords+faker.IntN(maxExtraWords)),
	}
	svc.registerRoutes()
	return svc
}

// ServeHTTP satisfies [http.Handler].
func (s *Service) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	s.mux.ServeHTTP(writer, request)
}

func (s *Service) registerRoutes() {
	// Compact shapes, reshaped by the default mapping
	s.mux.HandleFunc("GET /sgns.json", s.handleCompactJSON)
	s.mux.HandleFunc("GET /sgns.xml", s.handleCompactXML)

	// Canonical documents, accepted without a transformation
	s.mux.HandleFunc("GET /suggestions.json", s.handleCanonicalJSON)
	s.mux.HandleFunc("GET /suggestions.xml", s.handleCanonicalXML)
}

// lookup returns the headwords starting with the q query parameter, capped by
// the limit query parameter.
func (s *Service) lookup(request *http.Request) []suggestion.Suggestion {
	prefix := strings.ToLower(request.URL.Query().Get("q"))
	limit := defaultLimit
	if raw := request.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			limit = min(n, maxLimit)
		}
	}
	out := make([]suggestion.Suggestion, 0, limit)
	for _, entry := range s.lexicon {
		if len(out) == limit {
			break
		}
		if strings.HasPrefix(strings.ToLower(entry.Value), prefix) {
			out = append(out, entry)
		}
	}
	return out
}

type compactEntry struct {
	Value       string `json:"v" xml:"v"`
	Description string `json:"d" xml:"d"`
}

func compact(entries []suggestion.Suggestion) []compactEntry {
	out := make([]compactEntry, len(entries))
	for i, entry := range entries {
		out[i] = compactEntry{Value: entry.Value, Description: entry.Description}
	}
	return out
}

func (s *Service) handleCompactJSON(writer http.ResponseWriter, request *http.Request) {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	doc := struct {
		Signatures []compactEntry `json:"sgns"`
	}{compact(s.lookup(request))}
	if err := json.NewEncoder(writer).Encode(doc); err != nil {
		http.Error(writer, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Service) handleCompactXML(writer http.ResponseWriter, request *http.Request) {
	writer.Header().Set("Content-Type", "application/xml; charset=utf-8")
	doc := struct {
		XMLName    xml.Name       `xml:"sgns"`
		Signatures []compactEntry `xml:"sgn"`
	}{Signatures: compact(s.lookup(request))}
	writeString(writer, xml.Header)
	if err := xml.NewEncoder(writer).Encode(doc); err != nil {
		http.Error(writer, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Service) handleCanonicalJSON(writer http.ResponseWriter, request *http.Request) {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := suggestion.EncodeJSON(writer, suggestion.New(s.lookup(request)...)); err != nil {
		http.Error(writer, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Service) handleCanonicalXML(writer http.ResponseWriter, request *http.Request) {
	writer.Header().Set("Content-Type", "application/xml; charset=utf-8")
	if err := suggestion.EncodeXML(writer, suggestion.New(s.lookup(request)...)); err != nil {
		http.Error(writer, err.Error(), http.StatusInternalServerError)
	}
}

// writeString writes a string to the writer, discarding any error.
func writeString(writer io.Writer, str string) {
	_, _ = io.WriteString(writer, str)
}

// Lexicon returns every generated headword in lookup order.
func (s *Service) Lexicon() []suggestion.Suggestion {
	return s.lexicon
}
