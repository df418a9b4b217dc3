package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/bcdh/teicompleter/internal/suggestion"
	"github.com/bcdh/teicompleter/internal/transform"
)

type handler struct {
	registry Registry
	engine   *transform.Engine
	logger   *slog.Logger
}

type transformationInfo struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Script string `json:"script,omitempty"`
}

func (h handler) register(e *echo.Echo) {
	e.GET("/healthz", h.health)

	transformations := e.Group("/transformations")
	transformations.GET("", h.list)
	transformations.POST("/:name", h.transform)
}

func (h handler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h handler) list(c echo.Context) error {
	all := h.registry.TransformationList()
	out := make([]transformationInfo, len(all))
	for i, t := range all {
		out[i] = transformationInfo{Name: t.Name, Kind: string(t.Kind()), Script: t.Script}
	}
	return c.JSON(http.StatusOK, out)
}

func (h handler) transform(c echo.Context) error {
	name := c.Param("name")
	t, ok := h.registry.Transformation(name)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("unknown transformation %q", name))
	}

	req := c.Request()
	body, err := io.ReadAll(req.Body)
	if err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return httpErr
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}

	result, err := h.engine.Apply(req.Context(), req.Header.Get(echo.HeaderContentType), body, t)
	if err != nil {
		h.logger.WarnContext(req.Context(), "transformation failed",
			slog.String("transformation", name),
			slog.Any("error", err),
		)
		return toHTTPError(err)
	}
	return writeSuggestions(c, result)
}

func writeSuggestions(c echo.Context, result *suggestion.Suggestions) error {
	res := c.Response()
	if wantsXML(c.Request().Header.Get(echo.HeaderAccept)) {
		res.Header().Set(echo.HeaderContentType, echo.MIMEApplicationXMLCharsetUTF8)
		res.WriteHeader(http.StatusOK)
		return suggestion.EncodeXML(res, result)
	}
	res.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	res.WriteHeader(http.StatusOK)
	return suggestion.EncodeJSON(res, result)
}

// wantsXML reports whether the JSON or XML media range with the highest
// quality in an Accept header is XML. Ties go to the earlier range and ranges
// with q=0 are never chosen.
func wantsXML(accept string) bool {
	preferXML, best := false, 0.0
	for part := range strings.SplitSeq(accept, ",") {
		mediaType, params, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		var isXML bool
		switch {
		case strings.HasSuffix(mediaType, "/json"), strings.HasSuffix(mediaType, "+json"):
			isXML = false
		case strings.HasSuffix(mediaType, "/xml"), strings.HasSuffix(mediaType, "+xml"):
			isXML = true
		default:
			continue
		}
		if q := quality(params); q > best {
			preferXML, best = isXML, q
		}
	}
	return preferXML
}

// quality returns the q parameter of a media range, 1 when absent and 0 when
// malformed.
func quality(params map[string]string) float64 {
	raw, ok := params["q"]
	if !ok {
		return 1
	}
	q, err := strconv.ParseFloat(raw, 64)
	if err != nil || q < 0 {
		return 0
	}
	return min(q, 1)
}

// toHTTPError maps transformation failures to HTTP status codes.
func toHTTPError(err error) error {
	var terr *transform.TransformationError
	switch {
	case errors.Is(err, transform.ErrUnsupportedMediaType):
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, err.Error()).SetInternal(err)
	case errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusGatewayTimeout, err.Error()).SetInternal(err)
	case errors.As(err, &terr):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error()).SetInternal(err)
	default:
		return err
	}
}
