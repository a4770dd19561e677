package server

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
	"github.com/joseph-ayodele/invoice-extractor/internal/export"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
)

// Extractor is satisfied by *core.Processor.
type Extractor interface {
	ExtractMetadata(ctx context.Context, doc entity.InvoiceDocument) (entity.ExtractionResult, error)
}

// Handlers serves the extraction API. Repo may be nil, in which case results
// are returned but not stored and the results routes answer 503.
type Handlers struct {
	proc    Extractor
	repo    repository.ResultRepository
	exports *export.Service
	logger  *slog.Logger
	version string
}

func NewHandlers(proc Extractor, repo repository.ResultRepository, logger *slog.Logger, version string) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{proc: proc, repo: repo, logger: logger, version: version}
	if repo != nil {
		h.exports = export.NewService(repo, logger)
	}
	return h
}

type extractRequest struct {
	Content  string `json:"content"`
	Filename string `json:"filename"`
	SourceID string `json:"source_id"`
	// Store defaults to true when a repository is configured.
	Store *bool `json:"store"`
}

// HandleExtract runs the extraction for one posted document.
func (h *Handlers) HandleExtract(c echo.Context) error {
	var req extractRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	doc := entity.InvoiceDocument{Content: req.Content, Filename: req.Filename, SourceID: req.SourceID}

	ctx := requestContext(c)
	res, err := h.proc.ExtractMetadata(ctx, doc)
	if err != nil {
		return err
	}

	if h.repo != nil && (req.Store == nil || *req.Store) {
		if err := h.repo.Save(ctx, repository.NewRecord(doc, res)); err != nil {
			return err
		}
	}
	return c.JSON(http.StatusOK, res)
}

// HandleGetResult returns one stored result with its record fields.
func (h *Handlers) HandleGetResult(c echo.Context) error {
	if h.repo == nil {
		return storeUnavailable()
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return NewBadRequestError("id is required", nil)
	}
	rec, err := h.repo.Get(requestContext(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rec)
}

type listResponse struct {
	Results []*repository.Record `json:"results"`
	Count   int                  `json:"count"`
}

// HandleListResults lists stored results.
// Query: method, year, min_confidence, limit, offset.
func (h *Handlers) HandleListResults(c echo.Context) error {
	if h.repo == nil {
		return storeUnavailable()
	}
	filter, err := parseListFilter(c)
	if err != nil {
		return err
	}
	recs, err := h.repo.List(requestContext(c), filter)
	if err != nil {
		return err
	}
	if recs == nil {
		recs = []*repository.Record{}
	}
	return c.JSON(http.StatusOK, listResponse{Results: recs, Count: len(recs)})
}

var exportContentTypes = map[string]string{
	export.FormatJSON: echo.MIMEApplicationJSONCharsetUTF8,
	export.FormatCSV:  "text/csv; charset=utf-8",
	export.FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// HandleExportResults streams stored results as json, csv or xlsx
// (query: format, plus the list filters).
func (h *Handlers) HandleExportResults(c echo.Context) error {
	if h.repo == nil {
		return storeUnavailable()
	}
	format := strings.ToLower(c.QueryParam("format"))
	if format == "" {
		format = export.FormatJSON
	}
	contentType, ok := exportContentTypes[format]
	if !ok {
		return NewBadRequestError("format must be json, csv or xlsx", nil)
	}
	filter, err := parseListFilter(c)
	if err != nil {
		return err
	}
	body, err := h.exports.Export(requestContext(c), format, filter)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="invoices.`+format+`"`)
	return c.Blob(http.StatusOK, contentType, body)
}

// HandleHealth reports liveness and, when a store is configured, its reachability.
func (h *Handlers) HandleHealth(c echo.Context) error {
	body := map[string]any{
		"status":  "ok",
		"version": h.version,
	}
	if h.repo != nil {
		if err := h.repo.Ping(requestContext(c)); err != nil {
			h.logger.Warn("health.store.failed", "error", err)
			body["status"] = "degraded"
			body["store"] = "unreachable"
			return c.JSON(http.StatusServiceUnavailable, body)
		}
		body["store"] = "ok"
	}
	return c.JSON(http.StatusOK, body)
}

func parseListFilter(c echo.Context) (repository.ListFilter, error) {
	var f repository.ListFilter
	v := common.NewValidator()

	if m := strings.TrimSpace(c.QueryParam("method")); m != "" {
		f.Method = constants.ExtractionMethod(m)
		v.Field("method", m, common.OneOf(
			string(constants.MethodCompletion), string(constants.MethodFallback), string(constants.MethodHybrid)))
	}
	if s := c.QueryParam("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil {
			return f, NewBadRequestError("year must be an integer", err)
		}
		f.Year = &y
	}
	if s := c.QueryParam("min_confidence"); s != "" {
		mc, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return f, NewBadRequestError("min_confidence must be a number", err)
		}
		v.Field("min_confidence", mc, common.Between(0, 1))
		f.MinConfidence = &mc
	}
	for name, dst := range map[string]*int{"limit": &f.Limit, "offset": &f.Offset} {
		if s := c.QueryParam(name); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				return f, NewBadRequestError(name+" must be a non-negative integer", err)
			}
			*dst = n
		}
	}
	if err := common.ValidateAndReturnError(v); err != nil {
		return f, err
	}
	return f, nil
}

// requestContext carries the echo request id into the request context.
func requestContext(c echo.Context) context.Context {
	ctx := c.Request().Context()
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		ctx = common.WithRequestID(ctx, id)
	}
	return ctx
}

func storeUnavailable() error {
	return &APIError{
		Status:  http.StatusServiceUnavailable,
		Code:    "SERVICE_UNAVAILABLE",
		Message: "no results store configured",
	}
}
