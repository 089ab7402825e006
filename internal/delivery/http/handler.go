package http

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pricelens/backend/internal/domain"
	"github.com/pricelens/backend/internal/infrastructure/source"
	"github.com/pricelens/backend/internal/usecase"
)

// ListDefaults holds the label and column names used when a request omits them
type ListDefaults struct {
	Label   string
	Columns domain.Columns
}

// HandlerConfig holds the request limits and per-list defaults
type HandlerConfig struct {
	MaxUploadBytes int64
	ListA          ListDefaults
	ListB          ListDefaults
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	comparisons *usecase.ComparisonService
	remote      domain.RowSource
	config      HandlerConfig
	logger      zerolog.Logger
}

// NewHandler creates a new HTTP handler. remote may be nil, which disables
// comparisons of remote locations.
func NewHandler(comparisons *usecase.ComparisonService, remote domain.RowSource, config HandlerConfig, logger zerolog.Logger) *Handler {
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = 20 << 20
	}
	return &Handler{
		comparisons: comparisons,
		remote:      remote,
		config:      config,
		logger:      logger.With().Str("component", "http-handler").Logger(),
	}
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// RemoteComparisonRequest names two price lists by location
type RemoteComparisonRequest struct {
	LocationA string          `json:"locationA" binding:"required"`
	LocationB string          `json:"locationB" binding:"required"`
	LabelA    string          `json:"labelA"`
	LabelB    string          `json:"labelB"`
	ColumnsA  *domain.Columns `json:"columnsA"`
	ColumnsB  *domain.Columns `json:"columnsB"`
}

// ExplainRequest carries a bare product name
type ExplainRequest struct {
	Name string `json:"name" binding:"required"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "pricelens-backend",
		"version": "1.0.0",
	})
}

// CreateComparison compares two uploaded price lists (multipart fields file_a and file_b)
func (h *Handler) CreateComparison(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.config.MaxUploadBytes)

	rowsA, err := h.decodeUpload(c, "a", h.config.ListA)
	if err != nil {
		h.respondError(c, err)
		return
	}
	rowsB, err := h.decodeUpload(c, "b", h.config.ListB)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.compare(c, &domain.ComparisonRequest{
		LabelA: formOr(c, "label_a", h.config.ListA.Label),
		LabelB: formOr(c, "label_b", h.config.ListB.Label),
		RowsA:  rowsA,
		RowsB:  rowsB,
	})
}

// CreateRemoteComparison compares two price lists fetched from URLs, buckets or databases
func (h *Handler) CreateRemoteComparison(c *gin.Context) {
	if h.remote == nil {
		c.JSON(http.StatusNotImplemented, ErrorResponse{Error: "remote price lists are not enabled"})
		return
	}

	var req RemoteComparisonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "locationA and locationB are required"})
		return
	}

	rowsA, rowsB, err := source.LoadPair(c.Request.Context(), h.remote,
		source.Request{Location: req.LocationA, Columns: columnsOr(req.ColumnsA, h.config.ListA.Columns)},
		source.Request{Location: req.LocationB, Columns: columnsOr(req.ColumnsB, h.config.ListB.Columns)},
	)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.compare(c, &domain.ComparisonRequest{
		LabelA: stringOr(req.LabelA, h.config.ListA.Label),
		LabelB: stringOr(req.LabelB, h.config.ListB.Label),
		RowsA:  rowsA,
		RowsB:  rowsB,
	})
}

// GetComparison returns a stored report by run ID
func (h *Handler) GetComparison(c *gin.Context) {
	report, err := h.comparisons.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ExplainProduct returns the attributes extracted from one product name
func (h *Handler) ExplainProduct(c *gin.Context) {
	var req ExplainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "name is required"})
		return
	}

	product, err := h.comparisons.Explain(req.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// GetVocabulary returns the tables names are matched with
func (h *Handler) GetVocabulary(c *gin.Context) {
	c.JSON(http.StatusOK, h.comparisons.Vocabulary())
}

func (h *Handler) compare(c *gin.Context, req *domain.ComparisonRequest) {
	report, err := h.comparisons.Compare(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Header("Location", "/api/v1/comparisons/"+report.RunID)
	c.JSON(http.StatusCreated, report)
}

// decodeUpload reads multipart field file_<side> with the column overrides
// name_column_<side> and price_column_<side>
func (h *Handler) decodeUpload(c *gin.Context, side string, defaults ListDefaults) ([]domain.RawRow, error) {
	field := "file_" + side
	header, err := c.FormFile(field)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: missing upload %s", domain.ErrInvalidRequest, field)
	}

	columns := domain.Columns{
		Name:  formOr(c, "name_column_"+side, defaults.Columns.Name),
		Price: formOr(c, "price_column_"+side, defaults.Columns.Price),
	}

	rows, err := decodeFile(header, columns)
	if err != nil {
		return nil, fmt.Errorf("%s (%s): %w", field, header.Filename, err)
	}

	h.logger.Debug().
		Str("field", field).
		Str("filename", header.Filename).
		Int64("size", header.Size).
		Int("rows", len(rows)).
		Msg("upload decoded")
	return rows, nil
}

func decodeFile(header *multipart.FileHeader, columns domain.Columns) ([]domain.RawRow, error) {
	format, err := source.FormatFromName(header.Filename)
	if err != nil {
		return nil, err
	}

	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	return source.Decode(f, format, columns)
}

// respondError maps domain errors to HTTP status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Int("status", status).Str("path", c.FullPath()).Msg("request failed")
	} else {
		h.logger.Debug().Err(err).Int("status", status).Str("path", c.FullPath()).Msg("request rejected")
	}
	c.JSON(status, ErrorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, domain.ErrReportNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrLocationNotAllowed):
		return http.StatusForbidden
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrRemoteFetch):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrColumnNotFound),
		errors.Is(err, domain.ErrSourceDecode):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func formOr(c *gin.Context, key, fallback string) string {
	return stringOr(c.PostForm(key), fallback)
}

func stringOr(value, fallback string) string {
	if value = strings.TrimSpace(value); value == "" {
		return fallback
	}
	return value
}

func columnsOr(columns *domain.Columns, fallback domain.Columns) domain.Columns {
	if columns == nil {
		return fallback
	}
	return domain.Columns{
		Name:  stringOr(columns.Name, fallback.Name),
		Price: stringOr(columns.Price, fallback.Price),
	}
}
