package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"skin-advisor/internal/domain/apperr"
	"skin-advisor/internal/domain/entity"
	"skin-advisor/internal/domain/port"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

type analyzeResponse struct {
	Status           string                  `json:"status"`
	ResultID         string                  `json:"result_id"`
	Analysis         entity.VisionAnalysis   `json:"analysis"`
	Mapping          entity.MappingResult    `json:"mapping"`
	NLG              entity.NLGResult        `json:"nlg"`
	ReviewNeeded     bool                    `json:"review_needed"`
	HeatmapSignedURL string                  `json:"heatmap_signed_url,omitempty"`
	StageMetadata    entity.StageMetadataSet `json:"stage_metadata"`
	CreatedAt        time.Time               `json:"created_at"`
}

type errorResponse struct {
	Status        string                   `json:"status"`
	ErrorType     string                   `json:"error_type"`
	Stage         string                   `json:"stage,omitempty"`
	Error         string                   `json:"error"`
	StageMetadata *entity.StageMetadataSet `json:"stage_metadata,omitempty"`
}

type handler struct {
	analyzer   Analyzer
	logger     *slog.Logger
	components map[string]string
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"components": h.components,
	})
}

func (h *handler) analyze(c *gin.Context) {
	var req entity.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.Wrap(apperr.KindValidation, "http.analyze", "invalid request body", err))
		return
	}
	if req.AccessToken == "" {
		req.AccessToken = bearerToken(c.GetHeader("Authorization"))
	}

	out, err := h.analyzer.Analyze(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}

	r := out.Result
	c.JSON(http.StatusOK, analyzeResponse{
		Status:           statusSuccess,
		ResultID:         r.ResultID,
		Analysis:         r.Analysis,
		Mapping:          r.Mapping,
		NLG:              r.NLG,
		ReviewNeeded:     r.ReviewNeeded,
		HeatmapSignedURL: out.HeatmapURL,
		StageMetadata:    r.StageMetadata,
		CreatedAt:        r.CreatedAt,
	})
}

func (h *handler) result(c *gin.Context) {
	result, err := h.analyzer.Result(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusSuccess, "result": result})
}

// fail пишет конверт ошибки; статус зависит от категории
func (h *handler) fail(c *gin.Context, err error) {
	resp := errorResponse{Status: statusError, Error: err.Error(), ErrorType: "internal"}
	status := http.StatusInternalServerError

	if kind, ok := apperr.KindOf(err); ok {
		resp.ErrorType = string(kind)
		status = statusFor(kind)
	}
	if errors.Is(err, port.ErrNotFound) {
		resp.ErrorType = "not_found"
		status = http.StatusNotFound
	}

	var stageErr *apperr.StageError
	if errors.As(err, &stageErr) {
		resp.Stage = string(stageErr.Stage)
		meta := stageErr.Metadata
		resp.StageMetadata = &meta
	}

	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(c.Request.Context(), "request failed",
			slog.String("path", c.Request.URL.Path),
			slog.Any("error", err),
		)
	}
	c.JSON(status, resp)
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindAuth:
		return http.StatusUnauthorized
	case apperr.KindConfiguration:
		return http.StatusServiceUnavailable
	case apperr.KindUpstream, apperr.KindParse:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func bearerToken(header string) string {
	token, ok := strings.CutPrefix(strings.TrimSpace(header), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}
