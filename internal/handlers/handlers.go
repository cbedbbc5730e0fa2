package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"campaign-dashboard/internal/category"
	"campaign-dashboard/internal/client"
	"campaign-dashboard/internal/dashboard"
	"campaign-dashboard/internal/daterange"
	"campaign-dashboard/internal/export"
	"campaign-dashboard/internal/models"
	"campaign-dashboard/internal/storage"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	csvContentType  = "text/csv; charset=utf-8"
	requestIDHeader = "X-Request-ID"
)

type Handler struct {
	service  *dashboard.Service
	store    *storage.MemoryStore
	exporter *export.Exporter
	logger   *logrus.Logger
	now      func() time.Time
}

func New(service *dashboard.Service, store *storage.MemoryStore, exporter *export.Exporter, logger *logrus.Logger) *Handler {
	return &Handler{
		service:  service,
		store:    store,
		exporter: exporter,
		logger:   logger,
		now:      time.Now,
	}
}

// Register mounts every dashboard route on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/healthz", h.HealthCheck)
	r.GET("/readyz", h.ReadinessCheck)

	api := r.Group("/api")
	api.GET("/stats", h.GetStats)
	api.GET("/sheets", h.GetSheetData)
	api.GET("/sheets/pipeline", h.GetPipelineRows)
	api.GET("/sheets/raw-data", h.GetRawData)
	api.GET("/open-rate", h.GetOpenRateCampaigns)
	api.GET("/campaign-performance", h.GetCampaignPerformance)
	api.GET("/active-campaigns", h.GetActiveCampaigns)
	api.GET("/solutions-distribution", h.GetSolutionsDistribution)
	api.GET("/pipeline/insights", h.GetPipelineInsights)
	api.GET("/pipeline/status", h.GetPipelineStatus)
	api.GET("/tool-distribution", h.GetToolDistribution)
	api.GET("/project-distribution", h.GetProjectDistribution)
	api.GET("/quality/report", h.GetDataQualityReport)
	api.GET("/sources", h.GetSources)
	api.GET("/export/xlsx", h.ExportWorkbook)
	api.GET("/export/csv", h.ExportCSV)
}

// RequestID tags every request with an id, reusing the caller's when present.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": h.now().Format(time.RFC3339),
		"service":   "campaign-dashboard",
	})
}

func (h *Handler) ReadinessCheck(c *gin.Context) {
	if h.store.HasData() {
		c.JSON(http.StatusOK, gin.H{
			"status":     "ready",
			"has_data":   true,
			"last_fetch": h.store.GetLastFetchTime().Format(time.RFC3339),
		})
		return
	}

	status := http.StatusServiceUnavailable
	message := "No sheet fetched yet"
	if !h.service.Configured() {
		message = client.Advisory(client.ErrNotConfigured)
	}
	c.JSON(status, gin.H{
		"status":   "not ready",
		"has_data": false,
		"message":  message,
	})
}

// selection reads the global filters from the query string.
func selection(c *gin.Context) dashboard.Selection {
	return dashboard.Selection{
		Filter:    daterange.Filter(strings.TrimSpace(c.Query("filter"))),
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
		Project:   category.ParseProjectFilter(c.Query("project")),
	}
}

func (h *Handler) respond(c *gin.Context, data interface{}, warnings []string) {
	if len(warnings) > 0 {
		h.logger.WithFields(logrus.Fields{
			"path":       c.FullPath(),
			"request_id": c.GetString("request_id"),
			"warnings":   warnings,
		}).Warn("Served partial data")
	}
	c.JSON(http.StatusOK, models.APIResponse{
		Success:     true,
		Data:        data,
		Warnings:    warnings,
		LastUpdated: h.now().Format(time.RFC3339),
	})
}

func (h *Handler) fail(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, models.APIResponse{
		Success:     false,
		Data:        data,
		Error:       message,
		LastUpdated: h.now().Format(time.RFC3339),
	})
}

// configured answers 400 with the zero value of the endpoint when no
// spreadsheet source is set up.
func (h *Handler) configured(c *gin.Context, zero interface{}) bool {
	if h.service.Configured() {
		return true
	}
	h.fail(c, http.StatusBadRequest, zero, client.Advisory(client.ErrNotConfigured))
	return false
}

func (h *Handler) GetStats(c *gin.Context) {
	data, warnings := h.service.Stats(c.Request.Context(), selection(c))
	if !h.configured(c, data) {
		return
	}
	h.respond(c, data, warnings)
}

func (h *Handler) GetSheetData(c *gin.Context) {
	data, warnings := h.service.CampaignData(c.Request.Context(), selection(c), c.Query("sheet"), c.Query("range"))
	if !h.configured(c, data) {
		return
	}
	h.respond(c, data, warnings)
}

func (h *Handler) GetPipelineRows(c *gin.Context) {
	if !h.configured(c, []interface{}{}) {
		return
	}
	data, warnings, err := h.service.PipelineRows(c.Request.Context())
	h.rawResponse(c, data, warnings, err)
}

func (h *Handler) GetRawData(c *gin.Context) {
	sheet := strings.TrimSpace(c.Query("sheetName"))
	if sheet == "" {
		h.fail(c, http.StatusBadRequest, nil, "sheetName parameter is required")
		return
	}
	if !h.configured(c, []interface{}{}) {
		return
	}
	data, warnings, err := h.service.RawData(c.Request.Context(), sheet)
	h.rawResponse(c, data, warnings, err)
}

func (h *Handler) rawResponse(c *gin.Context, data dashboard.RawSheet, warnings []string, err error) {
	switch {
	case errors.Is(err, dashboard.ErrSheetNotFound):
		h.fail(c, http.StatusNotFound, data, err.Error())
	case err != nil:
		h.logger.WithError(err).WithField("sheet", data.Sheet).Error("Failed to read sheet")
		h.fail(c, http.StatusInternalServerError, data, client.Advisory(err))
	default:
		h.respond(c, data, warnings)
	}
}

func (h *Handler) GetOpenRateCampaigns(c *gin.Context) {
	data, warnings := h.service.OpenRateCampaigns(c.Request.Context(), selection(c))
	if !h.configured(c, data) {
		return
	}
	h.respond(c, data, warnings)
}

func (h *Handler) GetCampaignPerformance(c *gin.Context) {
	data, warnings := h.service.CampaignPerformance(c.Request.Context(), selection(c))
	if !h.configured(c, data) {
		return
	}
	h.respond(c, data, warnings)
}

func (h *Handler) GetActiveCampaigns(c *gin.Context) {
	data, warnings := h.service.ActiveCampaigns(c.Request.Context(), selection(c))
	if !h.configured(c, data) {
		return
	}
	h.respond(c, data, warnings)
}

func (h *Handler) GetSolutionsDistribution(c *gin.Context) {
	data, warnings := h.service.SolutionsDistribution(c.Request.Context(), selection(c))
	if !h.configured(c, data) {
		return
	}
	h.respond(c, data, warnings)
}

func (h *Handler) GetPipelineInsights(c *gin.Context) {
	data, warnings := h.service.PipelineInsights(c.Request.Context(), selection(c))
	if !h.configured(c, data) {
		return
	}
	h.respond(c, data, warnings)
}

func (h *Handler) GetPipelineStatus(c *gin.Context) {
	data, warnings := h.service.PipelineStatus(c.Request.Context(), selection(c))
	if !h.configured(c, data) {
		return
	}
	h.respond(c, data, warnings)
}

func (h *Handler) GetToolDistribution(c *gin.Context) {
	data, warnings := h.service.ToolDistribution(c.Request.Context(), selection(c))
	if !h.configured(c, data) {
		return
	}
	h.respond(c, data, warnings)
}

func (h *Handler) GetProjectDistribution(c *gin.Context) {
	data, warnings := h.service.ProjectDistribution(c.Request.Context(), selection(c))
	if !h.configured(c, data) {
		return
	}
	h.respond(c, data, warnings)
}

func (h *Handler) GetDataQualityReport(c *gin.Context) {
	if !h.configured(c, nil) {
		return
	}
	report, warnings := h.service.QualityReport(c.Request.Context())
	if len(report.Summary.CommonIssues) > 0 {
		h.logger.WithField("common_issues", report.Summary.CommonIssues).Warn("Data quality issues detected")
	}
	h.respond(c, report, warnings)
}

type sourcesResponse struct {
	Configured bool                   `json:"configured"`
	Sheets     []string               `json:"sheets"`
	Statuses   []storage.SourceStatus `json:"statuses"`
}

func (h *Handler) GetSources(c *gin.Context) {
	out := sourcesResponse{
		Configured: h.service.Configured(),
		Sheets:     []string{},
		Statuses:   h.store.Statuses(),
	}
	if !h.configured(c, out) {
		return
	}

	var warnings []string
	names, err := h.service.SheetNames(c.Request.Context())
	if err != nil {
		warnings = append(warnings, client.Advisory(err))
	} else {
		out.Sheets = names
	}
	h.respond(c, out, warnings)
}

func (h *Handler) ExportWorkbook(c *gin.Context) {
	if !h.configured(c, nil) {
		return
	}
	snap := h.service.Snapshot(c.Request.Context(), selection(c))

	var buf bytes.Buffer
	if err := h.exporter.WriteWorkbook(&buf, snap); err != nil {
		h.logger.WithError(err).Error("Failed to export workbook")
		h.fail(c, http.StatusInternalServerError, nil, "Failed to export workbook")
		return
	}
	h.attachment(c, "dashboard-"+snap.GeneratedAt.Format("2006-01-02")+".xlsx", xlsxContentType, buf.Bytes(), snap.Warnings)
}

func (h *Handler) ExportCSV(c *gin.Context) {
	if !h.configured(c, nil) {
		return
	}
	data, warnings := h.service.CampaignData(c.Request.Context(), selection(c), c.Query("sheet"), c.Query("range"))

	var buf bytes.Buffer
	if err := h.exporter.WriteRecordsCSV(&buf, data.Records); err != nil {
		h.logger.WithError(err).Error("Failed to export records")
		h.fail(c, http.StatusInternalServerError, nil, "Failed to export records")
		return
	}
	h.attachment(c, "campaigns-"+h.now().Format("2006-01-02")+".csv", csvContentType, buf.Bytes(), warnings)
}

func (h *Handler) attachment(c *gin.Context, filename, contentType string, body []byte, warnings []string) {
	if len(warnings) > 0 {
		c.Header("X-Dashboard-Warnings", strings.Join(warnings, " | "))
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, body)
}
