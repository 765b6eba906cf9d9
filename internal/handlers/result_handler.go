package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/sat-session-service/internal/repositories"
	"github.com/SAP-F-2025/sat-session-service/internal/services"
	"github.com/SAP-F-2025/sat-session-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ResultHandler struct {
	BaseHandler
	service services.ResultService
}

func NewResultHandler(service services.ResultService, logger utils.Logger) *ResultHandler {
	return &ResultHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// GetResult handles GET /results/:id
func (h *ResultHandler) GetResult(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	resultID := ParseStringIDParam(c, "id")
	if resultID == "" {
		return
	}

	result, err := h.service.Get(c.Request.Context(), resultID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListResults handles GET /results
func (h *ResultHandler) ListResults(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	filters, err := parseResultFilters(c)
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid query parameters", err, err.Error())
		return
	}

	resp, err := h.service.List(c.Request.Context(), userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetSubcategoryStats handles GET /results/stats
func (h *ResultHandler) GetSubcategoryStats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	stats, err := h.service.SubcategoryStats(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// ExportResult handles GET /results/:id/export
func (h *ResultHandler) ExportResult(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	resultID := ParseStringIDParam(c, "id")
	if resultID == "" {
		return
	}

	data, err := h.service.ExportToExcel(c.Request.Context(), resultID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=result-%s.xlsx", resultID))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func parseResultFilters(c *gin.Context) (repositories.ResultFilters, error) {
	var filters repositories.ResultFilters

	if examID := c.Query("exam_id"); examID != "" {
		filters.ExamID = &examID
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return filters, fmt.Errorf("limit: %w", err)
		}
		filters.Limit = limit
	}
	if v := c.Query("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil {
			return filters, fmt.Errorf("offset: %w", err)
		}
		filters.Offset = offset
	}
	if v := c.Query("date_from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filters, fmt.Errorf("date_from: %w", err)
		}
		filters.DateFrom = &t
	}
	if v := c.Query("date_to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filters, fmt.Errorf("date_to: %w", err)
		}
		filters.DateTo = &t
	}
	filters.SortBy = c.Query("sort_by")
	filters.SortOrder = c.Query("sort_order")

	return filters, nil
}
