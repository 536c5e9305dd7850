package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dhruvbantval/3128-odyssey/internal/export"
	"github.com/dhruvbantval/3128-odyssey/internal/models"
	"github.com/dhruvbantval/3128-odyssey/internal/service"

	"github.com/gin-gonic/gin"
)

type BatteryHandler struct {
	service service.BatteryService
}

func NewBatteryHandler(service service.BatteryService) *BatteryHandler {
	return &BatteryHandler{service: service}
}

// ListRecords godoc
// @Summary List battery records
// @Description Returns every stored reading in insertion order
// @Tags Battery
// @Produce json
// @Success 200 {array} models.BatteryRecord
// @Router /battery [get]
func (h *BatteryHandler) ListRecords(c *gin.Context) {
	records, err := h.service.ListRecords(c.Request.Context())
	if err != nil {
		respondError(c, "failed to list battery records", err)
		return
	}

	c.JSON(http.StatusOK, records)
}

// AddRecord godoc
// @Summary Add a battery reading
// @Tags Battery
// @Accept json
// @Produce json
// @Param record body models.NewBatteryRecord true "Reading"
// @Success 201 {object} models.BatteryRecord
// @Failure 400 {object} ErrorResponse
// @Router /battery [post]
func (h *BatteryHandler) AddRecord(c *gin.Context) {
	var in models.NewBatteryRecord
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "request body must be a JSON battery reading: "+err.Error())
		return
	}

	record, err := h.service.AddRecord(c.Request.Context(), in)
	if err != nil {
		respondError(c, "failed to add battery record", err)
		return
	}

	c.JSON(http.StatusCreated, record)
}

// UpdateStatus godoc
// @Summary Change the state of a battery
// @Description Patches status, notes and timestamp of the battery's latest record
// @Tags Battery
// @Accept json
// @Produce json
// @Param update body models.BatteryStatusUpdate true "Status update"
// @Success 200 {object} models.BatteryRecord
// @Failure 404 {object} ErrorResponse
// @Router /battery/status [patch]
func (h *BatteryHandler) UpdateStatus(c *gin.Context) {
	var update models.BatteryStatusUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		badRequest(c, "request body must be a JSON status update: "+err.Error())
		return
	}

	record, err := h.service.UpdateStatus(c.Request.Context(), update)
	if err != nil {
		respondError(c, "failed to update battery status", err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// ClearRecords godoc
// @Summary Delete all battery records
// @Tags Battery
// @Param confirm query bool true "Must be true"
// @Success 200 {object} SuccessResponse
// @Failure 409 {object} ErrorResponse
// @Router /battery [delete]
func (h *BatteryHandler) ClearRecords(c *gin.Context) {
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))

	if err := h.service.ClearRecords(c.Request.Context(), confirmed); err != nil {
		respondError(c, "failed to clear battery records", err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "all battery records deleted",
	})
}

// GetSummaries godoc
// @Summary Per-battery summaries
// @Description Health, trend and averages per battery, sorted by battery id.
// @Description Pass id to get a single battery.
// @Tags Battery
// @Produce json
// @Param id query string false "Battery id"
// @Success 200 {array} models.BatterySummary
// @Router /battery/summary [get]
func (h *BatteryHandler) GetSummaries(c *gin.Context) {
	ctx := c.Request.Context()

	if id := c.Query("id"); id != "" {
		summary, err := h.service.Summary(ctx, id)
		if err != nil {
			respondError(c, "failed to summarize battery", err)
			return
		}
		c.JSON(http.StatusOK, summary)
		return
	}

	summaries, err := h.service.Summaries(ctx)
	if err != nil {
		respondError(c, "failed to summarize batteries", err)
		return
	}

	c.JSON(http.StatusOK, summaries)
}

// ExportRecords godoc
// @Summary Download battery records
// @Tags Battery
// @Produce octet-stream
// @Param format query string false "csv, xlsx or json" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse
// @Router /battery/export [get]
func (h *BatteryHandler) ExportRecords(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		respondError(c, "unsupported export format, use csv, xlsx or json", err)
		return
	}

	var buf bytes.Buffer
	if err := h.service.Export(c.Request.Context(), &buf, format); err != nil {
		respondError(c, "failed to export battery records", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.FileName(time.Now())))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}
