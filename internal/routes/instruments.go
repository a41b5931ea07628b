package routes

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"instrument-tracker/internal/config"
	"instrument-tracker/internal/export"
	"instrument-tracker/internal/models"
	"instrument-tracker/internal/reference"
)

const (
	mimePNG  = "image/png"
	mimePDF  = "application/pdf"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// createRequest is the JSON body for a new instrument. Calibration is
// required unless stated otherwise.
type createRequest struct {
	Name                string       `json:"name"`
	Location            string       `json:"location"`
	CalibrationRequired *bool        `json:"calibration_required"`
	CalibrationPeriod   int          `json:"calibration_period"`
	LastCalibrationDate *models.Date `json:"last_calibration_date"`
	Notes               *string      `json:"notes"`
}

func (r *createRequest) fields() models.NewInstrument {
	required := true
	if r.CalibrationRequired != nil {
		required = *r.CalibrationRequired
	}
	return models.NewInstrument{
		Name:                r.Name,
		Location:            r.Location,
		CalibrationRequired: required,
		CalibrationPeriod:   r.CalibrationPeriod,
		LastCalibrationDate: r.LastCalibrationDate,
		Notes:               r.Notes,
	}
}

// calibrationRequest accepts either a plain record or the technician form.
type calibrationRequest struct {
	LastCalibrationDate *models.Date `json:"last_calibration_date"`
	Date                *models.Date `json:"date"`
	PerformedBy         *string      `json:"performed_by"`
	Cleaned             bool         `json:"cleaned"`
	Notes               *string      `json:"notes"`
}

func (r *calibrationRequest) isForm() bool {
	return r.Date != nil || r.PerformedBy != nil
}

func qrSize() int {
	if config.Cfg != nil && config.Cfg.QRSize > 0 {
		return config.Cfg.QRSize
	}
	return config.QR_IMAGE_SIZE
}

// InstrumentsApi registers the JSON API.
func InstrumentsApi(r *gin.RouterGroup) {
	r.GET("/instruments", listInstruments)
	r.POST("/instruments", createInstrument)
	r.GET("/instruments/:id", getInstrument)
	r.PUT("/instruments/:id", updateInstrument)
	r.DELETE("/instruments/:id", deleteInstrument)
	r.POST("/instruments/:id/calibrations", recordCalibration)
	r.GET("/instruments/:id/qr.png", instrumentQR)
	r.GET("/instruments/:id/label.pdf", instrumentLabel)
	r.GET("/export.xlsx", exportInventory)
	r.POST("/resolve", resolveReference)
}

func listInstruments(c *gin.Context) {
	svc, err := GetService(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	report, err := svc.List(c.Request.Context(), c.Query("q"), c.Query("status"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func createInstrument(c *gin.Context) {
	svc, err := GetService(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithHTTPError(c, http.StatusBadRequest, err, "Invalid request body: "+err.Error(), "INVALID_REQUEST")
		return
	}

	item, err := svc.Add(c.Request.Context(), req.fields())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Location", "/api/instruments/"+item.ID)
	c.JSON(http.StatusCreated, gin.H{
		"instrument": item,
		"url":        reference.URL(baseURL(c), item.ID),
	})
}

func getInstrument(c *gin.Context) {
	svc, err := GetService(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"instrument": item,
		"url":        reference.URL(baseURL(c), item.ID),
	})
}

func updateInstrument(c *gin.Context) {
	svc, err := GetService(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var upd models.InstrumentUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		AbortWithHTTPError(c, http.StatusBadRequest, err, "Invalid request body: "+err.Error(), "INVALID_REQUEST")
		return
	}

	item, err := svc.Update(c.Request.Context(), c.Param("id"), upd)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"instrument": item})
}

func deleteInstrument(c *gin.Context) {
	svc, err := GetService(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	inst, err := svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": inst})
}

func recordCalibration(c *gin.Context) {
	svc, err := GetService(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req calibrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithHTTPError(c, http.StatusBadRequest, err, "Invalid request body: "+err.Error(), "INVALID_REQUEST")
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")

	if req.isForm() {
		form := models.CalibrationForm{Date: req.Date, Cleaned: req.Cleaned}
		if req.PerformedBy != nil {
			form.PerformedBy = *req.PerformedBy
		}
		if req.Notes != nil {
			form.Notes = *req.Notes
		}
		item, err := svc.Calibrate(ctx, id, form)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"instrument": item})
		return
	}

	item, err := svc.RecordCalibration(ctx, id, models.CalibrationRecord{
		LastCalibrationDate: req.LastCalibrationDate,
		Notes:               req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"instrument": item})
}

func instrumentQR(c *gin.Context) {
	svc, err := GetService(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	png, err := reference.QRCode(reference.URL(baseURL(c), item.ID), qrSize())
	if err != nil {
		AbortWithError(c, fmt.Errorf("%w: %v", ErrInternalServer, err))
		return
	}
	c.Data(http.StatusOK, mimePNG, png)
}

func instrumentLabel(c *gin.Context) {
	svc, err := GetService(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	url := reference.URL(baseURL(c), item.ID)
	png, err := reference.QRCode(url, qrSize())
	if err != nil {
		AbortWithError(c, fmt.Errorf("%w: %v", ErrInternalServer, err))
		return
	}

	var buf bytes.Buffer
	if err := export.LabelPDF(&buf, item, url, png); err != nil {
		AbortWithError(c, fmt.Errorf("%w: %v", ErrInternalServer, err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="label-%s.pdf"`, item.ID))
	c.Data(http.StatusOK, mimePDF, buf.Bytes())
}

func exportInventory(c *gin.Context) {
	svc, err := GetService(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	report, err := svc.List(c.Request.Context(), c.Query("q"), c.Query("status"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, report.Items, report.Stats); err != nil {
		AbortWithError(c, fmt.Errorf("%w: %v", ErrInternalServer, err))
		return
	}

	filename := fmt.Sprintf("instruments-%s.xlsx", models.DateOf(svc.Now()))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, mimeXLSX, buf.Bytes())
}

func resolveReference(c *gin.Context) {
	svc, err := GetService(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithHTTPError(c, http.StatusBadRequest, err, "Invalid request body: "+err.Error(), "INVALID_REQUEST")
		return
	}

	item, err := svc.Resolve(c.Request.Context(), req.Code)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"instrument": item,
		"url":        reference.URL(baseURL(c), item.ID),
	})
}
