package routes

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"instrument-tracker/internal/inventory"
	"instrument-tracker/internal/models"
	"instrument-tracker/internal/reference"
)

// Pages registers the browser facing HTML routes.
func Pages(r *gin.RouterGroup) {
	r.GET("/", dashboardPage)
	r.POST("/instruments", addInstrumentForm)
	r.GET("/instrument/:id", instrumentPage)
	r.POST("/instrument/:id/calibrate", calibrateForm)
	r.POST("/instrument/:id/delete", deleteForm)
	r.GET("/scan", scanPage)
}

func instrumentPath(id string) string {
	return reference.PathPrefix + url.PathEscape(id)
}

func dashboardPage(c *gin.Context) {
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

	HTML(c, http.StatusOK, "dashboard.html.tmpl", gin.H{
		"Title":     "Instruments",
		"Report":    report,
		"Selectors": inventory.Selectors,
		"Today":     models.DateOf(svc.Now()),
		"Flash":     c.Query("flash"),
	})
}

func parseDateField(field, value string) (*models.Date, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	d, err := models.ParseDate(value)
	if err != nil {
		return nil, &models.ValidationError{Field: field, Message: err.Error()}
	}
	return &d, nil
}

func addInstrumentForm(c *gin.Context) {
	svc, err := GetService(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	fields := models.NewInstrument{
		Name:                c.PostForm("name"),
		Location:            c.PostForm("location"),
		CalibrationRequired: c.PostForm("calibration_required") != "",
		Notes:               models.NonEmpty(c.PostForm("notes")),
	}
	if v := strings.TrimSpace(c.PostForm("calibration_period")); v != "" {
		period, err := strconv.Atoi(v)
		if err != nil {
			AbortWithError(c, &models.ValidationError{Field: "calibration_period", Message: "calibration period must be a number of days"})
			return
		}
		fields.CalibrationPeriod = period
	}
	if fields.LastCalibrationDate, err = parseDateField("last_calibration_date", c.PostForm("last_calibration_date")); err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := svc.Add(c.Request.Context(), fields)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, instrumentPath(item.ID))
}

func instrumentPage(c *gin.Context) {
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

	HTML(c, http.StatusOK, "instrument.html.tmpl", gin.H{
		"Title":        item.Name,
		"Item":         item,
		"ReferenceURL": reference.URL(baseURL(c), item.ID),
		"Today":        models.DateOf(svc.Now()),
	})
}

func calibrateForm(c *gin.Context) {
	svc, err := GetService(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	date, err := parseDateField("date", c.PostForm("date"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	form := models.CalibrationForm{
		Date:        date,
		PerformedBy: c.PostForm("performed_by"),
		Cleaned:     c.PostForm("cleaned") != "",
		Notes:       c.PostForm("notes"),
	}

	item, err := svc.Calibrate(c.Request.Context(), c.Param("id"), form)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, instrumentPath(item.ID))
}

func deleteForm(c *gin.Context) {
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
	c.Redirect(http.StatusSeeOther, "/?flash="+url.QueryEscape(inst.Name+" deleted"))
}

// scanPage shows the manual entry form, or resolves ?code= and redirects to
// the instrument page.
func scanPage(c *gin.Context) {
	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		HTML(c, http.StatusOK, "scan.html.tmpl", gin.H{"Title": "Scan"})
		return
	}

	svc, err := GetService(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := svc.Resolve(c.Request.Context(), code)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Redirect(http.StatusFound, instrumentPath(item.ID))
}
