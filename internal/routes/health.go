package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"instrument-tracker/internal/utils"
)

const healthTimeout = 3 * time.Second

// Health reports the version and whether storage answers.
func Health(r *gin.RouterGroup) {
	r.GET("/health", func(c *gin.Context) {
		svc, err := GetService(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		if err := svc.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unavailable",
				"storage": GetErrorMessage(err),
				"version": utils.GetVersion(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"version": utils.GetVersion(),
		})
	})
}
