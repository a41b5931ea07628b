package routes

import (
	"github.com/gin-gonic/gin"

	"instrument-tracker/internal/instruments"
	"instrument-tracker/internal/utils"
)

const (
	serviceKey = "Instruments"
	baseURLKey = "BaseURL"
)

// InjectService makes the instrument service available to handlers.
func InjectService(svc *instruments.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(serviceKey, svc)
		c.Next()
	}
}

// InjectBaseURL stores the public origin used for reference URLs.
func InjectBaseURL(configured string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(baseURLKey, utils.Origin(c, configured))
		c.Next()
	}
}

func GetService(c *gin.Context) (*instruments.Service, error) {
	v, ok := c.Get(serviceKey)
	if !ok {
		return nil, utils.ErrServiceNotFound
	}
	svc, ok := v.(*instruments.Service)
	if !ok || svc == nil {
		return nil, utils.ErrInvalidService
	}
	return svc, nil
}

func baseURL(c *gin.Context) string {
	if v := c.GetString(baseURLKey); v != "" {
		return v
	}
	return utils.Origin(c, "")
}

// H merges the common page values into data.
func H(c *gin.Context, data gin.H) gin.H {
	if data == nil {
		data = gin.H{}
	}
	data["BaseURL"] = baseURL(c)
	data["AppVersion"] = utils.GetVersion()
	return data
}

// HTML renders a page with the common values merged in.
func HTML(c *gin.Context, code int, name string, data gin.H) {
	c.HTML(code, name, H(c, data))
}
