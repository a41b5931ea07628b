package utils

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

func requestScheme(c *gin.Context) string {
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		return "https"
	}
	return "http"
}

// Origin returns the public scheme and host, preferring the configured base URL
// over what the request says.
func Origin(c *gin.Context, configBaseURL string) string {
	if configBaseURL != "" {
		return strings.TrimRight(configBaseURL, "/")
	}

	host := c.Request.Host
	if fwd := c.GetHeader("X-Forwarded-Host"); fwd != "" {
		host = fwd
	}
	return fmt.Sprintf("%s://%s", requestScheme(c), host)
}

// UrlFor builds an absolute URL for a path on this server.
func UrlFor(c *gin.Context, configBaseURL string, path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return Origin(c, configBaseURL) + path
}

// WantsJSON reports whether the response should be JSON rather than HTML.
func WantsJSON(c *gin.Context) bool {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		return true
	}
	return c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON
}
