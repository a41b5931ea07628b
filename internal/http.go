package app

import (
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/multitemplate"
	"github.com/gin-gonic/gin"

	"instrument-tracker/internal/calibration"
	"instrument-tracker/internal/config"
	"instrument-tracker/internal/instruments"
	"instrument-tracker/internal/metrics"
	"instrument-tracker/internal/reference"
	"instrument-tracker/internal/routes"
	"instrument-tracker/web"
)

var pages = []string{
	"dashboard.html.tmpl",
	"instrument.html.tmpl",
	"scan.html.tmpl",
	"error.html.tmpl",
}

func securityHeaders(c *gin.Context) {
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("X-Frame-Options", "DENY")
	c.Header("Referrer-Policy", "same-origin")

	// Status depends on the current date, never cache
	c.Header("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.Next()
}

// Middleware to check if the IP is allowed.
func IPAccessControl(allowedCIDRs []string) gin.HandlerFunc {
	var parsedCIDRs []*net.IPNet

	// Allow local networks in debug mode
	if os.Getenv("GIN_MODE") != "release" {
		allowedCIDRs = append(allowedCIDRs, "127.0.0.1/8", "::1/128")
	}

	for _, cidr := range allowedCIDRs {
		_, ipnet, err := net.ParseCIDR(cidr)
		if err != nil {
			slog.Warn("Invalid CIDR", "cidr", cidr)
			continue
		}
		slog.Debug("Allowed CIDR", "cidr", cidr)
		parsedCIDRs = append(parsedCIDRs, ipnet)
	}

	return func(c *gin.Context) {
		clientIP := net.ParseIP(c.ClientIP())
		if clientIP == nil {
			slog.Warn("Invalid client IP", "ip", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}

		for _, cidr := range parsedCIDRs {
			if cidr.Contains(clientIP) {
				c.Next()
				return
			}
		}
		slog.Warn("IP not allowed", "ip", clientIP)
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	}
}

func requestMetrics(c *gin.Context) {
	start := time.Now()
	c.Next()
	metrics.ObserveHTTPRequest(c.FullPath(), c.Request.Method, c.Writer.Status(), time.Since(start))
}

// loadTemplates pairs every page with the shared layout.
func loadTemplates() multitemplate.Render {
	r := multitemplate.New()
	funcs := routes.TemplateFuncs()
	for _, page := range pages {
		r.AddFromFSFuncs(page, funcs, web.Templates(), "layout.html.tmpl", page)
	}
	return r
}

func splitNetworks(networks string) []string {
	var cidrs []string
	for cidr := range strings.SplitSeq(networks, ",") {
		if cidr := strings.TrimSpace(cidr); cidr != "" {
			cidrs = append(cidrs, cidr)
		}
	}
	return cidrs
}

// HTTPServer builds the gin engine serving pages, the JSON API and
// operational endpoints.
func HTTPServer(cfg *config.Config, svc *instruments.Service) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.HTMLRender = loadTemplates()

	if cfg.AllowedNetworks != "" {
		slog.Debug("Enabling IP access control", "allowed_networks", cfg.AllowedNetworks)
		r.Use(IPAccessControl(splitNetworks(cfg.AllowedNetworks)))
	}
	r.Use(securityHeaders)
	r.StaticFS("/assets", http.FS(web.Assets()))

	if cfg.MetricsEnabled {
		metrics.Init()
		r.Use(requestMetrics)
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	r.Use(
		routes.InjectService(svc),
		routes.InjectBaseURL(cfg.BaseURL),
		routes.ErrorHandler(),
	)

	r.GET("/config.json", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"BaseURL":       cfg.BaseURL,
			"QRSize":        cfg.QRSize,
			"DueSoonDays":   calibration.DueSoonDays,
			"ReferencePath": reference.PathPrefix,
		})
	})

	routes.Health(r.Group(""))
	routes.Pages(r.Group("/"))
	routes.InstrumentsApi(r.Group("/api"))

	r.NoRoute(func(c *gin.Context) {
		routes.AbortWithHTTPError(c, http.StatusNotFound, nil, "Page not found", "NOT_FOUND")
	})

	return r
}
