package routes

import (
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"html"
	"html/template"
	"io"
	"io/fs"
	"strings"
	"sync"

	"instrument-tracker/internal/calibration"
	"instrument-tracker/internal/models"
	"instrument-tracker/web"
)

// sriCache caches computed SRI integrity strings keyed by the src path.
var sriCache sync.Map // map[string]string

// assetFS holds the files served under /assets/.
var assetFS fs.FS = web.Assets()

// computeLocalSRI computes the sha384 SRI for an asset served under /assets/.
func computeLocalSRI(src string) (string, error) {
	if !strings.HasPrefix(src, "/assets/") {
		return "", nil
	}

	f, err := assetFS.Open(strings.TrimPrefix(src, "/assets/"))
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha512.New384()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return "sha384-" + base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}

// ScriptTag returns a safe HTML script tag for use in html/templates.
// It accepts the script src and automatically calculates and caches the
// SRI integrity hash for local assets under /assets/.
// When an integrity is available it adds crossorigin="anonymous".
func ScriptTag(src string) template.HTML {
	// Escape attribute values to avoid injection, then build the tag.
	escSrc := html.EscapeString(src)

	var integrity string
	if v, ok := sriCache.Load(src); ok {
		integrity = v.(string)
	} else {
		sri, err := computeLocalSRI(src)
		if err == nil && sri != "" {
			sriCache.Store(src, sri)
			integrity = sri
		}
	}

	attr := ""
	crossorigin := ""
	if integrity != "" {
		attr = fmt.Sprintf(" integrity=\"%s\"", html.EscapeString(integrity))
		crossorigin = " crossorigin=\"anonymous\""
	}

	tag := fmt.Sprintf("<script src=\"%s\"%s%s></script>", escSrc, attr, crossorigin)
	return template.HTML(tag)
}

// statusClass maps a status to the CSS modifier used by badges and rows.
func statusClass(s calibration.Status) string {
	switch s {
	case calibration.Ready:
		return "ok"
	case calibration.DueSoon:
		return "warn"
	case calibration.Overdue:
		return "danger"
	default:
		return "muted"
	}
}

// formatDate renders an optional date, with a dash for none.
func formatDate(d *models.Date) string {
	if d == nil || d.IsZero() {
		return "-"
	}
	return d.String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// TemplateFuncs returns a FuncMap with template helpers for routes templates.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"script_tag":   ScriptTag,
		"status_class": statusClass,
		"date":         formatDate,
		"deref":        deref,
		"lines": func(s string) []string {
			return strings.Split(s, "\n")
		},
	}
}
