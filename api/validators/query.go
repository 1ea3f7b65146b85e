package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/naebak/naebak-auth-service/pkg/errors"
)

// ParseQueryInt reads an optional integer query parameter bounded by min and max.
func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "يجب أن تكون قيمة المعامل رقمية").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "قيمة المعامل خارج النطاق المسموح").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}
