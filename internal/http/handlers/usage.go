package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"server/internal/domain"
)

type usageResponse struct {
	Used   int       `json:"used"`
	Limit  int       `json:"limit"`
	Tier   string    `json:"tier"`
	Resets time.Time `json:"resets"`
}

func (a *App) Usage(w http.ResponseWriter, r *http.Request) {
	locale := localeOf(r)
	key := strings.TrimSpace(r.URL.Query().Get("license_key"))
	if key == "" {
		a.error(w, http.StatusUnauthorized, messageFor(locale, msgMissingLicense))
		return
	}

	report, err := a.Generation.Usage(r.Context(), key)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidLicense) {
			a.error(w, http.StatusUnauthorized, messageFor(locale, msgInvalidLicense))
			return
		}
		a.Logger.Error().Err(err).Msg("usage lookup failed")
		a.error(w, http.StatusInternalServerError, messageFor(locale, msgInternal))
		return
	}

	a.json(w, http.StatusOK, usageResponse{
		Used:   report.Usage.Used,
		Limit:  report.Usage.Limit,
		Tier:   report.Tier.Name,
		Resets: report.Usage.Resets,
	})
}
