package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"server/internal/captiongen"
	"server/internal/domain"
	"server/internal/generation"
)

type captionContext struct {
	Filename string `json:"filename"`
	Industry string `json:"industry"`
	Location string `json:"location"`
}

type generateRequest struct {
	LicenseKey string          `json:"license_key"`
	Image      string          `json:"image"`
	Context    *captionContext `json:"context"`
}

type generateResponse struct {
	Success bool                 `json:"success"`
	AltText string               `json:"alt_text"`
	Usage   domain.UsageSnapshot `json:"usage"`
}

func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	locale := localeOf(r)
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, messageFor(locale, msgInvalidJSON))
		return
	}
	if strings.TrimSpace(req.LicenseKey) == "" {
		a.error(w, http.StatusUnauthorized, messageFor(locale, msgMissingLicense))
		return
	}
	if strings.TrimSpace(req.Image) == "" {
		a.error(w, http.StatusBadRequest, messageFor(locale, msgMissingImage))
		return
	}

	hints := captiongen.Context{}
	if req.Context != nil {
		hints = captiongen.Context{
			Filename: req.Context.Filename,
			Industry: req.Context.Industry,
			Location: req.Context.Location,
		}
	}

	outcome, err := a.Generation.Generate(r.Context(), req.LicenseKey, req.Image, hints)
	if err != nil {
		var quotaErr *generation.QuotaExceededError
		switch {
		case errors.Is(err, domain.ErrInvalidLicense):
			a.error(w, http.StatusUnauthorized, messageFor(locale, msgInvalidLicense))
		case errors.As(err, &quotaErr):
			a.errorWithUsage(w, http.StatusPaymentRequired, messageFor(locale, msgQuotaExceeded), quotaErr.Usage)
		case errors.Is(err, domain.ErrGenerationFailed):
			a.error(w, http.StatusInternalServerError, fmt.Sprintf("%s: %s", messageFor(locale, msgGenerationFailed), generationDetail(err)))
		default:
			a.Logger.Error().Err(err).Msg("generate failed")
			a.error(w, http.StatusInternalServerError, messageFor(locale, msgInternal))
		}
		return
	}

	a.json(w, http.StatusOK, generateResponse{
		Success: true,
		AltText: outcome.Caption,
		Usage:   outcome.Usage,
	})
}

// generationDetail strips the sentinel prefix so the wire message reads
// as "Generation failed: <provider detail>" in one language only.
func generationDetail(err error) string {
	return strings.TrimPrefix(err.Error(), domain.ErrGenerationFailed.Error()+": ")
}
