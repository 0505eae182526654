package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"server/internal/batch"
	"server/internal/captiongen"
	"server/internal/domain"
)

type batchCreateRequest struct {
	LicenseKey string          `json:"license_key"`
	Items      []batch.Item    `json:"items"`
	Context    *captionContext `json:"context"`
}

type batchCreateResponse struct {
	Success bool   `json:"success"`
	BatchID string `json:"batch_id"`
	Count   int    `json:"count"`
}

type batchAdvanceRequest struct {
	BatchID string `json:"batch_id"`
	Index   int    `json:"index"`
}

type batchAdvanceResponse struct {
	Success   bool                  `json:"success"`
	Done      bool                  `json:"done"`
	Stopped   bool                  `json:"stopped,omitempty"`
	Index     *int                  `json:"index,omitempty"`
	Ref       string                `json:"ref,omitempty"`
	AltText   string                `json:"alt_text,omitempty"`
	Error     string                `json:"error,omitempty"`
	Usage     *domain.UsageSnapshot `json:"usage,omitempty"`
	Succeeded int                   `json:"succeeded"`
	Failed    int                   `json:"failed"`
}

func (a *App) BatchCreate(w http.ResponseWriter, r *http.Request) {
	locale := localeOf(r)
	var req batchCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, messageFor(locale, msgInvalidJSON))
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

	job, err := a.Batches.Create(req.LicenseKey, req.Items, hints)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidLicense):
			a.error(w, http.StatusUnauthorized, messageFor(locale, msgInvalidLicense))
		case errors.Is(err, domain.ErrMalformedRequest):
			a.error(w, http.StatusBadRequest, messageFor(locale, msgMissingItems))
		default:
			a.Logger.Error().Err(err).Msg("batch create failed")
			a.error(w, http.StatusInternalServerError, messageFor(locale, msgInternal))
		}
		return
	}

	a.json(w, http.StatusOK, batchCreateResponse{
		Success: true,
		BatchID: job.ID,
		Count:   len(job.Items),
	})
}

func (a *App) BatchAdvance(w http.ResponseWriter, r *http.Request) {
	locale := localeOf(r)
	var req batchAdvanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, messageFor(locale, msgInvalidJSON))
		return
	}
	if req.BatchID == "" {
		a.error(w, http.StatusBadRequest, messageFor(locale, msgInvalidJSON))
		return
	}

	res, err := a.Batches.Advance(r.Context(), req.BatchID, req.Index)
	if err != nil {
		if errors.Is(err, domain.ErrBatchNotFound) {
			a.error(w, http.StatusNotFound, messageFor(locale, msgBatchNotFound))
			return
		}
		a.Logger.Error().Err(err).Msg("batch advance failed")
		a.error(w, http.StatusInternalServerError, messageFor(locale, msgInternal))
		return
	}

	resp := batchAdvanceResponse{
		Success:   true,
		Done:      res.Done,
		Stopped:   res.Stopped,
		Ref:       res.Ref,
		AltText:   res.AltText,
		Error:     res.ItemError,
		Usage:     res.Usage,
		Succeeded: res.Succeeded,
		Failed:    res.Failed,
	}
	if !res.Done {
		index := res.Index
		resp.Index = &index
	}
	a.json(w, http.StatusOK, resp)
}
