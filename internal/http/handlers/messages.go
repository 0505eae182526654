package handlers

import (
	"net/http"

	"server/internal/middleware"
)

type messageKey string

const (
	msgMissingLicense   messageKey = "missing_license"
	msgInvalidLicense   messageKey = "invalid_license"
	msgQuotaExceeded    messageKey = "quota_exceeded"
	msgInvalidJSON      messageKey = "invalid_json"
	msgMissingImage     messageKey = "missing_image"
	msgMissingItems     messageKey = "missing_items"
	msgGenerationFailed messageKey = "generation_failed"
	msgBatchNotFound    messageKey = "batch_not_found"
	msgNotFound         messageKey = "not_found"
	msgInternal         messageKey = "internal"
)

// English is the wire-format default; the Indonesian strings follow the
// locale detected by the i18n middleware.
var messages = map[string]map[messageKey]string{
	"en": {
		msgMissingLicense:   "Missing license_key",
		msgInvalidLicense:   "Invalid license key",
		msgQuotaExceeded:    "Monthly quota exceeded",
		msgInvalidJSON:      "Invalid JSON body",
		msgMissingImage:     "Missing image data",
		msgMissingItems:     "Missing batch items",
		msgGenerationFailed: "Generation failed",
		msgBatchNotFound:    "Batch expired or not found",
		msgNotFound:         "Not found",
		msgInternal:         "Internal error",
	},
	"id": {
		msgMissingLicense:   "license_key tidak ditemukan",
		msgInvalidLicense:   "Kunci lisensi tidak valid",
		msgQuotaExceeded:    "Kuota bulanan habis",
		msgInvalidJSON:      "Body JSON tidak valid",
		msgMissingImage:     "Data gambar tidak ditemukan",
		msgMissingItems:     "Item batch tidak ditemukan",
		msgGenerationFailed: "Generasi gagal",
		msgBatchNotFound:    "Batch kedaluwarsa atau tidak ditemukan",
		msgNotFound:         "Tidak ditemukan",
		msgInternal:         "Kesalahan internal",
	},
}

func messageFor(locale string, key messageKey) string {
	if catalog, ok := messages[locale]; ok {
		if msg, ok := catalog[key]; ok {
			return msg
		}
	}
	return messages["en"][key]
}

func localeOf(r *http.Request) string {
	return middleware.LocaleFromContext(r.Context())
}
