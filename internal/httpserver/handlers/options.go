package handlers

import (
	"io"
	"net/http"

	"github.com/MrSnakeDoc/snoozzd/internal/domain"
	"github.com/MrSnakeDoc/snoozzd/internal/httpserver/deps"
	"github.com/MrSnakeDoc/snoozzd/internal/logger"
)

func GetOptions(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := d.Store.Options(r.Context())
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, opts)
	}
}

// PutOptions merges the body into the stored options; absent fields are kept.
func PutOptions(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 64<<10))
		if err != nil {
			badRequest(w, "invalid body: "+err.Error())
			return
		}

		current, err := d.Store.Options(r.Context())
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		opts, err := domain.DecodeOptions(current, body)
		if err != nil {
			badRequest(w, err.Error())
			return
		}
		if err := d.Store.SaveOptions(r.Context(), opts); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		d.Logger.Info("options updated", logger.String("remote_ip", r.RemoteAddr))
		writeJSON(w, http.StatusOK, opts)
	}
}
