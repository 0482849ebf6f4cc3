package handlers

import (
	"log/slog"
	"net/http"
)

// InternalError logs the cause and answers with a generic 500 so we never
// leak storage or renderer details to the client.
func InternalError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	logger.Error("500 internal server error",
		slog.String("path", r.URL.Path),
		slog.String("err", err.Error()),
	)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func Unauthorised(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	logger.Warn("401 unauthorised",
		slog.String("path", r.URL.Path),
		slog.String("ip", r.RemoteAddr),
	)
	writeError(w, http.StatusUnauthorized, "unauthorised")
}

func NotFoundError(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	logger.Info("404 not found",
		slog.String("path", r.URL.Path),
	)
	writeError(w, http.StatusNotFound, "not found")
}
