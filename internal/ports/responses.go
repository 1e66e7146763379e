package ports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/steplings/progression/internal/domain"
	"github.com/steplings/progression/internal/logging"
	"github.com/steplings/progression/internal/reporting"
	"github.com/steplings/progression/internal/strutils"
)

const maxRequestBodyBytes = 64 * 1024

type errorResponse struct {
	Success bool   `json:"success"`
	Cause   string `json:"cause"`
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, cause string) {
	marshalled, err := json.Marshal(errorResponse{Success: false, Cause: cause})
	if err != nil {
		marshalled = []byte(`{"success":false,"cause":"Internal server error"}`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(marshalled)
}

func writeJSONResponse(ctx context.Context, w http.ResponseWriter, statusCode int, response any) {
	marshalled, err := json.Marshal(response)
	if err != nil {
		reporting.Report(ctx, fmt.Errorf("failed to marshal response: %w", err))
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to marshal response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(marshalled)
}

// statusForError maps errors from the app layer to a status code and a cause safe to show to clients
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidStepCount):
		return http.StatusBadRequest, "Invalid step count"
	case errors.Is(err, domain.ErrInvalidGameMode):
		return http.StatusBadRequest, "Invalid game mode"
	case errors.Is(err, domain.ErrMissingEventID):
		return http.StatusBadRequest, "Missing event id"
	case errors.Is(err, domain.ErrPlayerNotFound):
		return http.StatusNotFound, "Player not found"
	case errors.Is(err, domain.ErrUnknownMilestone):
		return http.StatusNotFound, "Unknown milestone"
	case errors.Is(err, domain.ErrAlreadyClaimed):
		return http.StatusConflict, "Milestone reward already claimed"
	case errors.Is(err, domain.ErrDailyBonusAlreadyClaimed):
		return http.StatusConflict, "Daily bonus already claimed today"
	case errors.Is(err, domain.ErrNotYetReached):
		return http.StatusUnprocessableEntity, "Milestone not yet reached"
	case errors.Is(err, domain.ErrNoDailyBonus):
		return http.StatusUnprocessableEntity, "No daily bonus unlocked"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "Request cancelled"
	}
	return http.StatusInternalServerError, "Internal server error"
}

func writeAppError(ctx context.Context, w http.ResponseWriter, err error) {
	statusCode, cause := statusForError(err)
	// NOTE: Unexpected errors are reported where they happen
	logging.FromContext(ctx).InfoContext(ctx, "Request failed", "statusCode", statusCode, "error", err.Error())
	writeErrorResponse(w, statusCode, cause)
}

// playerFromRequest normalizes the player UUID in the path and tags logs and reports with it.
// Writes a 400 response and returns false when the UUID is invalid.
func playerFromRequest(w http.ResponseWriter, r *http.Request) (context.Context, string, bool) {
	ctx := r.Context()

	rawUUID := r.PathValue("uuid")
	userID := r.Header.Get("X-User-Id")
	ctx = reporting.SetUserIDInContext(ctx, userID)
	ctx = reporting.AddExtrasToContext(ctx, map[string]string{
		"rawUUID": rawUUID,
	})
	ctx = logging.AddMetaToContext(ctx, slog.String("uuid", rawUUID))

	playerUUID, err := strutils.NormalizeUUID(rawUUID)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid UUID")
		return ctx, "", false
	}

	ctx = reporting.AddPlayerToContext(ctx, playerUUID)
	ctx = logging.WithPlayer(ctx, playerUUID)

	return ctx, playerUUID, true
}

// decodeRequestBody reads a JSON body into dst. Unknown fields are rejected.
// Writes a 400 response and returns false when the body is invalid.
func decodeRequestBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
