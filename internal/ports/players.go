package ports

import (
	"log/slog"
	"net/http"

	"github.com/steplings/progression/internal/app"
	"github.com/steplings/progression/internal/logging"
)

type registerPlayerResponse struct {
	Success   bool             `json:"success"`
	UUID      string           `json:"uuid"`
	Steps     stepsPayload     `json:"steps"`
	Resources resourcesPayload `json:"resources"`
}

func MakeRegisterPlayerHandler(
	registerPlayer app.RegisterPlayer,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := buildPortMiddleware(
		"registerplayer",
		allowedOrigins,
		rootLogger,
		sentryMiddleware,
		ipRateLimit,
		userIDRateLimit,
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx, playerUUID, ok := playerFromRequest(w, r)
		if !ok {
			return
		}

		progress, err := registerPlayer(ctx, playerUUID)
		if err != nil {
			writeAppError(ctx, w, err)
			return
		}

		logging.FromContext(ctx).InfoContext(ctx, "Registered player", "totalSteps", progress.Steps.TotalSteps)

		writeJSONResponse(ctx, w, http.StatusOK, registerPlayerResponse{
			Success:   true,
			UUID:      playerUUID,
			Steps:     stepsToPayload(progress.Steps),
			Resources: resourcesToPayload(progress.Resources),
		})
	}

	return middleware(handler)
}

type progressionResponse struct {
	Success bool   `json:"success"`
	UUID    string `json:"uuid"`
	progressionPayload
}

func MakeGetProgressionHandler(
	getProgression app.GetProgression,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := buildPortMiddleware(
		"progression",
		allowedOrigins,
		rootLogger,
		sentryMiddleware,
		ipRateLimit,
		userIDRateLimit,
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx, playerUUID, ok := playerFromRequest(w, r)
		if !ok {
			return
		}

		view, err := getProgression(ctx, playerUUID)
		if err != nil {
			writeAppError(ctx, w, err)
			return
		}

		writeJSONResponse(ctx, w, http.StatusOK, progressionResponse{
			Success:            true,
			UUID:               playerUUID,
			progressionPayload: progressionToPayload(view),
		})
	}

	return middleware(handler)
}
