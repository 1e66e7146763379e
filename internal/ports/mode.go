package ports

import (
	"log/slog"
	"net/http"

	"github.com/steplings/progression/internal/app"
	"github.com/steplings/progression/internal/domain"
)

type switchModeRequest struct {
	Mode string `json:"mode"`
}

type switchModeResponse struct {
	Success  bool         `json:"success"`
	UUID     string       `json:"uuid"`
	Switched bool         `json:"switched"`
	Steps    stepsPayload `json:"steps"`
}

func MakeSwitchModeHandler(
	switchMode app.SwitchMode,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := buildPortMiddleware(
		"switchmode",
		allowedOrigins,
		rootLogger,
		sentryMiddleware,
		ipRateLimit,
		userIDRateLimit,
		playerWriteRateLimit,
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx, playerUUID, ok := playerFromRequest(w, r)
		if !ok {
			return
		}

		var request switchModeRequest
		if !decodeRequestBody(w, r, &request) {
			return
		}

		mode, err := domain.ParseGameMode(request.Mode)
		if err != nil {
			writeAppError(ctx, w, err)
			return
		}

		progress, switched, err := switchMode(ctx, playerUUID, mode)
		if err != nil {
			writeAppError(ctx, w, err)
			return
		}

		writeJSONResponse(ctx, w, http.StatusOK, switchModeResponse{
			Success:  true,
			UUID:     playerUUID,
			Switched: switched,
			Steps:    stepsToPayload(progress.Steps),
		})
	}

	return middleware(handler)
}
