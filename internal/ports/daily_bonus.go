package ports

import (
	"log/slog"
	"net/http"

	"github.com/steplings/progression/internal/app"
)

type claimDailyBonusResponse struct {
	Success      bool             `json:"success"`
	UUID         string           `json:"uuid"`
	CellsGranted int64            `json:"cells_granted"`
	Resources    resourcesPayload `json:"resources"`
}

func MakeClaimDailyBonusHandler(
	claimDailyBonus app.ClaimDailyBonus,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := buildPortMiddleware(
		"claimdailybonus",
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

		bonus, progress, err := claimDailyBonus(ctx, playerUUID)
		if err != nil {
			writeAppError(ctx, w, err)
			return
		}

		writeJSONResponse(ctx, w, http.StatusOK, claimDailyBonusResponse{
			Success:      true,
			UUID:         playerUUID,
			CellsGranted: bonus,
			Resources:    resourcesToPayload(progress.Resources),
		})
	}

	return middleware(handler)
}
