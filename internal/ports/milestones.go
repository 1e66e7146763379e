package ports

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/steplings/progression/internal/app"
	"github.com/steplings/progression/internal/domain"
	"github.com/steplings/progression/internal/reporting"
)

type claimMilestoneResponse struct {
	Success   bool                `json:"success"`
	UUID      string              `json:"uuid"`
	Item      rewardItemPayload   `json:"item"`
	Inventory []rewardItemPayload `json:"inventory"`
}

func MakeClaimMilestoneHandler(
	claimMilestoneReward app.ClaimMilestoneReward,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := buildPortMiddleware(
		"claimmilestone",
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

		rawThreshold := r.PathValue("threshold")
		ctx = reporting.AddExtrasToContext(ctx, map[string]string{
			"threshold": rawThreshold,
		})
		threshold, err := strconv.ParseInt(rawThreshold, 10, 64)
		if err != nil {
			writeErrorResponse(w, http.StatusBadRequest, "Invalid milestone threshold")
			return
		}

		item, progress, err := claimMilestoneReward(ctx, playerUUID, threshold)
		if err != nil {
			writeAppError(ctx, w, err)
			return
		}

		writeJSONResponse(ctx, w, http.StatusOK, claimMilestoneResponse{
			Success:   true,
			UUID:      playerUUID,
			Item:      rewardItemToPayload(item),
			Inventory: inventoryToPayload(progress.Inventory),
		})
	}

	return middleware(handler)
}

type milestonesResponse struct {
	Success    bool               `json:"success"`
	Milestones []milestonePayload `json:"milestones"`
}

// MakeGetMilestonesHandler lists the milestone table. It is the same for every player.
func MakeGetMilestonesHandler(
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := buildPortMiddleware(
		"milestones",
		allowedOrigins,
		rootLogger,
		sentryMiddleware,
		ipRateLimit,
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		writeMilestones(r.Context(), w)
	}

	return middleware(handler)
}

func writeMilestones(ctx context.Context, w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "public, max-age=3600")
	writeJSONResponse(ctx, w, http.StatusOK, milestonesResponse{
		Success:    true,
		Milestones: milestonesToPayload(domain.Milestones(nil), false),
	})
}
