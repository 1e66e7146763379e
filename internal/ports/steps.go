package ports

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/steplings/progression/internal/app"
	"github.com/steplings/progression/internal/domain"
)

type syncStepsRequest struct {
	EventID    string     `json:"event_id"`
	Steps      *int64     `json:"steps"`
	RecordedAt *time.Time `json:"recorded_at"`
}

type syncStepsResponse struct {
	Success   bool             `json:"success"`
	UUID      string           `json:"uuid"`
	Duplicate bool             `json:"duplicate"`
	Granted   resourcesPayload `json:"granted"`
	Steps     stepsPayload     `json:"steps"`
	Resources resourcesPayload `json:"resources"`
}

func MakeSyncStepsHandler(
	syncSteps app.SyncSteps,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := buildPortMiddleware(
		"syncsteps",
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

		var request syncStepsRequest
		if !decodeRequestBody(w, r, &request) {
			return
		}
		if request.Steps == nil || request.RecordedAt == nil {
			writeErrorResponse(w, http.StatusBadRequest, "Missing steps or recorded_at")
			return
		}

		result, err := syncSteps(ctx, playerUUID, domain.StepSyncEvent{
			EventID:    request.EventID,
			Steps:      *request.Steps,
			RecordedAt: *request.RecordedAt,
		})
		if err != nil {
			writeAppError(ctx, w, err)
			return
		}

		writeJSONResponse(ctx, w, http.StatusOK, syncStepsResponse{
			Success:   true,
			UUID:      playerUUID,
			Duplicate: result.Duplicate,
			Granted:   resourcesToPayload(result.Granted),
			Steps:     stepsToPayload(result.Progress.Steps),
			Resources: resourcesToPayload(result.Progress.Resources),
		})
	}

	return middleware(handler)
}
