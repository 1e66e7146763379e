package progressrepository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/steplings/progression/internal/domain"
	"github.com/steplings/progression/internal/reporting"
	"github.com/steplings/progression/internal/strutils"
)

type Postgres struct {
	db     *sqlx.DB
	schema string

	tracer trace.Tracer
}

func NewPostgres(db *sqlx.DB, schema string) *Postgres {
	tracer := otel.Tracer("steplings/progressrepository/postgres")

	return &Postgres{
		db:     db,
		schema: schema,

		tracer: tracer,
	}
}

type dbPlayer struct {
	PlayerUUID string `db:"player_uuid"`

	TotalSteps            int64      `db:"total_steps"`
	Mode                  string     `db:"mode"`
	StepsInCurrentMode    int64      `db:"steps_in_current_mode"`
	CreditedInCurrentMode int64      `db:"credited_in_current_mode"`
	ModeSwitchedAt        *time.Time `db:"mode_switched_at"`

	Cells            int64 `db:"cells"`
	ExperiencePoints int64 `db:"experience_points"`

	LastDailyBonusClaimAt *time.Time `db:"last_daily_bonus_claim_at"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type dbMilestoneClaim struct {
	ThresholdSteps int64     `db:"threshold_steps"`
	ClaimedAt      time.Time `db:"claimed_at"`
}

type dbInventoryItem struct {
	Kind               string    `db:"kind"`
	Rarity             string    `db:"rarity"`
	MilestoneThreshold int64     `db:"milestone_threshold"`
	GrantedAt          time.Time `db:"granted_at"`
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func utcOrNil(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}

func playerToDB(progress domain.Progress) dbPlayer {
	return dbPlayer{
		PlayerUUID:            progress.PlayerUUID,
		TotalSteps:            progress.Steps.TotalSteps,
		Mode:                  string(progress.Steps.Mode),
		StepsInCurrentMode:    progress.Steps.StepsInCurrentMode,
		CreditedInCurrentMode: progress.Steps.CreditedInCurrentMode,
		ModeSwitchedAt:        optionalTime(progress.Steps.ModeSwitchedAt),
		Cells:                 progress.Resources.Cells,
		ExperiencePoints:      progress.Resources.ExperiencePoints,
		LastDailyBonusClaimAt: progress.LastDailyBonusClaimAt,
		CreatedAt:             progress.CreatedAt,
		UpdatedAt:             progress.UpdatedAt,
	}
}

func progressFromDB(player dbPlayer, claims []dbMilestoneClaim, items []dbInventoryItem) (domain.Progress, error) {
	mode, err := domain.ParseGameMode(player.Mode)
	if err != nil {
		return domain.Progress{}, fmt.Errorf("stored mode is invalid: %w", err)
	}

	var modeSwitchedAt time.Time
	if player.ModeSwitchedAt != nil {
		modeSwitchedAt = player.ModeSwitchedAt.UTC()
	}

	claimed := make(map[int64]time.Time, len(claims))
	for _, claim := range claims {
		claimed[claim.ThresholdSteps] = claim.ClaimedAt.UTC()
	}

	inventory := make([]domain.RewardItem, 0, len(items))
	for _, item := range items {
		inventory = append(inventory, domain.RewardItem{
			Kind:               domain.ItemKind(item.Kind),
			Rarity:             domain.Rarity(item.Rarity),
			MilestoneThreshold: item.MilestoneThreshold,
			GrantedAt:          item.GrantedAt.UTC(),
		})
	}

	return domain.Progress{
		PlayerUUID: player.PlayerUUID,
		Steps: domain.StepTotals{
			TotalSteps:            player.TotalSteps,
			Mode:                  mode,
			StepsInCurrentMode:    player.StepsInCurrentMode,
			CreditedInCurrentMode: player.CreditedInCurrentMode,
			ModeSwitchedAt:        modeSwitchedAt,
		},
		Resources: domain.Resources{
			Cells:            player.Cells,
			ExperiencePoints: player.ExperiencePoints,
		},
		ClaimedMilestones:     claimed,
		Inventory:             inventory,
		LastDailyBonusClaimAt: utcOrNil(player.LastDailyBonusClaimAt),
		CreatedAt:             player.CreatedAt.UTC(),
		UpdatedAt:             player.UpdatedAt.UTC(),
	}, nil
}

func (p *Postgres) begin(ctx context.Context) (*sqlx.Tx, error) {
	txx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		err := fmt.Errorf("failed to start transaction: %w", err)
		reporting.Report(ctx, err)
		return nil, err
	}

	_, err = txx.ExecContext(ctx, fmt.Sprintf("SET search_path TO %s", pq.QuoteIdentifier(p.schema)))
	if err != nil {
		_ = txx.Rollback()
		err := fmt.Errorf("failed to set search path: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"schema": p.schema,
		})
		return nil, err
	}

	return txx, nil
}

func (p *Postgres) commit(ctx context.Context, txx *sqlx.Tx) error {
	err := txx.Commit()
	if err != nil {
		err := fmt.Errorf("failed to commit transaction: %w", err)
		reporting.Report(ctx, err)
		return err
	}
	return nil
}

// loadProgress reads the player's progress. forUpdate locks the player row until the transaction ends.
func (p *Postgres) loadProgress(ctx context.Context, txx *sqlx.Tx, playerUUID string, forUpdate bool) (domain.Progress, error) {
	query := `SELECT
		player_uuid, total_steps, mode, steps_in_current_mode, credited_in_current_mode, mode_switched_at,
		cells, experience_points, last_daily_bonus_claim_at, created_at, updated_at
		FROM players
		WHERE player_uuid = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var player dbPlayer
	err := txx.GetContext(ctx, &player, query, playerUUID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Progress{}, domain.ErrPlayerNotFound
	} else if err != nil {
		err := fmt.Errorf("failed to select player: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"uuid": playerUUID,
		})
		return domain.Progress{}, err
	}

	var claims []dbMilestoneClaim
	err = txx.SelectContext(
		ctx,
		&claims,
		"SELECT threshold_steps, claimed_at FROM milestone_claims WHERE player_uuid = $1 ORDER BY threshold_steps ASC",
		playerUUID,
	)
	if err != nil {
		err := fmt.Errorf("failed to select milestone claims: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"uuid": playerUUID,
		})
		return domain.Progress{}, err
	}

	var items []dbInventoryItem
	err = txx.SelectContext(
		ctx,
		&items,
		"SELECT kind, rarity, milestone_threshold, granted_at FROM inventory_items WHERE player_uuid = $1 ORDER BY granted_at ASC, id ASC",
		playerUUID,
	)
	if err != nil {
		err := fmt.Errorf("failed to select inventory items: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"uuid": playerUUID,
		})
		return domain.Progress{}, err
	}

	progress, err := progressFromDB(player, claims, items)
	if err != nil {
		reporting.Report(ctx, err, map[string]string{
			"uuid": playerUUID,
			"mode": player.Mode,
		})
		return domain.Progress{}, err
	}
	return progress, nil
}

// storeProgress writes updated over before. Claims and inventory items are append only.
func (p *Postgres) storeProgress(ctx context.Context, txx *sqlx.Tx, before, updated domain.Progress) error {
	if updated.Steps.TotalSteps < before.Steps.TotalSteps {
		err := fmt.Errorf("total steps decreased from %d to %d", before.Steps.TotalSteps, updated.Steps.TotalSteps)
		reporting.Report(ctx, err, map[string]string{
			"uuid": updated.PlayerUUID,
		})
		return err
	}

	_, err := txx.NamedExecContext(
		ctx,
		`UPDATE players SET
			total_steps = :total_steps,
			mode = :mode,
			steps_in_current_mode = :steps_in_current_mode,
			credited_in_current_mode = :credited_in_current_mode,
			mode_switched_at = :mode_switched_at,
			cells = :cells,
			experience_points = :experience_points,
			last_daily_bonus_claim_at = :last_daily_bonus_claim_at,
			updated_at = :updated_at
		WHERE player_uuid = :player_uuid`,
		playerToDB(updated),
	)
	if err != nil {
		err := fmt.Errorf("failed to update player: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"uuid": updated.PlayerUUID,
		})
		return err
	}

	for threshold, claimedAt := range updated.ClaimedMilestones {
		if _, ok := before.ClaimedMilestones[threshold]; ok {
			continue
		}
		_, err := txx.ExecContext(
			ctx,
			`INSERT INTO milestone_claims
			(player_uuid, threshold_steps, claimed_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (player_uuid, threshold_steps) DO NOTHING`,
			updated.PlayerUUID,
			threshold,
			claimedAt,
		)
		if err != nil {
			err := fmt.Errorf("failed to insert milestone claim: %w", err)
			reporting.Report(ctx, err, map[string]string{
				"uuid":      updated.PlayerUUID,
				"threshold": strconv.FormatInt(threshold, 10),
			})
			return err
		}
	}

	if len(updated.Inventory) > len(before.Inventory) {
		for _, item := range updated.Inventory[len(before.Inventory):] {
			// Time ordered IDs keep the inventory in the order items were granted
			id, err := uuid.NewV7()
			if err != nil {
				err := fmt.Errorf("failed to generate inventory item id: %w", err)
				reporting.Report(ctx, err)
				return err
			}
			_, err = txx.ExecContext(
				ctx,
				`INSERT INTO inventory_items
				(id, player_uuid, kind, rarity, milestone_threshold, granted_at)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (player_uuid, kind, milestone_threshold) DO NOTHING`,
				id.String(),
				updated.PlayerUUID,
				string(item.Kind),
				string(item.Rarity),
				item.MilestoneThreshold,
				item.GrantedAt,
			)
			if err != nil {
				err := fmt.Errorf("failed to insert inventory item: %w", err)
				reporting.Report(ctx, err, map[string]string{
					"uuid":      updated.PlayerUUID,
					"threshold": strconv.FormatInt(item.MilestoneThreshold, 10),
				})
				return err
			}
		}
	}

	if updated.Steps.TotalSteps != before.Steps.TotalSteps {
		return p.storeLifetimeAchievement(ctx, txx, updated)
	}

	return nil
}

func (p *Postgres) storeLifetimeAchievement(ctx context.Context, txx *sqlx.Tx, progress domain.Progress) error {
	achievement := domain.CalculateLifetimeBonuses(progress.Steps.TotalSteps)

	unlocked := slices.Clone(achievement.UnlockedAchievementIDs)
	if unlocked == nil {
		unlocked = []string{}
	}

	_, err := txx.ExecContext(
		ctx,
		`INSERT INTO lifetime_achievements
		(player_uuid, total_steps, bonus_cells_per_day, discovery_efficiency_pct, training_efficiency_pct,
		 click_power_multiplier, experience_bank_cap, training_roster_slots, release_xp_bonus_pct,
		 infinite_milestones, unlocked_achievement_ids, computed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (player_uuid) DO UPDATE SET
			total_steps = EXCLUDED.total_steps,
			bonus_cells_per_day = EXCLUDED.bonus_cells_per_day,
			discovery_efficiency_pct = EXCLUDED.discovery_efficiency_pct,
			training_efficiency_pct = EXCLUDED.training_efficiency_pct,
			click_power_multiplier = EXCLUDED.click_power_multiplier,
			experience_bank_cap = EXCLUDED.experience_bank_cap,
			training_roster_slots = EXCLUDED.training_roster_slots,
			release_xp_bonus_pct = EXCLUDED.release_xp_bonus_pct,
			infinite_milestones = EXCLUDED.infinite_milestones,
			unlocked_achievement_ids = EXCLUDED.unlocked_achievement_ids,
			computed_at = EXCLUDED.computed_at`,
		progress.PlayerUUID,
		progress.Steps.TotalSteps,
		achievement.BonusCellsPerDay,
		achievement.DiscoveryEfficiencyPct,
		achievement.TrainingEfficiencyPct,
		achievement.ClickPowerMultiplier,
		achievement.ExperienceBankCap,
		achievement.TrainingRosterSlots,
		achievement.ReleaseXPBonusPct,
		achievement.InfiniteMilestones,
		pq.Array(unlocked),
		progress.UpdatedAt,
	)
	if err != nil {
		err := fmt.Errorf("failed to upsert lifetime achievement: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"uuid":       progress.PlayerUUID,
			"totalSteps": strconv.FormatInt(progress.Steps.TotalSteps, 10),
		})
		return err
	}
	return nil
}

func (p *Postgres) CreateProgress(ctx context.Context, progress domain.Progress) (domain.Progress, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.CreateProgress")
	defer span.End()

	if !strutils.UUIDIsNormalized(progress.PlayerUUID) {
		err := fmt.Errorf("uuid is not normalized")
		reporting.Report(ctx, err, map[string]string{
			"uuid": progress.PlayerUUID,
		})
		return domain.Progress{}, err
	}

	txx, err := p.begin(ctx)
	if err != nil {
		return domain.Progress{}, err
	}
	defer txx.Rollback()

	result, err := txx.NamedExecContext(
		ctx,
		`INSERT INTO players
		(player_uuid, total_steps, mode, steps_in_current_mode, credited_in_current_mode, mode_switched_at,
		 cells, experience_points, last_daily_bonus_claim_at, created_at, updated_at)
		VALUES
		(:player_uuid, :total_steps, :mode, :steps_in_current_mode, :credited_in_current_mode, :mode_switched_at,
		 :cells, :experience_points, :last_daily_bonus_claim_at, :created_at, :updated_at)
		ON CONFLICT (player_uuid) DO NOTHING`,
		playerToDB(progress),
	)
	if err != nil {
		err := fmt.Errorf("failed to insert player: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"uuid": progress.PlayerUUID,
		})
		return domain.Progress{}, err
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		err := fmt.Errorf("failed to get rows affected: %w", err)
		reporting.Report(ctx, err)
		return domain.Progress{}, err
	}

	if inserted == 1 {
		err = p.storeLifetimeAchievement(ctx, txx, progress)
		if err != nil {
			return domain.Progress{}, err
		}
	}

	stored, err := p.loadProgress(ctx, txx, progress.PlayerUUID, false)
	if err != nil {
		return domain.Progress{}, err
	}

	err = p.commit(ctx, txx)
	if err != nil {
		return domain.Progress{}, err
	}

	return stored, nil
}

func (p *Postgres) GetProgress(ctx context.Context, playerUUID string) (domain.Progress, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.GetProgress")
	defer span.End()

	txx, err := p.begin(ctx)
	if err != nil {
		return domain.Progress{}, err
	}
	defer txx.Rollback()

	progress, err := p.loadProgress(ctx, txx, playerUUID, false)
	if err != nil {
		return domain.Progress{}, err
	}

	return progress, p.commit(ctx, txx)
}

func (p *Postgres) UpdateProgress(ctx context.Context, playerUUID string, update func(*domain.Progress) error) (domain.Progress, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.UpdateProgress")
	defer span.End()

	txx, err := p.begin(ctx)
	if err != nil {
		return domain.Progress{}, err
	}
	defer txx.Rollback()

	before, err := p.loadProgress(ctx, txx, playerUUID, true)
	if err != nil {
		return domain.Progress{}, err
	}

	updated := before.Clone()
	err = update(&updated)
	if err != nil {
		return domain.Progress{}, err
	}

	err = p.storeProgress(ctx, txx, before, updated)
	if err != nil {
		return domain.Progress{}, err
	}

	err = p.commit(ctx, txx)
	if err != nil {
		return domain.Progress{}, err
	}

	return updated, nil
}

func (p *Postgres) RecordStepSync(
	ctx context.Context,
	playerUUID string,
	event domain.StepSyncEvent,
	apply func(*domain.Progress) (domain.Resources, error),
) (domain.Progress, domain.Resources, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.RecordStepSync")
	defer span.End()

	txx, err := p.begin(ctx)
	if err != nil {
		return domain.Progress{}, domain.Resources{}, err
	}
	defer txx.Rollback()

	// Lock the player before claiming the event id so concurrent retries of the same event wait for each other
	before, err := p.loadProgress(ctx, txx, playerUUID, true)
	if err != nil {
		return domain.Progress{}, domain.Resources{}, err
	}

	result, err := txx.ExecContext(
		ctx,
		`INSERT INTO step_sync_events
		(player_uuid, event_id, steps, recorded_at, synced_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (player_uuid, event_id) DO NOTHING`,
		playerUUID,
		event.EventID,
		event.Steps,
		event.RecordedAt,
	)
	if err != nil {
		err := fmt.Errorf("failed to insert step sync event: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"uuid":    playerUUID,
			"eventID": event.EventID,
		})
		return domain.Progress{}, domain.Resources{}, err
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		err := fmt.Errorf("failed to get rows affected: %w", err)
		reporting.Report(ctx, err)
		return domain.Progress{}, domain.Resources{}, err
	}
	if inserted == 0 {
		return before, domain.Resources{}, fmt.Errorf("%w: %s", domain.ErrDuplicateSyncEvent, event.EventID)
	}

	updated := before.Clone()
	granted, err := apply(&updated)
	if err != nil {
		return domain.Progress{}, domain.Resources{}, err
	}

	_, err = txx.ExecContext(
		ctx,
		`UPDATE step_sync_events SET
			synced_at = $3,
			cells_granted = $4,
			experience_granted = $5
		WHERE player_uuid = $1 AND event_id = $2`,
		playerUUID,
		event.EventID,
		updated.UpdatedAt,
		granted.Cells,
		granted.ExperiencePoints,
	)
	if err != nil {
		err := fmt.Errorf("failed to store granted resources for step sync event: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"uuid":    playerUUID,
			"eventID": event.EventID,
		})
		return domain.Progress{}, domain.Resources{}, err
	}

	err = p.storeProgress(ctx, txx, before, updated)
	if err != nil {
		return domain.Progress{}, domain.Resources{}, err
	}

	err = p.commit(ctx, txx)
	if err != nil {
		return domain.Progress{}, domain.Resources{}, err
	}

	return updated, granted, nil
}
