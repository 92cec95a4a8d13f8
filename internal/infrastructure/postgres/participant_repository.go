package postgres

import (
	"context"
	"errors"
	"fmt"
	"tracker-service/internal/domain/entity"
	"tracker-service/internal/domain/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type participantRepository struct {
	pool *pgxpool.Pool
}

// NewParticipantRepository creates a new PostgreSQL participant repository
func NewParticipantRepository(pool *pgxpool.Pool) repository.ParticipantRepository {
	return &participantRepository{pool: pool}
}

func (r *participantRepository) Create(ctx context.Context, participant *entity.Participant) error {
	query := `
		INSERT INTO participants (tracker_id, user_id, emoji, joined_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query,
		participant.TrackerID, participant.UserID, participant.Emoji, participant.JoinedAt,
	)

	if err != nil {
		switch {
		case isUniqueViolation(err, "participants_pkey"):
			return repository.ErrDuplicateParticipant
		case isUniqueViolation(err, "participants_tracker_emoji_key"):
			return repository.ErrDuplicateEmoji
		default:
			return fmt.Errorf("failed to create participant: %w", err)
		}
	}

	return nil
}

func (r *participantRepository) Get(ctx context.Context, trackerID, userID string) (*entity.Participant, error) {
	query := `
		SELECT tracker_id, user_id, emoji, joined_at
		FROM participants
		WHERE tracker_id = $1 AND user_id = $2
	`
	return r.getOne(ctx, query, trackerID, userID)
}

func (r *participantRepository) GetByEmoji(ctx context.Context, trackerID, emoji string) (*entity.Participant, error) {
	query := `
		SELECT tracker_id, user_id, emoji, joined_at
		FROM participants
		WHERE tracker_id = $1 AND emoji = $2
	`
	return r.getOne(ctx, query, trackerID, emoji)
}

func (r *participantRepository) getOne(ctx context.Context, query string, args ...any) (*entity.Participant, error) {
	participant := &entity.Participant{}
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&participant.TrackerID, &participant.UserID, &participant.Emoji, &participant.JoinedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}

	return participant, nil
}

func (r *participantRepository) ListByTracker(ctx context.Context, trackerID string) ([]*entity.Participant, error) {
	query := `
		SELECT tracker_id, user_id, emoji, joined_at
		FROM participants
		WHERE tracker_id = $1
		ORDER BY joined_at, user_id
	`

	rows, err := r.pool.Query(ctx, query, trackerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var participants []*entity.Participant
	for rows.Next() {
		participant := &entity.Participant{}
		if err := rows.Scan(
			&participant.TrackerID, &participant.UserID, &participant.Emoji, &participant.JoinedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, participant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participants: %w", err)
	}

	return participants, nil
}

func (r *participantRepository) CountByTracker(ctx context.Context, trackerID string) (int, error) {
	query := `SELECT COUNT(*) FROM participants WHERE tracker_id = $1`

	var count int
	if err := r.pool.QueryRow(ctx, query, trackerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}

	return count, nil
}

// Remove deletes the participant and their check-ins together
func (r *participantRepository) Remove(ctx context.Context, trackerID, userID string) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		return removeParticipant(ctx, tx, trackerID, userID)
	})
}

func removeParticipant(ctx context.Context, tx pgx.Tx, trackerID, userID string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM checkins WHERE tracker_id = $1 AND user_id = $2`, trackerID, userID); err != nil {
		return fmt.Errorf("failed to delete check-ins: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM participants WHERE tracker_id = $1 AND user_id = $2`, trackerID, userID); err != nil {
		return fmt.Errorf("failed to delete participant: %w", err)
	}
	return nil
}
