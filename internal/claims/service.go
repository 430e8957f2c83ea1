package claims

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

var (
	ErrSpeakerClaimed  = errors.New("speaker is already claimed")
	ErrAccountHasClaim = errors.New("account already claims a speaker")
)

// Service is the speaker claim registry: each speaker record may be linked
// to exactly one external identity account, and each account may claim at
// most one speaker. Authentication happens upstream; only verified account
// ids reach this layer.
type Service struct {
	db     *pgxpool.Pool
	logger *logrus.Logger
}

func NewService(db *pgxpool.Pool, logger *logrus.Logger) *Service {
	return &Service{db: db, logger: logger}
}

func (s *Service) EnsureSchema(ctx context.Context) error {
	createQuery := `
	CREATE TABLE IF NOT EXISTS speaker_claims (
		account_id TEXT PRIMARY KEY,
		speaker_id TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL
	)
	`

	_, err := s.db.Exec(ctx, createQuery)
	if err != nil {
		return fmt.Errorf("failed to create speaker_claims table: %w", err)
	}
	return nil
}

// Claim links speakerID to accountID. Both uniqueness directions are
// checked before the insert; the unique constraints back them up against
// concurrent claims.
func (s *Service) Claim(ctx context.Context, accountID, speakerID string) error {
	if accountID == "" {
		return fmt.Errorf("account ID cannot be empty")
	}
	if speakerID == "" {
		return fmt.Errorf("speaker ID cannot be empty")
	}

	s.logger.WithFields(logrus.Fields{
		"account_id": accountID,
		"speaker_id": speakerID,
	}).Info("Claiming speaker profile...")

	var speakerTaken bool
	err := s.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM speaker_claims WHERE speaker_id = $1)", speakerID).Scan(&speakerTaken)
	if err != nil {
		return fmt.Errorf("failed to check speaker claim: %w", err)
	}
	if speakerTaken {
		return ErrSpeakerClaimed
	}

	var accountHasClaim bool
	err = s.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM speaker_claims WHERE account_id = $1)", accountID).Scan(&accountHasClaim)
	if err != nil {
		return fmt.Errorf("failed to check account claim: %w", err)
	}
	if accountHasClaim {
		return ErrAccountHasClaim
	}

	insertQuery := `
	INSERT INTO speaker_claims (account_id, speaker_id, created_at)
	VALUES ($1, $2, $3)
	`

	_, err = s.db.Exec(ctx, insertQuery, accountID, speakerID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to create claim: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"account_id": accountID,
		"speaker_id": speakerID,
	}).Info("Speaker profile claimed")

	return nil
}

// Release removes the account's claim, if any.
func (s *Service) Release(ctx context.Context, accountID string) error {
	deleteQuery := `
	DELETE FROM speaker_claims
	WHERE account_id = $1
	`

	_, err := s.db.Exec(ctx, deleteQuery, accountID)
	if err != nil {
		return fmt.Errorf("failed to release claim: %w", err)
	}
	return nil
}

// ClaimedSpeakerIDs lists every claimed speaker id, used to hide already
// claimed profiles from the claim picker.
func (s *Service) ClaimedSpeakerIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, "SELECT speaker_id FROM speaker_claims ORDER BY speaker_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query claims: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan claim row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating claim rows: %w", err)
	}
	return ids, nil
}

// SpeakerFor returns the speaker id claimed by the account, or "" if none.
func (s *Service) SpeakerFor(ctx context.Context, accountID string) (string, error) {
	var speakerID string
	err := s.db.QueryRow(ctx, "SELECT speaker_id FROM speaker_claims WHERE account_id = $1", accountID).Scan(&speakerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up claim: %w", err)
	}
	return speakerID, nil
}
