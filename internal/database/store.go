package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Store defines the interface for database operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// GetUserProfile retrieves a user profile by user ID. Returns nil, nil if not found.
	GetUserProfile(ctx context.Context, userID string) (*UserProfile, error)

	// GetAllUserProfiles retrieves all user profiles.
	GetAllUserProfiles(ctx context.Context) ([]*UserProfile, error)

	// SaveUserProfile inserts or updates a user profile keyed by UserID.
	SaveUserProfile(ctx context.Context, profile *UserProfile) error

	// GetOnboardingState retrieves a sender's onboarding state. Returns nil, nil if not found.
	GetOnboardingState(ctx context.Context, userID string) (*OnboardingState, error)

	// CreateOnboardingState inserts a new onboarding state row.
	CreateOnboardingState(ctx context.Context, state *OnboardingState) error

	// UpdateOnboardingState persists step, partial profile, and accumulated messages.
	UpdateOnboardingState(ctx context.Context, state *OnboardingState) error

	// DeleteOnboardingState removes a sender's onboarding state if present.
	DeleteOnboardingState(ctx context.Context, userID string) error

	// MaterializeProfile saves the profile and deletes the sender's onboarding
	// state in a single transaction, so the state never outlives nor precedes
	// the profile it produced.
	MaterializeProfile(ctx context.Context, profile *UserProfile) error

	// AppendConversationMessage appends one message to the user's active
	// conversation, archiving the oldest messages once the log exceeds maxHistory.
	AppendConversationMessage(ctx context.Context, userID, sender, content string, maxHistory int) error

	// GetConversation retrieves a user's active conversation. Returns nil, nil if not found.
	GetConversation(ctx context.Context, userID string) (*Conversation, error)

	// ListOpportunities retrieves all opportunities with a non-empty embedding.
	ListOpportunities(ctx context.Context) ([]*Opportunity, error)

	// ListOpportunitiesMissingEmbedding retrieves opportunities whose
	// embedding has not been computed yet.
	ListOpportunitiesMissingEmbedding(ctx context.Context) ([]*Opportunity, error)

	// SaveOpportunity inserts or updates an opportunity by ID.
	SaveOpportunity(ctx context.Context, opp *Opportunity) error

	// RecordRecommendation inserts a recommendation row.
	RecordRecommendation(ctx context.Context, rec *Recommendation) error

	// ListRecentRecommendationIDs returns opportunity IDs recommended to the
	// user since the given time, used to avoid repeating recommendations.
	ListRecentRecommendationIDs(ctx context.Context, userID string, since time.Time) ([]string, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const profileColumns = `id, created_at, updated_at, user_id, username, location, timezone, bio,
    education, occupation, interests, skills, current_projects, goals, embedding`

// GetUserProfile retrieves a user profile by user ID. Returns nil, nil if not found.
func (s *sqlxStore) GetUserProfile(ctx context.Context, userID string) (*UserProfile, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id cannot be empty")
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var profile UserProfile
	query := `SELECT ` + profileColumns + ` FROM user_profiles WHERE user_id = ?`

	err := s.db.GetContext(ctx, &profile, query, userID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "No user profile found", "user_id", userID)
		return nil, nil

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching user profile",
			"user_id", userID, "error", err)
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting user profile by ID", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get user profile for user %s: %w", userID, err)
	}

	return &profile, nil
}

// GetAllUserProfiles retrieves all user profiles.
func (s *sqlxStore) GetAllUserProfiles(ctx context.Context) ([]*UserProfile, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var profiles []*UserProfile
	query := `SELECT ` + profileColumns + ` FROM user_profiles ORDER BY user_id`

	if err := s.db.SelectContext(ctx, &profiles, query); err != nil {
		s.logger.ErrorContext(ctx, "Error getting all user profiles", "error", err)
		return nil, fmt.Errorf("failed to get all user profiles: %w", err)
	}

	s.logger.DebugContext(ctx, "Fetched all user profiles", "count", len(profiles))
	return profiles, nil
}

// SaveUserProfile inserts or updates a user profile based on UserID.
func (s *sqlxStore) SaveUserProfile(ctx context.Context, profile *UserProfile) error {
	if profile == nil {
		return fmt.Errorf("cannot save nil user profile")
	}
	if profile.UserID == "" {
		return fmt.Errorf("profile must have a non-empty user_id")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for saving user profile",
			"user_id", profile.UserID, "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
			}
		}
	}()

	if err := upsertProfileTx(ctx, tx, profile); err != nil {
		s.logger.ErrorContext(ctx, "Error saving user profile", "user_id", profile.UserID, "error", err)
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction", "user_id", profile.UserID, "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.DebugContext(ctx, "User profile saved successfully", "user_id", profile.UserID)
	return nil
}

// upsertProfileTx inserts or updates a profile within an open transaction.
func upsertProfileTx(ctx context.Context, tx *sqlx.Tx, profile *UserProfile) error {
	now := time.Now().UTC()
	profile.UpdatedAt = now
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}

	var exists bool
	err := tx.GetContext(ctx, &exists,
		`SELECT 1 FROM user_profiles WHERE user_id = ? LIMIT 1`, profile.UserID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to check if profile exists for user %s: %w", profile.UserID, err)
	}

	var result sql.Result
	if exists {
		query := `
			UPDATE user_profiles SET
				username = :username,
				location = :location,
				timezone = :timezone,
				bio = :bio,
				education = :education,
				occupation = :occupation,
				interests = :interests,
				skills = :skills,
				current_projects = :current_projects,
				goals = :goals,
				embedding = :embedding,
				updated_at = :updated_at
			WHERE user_id = :user_id
		`
		result, err = tx.NamedExecContext(ctx, query, profile)
	} else {
		query := `
			INSERT INTO user_profiles (
				user_id, username, location, timezone, bio, education, occupation,
				interests, skills, current_projects, goals, embedding,
				created_at, updated_at
			) VALUES (
				:user_id, :username, :location, :timezone, :bio, :education, :occupation,
				:interests, :skills, :current_projects, :goals, :embedding,
				:created_at, :updated_at
			)
		`
		result, err = tx.NamedExecContext(ctx, query, profile)
	}
	if err != nil {
		return fmt.Errorf("failed to save user profile for user %s: %w", profile.UserID, err)
	}

	if !exists {
		if id, idErr := result.LastInsertId(); idErr == nil {
			//nolint:gosec // integer overflow conversion is acceptable here
			profile.ID = uint(id)
		}
	}
	return nil
}

// GetOnboardingState retrieves a sender's onboarding state. Returns nil, nil if not found.
func (s *sqlxStore) GetOnboardingState(ctx context.Context, userID string) (*OnboardingState, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id cannot be empty")
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var state OnboardingState
	query := `SELECT id, created_at, updated_at, user_id, step, partial_profile, accumulated_messages
	          FROM onboarding_states WHERE user_id = ?`

	err := s.db.GetContext(ctx, &state, query, userID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "No onboarding state found", "user_id", userID)
		return nil, nil

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting onboarding state", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get onboarding state for user %s: %w", userID, err)
	}

	return &state, nil
}

// CreateOnboardingState inserts a new onboarding state row.
func (s *sqlxStore) CreateOnboardingState(ctx context.Context, state *OnboardingState) error {
	if state == nil {
		return fmt.Errorf("cannot create nil onboarding state")
	}
	if state.UserID == "" {
		return fmt.Errorf("onboarding state must have a non-empty user_id")
	}

	now := time.Now().UTC()
	state.CreatedAt = now
	state.UpdatedAt = now

	query := `
		INSERT INTO onboarding_states (user_id, step, partial_profile, accumulated_messages, created_at, updated_at)
		VALUES (:user_id, :step, :partial_profile, :accumulated_messages, :created_at, :updated_at)
	`
	result, err := s.db.NamedExecContext(ctx, query, state)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error creating onboarding state", "user_id", state.UserID, "error", err)
		return fmt.Errorf("failed to create onboarding state for user %s: %w", state.UserID, err)
	}

	if id, idErr := result.LastInsertId(); idErr == nil {
		//nolint:gosec // integer overflow conversion is acceptable here
		state.ID = uint(id)
	}

	s.logger.DebugContext(ctx, "Onboarding state created", "user_id", state.UserID)
	return nil
}

// UpdateOnboardingState persists step, partial profile, and accumulated messages.
func (s *sqlxStore) UpdateOnboardingState(ctx context.Context, state *OnboardingState) error {
	if state == nil {
		return fmt.Errorf("cannot update nil onboarding state")
	}
	if state.UserID == "" {
		return fmt.Errorf("onboarding state must have a non-empty user_id")
	}

	state.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE onboarding_states SET
			step = :step,
			partial_profile = :partial_profile,
			accumulated_messages = :accumulated_messages,
			updated_at = :updated_at
		WHERE user_id = :user_id
	`
	result, err := s.db.NamedExecContext(ctx, query, state)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error updating onboarding state", "user_id", state.UserID, "error", err)
		return fmt.Errorf("failed to update onboarding state for user %s: %w", state.UserID, err)
	}

	if affected, affErr := result.RowsAffected(); affErr == nil && affected != 1 {
		s.logger.WarnContext(ctx, "Unexpected number of rows affected when updating onboarding state",
			"user_id", state.UserID, "affected", affected)
	}
	return nil
}

// DeleteOnboardingState removes a sender's onboarding state if present.
func (s *sqlxStore) DeleteOnboardingState(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("user_id cannot be empty")
	}

	_, err := s.db.ExecContext(ctx, `DELETE FROM onboarding_states WHERE user_id = ?`, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting onboarding state", "user_id", userID, "error", err)
		return fmt.Errorf("failed to delete onboarding state for user %s: %w", userID, err)
	}
	return nil
}

// MaterializeProfile saves the profile and deletes the sender's onboarding
// state in a single transaction.
func (s *sqlxStore) MaterializeProfile(ctx context.Context, profile *UserProfile) error {
	if profile == nil {
		return fmt.Errorf("cannot materialize nil profile")
	}
	if profile.UserID == "" {
		return fmt.Errorf("profile must have a non-empty user_id")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for profile materialization",
			"user_id", profile.UserID, "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
			}
		}
	}()

	if err := upsertProfileTx(ctx, tx, profile); err != nil {
		s.logger.ErrorContext(ctx, "Error saving profile during materialization",
			"user_id", profile.UserID, "error", err)
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM onboarding_states WHERE user_id = ?`, profile.UserID); err != nil {
		s.logger.ErrorContext(ctx, "Error deleting onboarding state during materialization",
			"user_id", profile.UserID, "error", err)
		return fmt.Errorf("failed to delete onboarding state for user %s: %w", profile.UserID, err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit profile materialization",
			"user_id", profile.UserID, "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.InfoContext(ctx, "Profile materialized and onboarding state deleted", "user_id", profile.UserID)
	return nil
}

// AppendConversationMessage appends one message to the user's active
// conversation, archiving the oldest messages once the log exceeds maxHistory.
func (s *sqlxStore) AppendConversationMessage(ctx context.Context, userID, sender, content string, maxHistory int) error {
	if userID == "" {
		return fmt.Errorf("user_id cannot be empty")
	}
	if maxHistory <= 0 {
		maxHistory = 50
	}

	now := time.Now().UTC()
	entry := ConversationMessage{Sender: sender, Content: content, Timestamp: now}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for conversation append",
			"user_id", userID, "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
			}
		}
	}()

	var convo Conversation
	err = tx.GetContext(ctx, &convo,
		`SELECT id, user_id, messages, started_at, ended_at FROM conversations WHERE user_id = ?`, userID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		convo = Conversation{
			UserID:    userID,
			Messages:  ConversationMessages{entry},
			StartedAt: now,
			EndedAt:   now,
		}
		_, err = tx.NamedExecContext(ctx,
			`INSERT INTO conversations (user_id, messages, started_at, ended_at)
			 VALUES (:user_id, :messages, :started_at, :ended_at)`, convo)
		if err != nil {
			return fmt.Errorf("failed to create conversation for user %s: %w", userID, err)
		}

	case err != nil:
		return fmt.Errorf("failed to load conversation for user %s: %w", userID, err)

	default:
		convo.Messages = append(convo.Messages, entry)
		convo.EndedAt = now

		if len(convo.Messages) > maxHistory {
			toArchive := convo.Messages[:len(convo.Messages)-maxHistory]
			convo.Messages = convo.Messages[len(convo.Messages)-maxHistory:]

			archive := ConversationArchive{
				ID:        uuid.NewString(),
				UserID:    userID,
				Messages:  append(ConversationMessages(nil), toArchive...),
				StartedAt: convo.StartedAt,
				EndedAt:   now,
			}
			if _, err := tx.NamedExecContext(ctx,
				`INSERT INTO conversation_archives (id, user_id, messages, started_at, ended_at)
				 VALUES (:id, :user_id, :messages, :started_at, :ended_at)`, archive); err != nil {
				return fmt.Errorf("failed to archive conversation overflow for user %s: %w", userID, err)
			}
			s.logger.DebugContext(ctx, "Archived conversation overflow",
				"user_id", userID, "archived", len(toArchive))
		}

		_, err = tx.NamedExecContext(ctx,
			`UPDATE conversations SET messages = :messages, ended_at = :ended_at WHERE user_id = :user_id`, convo)
		if err != nil {
			return fmt.Errorf("failed to update conversation for user %s: %w", userID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit conversation append: %w", err)
	}
	tx = nil

	return nil
}

// GetConversation retrieves a user's active conversation. Returns nil, nil if not found.
func (s *sqlxStore) GetConversation(ctx context.Context, userID string) (*Conversation, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id cannot be empty")
	}

	var convo Conversation
	err := s.db.GetContext(ctx, &convo,
		`SELECT id, user_id, messages, started_at, ended_at FROM conversations WHERE user_id = ?`, userID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting conversation", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get conversation for user %s: %w", userID, err)
	}

	return &convo, nil
}

// ListOpportunities retrieves all opportunities with a non-empty embedding.
func (s *sqlxStore) ListOpportunities(ctx context.Context) ([]*Opportunity, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var opps []*Opportunity
	query := `SELECT id, title, description, type, city, state, deadline, tags, embedding, created_at, updated_at
	          FROM opportunities WHERE embedding != '[]' ORDER BY created_at DESC`

	if err := s.db.SelectContext(ctx, &opps, query); err != nil {
		s.logger.ErrorContext(ctx, "Error listing opportunities", "error", err)
		return nil, fmt.Errorf("failed to list opportunities: %w", err)
	}

	s.logger.DebugContext(ctx, "Fetched opportunities", "count", len(opps))
	return opps, nil
}

// ListOpportunitiesMissingEmbedding retrieves opportunities whose embedding
// has not been computed yet, oldest first so backlog drains in insert order.
func (s *sqlxStore) ListOpportunitiesMissingEmbedding(ctx context.Context) ([]*Opportunity, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var opps []*Opportunity
	query := `SELECT id, title, description, type, city, state, deadline, tags, embedding, created_at, updated_at
	          FROM opportunities WHERE embedding = '[]' ORDER BY created_at ASC, id ASC`

	if err := s.db.SelectContext(ctx, &opps, query); err != nil {
		s.logger.ErrorContext(ctx, "Error listing opportunities missing embeddings", "error", err)
		return nil, fmt.Errorf("failed to list opportunities missing embeddings: %w", err)
	}

	s.logger.DebugContext(ctx, "Fetched opportunities missing embeddings", "count", len(opps))
	return opps, nil
}

// SaveOpportunity inserts or updates an opportunity by ID.
func (s *sqlxStore) SaveOpportunity(ctx context.Context, opp *Opportunity) error {
	if opp == nil {
		return fmt.Errorf("cannot save nil opportunity")
	}
	if opp.ID == "" {
		return fmt.Errorf("opportunity must have a non-empty id")
	}

	now := time.Now().UTC()
	opp.UpdatedAt = now
	if opp.CreatedAt.IsZero() {
		opp.CreatedAt = now
	}

	query := `
		INSERT INTO opportunities (id, title, description, type, city, state, deadline, tags, embedding, created_at, updated_at)
		VALUES (:id, :title, :description, :type, :city, :state, :deadline, :tags, :embedding, :created_at, :updated_at)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			type = excluded.type,
			city = excluded.city,
			state = excluded.state,
			deadline = excluded.deadline,
			tags = excluded.tags,
			embedding = excluded.embedding,
			updated_at = excluded.updated_at
	`
	if _, err := s.db.NamedExecContext(ctx, query, opp); err != nil {
		s.logger.ErrorContext(ctx, "Error saving opportunity", "opportunity_id", opp.ID, "error", err)
		return fmt.Errorf("failed to save opportunity %s: %w", opp.ID, err)
	}
	return nil
}

// RecordRecommendation inserts a recommendation row.
func (s *sqlxStore) RecordRecommendation(ctx context.Context, rec *Recommendation) error {
	if rec == nil {
		return fmt.Errorf("cannot record nil recommendation")
	}
	if rec.UserID == "" || rec.OpportunityID == "" {
		return fmt.Errorf("recommendation must have user_id and opportunity_id")
	}

	if rec.Status == "" {
		rec.Status = "sent"
	}
	rec.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO recommendations (user_id, opportunity_id, score, status, created_at)
		VALUES (:user_id, :opportunity_id, :score, :status, :created_at)
	`
	if _, err := s.db.NamedExecContext(ctx, query, rec); err != nil {
		s.logger.ErrorContext(ctx, "Error recording recommendation",
			"user_id", rec.UserID, "opportunity_id", rec.OpportunityID, "error", err)
		return fmt.Errorf("failed to record recommendation: %w", err)
	}

	s.logger.DebugContext(ctx, "Recommendation recorded",
		"user_id", rec.UserID, "opportunity_id", rec.OpportunityID, "score", rec.Score)
	return nil
}

// ListRecentRecommendationIDs returns opportunity IDs recommended to the user
// since the given time.
func (s *sqlxStore) ListRecentRecommendationIDs(ctx context.Context, userID string, since time.Time) ([]string, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id cannot be empty")
	}

	var ids []string
	query := `SELECT opportunity_id FROM recommendations WHERE user_id = ? AND created_at >= ?`
	if err := s.db.SelectContext(ctx, &ids, query, userID, since.UTC()); err != nil {
		s.logger.ErrorContext(ctx, "Error listing recent recommendations", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list recent recommendations for user %s: %w", userID, err)
	}
	return ids, nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)

	default:
		s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	}

	return nil
}
