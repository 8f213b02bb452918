package preference

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"digimess/internal/menu"
	preferencedb "digimess/internal/preference/preference_db"
)

// Repository is a SQLite-backed Provider.
type Repository struct {
	queries *preferencedb.Queries
	db      *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		queries: preferencedb.New(db),
		db:      db,
	}
}

// ForUser scopes the repository to a single user.
func (r *Repository) ForUser(userID string) Store {
	return &userStore{repo: r, userID: userID}
}

type userStore struct {
	repo   *Repository
	userID string
}

func (s *userStore) PreferenceForCycle(ctx context.Context, cycle string) (menu.Category, bool, error) {
	cat, err := s.repo.queries.GetPreference(ctx, preferencedb.GetPreferenceParams{
		UserID:    s.userID,
		CycleName: cycle,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get preference for cycle %q: %w", cycle, err)
	}
	return menu.Category(cat), true, nil
}

func (s *userStore) SetPreferenceForCycle(ctx context.Context, cycle string, category menu.Category) error {
	err := s.repo.queries.UpsertPreference(ctx, preferencedb.UpsertPreferenceParams{
		UserID:    s.userID,
		CycleName: cycle,
		Category:  string(category),
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to save preference for cycle %q: %w", cycle, err)
	}
	return nil
}

func (s *userStore) AllPreferences(ctx context.Context) (map[string]menu.Category, error) {
	rows, err := s.repo.queries.ListPreferences(ctx, s.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list preferences: %w", err)
	}
	out := make(map[string]menu.Category, len(rows))
	for _, row := range rows {
		out[row.CycleName] = menu.Category(row.Category)
	}
	return out, nil
}

// ClearAll removes the user's preferences and state in one transaction.
func (s *userStore) ClearAll(ctx context.Context) error {
	tx, err := s.repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := s.repo.queries.WithTx(tx)
	if err := q.DeletePreferences(ctx, s.userID); err != nil {
		return fmt.Errorf("failed to delete preferences: %w", err)
	}
	if err := q.DeleteUserState(ctx, s.userID); err != nil {
		return fmt.Errorf("failed to delete user state: %w", err)
	}
	return tx.Commit()
}

func (s *userStore) state(ctx context.Context) (*preferencedb.UserState, error) {
	st, err := s.repo.queries.GetUserState(ctx, s.userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user state: %w", err)
	}
	return &st, nil
}

func (s *userStore) SetupComplete(ctx context.Context) (bool, error) {
	st, err := s.state(ctx)
	if err != nil || st == nil {
		return false, err
	}
	return st.SetupComplete, nil
}

func (s *userStore) MarkSetupComplete(ctx context.Context) error {
	err := s.repo.queries.MarkSetupComplete(ctx, preferencedb.MarkSetupCompleteParams{
		UserID:    s.userID,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to mark setup complete: %w", err)
	}
	return nil
}

func (s *userStore) LastSeenCycle(ctx context.Context) (string, error) {
	st, err := s.state(ctx)
	if err != nil || st == nil {
		return "", err
	}
	return st.LastSeenCycle, nil
}

func (s *userStore) SetLastSeenCycle(ctx context.Context, name string) error {
	err := s.repo.queries.SetLastSeenCycle(ctx, preferencedb.SetLastSeenCycleParams{
		UserID:        s.userID,
		LastSeenCycle: name,
		UpdatedAt:     time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to save last seen cycle: %w", err)
	}
	return nil
}
