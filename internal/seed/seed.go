package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"campus-chat/internal/db"
	"campus-chat/internal/logging"
	"campus-chat/internal/models"
)

//go:embed default.yaml
var defaultDataset []byte

// Message is a seeded thread entry. Offset is relative to the load time.
type Message struct {
	ID       string        `yaml:"id"`
	SenderID string        `yaml:"sender_id"`
	Text     string        `yaml:"text"`
	Offset   time.Duration `yaml:"offset"`
	IsAI     bool          `yaml:"is_ai"`
}

// Profile is a seeded user profile
type Profile struct {
	UserID string   `yaml:"user_id"`
	Name   string   `yaml:"name"`
	Email  string   `yaml:"email"`
	Avatar string   `yaml:"avatar"`
	Bio    string   `yaml:"bio"`
	Tags   []string `yaml:"tags"`
}

// Dataset is the startup content of the directory and threads
type Dataset struct {
	Sessions []models.Session     `yaml:"sessions"`
	Threads  map[string][]Message `yaml:"threads"`
	Profiles []Profile            `yaml:"profiles"`
}

// Default returns the embedded demo dataset
func Default() (*Dataset, error) {
	return Parse(defaultDataset)
}

// LoadFile reads a dataset from a YAML file
func LoadFile(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates a YAML dataset
func Parse(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse seed data: %w", err)
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	for i := range ds.Sessions {
		ds.Sessions[i].Position = i
	}
	return &ds, nil
}

// Validate checks the directory invariants: known kinds and statuses, unique
// ids, exactly one AI session which is chat-ai and active, and threads that
// belong to known sessions.
func (ds *Dataset) Validate() error {
	var errs []error
	ids := make(map[string]bool, len(ds.Sessions))
	aiSessions := 0

	for _, s := range ds.Sessions {
		if s.ID == "" {
			errs = append(errs, errors.New("session with empty id"))
			continue
		}
		if ids[s.ID] {
			errs = append(errs, fmt.Errorf("duplicate session id %q", s.ID))
		}
		ids[s.ID] = true
		if !s.Kind.Valid() {
			errs = append(errs, fmt.Errorf("session %q: unknown type %q", s.ID, s.Kind))
		}
		if !s.Status.Valid() {
			errs = append(errs, fmt.Errorf("session %q: unknown status %q", s.ID, s.Status))
		}
		if s.IsAI() {
			aiSessions++
			if s.ID != models.AISessionID || s.Status != models.SessionStatusActive {
				errs = append(errs, fmt.Errorf("ai session must be %q and active, got %q %s", models.AISessionID, s.ID, s.Status))
			}
		}
	}

	if aiSessions != 1 {
		errs = append(errs, fmt.Errorf("expected exactly one ai session, found %d", aiSessions))
	}

	for sessionID, messages := range ds.Threads {
		if !ids[sessionID] {
			errs = append(errs, fmt.Errorf("thread for unknown session %q", sessionID))
		}
		for _, m := range messages {
			if m.Text == "" {
				errs = append(errs, fmt.Errorf("thread %q: message %q has empty text", sessionID, m.ID))
			}
		}
	}

	return errors.Join(errs...)
}

// Apply writes the dataset into the store. Sessions that already exist are
// left alone and their threads are not re-seeded.
func Apply(ctx context.Context, database *db.DB, ds *Dataset, now time.Time, logger *zap.Logger) error {
	logger = logging.Named(logger, "seed")

	for _, s := range ds.Sessions {
		inserted, err := database.InsertSession(ctx, s)
		if err != nil {
			return fmt.Errorf("seed session %s: %w", s.ID, err)
		}
		if !inserted {
			logger.Debug("Session already present", zap.String("session_id", s.ID))
			continue
		}

		for _, m := range ds.Threads[s.ID] {
			msg := models.Message{
				ID:        m.ID,
				SessionID: s.ID,
				SenderID:  m.SenderID,
				Text:      m.Text,
				CreatedAt: now.Add(m.Offset),
				IsAI:      m.IsAI,
			}
			if err := database.InsertMessage(ctx, msg); err != nil {
				return fmt.Errorf("seed message %s: %w", m.ID, err)
			}
		}
	}

	for _, p := range ds.Profiles {
		if _, err := database.GetProfile(ctx, p.UserID); err == nil {
			continue
		} else if !errors.Is(err, db.ErrNotFound) {
			return err
		}
		err := database.UpsertProfile(ctx, models.Profile{
			UserID:    p.UserID,
			Name:      p.Name,
			Email:     p.Email,
			Avatar:    p.Avatar,
			Bio:       p.Bio,
			Tags:      p.Tags,
			UpdatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("seed profile %s: %w", p.UserID, err)
		}
	}

	logger.Info("Seed applied",
		zap.Int("sessions", len(ds.Sessions)),
		zap.Int("threads", len(ds.Threads)),
		zap.Int("profiles", len(ds.Profiles)))
	return nil
}
