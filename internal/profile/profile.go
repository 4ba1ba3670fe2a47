package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"campus-chat/internal/db"
	"campus-chat/internal/logging"
	"campus-chat/internal/logic"
	"campus-chat/internal/models"
)

var (
	// ErrNotFound is returned for an unknown user
	ErrNotFound = errors.New("profile not found")
	// ErrInvalidProfile is returned when an update would leave the profile without a name
	ErrInvalidProfile = errors.New("invalid profile")
)

// ImageGenerator draws an image for a text prompt and returns it as a data URL
type ImageGenerator interface {
	GenerateAvatar(ctx context.Context, prompt string) (string, error)
}

// Store is the persistence the profile service needs
type Store interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	UpsertProfile(ctx context.Context, p models.Profile) error
}

// Update is a partial profile edit. Nil fields are left unchanged.
type Update struct {
	Name *string   `json:"name"`
	Bio  *string   `json:"bio"`
	Tags *[]string `json:"tags"`
}

// AvatarResult reports the outcome of an avatar regeneration
type AvatarResult struct {
	Profile   models.Profile `json:"profile"`
	Generated bool           `json:"generated"`
}

// Service edits profiles and regenerates avatars from interest tags
type Service struct {
	store  Store
	images ImageGenerator
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a profile service. A nil images generator disables avatar generation.
func NewService(store Store, images ImageGenerator, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		images: images,
		logger: logging.Named(logger, "profile"),
		now:    time.Now,
	}
}

// Get returns a user's profile
func (s *Service) Get(ctx context.Context, userID string) (models.Profile, error) {
	p, err := s.store.GetProfile(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return models.Profile{}, fmt.Errorf("%w: %s", ErrNotFound, userID)
	}
	if err != nil {
		return models.Profile{}, err
	}
	return *p, nil
}

// Update applies a partial edit. Tags are normalized.
func (s *Service) Update(ctx context.Context, userID string, u Update) (models.Profile, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return models.Profile{}, err
	}

	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return models.Profile{}, fmt.Errorf("%w: name is required", ErrInvalidProfile)
		}
		p.Name = name
	}
	if u.Bio != nil {
		p.Bio = strings.TrimSpace(*u.Bio)
	}
	if u.Tags != nil {
		p.Tags = logic.NormalizeTags(*u.Tags)
	}
	p.UpdatedAt = s.now()

	if err := s.store.UpsertProfile(ctx, p); err != nil {
		return models.Profile{}, err
	}
	s.logger.Info("Profile updated", zap.String("user_id", userID), zap.Int("tags", len(p.Tags)))
	return p, nil
}

// RegenerateAvatar draws a new avatar from the user's tags. Any generation
// failure keeps the previous avatar and reports Generated=false.
func (s *Service) RegenerateAvatar(ctx context.Context, userID string) (AvatarResult, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return AvatarResult{}, err
	}

	if len(p.Tags) == 0 || s.images == nil {
		s.logger.Info("Avatar generation skipped", zap.String("user_id", userID), zap.Int("tags", len(p.Tags)))
		return AvatarResult{Profile: p}, nil
	}

	url, err := s.images.GenerateAvatar(ctx, logic.BuildAvatarPrompt(p.Tags))
	if err != nil || url == "" {
		s.logger.Warn("Avatar generation failed, keeping previous avatar",
			zap.String("user_id", userID),
			zap.Error(err))
		return AvatarResult{Profile: p}, nil
	}

	p.Avatar = url
	p.UpdatedAt = s.now()
	if err := s.store.UpsertProfile(ctx, p); err != nil {
		return AvatarResult{}, err
	}

	s.logger.Info("Avatar generated", zap.String("user_id", userID))
	return AvatarResult{Profile: p, Generated: true}, nil
}
