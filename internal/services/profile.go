package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"house-swap-app/internal/models"
	"house-swap-app/internal/utils"

	"github.com/biter777/countries"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type UpdateProfileInput struct {
	Bio                   *string `json:"bio" validate:"omitempty,max=2000"`
	Location              *string `json:"location" validate:"omitempty,max=100"`
	HouseDescription      *string `json:"house_description" validate:"omitempty,max=4000"`
	PreferredDestinations *string `json:"preferred_destinations" validate:"omitempty,max=500"`
	AvailableDates        *string `json:"available_dates" validate:"omitempty,max=100"`
	IsVisible             *bool   `json:"is_visible"`
	Pets                  *bool   `json:"pets"`
	Pool                  *bool   `json:"pool"`
	Bedrooms              *bool   `json:"bedrooms"`
	Beach                 *bool   `json:"beach"`
	Mountains             *bool   `json:"mountains"`
	City                  *bool   `json:"city"`
	Rural                 *bool   `json:"rural"`
}

// ImageUpload is one file as received from the client.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type ImagePolicy struct {
	MaxFileSize  int64
	MaxImages    int
	AllowedTypes []string
}

// ProfileView is everything the profile page shows to a given viewer.
type ProfileView struct {
	Profile        models.Profile         `json:"profile"`
	Username       string                 `json:"username"`
	Reviews        []models.Review        `json:"reviews"`
	AverageRating  *float64               `json:"average_rating"`
	IsMatched      bool                   `json:"is_matched"`
	IsOwner        bool                   `json:"is_owner"`
	CurrentBooking *models.BookingRequest `json:"current_booking,omitempty"`
	BookingDates   *utils.DateRange       `json:"booking_dates,omitempty"`
	Availability   *utils.DateRange       `json:"availability,omitempty"`
}

type ProfileService struct {
	db       *gorm.DB
	matches  *MatchService
	bookings *BookingService
	reviews  *ReviewService
	images   ImageStore
	policy   ImagePolicy
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewProfileService(db *gorm.DB, matches *MatchService, bookings *BookingService, reviews *ReviewService, log logrus.FieldLogger) *ProfileService {
	return &ProfileService{
		db:       db,
		matches:  matches,
		bookings: bookings,
		reviews:  reviews,
		log:      log,
		now:      time.Now,
	}
}

// AttachImageStore enables the house image gallery.
func (s *ProfileService) AttachImageStore(store ImageStore, policy ImagePolicy) {
	s.images = store
	s.policy = policy
}

// NormalizeLocation maps recognizable country names and codes to ISO 3166-1
// alpha-2. Anything else is returned trimmed but otherwise untouched.
func NormalizeLocation(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	code := countries.ByName(value)
	if code == countries.Unknown || !code.IsValid() {
		return value
	}
	return code.Alpha2()
}

// GetOrCreate returns the user's profile, creating a visible empty one on
// first access. Concurrent first visits converge on the unique user index.
func (s *ProfileService) GetOrCreate(ctx context.Context, userID uint) (*models.Profile, error) {
	db := s.db.WithContext(ctx)

	profile, err := s.byUser(db, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, ErrProfileNotFound) {
		return nil, err
	}

	var user models.User
	if err := db.Select("id").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	created := models.Profile{UserID: userID, IsVisible: true}
	if err := db.Create(&created).Error; err != nil {
		if isUniqueViolation(err) {
			return s.byUser(db, userID)
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	created.HouseImages = []models.HouseImage{}
	return &created, nil
}

// Update applies the non-nil fields of input.
func (s *ProfileService) Update(ctx context.Context, userID uint, input UpdateProfileInput) (*models.Profile, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	profile, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	setBool := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}

	setString(&profile.Bio, input.Bio)
	setString(&profile.HouseDescription, input.HouseDescription)
	setString(&profile.PreferredDestinations, input.PreferredDestinations)
	setString(&profile.AvailableDates, input.AvailableDates)
	if input.Location != nil {
		profile.Location = NormalizeLocation(*input.Location)
	}
	setBool(&profile.IsVisible, input.IsVisible)
	setBool(&profile.Pets, input.Pets)
	setBool(&profile.Pool, input.Pool)
	setBool(&profile.Bedrooms, input.Bedrooms)
	setBool(&profile.Beach, input.Beach)
	setBool(&profile.Mountains, input.Mountains)
	setBool(&profile.City, input.City)
	setBool(&profile.Rural, input.Rural)

	// Omit the association so Save does not rewrite image rows.
	if err := s.db.WithContext(ctx).Omit("HouseImages").Save(profile).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return profile, nil
}

// View builds the profile page of userID as seen by viewerID. Hidden
// profiles are only visible to their owner.
func (s *ProfileService) View(ctx context.Context, viewerID, userID uint) (*ProfileView, error) {
	db := s.db.WithContext(ctx)

	profile, err := s.byUser(db, userID)
	if err != nil {
		return nil, err
	}
	isOwner := viewerID == userID
	if !profile.IsVisible && !isOwner {
		return nil, ErrProfileNotFound
	}

	view := &ProfileView{
		Profile:      *profile,
		Username:     usernames(ctx, s.db, userID)[userID],
		IsOwner:      isOwner,
		Availability: utils.ParseDateRange(profile.AvailableDates),
	}

	if view.Reviews, err = s.reviews.ListFor(ctx, userID); err != nil {
		return nil, err
	}
	if view.AverageRating, err = s.reviews.AverageRating(ctx, userID); err != nil {
		return nil, err
	}

	if !isOwner {
		if view.IsMatched, err = s.matches.IsMatched(ctx, viewerID, userID); err != nil {
			return nil, err
		}
		if view.CurrentBooking, err = s.bookings.GetCurrent(ctx, viewerID, userID); err != nil {
			return nil, err
		}
		if view.CurrentBooking != nil {
			view.BookingDates = utils.ParseDateRange(view.CurrentBooking.RequestedDates)
		}
	}

	return view, nil
}

// AddImage stores an uploaded house image. The first image of a gallery
// becomes its main image.
func (s *ProfileService) AddImage(ctx context.Context, userID uint, upload ImageUpload) (*models.HouseImage, error) {
	if s.images == nil {
		return nil, errors.New("image storage is not configured")
	}
	if err := s.checkUpload(upload); err != nil {
		return nil, err
	}

	profile, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.HouseImage{}).Where("profile_id = ?", profile.ID).Count(&count).Error; err != nil {
		return nil, err
	}
	if s.policy.MaxImages > 0 && int(count) >= s.policy.MaxImages {
		return nil, ErrImageLimit
	}

	url, err := s.images.Upload(ctx, upload.Body, upload.Size, upload.Filename, upload.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	image := models.HouseImage{
		ProfileID: profile.ID,
		URL:       url,
		IsMain:    count == 0,
		CreatedAt: s.now(),
	}
	if err := db.Create(&image).Error; err != nil {
		s.removeObject(ctx, url)
		return nil, fmt.Errorf("failed to save image: %w", err)
	}
	return &image, nil
}

// SetMainImage makes imageID the only main image of the owner's gallery.
func (s *ProfileService) SetMainImage(ctx context.Context, userID, imageID uint) (*models.HouseImage, error) {
	image, profile, err := s.ownedImage(ctx, userID, imageID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.HouseImage{}).
			Where("profile_id = ? AND id <> ?", profile.ID, image.ID).
			Update("is_main", false).Error; err != nil {
			return err
		}
		return tx.Model(image).Update("is_main", true).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set main image: %w", err)
	}
	image.IsMain = true
	return image, nil
}

// DeleteImage removes one of the owner's images. Deleting the main image
// promotes the oldest remaining one.
func (s *ProfileService) DeleteImage(ctx context.Context, userID, imageID uint) error {
	image, profile, err := s.ownedImage(ctx, userID, imageID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(image).Error; err != nil {
			return err
		}
		if !image.IsMain {
			return nil
		}

		var next models.HouseImage
		err := tx.Where("profile_id = ?", profile.ID).Order("created_at ASC").Order("id ASC").Take(&next).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return tx.Model(&next).Update("is_main", true).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}

	s.removeObject(ctx, image.URL)
	return nil
}

// DeleteAccount removes the user after a password check, together with
// everything that references them.
func (s *ProfileService) DeleteAccount(ctx context.Context, userID uint, password string) error {
	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	ok, err := utils.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		return ErrWrongPassword
	}

	var urls []string
	err = db.Transaction(func(tx *gorm.DB) error {
		var profile models.Profile
		err := tx.Where("user_id = ?", userID).Take(&profile).Error
		switch {
		case err == nil:
			if err := tx.Model(&models.HouseImage{}).Where("profile_id = ?", profile.ID).Pluck("url", &urls).Error; err != nil {
				return err
			}
			if err := tx.Where("profile_id = ?", profile.ID).Delete(&models.HouseImage{}).Error; err != nil {
				return err
			}
			if err := tx.Where("to_profile_id = ?", profile.ID).Delete(&models.MatchResponse{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&profile).Error; err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		cleanup := []struct {
			model interface{}
			where string
		}{
			{&models.MatchResponse{}, "from_user_id = ?"},
			{&models.MatchAnnouncement{}, "user_low_id = ? OR user_high_id = ?"},
			{&models.BookingRequest{}, "sender_id = ? OR recipient_id = ?"},
			{&models.Review{}, "reviewer_id = ? OR reviewee_id = ?"},
			{&models.Message{}, "sender_id = ? OR recipient_id = ?"},
			{&models.Notification{}, "user_id = ?"},
		}
		for _, c := range cleanup {
			args := []interface{}{userID}
			if strings.Contains(c.where, " OR ") {
				args = append(args, userID)
			}
			if err := tx.Where(c.where, args...).Delete(c.model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	for _, url := range urls {
		s.removeObject(ctx, url)
	}
	s.log.WithField("user_id", userID).Info("account deleted")
	return nil
}

func (s *ProfileService) checkUpload(upload ImageUpload) error {
	if upload.Body == nil || upload.Size <= 0 {
		return fmt.Errorf("%w: image file is required", ErrValidation)
	}
	if s.policy.MaxFileSize > 0 && upload.Size > s.policy.MaxFileSize {
		return fmt.Errorf("%w: image exceeds %d bytes", ErrValidation, s.policy.MaxFileSize)
	}
	if len(s.policy.AllowedTypes) > 0 {
		contentType := strings.ToLower(strings.TrimSpace(upload.ContentType))
		for _, allowed := range s.policy.AllowedTypes {
			if contentType == allowed {
				return nil
			}
		}
		return fmt.Errorf("%w: only JPEG and PNG images are accepted", ErrValidation)
	}
	return nil
}

func (s *ProfileService) ownedImage(ctx context.Context, userID, imageID uint) (*models.HouseImage, *models.Profile, error) {
	db := s.db.WithContext(ctx)

	var image models.HouseImage
	if err := db.First(&image, imageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrImageNotFound
		}
		return nil, nil, err
	}

	profile, err := s.byUser(db, userID)
	if errors.Is(err, ErrProfileNotFound) {
		return nil, nil, ErrNotImageOwner
	}
	if err != nil {
		return nil, nil, err
	}
	if image.ProfileID != profile.ID {
		return nil, nil, ErrNotImageOwner
	}
	return &image, profile, nil
}

func (s *ProfileService) removeObject(ctx context.Context, url string) {
	if s.images == nil {
		return
	}
	if err := s.images.Delete(ctx, url); err != nil {
		s.log.WithError(err).WithField("url", url).Warn("failed to remove stored image")
	}
}

func (s *ProfileService) byUser(db *gorm.DB, userID uint) (*models.Profile, error) {
	var profile models.Profile
	err := db.Preload("HouseImages", func(q *gorm.DB) *gorm.DB {
		return q.Order("created_at ASC").Order("id ASC")
	}).Where("user_id = ?", userID).Take(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
