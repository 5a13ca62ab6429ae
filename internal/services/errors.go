package services

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
)

var (
	ErrProfileNotFound      = fmt.Errorf("%w: profile", ErrNotFound)
	ErrUserNotFound         = fmt.Errorf("%w: user", ErrNotFound)
	ErrBookingNotFound      = fmt.Errorf("%w: booking", ErrNotFound)
	ErrReviewNotFound       = fmt.Errorf("%w: review", ErrNotFound)
	ErrImageNotFound        = fmt.Errorf("%w: image", ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("%w: notification", ErrNotFound)
	ErrNotParticipant       = fmt.Errorf("%w: not a participant of this booking", ErrForbidden)
	ErrNotMatched           = fmt.Errorf("%w: users are not matched", ErrForbidden)
	ErrNotImageOwner        = fmt.Errorf("%w: image belongs to another profile", ErrForbidden)
	ErrSelfAction           = fmt.Errorf("%w: cannot target yourself", ErrValidation)
	ErrInvalidTransition    = fmt.Errorf("%w: booking can no longer be answered", ErrValidation)
	ErrDuplicateReview      = fmt.Errorf("%w: you already reviewed this user", ErrValidation)
	ErrImageLimit           = fmt.Errorf("%w: house image limit reached", ErrValidation)
	ErrWrongPassword        = fmt.Errorf("%w: password is incorrect", ErrValidation)
	ErrAccountExists        = fmt.Errorf("%w: an account with this email or username already exists", ErrConflict)
	ErrBadCredentials       = errors.New("invalid credentials")
)
