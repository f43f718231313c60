package domain

import "errors"

// Domain errors
var (
	ErrProfileNotFound   = errors.New("profile document not found")
	ErrNotSignedIn       = errors.New("no authenticated user")
	ErrNameTaken         = errors.New("username already reserved")
	ErrInsufficientCoins = errors.New("not enough coins")
	ErrSkinAlreadyOwned  = errors.New("skin already unlocked")
	ErrSkinLocked        = errors.New("skin not unlocked")
	ErrLevelOutOfRange   = errors.New("level index out of range")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrInternalError     = errors.New("internal server error")
)

// IsRejection checks if an error is a logical rejection rather than an
// I/O failure; rejections are surfaced to callers, never fatal.
func IsRejection(err error) bool {
	return errors.Is(err, ErrNameTaken) ||
		errors.Is(err, ErrInsufficientCoins) ||
		errors.Is(err, ErrSkinAlreadyOwned) ||
		errors.Is(err, ErrSkinLocked) ||
		errors.Is(err, ErrLevelOutOfRange)
}
