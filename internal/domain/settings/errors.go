package settings

import "errors"

var (
	ErrUserNotFound   = errors.New("settings owner not found")
	ErrInvalidSetting = errors.New("invalid setting value")
)
