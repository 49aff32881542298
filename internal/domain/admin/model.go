package admin

import (
	"errors"
	"time"
)

var ErrAlreadyAdmin = errors.New("user is already an admin")

type Admin struct {
	TelegramID  int64
	DisplayName string
	AddedAt     time.Time
}
