package usecase

import "context"

// External verification capabilities injected into the wizard flows. All
// calls are synchronous request/response; callers treat failures as
// recoverable for the current step only.

// NicknameVerifier checks a game nickname against the public player index
// and returns its canonical casing.
type NicknameVerifier interface {
	LookupNickname(ctx context.Context, nickname string) (exists bool, canonical string, err error)
}

// MemberDirectory resolves discord handles on the tournament server.
type MemberDirectory interface {
	// ResolveMemberID returns the member id for a handle, or "" when the
	// handle is not on the server.
	ResolveMemberID(ctx context.Context, handle string) (string, error)
	IsMember(ctx context.Context, memberID string) (bool, error)
}

// SubscriptionChecker reports whether a user is subscribed to the
// announcement channel.
type SubscriptionChecker interface {
	IsSubscribed(ctx context.Context, telegramID int64) (bool, error)
}

// TelegramResolver maps a telegram handle to a user id. Optional: without it
// added players keep a zero telegram id until they interact with the bot.
type TelegramResolver interface {
	ResolveUserID(ctx context.Context, handle string) (int64, error)
}
