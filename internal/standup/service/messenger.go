package service

import "context"

// Messenger is the boundary to the external chat platform. Both calls are
// fire-and-report: a failure is returned to the caller for logging and the
// next job tick is the retry mechanism.
type Messenger interface {
	PostToChannel(ctx context.Context, channelID, text string) error
	PostDirect(ctx context.Context, platformUserID, text string) error
}
