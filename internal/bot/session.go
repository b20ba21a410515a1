package bot

import (
	"time"

	"jobsportal/internal/feed"
)

// session is the feed state of one chat. Bookmarks are not part of it.
type session struct {
	paginator *feed.Paginator
	// shown counts displayable items already sent to the chat.
	shown    int
	lastUsed time.Time
}

func (b *Bot) sessionFor(chatID int64) *session {
	b.sessionsMu.Lock()
	defer b.sessionsMu.Unlock()

	s, ok := b.sessions[chatID]
	if !ok {
		s = &session{paginator: feed.NewPaginator(b.source, b.log.With("chatID", chatID))}
		b.sessions[chatID] = s
	}
	s.lastUsed = b.now()

	return s
}

func (b *Bot) existingSession(chatID int64) (*session, bool) {
	b.sessionsMu.Lock()
	defer b.sessionsMu.Unlock()

	s, ok := b.sessions[chatID]

	return s, ok
}

// PruneSessions drops chats idle for longer than idleFor.
func (b *Bot) PruneSessions(idleFor time.Duration) int {
	cutoff := b.now().Add(-idleFor)

	b.sessionsMu.Lock()
	defer b.sessionsMu.Unlock()

	pruned := 0
	for chatID, s := range b.sessions {
		if s.lastUsed.Before(cutoff) {
			delete(b.sessions, chatID)
			pruned++
		}
	}

	return pruned
}
