// Package policy holds the per-turn decision functions the orchestrator
// consults: name spacing, returning-user greetings, content validation,
// filler selection, trending-topic counters, and emotion framing. Each
// function is independent and reads or writes session fields only
// through its arguments.
package policy

import (
	"time"

	"github.com/lostlondon/vicd/internal/session"
)

// nameSpacingTurns is how many turns must pass after the name was last
// spoken before it may be used again.
const nameSpacingTurns = 3

// ShouldUseName reports whether a query turn should address the user by
// name: only once enough turns have passed since the name was last
// spoken. Greeting turns speak the name themselves, so the spacing gate
// holds for any turn sequence, greeted or not.
func ShouldUseName(c session.Context) bool {
	if c.UserName == "" {
		return false
	}
	return c.TurnsSinceNameUsed >= nameSpacingTurns
}

// MarkNameUsed records that the name was spoken this turn.
func MarkNameUsed(c *session.Context) {
	c.TurnsSinceNameUsed = 0
}

// TurnWithoutName records a turn where the name was not spoken. The
// counter never goes negative.
func TurnWithoutName(c *session.Context) {
	if c.TurnsSinceNameUsed < 0 {
		c.TurnsSinceNameUsed = 0
	}
	c.TurnsSinceNameUsed++
}

// IsReturningUser reports whether enough time has passed since the last
// interaction to greet the user as returning. A zero last-interaction
// time means a brand-new session, never a returning one.
func IsReturningUser(now, last time.Time, after time.Duration) bool {
	if last.IsZero() {
		return false
	}
	return now.Sub(last) >= after
}
