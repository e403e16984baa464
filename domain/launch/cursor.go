package launch

import (
	"time"

	"github.com/basewatch/goapi/base/ctx"
	"github.com/basewatch/goapi/domain"
)

// Cursor is the highest block number the watcher has durably recorded. It is
// a best-effort recovery aid seeding the startup backfill, not a
// transactional guarantee; the dedup layer handles at-least-once delivery.
type Cursor struct {
	LastSeenBlock domain.BlockNumber
	UpdatedAt     time.Time
}

type CursorRepo interface {
	// Get returns the persisted cursor, or domain.ErrNotFound on first run.
	Get(ctx.Ctx) (*Cursor, error)
	// Put durably replaces the cursor.
	Put(ctx.Ctx, *Cursor) error
}
