package sheets

import (
	"context"
	"errors"
	"sort"

	"clinic-roster/internal/attendance"
)

// ErrNoRows: Store 実装が「該当なし」を返すときの共通エラー
var (
	ErrNoRows       = errors.New("not found")
	ErrDuplicateCol = errors.New("column already exists")
)

// Store is the document store behind the service. Each call is atomic on
// its own; nothing spans calls.
type Store interface {
	// SaveGroup inserts or replaces the whole group keyed by g.ID.
	SaveGroup(ctx context.Context, g attendance.Group) error
	GetGroup(ctx context.Context, id string) (attendance.Group, error)
	// FindLatest returns the most recently created group scoped to k or
	// holding at least one record for k.
	FindLatest(ctx context.Context, k attendance.Key) (attendance.Group, error)
	FindByRow(ctx context.Context, rowID string) (attendance.Group, error)
	// ListGroups returns every group, oldest first.
	ListGroups(ctx context.Context) ([]attendance.Group, error)

	// SetRecords overwrites records of the group matched by RowID.
	SetRecords(ctx context.Context, groupID string, rs []attendance.Record) error
	PushRecords(ctx context.Context, groupID string, rs []attendance.Record) error
	PullRecords(ctx context.Context, groupID string, rowIDs []string) (int, error)
	// AddColumn registers an extra column and sets it to "" on every record lacking it.
	AddColumn(ctx context.Context, groupID, name string) error
	DeleteGroup(ctx context.Context, id string) error
}

func sortByCreated(gs []attendance.Group) {
	sort.SliceStable(gs, func(i, j int) bool { return gs[i].CreatedAt.Before(gs[j].CreatedAt) })
}
