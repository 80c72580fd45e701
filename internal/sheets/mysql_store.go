package sheets

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	mysql "github.com/go-sql-driver/mysql"

	"clinic-roster/internal/attendance"
	"clinic-roster/internal/platform/db"
)

// MySQLStore maps groups onto attendance_groups / _group_columns / _records.
type MySQLStore struct{ conn *sql.DB }

func NewMySQLStore(conn *sql.DB) *MySQLStore { return &MySQLStore{conn: conn} }

const (
	selectGroup = `
	SELECT group_id, day, clinic, COALESCE(session, ''), source, created_at
	FROM attendance_groups`
	selectRecords = `
	SELECT row_id, day, clinic, time_slot, name, age, guardian_name, contact_email, contact_phone,
	       comments, fee, extra, manual
	FROM attendance_records`
)

// DB行に対応（スキャン用）
type recordRow struct {
	attendance.Record
	extra sql.NullString
}

func (r *recordRow) scanArgs() []any {
	return []any{
		&r.RowID, &r.Day, &r.Clinic, &r.Time, &r.Name, &r.Age, &r.GuardianName,
		&r.ContactEmail, &r.ContactPhone, &r.Comments, &r.Fee, &r.extra, &r.Manual,
	}
}

func (r *recordRow) toModel() (attendance.Record, error) {
	out := r.Record
	if r.extra.Valid && r.extra.String != "" {
		if err := json.Unmarshal([]byte(r.extra.String), &out.Extra); err != nil {
			return attendance.Record{}, err
		}
	}
	return out, nil
}

func extraJSON(r attendance.Record) (any, error) {
	if len(r.Extra) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(r.Extra)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// ===== groups =====

func (s *MySQLStore) SaveGroup(ctx context.Context, g attendance.Group) error {
	return db.RunInTx(ctx, s.conn, nil, func(ctx context.Context, tx db.DBTX) error {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO attendance_groups (group_id, day, clinic, session, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
		day        = VALUES(day),
		clinic     = VALUES(clinic),
		session    = VALUES(session),
		source     = VALUES(source),
		created_at = VALUES(created_at)`,
			g.ID, g.Day, g.Clinic, g.Session, g.Source, g.CreatedAt.UTC())
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM attendance_group_columns WHERE group_id = ?`, g.ID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM attendance_records WHERE group_id = ?`, g.ID); err != nil {
			return err
		}
		for i, c := range g.Columns {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO attendance_group_columns (group_id, position, column_name) VALUES (?, ?, ?)`,
				g.ID, i, c); err != nil {
				return err
			}
		}
		return insertRecords(ctx, tx, g.ID, 0, g.Records)
	})
}

func insertRecords(ctx context.Context, tx db.DBTX, groupID string, start int, rs []attendance.Record) error {
	const q = `
	INSERT INTO attendance_records
	(row_id, group_id, position, day, clinic, time_slot, name, age, guardian_name,
	 contact_email, contact_phone, comments, fee, extra, manual)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for i, r := range rs {
		extra, err := extraJSON(r)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, q,
			r.RowID, groupID, start+i, r.Day, r.Clinic, r.Time, r.Name, r.Age, r.GuardianName,
			r.ContactEmail, r.ContactPhone, r.Comments, r.Fee, extra, r.Manual,
		); err != nil {
			return err
		}
	}
	return nil
}

func (s *MySQLStore) GetGroup(ctx context.Context, id string) (attendance.Group, error) {
	var out attendance.Group
	err := db.ReadOnly(ctx, s.conn, func(ctx context.Context, tx db.DBTX) error {
		g, err := loadGroup(ctx, tx, id)
		out = g
		return err
	})
	return out, err
}

func loadGroup(ctx context.Context, tx db.DBTX, id string) (attendance.Group, error) {
	var g attendance.Group
	err := tx.QueryRowContext(ctx, selectGroup+` WHERE group_id = ?`, id).
		Scan(&g.ID, &g.Day, &g.Clinic, &g.Session, &g.Source, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return attendance.Group{}, ErrNoRows
	}
	if err != nil {
		return attendance.Group{}, err
	}
	g.CreatedAt = g.CreatedAt.UTC()

	cols, err := tx.QueryContext(ctx,
		`SELECT column_name FROM attendance_group_columns WHERE group_id = ? ORDER BY position`, id)
	if err != nil {
		return attendance.Group{}, err
	}
	defer cols.Close()
	for cols.Next() {
		var c string
		if err := cols.Scan(&c); err != nil {
			return attendance.Group{}, err
		}
		g.Columns = append(g.Columns, c)
	}
	if err := cols.Err(); err != nil {
		return attendance.Group{}, err
	}

	rows, err := tx.QueryContext(ctx, selectRecords+` WHERE group_id = ? ORDER BY position`, id)
	if err != nil {
		return attendance.Group{}, err
	}
	defer rows.Close()
	g.Records = []attendance.Record{}
	for rows.Next() {
		var r recordRow
		if err := rows.Scan(r.scanArgs()...); err != nil {
			return attendance.Group{}, err
		}
		rec, err := r.toModel()
		if err != nil {
			return attendance.Group{}, err
		}
		g.Records = append(g.Records, rec)
	}
	return g, rows.Err()
}

func (s *MySQLStore) FindLatest(ctx context.Context, k attendance.Key) (attendance.Group, error) {
	var id string
	err := s.conn.QueryRowContext(ctx, `
	SELECT g.group_id
	FROM attendance_groups g
	WHERE (g.day = ? AND g.clinic = ?)
	   OR EXISTS (SELECT 1 FROM attendance_records r WHERE r.group_id = g.group_id AND r.day = ? AND r.clinic = ?)
	ORDER BY g.created_at DESC, g.group_id DESC
	LIMIT 1`, k.Day, k.Clinic, k.Day, k.Clinic).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return attendance.Group{}, ErrNoRows
	}
	if err != nil {
		return attendance.Group{}, err
	}
	return s.GetGroup(ctx, id)
}

func (s *MySQLStore) FindByRow(ctx context.Context, rowID string) (attendance.Group, error) {
	var id string
	err := s.conn.QueryRowContext(ctx,
		`SELECT group_id FROM attendance_records WHERE row_id = ?`, rowID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return attendance.Group{}, ErrNoRows
	}
	if err != nil {
		return attendance.Group{}, err
	}
	return s.GetGroup(ctx, id)
}

func (s *MySQLStore) ListGroups(ctx context.Context) ([]attendance.Group, error) {
	var out []attendance.Group
	err := db.ReadOnly(ctx, s.conn, func(ctx context.Context, tx db.DBTX) error {
		rows, err := tx.QueryContext(ctx, `SELECT group_id FROM attendance_groups ORDER BY created_at, group_id`)
		if err != nil {
			return err
		}
		var ids []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			ids = append(ids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		for _, id := range ids {
			g, err := loadGroup(ctx, tx, id)
			if err != nil {
				return err
			}
			out = append(out, g)
		}
		return nil
	})
	return out, err
}

// ===== records =====

func lockGroup(ctx context.Context, tx db.DBTX, groupID string) error {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM attendance_groups WHERE group_id = ? FOR UPDATE`, groupID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNoRows
	}
	return err
}

func (s *MySQLStore) SetRecords(ctx context.Context, groupID string, rs []attendance.Record) error {
	const q = `
	UPDATE attendance_records
	SET day = ?, clinic = ?, time_slot = ?, name = ?, age = ?, guardian_name = ?,
	    contact_email = ?, contact_phone = ?, comments = ?, fee = ?, extra = ?, manual = ?
	WHERE group_id = ? AND row_id = ?`
	return db.RunInTx(ctx, s.conn, nil, func(ctx context.Context, tx db.DBTX) error {
		if err := lockGroup(ctx, tx, groupID); err != nil {
			return err
		}
		for _, r := range rs {
			extra, err := extraJSON(r)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, q,
				r.Day, r.Clinic, r.Time, r.Name, r.Age, r.GuardianName,
				r.ContactEmail, r.ContactPhone, r.Comments, r.Fee, extra, r.Manual,
				groupID, r.RowID,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *MySQLStore) PushRecords(ctx context.Context, groupID string, rs []attendance.Record) error {
	return db.RunInTx(ctx, s.conn, nil, func(ctx context.Context, tx db.DBTX) error {
		if err := lockGroup(ctx, tx, groupID); err != nil {
			return err
		}
		var next int
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(position), -1) + 1 FROM attendance_records WHERE group_id = ?`, groupID,
		).Scan(&next); err != nil {
			return err
		}
		return insertRecords(ctx, tx, groupID, next, rs)
	})
}

func (s *MySQLStore) PullRecords(ctx context.Context, groupID string, rowIDs []string) (int, error) {
	if len(rowIDs) == 0 {
		return 0, nil
	}
	var n int64
	err := db.RunInTx(ctx, s.conn, nil, func(ctx context.Context, tx db.DBTX) error {
		if err := lockGroup(ctx, tx, groupID); err != nil {
			return err
		}
		args := make([]any, 0, len(rowIDs)+1)
		args = append(args, groupID)
		for _, id := range rowIDs {
			args = append(args, id)
		}
		q := `DELETE FROM attendance_records WHERE group_id = ? AND row_id IN (?` +
			strings.Repeat(", ?", len(rowIDs)-1) + `)`
		res, err := tx.ExecContext(ctx, q, args...)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	return int(n), err
}

func (s *MySQLStore) AddColumn(ctx context.Context, groupID, name string) error {
	return db.RunInTx(ctx, s.conn, nil, func(ctx context.Context, tx db.DBTX) error {
		if err := lockGroup(ctx, tx, groupID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
		INSERT INTO attendance_group_columns (group_id, position, column_name)
		SELECT ?, COUNT(*), ? FROM attendance_group_columns WHERE group_id = ?`,
			groupID, name, groupID)
		if isDuplicateKey(err) {
			return ErrDuplicateCol
		}
		if err != nil {
			return err
		}

		// 既存行に空値を入れる（値がある行はそのまま）
		rows, err := tx.QueryContext(ctx, selectRecords+` WHERE group_id = ?`, groupID)
		if err != nil {
			return err
		}
		var pending []attendance.Record
		for rows.Next() {
			var r recordRow
			if err := rows.Scan(r.scanArgs()...); err != nil {
				rows.Close()
				return err
			}
			rec, err := r.toModel()
			if err != nil {
				rows.Close()
				return err
			}
			if _, ok := rec.Extra[name]; ok {
				continue
			}
			if rec.Extra == nil {
				rec.Extra = map[string]string{}
			}
			rec.Extra[name] = ""
			pending = append(pending, rec)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		for _, r := range pending {
			extra, err := extraJSON(r)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE attendance_records SET extra = ? WHERE row_id = ?`, extra, r.RowID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *MySQLStore) DeleteGroup(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM attendance_groups WHERE group_id = ?`, id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return ErrNoRows
	}
	return nil
}

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return false
}
