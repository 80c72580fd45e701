package sheets

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	ulid "github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"clinic-roster/internal/attendance"
	"clinic-roster/internal/platform/gsheet"
	"clinic-roster/internal/platform/logger"
	"clinic-roster/internal/roster"
	"clinic-roster/internal/signup"
)

// Policy decides what one persisted group holds.
type Policy string

const (
	// PolicyPerClinic: 1グループ = 1 (day, clinic)。再インポートで丸ごと置き換え
	PolicyPerClinic Policy = "per_clinic"
	// PolicyPerUpload: 1グループ = 1アップロード
	PolicyPerUpload Policy = "per_upload"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyPerClinic:
		return PolicyPerClinic, nil
	case PolicyPerUpload:
		return PolicyPerUpload, nil
	}
	return "", fmt.Errorf("unknown storage policy %q", s)
}

type Options struct {
	Policy         Policy
	CreateOnDemand bool
	DefaultSession string
	DisplayOrder   []attendance.Key
	Clinics        []signup.ClinicColumn
	Encoding       roster.Encoding
}

type Service struct {
	store   Store
	fetcher gsheet.Fetcher
	log     *logrus.Logger
	opts    Options

	now   func() time.Time
	newID func() string
}

func NewService(store Store, fetcher gsheet.Fetcher, log *logrus.Logger, opts Options) *Service {
	if opts.Policy == "" {
		opts.Policy = PolicyPerClinic
	}
	if len(opts.DisplayOrder) == 0 {
		opts.DisplayOrder = attendance.DefaultDisplayOrder()
	}
	if len(opts.Clinics) == 0 {
		opts.Clinics = signup.DefaultClinicColumns()
	}
	if opts.Encoding == "" {
		opts.Encoding = roster.EncodingUTF8
	}
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Service{
		store:   store,
		fetcher: fetcher,
		log:     log,
		opts:    opts,
		now:     time.Now,
		newID:   newULIDSource(),
	}
}

// ULID（単調増加）。entropy は goroutine-safe ではないのでロックする
func newULIDSource() func() string {
	var mu sync.Mutex
	entropy := ulid.Monotonic(rand.Reader, 0)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
	}
}

func (s *Service) Policy() Policy            { return s.opts.Policy }
func (s *Service) Encoding() roster.Encoding { return s.opts.Encoding }

// ===== helpers =====

func keyOf(day, clinic string) (attendance.Key, error) {
	k := attendance.Key{Day: attendance.ParseDay(day), Clinic: attendance.ParseClinic(clinic)}
	if k.Day == "" || k.Clinic == "" {
		return attendance.Key{}, ErrInvalid("day and clinic are required")
	}
	return k, nil
}

func notFoundKey(k attendance.Key) error {
	return ErrNotFound(fmt.Sprintf("no attendance sheet for %s; import first", k))
}

// storeErr: ストアのエラーは INTERNAL として返す（リトライなし）
func (s *Service) storeErr(op string, data any, err error) error {
	var api *APIError
	if errors.As(err, &api) {
		return api
	}
	logger.LogError(s.log, "sheets", op, "store", data, err)
	return ErrInternal(err.Error())
}

// ===== lookup =====

// FindGroup returns the most recently created group holding (day, clinic).
func (s *Service) FindGroup(ctx context.Context, day, clinic string) (attendance.Group, error) {
	k, err := keyOf(day, clinic)
	if err != nil {
		return attendance.Group{}, err
	}
	return s.findGroup(ctx, k)
}

func (s *Service) findGroup(ctx context.Context, k attendance.Key) (attendance.Group, error) {
	g, err := s.store.FindLatest(ctx, k)
	if errors.Is(err, ErrNoRows) {
		return attendance.Group{}, notFoundKey(k)
	}
	if err != nil {
		return attendance.Group{}, s.storeErr("FindGroup", k, err)
	}
	return g, nil
}

// ===== import =====

type importMeta struct {
	Session string
	Source  string
}

func (s *Service) session(v string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return s.opts.DefaultSession
}

// UpsertImport stores a freshly expanded batch of records for one (day, clinic).
func (s *Service) UpsertImport(ctx context.Context, day, clinic string, records []attendance.Record, extraColumns []string) (attendance.Group, error) {
	k, err := keyOf(day, clinic)
	if err != nil {
		return attendance.Group{}, err
	}
	return s.upsert(ctx, k, records, extraColumns, importMeta{Session: s.opts.DefaultSession})
}

func (s *Service) upsert(ctx context.Context, k attendance.Key, records []attendance.Record, cols []string, meta importMeta) (attendance.Group, error) {
	if s.opts.Policy == PolicyPerUpload {
		return s.mergeUpload(ctx, k, records, cols, meta)
	}
	return s.replaceClinic(ctx, k, records, cols, meta)
}

// replaceClinic: 既存グループを丸ごと置き換える。ID と一致行の rowId は引き継ぐ
func (s *Service) replaceClinic(ctx context.Context, k attendance.Key, records []attendance.Record, cols []string, meta importMeta) (attendance.Group, error) {
	old, err := s.store.FindLatest(ctx, k)
	found := err == nil
	if err != nil && !errors.Is(err, ErrNoRows) {
		return attendance.Group{}, s.storeErr("UpsertImport", k, err)
	}

	g := attendance.Group{
		ID:        s.newID(),
		Day:       k.Day,
		Clinic:    k.Clinic,
		Session:   meta.Session,
		Source:    meta.Source,
		CreatedAt: s.now().UTC(),
	}
	fresh := tagKey(records, k)
	if found && old.Scoped() && old.Key() == k {
		g.ID = old.ID
		if g.Session == "" {
			g.Session = old.Session
		}
		g.Columns = append(g.Columns, old.Columns...)
		g.Records = reconcile(old.Records, fresh)
		for _, r := range old.Records {
			if r.Manual {
				g.Records = append(g.Records, r)
			}
		}
	} else {
		g.Records = fresh
	}
	if g.Session == "" {
		g.Session = s.opts.DefaultSession
	}
	g.Columns = unionColumns(g.Columns, cols)
	fillColumns(&g)

	if err := s.store.SaveGroup(ctx, g); err != nil {
		return attendance.Group{}, s.storeErr("UpsertImport", g.ID, err)
	}
	return g, nil
}

// mergeUpload: 最新のアップロードグループの該当キー分を入れ替える（なければ新規作成）
func (s *Service) mergeUpload(ctx context.Context, k attendance.Key, records []attendance.Record, cols []string, meta importMeta) (attendance.Group, error) {
	fresh := tagKey(records, k)
	old, err := s.store.FindLatest(ctx, k)
	if errors.Is(err, ErrNoRows) {
		g := attendance.Group{
			ID:        s.newID(),
			Session:   s.session(meta.Session),
			Source:    meta.Source,
			Records:   fresh,
			Columns:   unionColumns(nil, cols),
			CreatedAt: s.now().UTC(),
		}
		fillColumns(&g)
		if err := s.store.SaveGroup(ctx, g); err != nil {
			return attendance.Group{}, s.storeErr("UpsertImport", g.ID, err)
		}
		return g, nil
	}
	if err != nil {
		return attendance.Group{}, s.storeErr("UpsertImport", k, err)
	}

	var pull []string
	var prev []attendance.Record
	for _, r := range old.Filter(k) {
		if r.Manual {
			continue
		}
		pull = append(pull, r.RowID)
		prev = append(prev, r)
	}
	if _, err := s.store.PullRecords(ctx, old.ID, pull); err != nil {
		return attendance.Group{}, s.storeErr("UpsertImport", old.ID, err)
	}

	merged := reconcile(prev, fresh)
	for _, c := range cols {
		if old.HasColumn(c) {
			continue
		}
		if err := s.store.AddColumn(ctx, old.ID, c); err != nil && !errors.Is(err, ErrDuplicateCol) {
			return attendance.Group{}, s.storeErr("UpsertImport", old.ID, err)
		}
		old.Columns = append(old.Columns, c)
	}
	tmp := attendance.Group{Columns: old.Columns, Records: merged}
	fillColumns(&tmp)
	if err := s.store.PushRecords(ctx, old.ID, tmp.Records); err != nil {
		return attendance.Group{}, s.storeErr("UpsertImport", old.ID, err)
	}

	g, err := s.store.GetGroup(ctx, old.ID)
	if err != nil {
		return attendance.Group{}, s.storeErr("UpsertImport", old.ID, err)
	}
	return g, nil
}

func tagKey(records []attendance.Record, k attendance.Key) []attendance.Record {
	out := make([]attendance.Record, 0, len(records))
	for _, r := range records {
		r = r.Clone()
		r.Day, r.Clinic = k.Day, k.Clinic
		out = append(out, r)
	}
	return out
}

// 同一人物・同一時間帯の判定に使う
type identity struct{ time, name, guardian string }

func identityOf(r attendance.Record) identity {
	norm := func(v string) string { return strings.ToLower(strings.TrimSpace(v)) }
	return identity{norm(r.Time), norm(r.Name), norm(r.GuardianName)}
}

// reconcile gives fresh records the rowId, Comments, Fee and extra values of
// the previous record with the same identity. Each previous record is used once.
func reconcile(prev, fresh []attendance.Record) []attendance.Record {
	pool := make(map[identity][]attendance.Record, len(prev))
	for _, r := range prev {
		if r.Manual {
			continue
		}
		id := identityOf(r)
		pool[id] = append(pool[id], r)
	}
	out := make([]attendance.Record, 0, len(fresh))
	for _, r := range fresh {
		id := identityOf(r)
		if cand := pool[id]; len(cand) > 0 {
			p := cand[0]
			pool[id] = cand[1:]
			r.RowID = p.RowID
			r.Comments = p.Comments
			r.Fee = p.Fee
			if len(p.Extra) > 0 {
				extra := make(map[string]string, len(p.Extra)+len(r.Extra))
				for c, v := range p.Extra {
					extra[c] = v
				}
				for c, v := range r.Extra {
					extra[c] = v
				}
				r.Extra = extra
			}
		}
		out = append(out, r)
	}
	return out
}

func unionColumns(cols, add []string) []string {
	out := append([]string(nil), cols...)
	for _, c := range add {
		c = strings.TrimSpace(c)
		if c == "" || attendance.IsCoreField(c) || contains(out, c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// fillColumns: 全行に全追加列を持たせる（未設定は ""）
func fillColumns(g *attendance.Group) {
	if len(g.Columns) == 0 {
		return
	}
	for i := range g.Records {
		if g.Records[i].Extra == nil {
			g.Records[i].Extra = make(map[string]string, len(g.Columns))
		}
		for _, c := range g.Columns {
			if _, ok := g.Records[i].Extra[c]; !ok {
				g.Records[i].Extra[c] = ""
			}
		}
	}
}

// ImportInput is one whole sign-up table.
type ImportInput struct {
	Rows    [][]string
	Session string
	Source  string
}

// Import expands the table and persists it according to the active policy.
func (s *Service) Import(ctx context.Context, in ImportInput) (ImportResult, error) {
	t := signup.NewTable(in.Rows)
	if len(t.Header) == 0 {
		return ImportResult{}, ErrInvalid("sheet has no header row")
	}
	records := signup.BuildAttendance(t, s.opts.Clinics, s.newID)
	meta := importMeta{Session: s.session(in.Session), Source: in.Source}

	res := ImportResult{Policy: s.opts.Policy, Session: meta.Session, Records: len(records), Groups: []GroupSummary{}}
	keyed := make([]attendance.Record, 0, len(records))
	for _, r := range records {
		if !r.Keyed() {
			res.Skipped++
			continue
		}
		keyed = append(keyed, r)
	}

	switch s.opts.Policy {
	case PolicyPerUpload:
		if len(records) == 0 {
			break
		}
		g := attendance.Group{
			ID:        s.newID(),
			Session:   meta.Session,
			Source:    meta.Source,
			Records:   records,
			CreatedAt: s.now().UTC(),
		}
		if err := s.store.SaveGroup(ctx, g); err != nil {
			return ImportResult{}, s.storeErr("Import", g.ID, err)
		}
		res.Groups = append(res.Groups, summarize(g))
	default:
		for _, k := range attendance.Keys(keyed) {
			g, err := s.replaceClinic(ctx, k, filterKey(keyed, k), nil, meta)
			if err != nil {
				return ImportResult{}, err
			}
			res.Groups = append(res.Groups, summarize(g))
		}
	}

	s.log.WithFields(logrus.Fields{
		"policy":  res.Policy,
		"source":  in.Source,
		"records": res.Records,
		"groups":  len(res.Groups),
		"skipped": res.Skipped,
	}).Info("import done")
	return res, nil
}

func filterKey(records []attendance.Record, k attendance.Key) []attendance.Record {
	var out []attendance.Record
	for _, r := range records {
		if r.Key() == k {
			out = append(out, r)
		}
	}
	return out
}

// fetchRows resolves a sheet URL or id and downloads it. The reference is
// validated before any network access.
func (s *Service) fetchRows(ctx context.Context, ref string) (string, [][]string, error) {
	id, err := gsheet.ExtractID(ref)
	if err != nil {
		return "", nil, ErrInvalid("invalid Google Sheet URL")
	}
	if s.fetcher == nil {
		return "", nil, ErrInternal("no sheet fetcher configured")
	}
	rows, err := s.fetcher.Fetch(ctx, id)
	if errors.Is(err, gsheet.ErrEmptySheet) {
		return "", nil, ErrInvalid("sheet is empty")
	}
	if err != nil {
		logger.LogError(s.log, "sheets", "fetchRows", "fetch", id, err)
		return "", nil, ErrInternal(fmt.Sprintf("failed to fetch sheet: %v", err))
	}
	return id, rows, nil
}

// キャッシュ付き fetcher（gsheet.CachedFetcher）が実装する
type invalidator interface {
	Invalidate(ctx context.Context, sheetID string) error
}

// ImportSheet fetches a Google Sheet and imports it. A cached copy of the
// sheet is dropped once the import succeeds.
func (s *Service) ImportSheet(ctx context.Context, ref, session string) (ImportResult, error) {
	id, rows, err := s.fetchRows(ctx, ref)
	if err != nil {
		return ImportResult{}, err
	}
	res, err := s.Import(ctx, ImportInput{Rows: rows, Session: session, Source: "sheet:" + id})
	if err != nil {
		return ImportResult{}, err
	}
	if inv, ok := s.fetcher.(invalidator); ok {
		if err := inv.Invalidate(ctx, id); err != nil {
			s.log.WithError(err).WithField("sheet", id).Warn("cache invalidate failed")
		}
	}
	return res, nil
}

// ImportFile imports an uploaded .csv / .xlsx file.
func (s *Service) ImportFile(ctx context.Context, filename string, r io.Reader, charset, session string) (ImportResult, error) {
	rows, err := gsheet.ReadFile(filename, r, charset)
	if err != nil {
		return ImportResult{}, ErrInvalid(err.Error())
	}
	return s.Import(ctx, ImportInput{Rows: rows, Session: session, Source: "upload:" + filename})
}

// Preview expands a sheet without persisting anything.
func (s *Service) Preview(ctx context.Context, ref string) (Preview, error) {
	_, rows, err := s.fetchRows(ctx, ref)
	if err != nil {
		return Preview{}, err
	}
	records := signup.BuildAttendance(signup.NewTable(rows), s.opts.Clinics, s.newID)
	return Preview{
		Records:  records,
		Sections: attendance.Sections(records, s.opts.DisplayOrder),
	}, nil
}

// ===== edits =====

// ApplyEdits writes edited rows back to the group holding (day, clinic).
// Reads and writes are separate store calls; a concurrent edit between them
// is overwritten.
func (s *Service) ApplyEdits(ctx context.Context, day, clinic string, edits []RowEdit, deletedRowIDs []string) (EditResult, error) {
	k, err := keyOf(day, clinic)
	if err != nil {
		return EditResult{}, err
	}
	for _, e := range edits {
		for c := range e.Extra {
			if strings.TrimSpace(c) == "" || attendance.IsCoreField(c) {
				return EditResult{}, ErrInvalid(fmt.Sprintf("invalid extra column name %q", c))
			}
		}
	}

	g, err := s.findGroup(ctx, k)
	if err != nil {
		return EditResult{}, err
	}

	// 未登録の追加列を先に登録（全行の列集合をそろえる）
	for _, e := range edits {
		for c := range e.Extra {
			if g.HasColumn(c) {
				continue
			}
			if err := s.store.AddColumn(ctx, g.ID, c); err != nil && !errors.Is(err, ErrDuplicateCol) {
				return EditResult{}, s.storeErr("ApplyEdits", g.ID, err)
			}
			g.Columns = append(g.Columns, c)
		}
	}
	fillColumns(&g)

	drop := make(map[string]bool)
	for _, id := range deletedRowIDs {
		drop[id] = true
	}
	for _, e := range edits {
		if e.Delete && e.RowID != "" {
			drop[e.RowID] = true
		}
	}

	res := EditResult{GroupID: g.ID, Created: []attendance.Record{}}
	var updated, created []attendance.Record
	pending := make(map[string]int) // rowId -> created 内の位置
	for _, e := range edits {
		if e.Delete || (e.RowID != "" && drop[e.RowID]) {
			continue
		}
		if i := indexInKey(g, k, e.RowID); i >= 0 {
			r := g.Records[i]
			e.apply(&r)
			updated = append(updated, r)
			continue
		}
		if j, ok := pending[e.RowID]; ok {
			e.apply(&created[j])
			continue
		}
		id, err := s.newRowID(ctx, e.RowID)
		if err != nil {
			return EditResult{}, s.storeErr("ApplyEdits", g.ID, err)
		}
		r := attendance.Record{RowID: id, Day: k.Day, Clinic: k.Clinic, Manual: true}
		r.Extra = make(map[string]string, len(g.Columns))
		for _, c := range g.Columns {
			r.Extra[c] = ""
		}
		e.apply(&r)
		if e.RowID != "" {
			pending[e.RowID] = len(created)
		}
		created = append(created, r)
	}

	var pull []string
	for id := range drop {
		if indexInKey(g, k, id) >= 0 {
			pull = append(pull, id)
		}
	}

	if len(updated) > 0 {
		if err := s.store.SetRecords(ctx, g.ID, updated); err != nil {
			return EditResult{}, s.storeErr("ApplyEdits", g.ID, err)
		}
	}
	if len(created) > 0 {
		if err := s.store.PushRecords(ctx, g.ID, created); err != nil {
			return EditResult{}, s.storeErr("ApplyEdits", g.ID, err)
		}
	}
	if len(pull) > 0 {
		n, err := s.store.PullRecords(ctx, g.ID, pull)
		if err != nil {
			return EditResult{}, s.storeErr("ApplyEdits", g.ID, err)
		}
		res.Deleted = n
	}
	res.Updated = len(updated)
	res.Created = append(res.Created, created...)
	return res, nil
}

// indexInKey is g.IndexOf restricted to records of k. An upload group can
// hold other clinics; their rows are not addressable through k.
func indexInKey(g attendance.Group, k attendance.Key, rowID string) int {
	if rowID == "" {
		return -1
	}
	i := g.IndexOf(rowID)
	if i < 0 || g.Records[i].Key() != k {
		return -1
	}
	return i
}

// newRowID keeps a client supplied id unless some stored record already uses it.
func (s *Service) newRowID(ctx context.Context, want string) (string, error) {
	if want == "" {
		return s.newID(), nil
	}
	_, err := s.store.FindByRow(ctx, want)
	switch {
	case errors.Is(err, ErrNoRows):
		return want, nil
	case err != nil:
		return "", err
	}
	return s.newID(), nil
}

// AddBlankRow appends an empty manual row to the group holding (day, clinic).
func (s *Service) AddBlankRow(ctx context.Context, day, clinic string) (attendance.Record, error) {
	k, err := keyOf(day, clinic)
	if err != nil {
		return attendance.Record{}, err
	}
	r := attendance.Record{RowID: s.newID(), Day: k.Day, Clinic: k.Clinic, Manual: true}

	g, err := s.store.FindLatest(ctx, k)
	if errors.Is(err, ErrNoRows) {
		if !s.opts.CreateOnDemand {
			return attendance.Record{}, notFoundKey(k)
		}
		g = attendance.Group{
			ID:        s.newID(),
			Day:       k.Day,
			Clinic:    k.Clinic,
			Session:   s.opts.DefaultSession,
			Source:    "manual",
			Records:   []attendance.Record{r},
			CreatedAt: s.now().UTC(),
		}
		if err := s.store.SaveGroup(ctx, g); err != nil {
			return attendance.Record{}, s.storeErr("AddBlankRow", g.ID, err)
		}
		return r, nil
	}
	if err != nil {
		return attendance.Record{}, s.storeErr("AddBlankRow", k, err)
	}

	if len(g.Columns) > 0 {
		r.Extra = make(map[string]string, len(g.Columns))
		for _, c := range g.Columns {
			r.Extra[c] = ""
		}
	}
	if err := s.store.PushRecords(ctx, g.ID, []attendance.Record{r}); err != nil {
		return attendance.Record{}, s.storeErr("AddBlankRow", g.ID, err)
	}
	return r, nil
}

// AddExtraColumn registers a new extra column on the group holding (day, clinic).
func (s *Service) AddExtraColumn(ctx context.Context, day, clinic, name string) (attendance.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return attendance.Group{}, ErrInvalid("column name is required")
	}
	if attendance.IsCoreField(name) {
		return attendance.Group{}, ErrInvalid(fmt.Sprintf("%q is a reserved column", name))
	}
	k, err := keyOf(day, clinic)
	if err != nil {
		return attendance.Group{}, err
	}
	g, err := s.findGroup(ctx, k)
	if err != nil {
		return attendance.Group{}, err
	}
	if g.HasColumn(name) {
		return attendance.Group{}, ErrConflict(fmt.Sprintf("column %q already exists", name))
	}
	err = s.store.AddColumn(ctx, g.ID, name)
	if errors.Is(err, ErrDuplicateCol) {
		return attendance.Group{}, ErrConflict(fmt.Sprintf("column %q already exists", name))
	}
	if err != nil {
		return attendance.Group{}, s.storeErr("AddExtraColumn", g.ID, err)
	}
	g.Columns = append(g.Columns, name)
	fillColumns(&g)
	return g, nil
}

// ===== deletes =====

// DeleteRow removes a row from whichever group holds it. The group stays even when empty.
func (s *Service) DeleteRow(ctx context.Context, rowID string) error {
	if strings.TrimSpace(rowID) == "" {
		return ErrInvalid("row_id is required")
	}
	g, err := s.store.FindByRow(ctx, rowID)
	if errors.Is(err, ErrNoRows) {
		return ErrNotFound("row not found")
	}
	if err != nil {
		return s.storeErr("DeleteRow", rowID, err)
	}
	n, err := s.store.PullRecords(ctx, g.ID, []string{rowID})
	if err != nil {
		return s.storeErr("DeleteRow", rowID, err)
	}
	if n == 0 {
		return ErrNotFound("row not found")
	}
	return nil
}

// DeleteGroup removes every record for (day, clinic) across all groups and
// drops groups scoped to that key. It returns the number of records removed.
func (s *Service) DeleteGroup(ctx context.Context, day, clinic string) (int, error) {
	k, err := keyOf(day, clinic)
	if err != nil {
		return 0, err
	}
	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		return 0, s.storeErr("DeleteGroup", k, err)
	}

	removed, matched := 0, false
	for _, g := range groups {
		if g.Scoped() && g.Key() == k {
			matched = true
			if err := s.store.DeleteGroup(ctx, g.ID); err != nil && !errors.Is(err, ErrNoRows) {
				return removed, s.storeErr("DeleteGroup", g.ID, err)
			}
			removed += len(g.Records)
			continue
		}
		var ids []string
		for _, r := range g.Filter(k) {
			ids = append(ids, r.RowID)
		}
		if len(ids) == 0 {
			continue
		}
		matched = true
		n, err := s.store.PullRecords(ctx, g.ID, ids)
		if err != nil {
			return removed, s.storeErr("DeleteGroup", g.ID, err)
		}
		removed += n
	}
	if !matched {
		return 0, notFoundKey(k)
	}
	return removed, nil
}

func (s *Service) DeleteGroupByID(ctx context.Context, id string) error {
	err := s.store.DeleteGroup(ctx, id)
	if errors.Is(err, ErrNoRows) {
		return ErrNotFound("group not found")
	}
	if err != nil {
		return s.storeErr("DeleteGroupByID", id, err)
	}
	return nil
}

// ===== views / export =====

// latestByKey maps every key to the newest group holding it.
func latestByKey(groups []attendance.Group) map[attendance.Key]attendance.Group {
	out := make(map[attendance.Key]attendance.Group)
	for _, g := range groups { // oldest first
		if g.Scoped() {
			out[g.Key()] = g
		}
		for _, k := range attendance.Keys(g.Records) {
			out[k] = g
		}
	}
	return out
}

// Sections returns the grouped view in display order.
func (s *Service) Sections(ctx context.Context) ([]attendance.Section, error) {
	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		return nil, s.storeErr("Sections", nil, err)
	}
	latest := latestByKey(groups)

	var records []attendance.Record
	for k, g := range latest {
		records = append(records, g.Filter(k)...)
	}
	secs := attendance.Sections(records, s.opts.DisplayOrder)
	for i := range secs {
		g := latest[secs[i].Key]
		secs[i].GroupID = g.ID
		secs[i].Columns = append([]string{}, g.Columns...)
	}
	return secs, nil
}

func (s *Service) ListGroups(ctx context.Context) ([]GroupSummary, error) {
	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		return nil, s.storeErr("ListGroups", nil, err)
	}
	out := make([]GroupSummary, 0, len(groups))
	for _, g := range groups {
		out = append(out, summarize(g))
	}
	return out, nil
}

// Roster returns the records of one (day, clinic) in canonical order.
func (s *Service) Roster(ctx context.Context, day, clinic string) (RosterView, error) {
	k, err := keyOf(day, clinic)
	if err != nil {
		return RosterView{}, err
	}
	g, err := s.findGroup(ctx, k)
	if err != nil {
		return RosterView{}, err
	}
	rs := g.Filter(k)
	attendance.Sort(rs)
	return RosterView{
		Key:     k,
		GroupID: g.ID,
		Session: g.Session,
		Columns: append([]string{}, g.Columns...),
		Records: rs,
	}, nil
}

// ExportGroup flattens one roster; the second return value is the download
// name without extension.
func (s *Service) ExportGroup(ctx context.Context, day, clinic string) (roster.Table, string, error) {
	k, err := keyOf(day, clinic)
	if err != nil {
		return roster.Table{}, "", err
	}
	g, err := s.findGroup(ctx, k)
	if err != nil {
		return roster.Table{}, "", err
	}
	return roster.FlattenGroup(g, k), roster.BaseName(k), nil
}

// ExportAll flattens every stored record, including rows without day/clinic.
func (s *Service) ExportAll(ctx context.Context) (roster.Table, error) {
	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		return roster.Table{}, s.storeErr("ExportAll", nil, err)
	}
	return roster.FlattenAll(groups), nil
}
