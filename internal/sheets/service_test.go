package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"clinic-roster/internal/attendance"
	"clinic-roster/internal/platform/gsheet"
)

// ===== fakes =====

type stubFetcher struct {
	rows        [][]string
	err         error
	calls       int
	invalidated []string
}

func (f *stubFetcher) Fetch(_ context.Context, _ string) ([][]string, error) {
	f.calls++
	return f.rows, f.err
}

func (f *stubFetcher) Invalidate(_ context.Context, id string) error {
	f.invalidated = append(f.invalidated, id)
	return nil
}

// hookStore runs afterFind once, right after FindLatest has read the group.
type hookStore struct {
	*MemStore
	afterFind func()
}

func (s *hookStore) FindLatest(ctx context.Context, k attendance.Key) (attendance.Group, error) {
	g, err := s.MemStore.FindLatest(ctx, k)
	if h := s.afterFind; h != nil {
		s.afterFind = nil
		h()
	}
	return g, err
}

func newTestService(t *testing.T, store Store, opts Options) *Service {
	t.Helper()
	svc := NewService(store, &stubFetcher{}, nil, opts)
	n := 0
	svc.newID = func() string {
		n++
		return fmt.Sprintf("id-%03d", n)
	}
	base := time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return svc
}

const sheetURL = "https://docs.google.com/spreadsheets/d/1AbCdEfGhIjKlMnOpQrStUv/edit#gid=0"

func signupRows() [][]string {
	return [][]string{
		{"Player Name", "Player Age", "Parent/Guardian Name", "Red Ball Clinic - Day & Time", "Green Ball Clinic - Day & Time"},
		{"Amy", "7", "Pat", "Monday - 3:00 - 4:00, Wednesday - 3:00 - 4:00", ""},
		{"Ben", "9", "Sam", "Monday - 3:00 - 4:00", "Tuesday - 4:00 - 5:00"},
	}
}

func str(s string) *string { return &s }

func mustImport(t *testing.T, svc *Service, rows [][]string) ImportResult {
	t.Helper()
	res, err := svc.Import(context.Background(), ImportInput{Rows: rows, Session: "Fall 2025"})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	return res
}

// ===== import =====

func TestImportPerClinicCreatesOneGroupPerKey(t *testing.T) {
	svc := newTestService(t, NewMemStore(), Options{})
	res := mustImport(t, svc, signupRows())

	if res.Records != 4 || len(res.Groups) != 3 {
		t.Fatalf("records=%d groups=%d", res.Records, len(res.Groups))
	}
	if res.Groups[0].Day != "Monday" || res.Groups[0].Clinic != "Red Ball Clinic" || res.Groups[0].Records != 2 {
		t.Errorf("first group = %+v", res.Groups[0])
	}
	if res.Groups[0].Session != "Fall 2025" {
		t.Errorf("session = %q", res.Groups[0].Session)
	}
}

func TestImportPerUploadCreatesSingleGroup(t *testing.T) {
	svc := newTestService(t, NewMemStore(), Options{Policy: PolicyPerUpload})
	res := mustImport(t, svc, signupRows())

	if len(res.Groups) != 1 || res.Groups[0].Records != 4 || res.Groups[0].Day != "" {
		t.Fatalf("groups = %+v", res.Groups)
	}
	g, err := svc.FindGroup(context.Background(), "Tuesday", "Green Ball Clinic")
	if err != nil || g.ID != res.Groups[0].GroupID {
		t.Fatalf("FindGroup = %v, %v", g.ID, err)
	}
}

func TestImportPerUploadSkipsEmptyUpload(t *testing.T) {
	store := NewMemStore()
	svc := newTestService(t, store, Options{Policy: PolicyPerUpload})
	res := mustImport(t, svc, [][]string{{"Player Name", "Red Ball Clinic - Day & Time"}, {"Amy", ""}})

	if res.Records != 0 || len(res.Groups) != 0 {
		t.Fatalf("result = %+v", res)
	}
	groups, _ := store.ListGroups(context.Background())
	if len(groups) != 0 {
		t.Fatalf("empty upload saved %d groups", len(groups))
	}
}

func TestImportRejectsEmptyTable(t *testing.T) {
	svc := newTestService(t, NewMemStore(), Options{})
	_, err := svc.Import(context.Background(), ImportInput{})
	if !IsCode(err, CodeInvalidArgument) {
		t.Fatalf("err = %v", err)
	}
}

func TestReimportKeepsRowIdentityAndEdits(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewMemStore(), Options{})
	mustImport(t, svc, signupRows())

	before, _ := svc.Roster(ctx, "Monday", "Red Ball Clinic")
	amy := before.Records[0]
	if amy.Name != "Amy" {
		t.Fatalf("unexpected order %v", before.Records)
	}
	if _, err := svc.AddExtraColumn(ctx, "Monday", "Red Ball Clinic", "2025-09-08"); err != nil {
		t.Fatal(err)
	}
	_, err := svc.ApplyEdits(ctx, "Monday", "Red Ball Clinic", []RowEdit{
		{RowID: amy.RowID, Comments: str("left early"), Extra: map[string]string{"2025-09-08": "present"}},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	manual, err := svc.AddBlankRow(ctx, "Monday", "Red Ball Clinic")
	if err != nil {
		t.Fatal(err)
	}

	// Ben drops out; Amy and the manual row stay
	rows := signupRows()
	rows = rows[:2]
	mustImport(t, svc, rows)

	after, err := svc.Roster(ctx, "Monday", "Red Ball Clinic")
	if err != nil {
		t.Fatal(err)
	}
	if after.GroupID != before.GroupID {
		t.Errorf("group id changed: %s -> %s", before.GroupID, after.GroupID)
	}
	if len(after.Records) != 2 {
		t.Fatalf("records = %+v", after.Records)
	}
	byID := map[string]attendance.Record{}
	for _, r := range after.Records {
		byID[r.RowID] = r
	}
	got, ok := byID[amy.RowID]
	if !ok || got.Comments != "left early" || got.ExtraValue("2025-09-08") != "present" {
		t.Errorf("amy not carried over: %+v", after.Records)
	}
	if _, ok := byID[manual.RowID]; !ok {
		t.Errorf("manual row lost: %+v", after.Records)
	}
	if len(after.Columns) != 1 || after.Columns[0] != "2025-09-08" {
		t.Errorf("columns = %v", after.Columns)
	}
}

func TestUpsertImportPerUploadMergesIntoLatestGroup(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewMemStore(), Options{Policy: PolicyPerUpload})
	res := mustImport(t, svc, signupRows())
	uploadID := res.Groups[0].GroupID

	fresh := []attendance.Record{
		{RowID: "new-1", Time: "3:00 - 4:00", Name: "Amy", GuardianName: "Pat"},
		{RowID: "new-2", Time: "3:00 - 4:00", Name: "Cat"},
	}
	g, err := svc.UpsertImport(ctx, "Monday", "Red Ball Clinic", fresh, []string{"Paid"})
	if err != nil {
		t.Fatal(err)
	}
	if g.ID != uploadID {
		t.Fatalf("merged into %s, want %s", g.ID, uploadID)
	}
	monday := g.Filter(attendance.Key{Day: "Monday", Clinic: "Red Ball Clinic"})
	if len(monday) != 2 {
		t.Fatalf("monday records = %+v", monday)
	}
	for _, r := range monday {
		if r.Name == "Ben" {
			t.Error("old record not pulled")
		}
		if r.Name == "Amy" && r.RowID == "new-1" {
			t.Error("Amy should keep her previous rowId")
		}
		if _, ok := r.Extra["Paid"]; !ok {
			t.Errorf("column Paid missing on %s", r.Name)
		}
	}
	// 他キーはそのまま
	if len(g.Filter(attendance.Key{Day: "Tuesday", Clinic: "Green Ball Clinic"})) != 1 {
		t.Error("unrelated key touched")
	}
	if !g.HasColumn("Paid") {
		t.Error("column not registered")
	}
}

func TestUpsertImportPerUploadCreatesGroupWhenMissing(t *testing.T) {
	svc := newTestService(t, NewMemStore(), Options{Policy: PolicyPerUpload})
	g, err := svc.UpsertImport(context.Background(), "friday", "high-performance-clinic",
		[]attendance.Record{{RowID: "r1", Name: "Zed"}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if g.Scoped() || len(g.Records) != 1 || g.Records[0].Clinic != "High Performance Clinic" {
		t.Fatalf("group = %+v", g)
	}
}

func TestImportSheetValidatesReferenceBeforeFetch(t *testing.T) {
	f := &stubFetcher{rows: signupRows()}
	svc := NewService(NewMemStore(), f, nil, Options{})

	_, err := svc.ImportSheet(context.Background(), "https://example.com/not-a-sheet", "")
	if !IsCode(err, CodeInvalidArgument) {
		t.Fatalf("err = %v", err)
	}
	if f.calls != 0 {
		t.Fatalf("fetcher called %d times", f.calls)
	}

	res, err := svc.ImportSheet(context.Background(), sheetURL, "")
	if err != nil {
		t.Fatal(err)
	}
	if f.calls != 1 || len(res.Groups) != 3 {
		t.Fatalf("calls=%d groups=%d", f.calls, len(res.Groups))
	}
	if len(f.invalidated) != 1 || f.invalidated[0] != "1AbCdEfGhIjKlMnOpQrStUv" {
		t.Fatalf("invalidated = %v", f.invalidated)
	}
}

func TestImportSheetFetchErrors(t *testing.T) {
	f := &stubFetcher{err: errors.New("boom")}
	svc := NewService(NewMemStore(), f, nil, Options{})
	if _, err := svc.ImportSheet(context.Background(), sheetURL, ""); !IsCode(err, CodeInternal) {
		t.Fatalf("err = %v", err)
	}
	f.err = gsheet.ErrEmptySheet
	if _, err := svc.ImportSheet(context.Background(), sheetURL, ""); !IsCode(err, CodeInvalidArgument) {
		t.Fatalf("err = %v", err)
	}
}

func TestImportFileCSV(t *testing.T) {
	svc := newTestService(t, NewMemStore(), Options{})
	csv := "Name,Red Ball Clinic - Day & Time\nAmy,Monday - 3:00 - 4:00\n"
	res, err := svc.ImportFile(context.Background(), "signup.csv", strings.NewReader(csv), "", "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Records != 1 {
		t.Fatalf("records = %d", res.Records)
	}
	if _, err := svc.ImportFile(context.Background(), "signup.pdf", strings.NewReader(""), "", ""); !IsCode(err, CodeInvalidArgument) {
		t.Fatalf("err = %v", err)
	}
}

func TestPreviewDoesNotPersist(t *testing.T) {
	store := NewMemStore()
	svc := NewService(store, &stubFetcher{rows: signupRows()}, nil, Options{})
	p, err := svc.Preview(context.Background(), sheetURL)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Records) != 4 || len(p.Sections) != 3 {
		t.Fatalf("records=%d sections=%d", len(p.Records), len(p.Sections))
	}
	groups, _ := store.ListGroups(context.Background())
	if len(groups) != 0 {
		t.Fatalf("preview stored %d groups", len(groups))
	}
}

// ===== edits =====

func TestApplyEditsAbsentFieldsUnchanged(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewMemStore(), Options{})
	mustImport(t, svc, signupRows())
	v, _ := svc.Roster(ctx, "Monday", "Red Ball Clinic")
	amy := v.Records[0]

	_, err := svc.ApplyEdits(ctx, "Monday", "Red Ball Clinic", []RowEdit{
		{RowID: amy.RowID, Fee: str("$20")},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	v, _ = svc.Roster(ctx, "Monday", "Red Ball Clinic")
	got := v.Records[0]
	if got.Fee != "$20" || got.Name != "Amy" || got.Age != "7" || got.Time != amy.Time {
		t.Fatalf("got %+v", got)
	}

	// 空文字の送信は空に更新
	_, err = svc.ApplyEdits(ctx, "Monday", "Red Ball Clinic", []RowEdit{
		{RowID: amy.RowID, Fee: str("")},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	v, _ = svc.Roster(ctx, "Monday", "Red Ball Clinic")
	if v.Records[0].Fee != "" {
		t.Fatalf("fee = %q", v.Records[0].Fee)
	}
}

func TestApplyEditsUnknownRowBecomesNewRecord(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewMemStore(), Options{})
	mustImport(t, svc, signupRows())

	res, err := svc.ApplyEdits(ctx, "Monday", "Red Ball Clinic", []RowEdit{
		{RowID: "does-not-exist", Name: str("Walk-in")},
		{Name: str("Second walk-in")},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Created) != 2 {
		t.Fatalf("created = %+v", res.Created)
	}
	for _, r := range res.Created {
		if r.Day != "Monday" || r.Clinic != "Red Ball Clinic" || !r.Manual || r.RowID == "" {
			t.Errorf("bad created record %+v", r)
		}
	}
	v, _ := svc.Roster(ctx, "Monday", "Red Ball Clinic")
	if len(v.Records) != 4 {
		t.Fatalf("records = %d", len(v.Records))
	}
}

func TestApplyEditsDeletedDraftIsNotCreated(t *testing.T) {
	store := NewMemStore()
	seedGroup(t, store, rec("r1", monRed, "A"))
	svc := newTestService(t, store, Options{})

	res, err := svc.ApplyEdits(context.Background(), "Monday", "Red Ball Clinic",
		[]RowEdit{{RowID: "draft-1", Name: str("Draft")}}, []string{"draft-1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Created) != 0 || res.Deleted != 0 {
		t.Fatalf("created=%d deleted=%d", len(res.Created), res.Deleted)
	}
	g, _ := store.GetGroup(context.Background(), "g1")
	if ids(g.Records) != "r1" {
		t.Fatalf("records = %s", ids(g.Records))
	}
}

func TestApplyEditsResubmitIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	seedGroup(t, store, rec("r1", monRed, "A"))
	svc := newTestService(t, store, Options{})

	batch := []RowEdit{{RowID: "client-new-1", Name: str("Walk-in")}}
	for i := 0; i < 3; i++ {
		res, err := svc.ApplyEdits(ctx, "Monday", "Red Ball Clinic", batch, nil)
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		if i == 0 && (len(res.Created) != 1 || res.Created[0].RowID != "client-new-1") {
			t.Fatalf("first submit created = %+v", res.Created)
		}
		if i > 0 && (len(res.Created) != 0 || res.Updated != 1) {
			t.Fatalf("submit %d: created=%d updated=%d", i, len(res.Created), res.Updated)
		}
	}
	g, _ := store.GetGroup(ctx, "g1")
	if ids(g.Records) != "r1,client-new-1" {
		t.Fatalf("records = %s", ids(g.Records))
	}
}

func TestApplyEditsRowIDTakenElsewhereGetsFreshID(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	seedGroup(t, store, rec("r1", monRed, "A"))
	other := attendance.Group{
		ID: "g2", Day: tueRed.Day, Clinic: tueRed.Clinic,
		Records:   []attendance.Record{rec("r9", tueRed, "Z")},
		CreatedAt: time.Date(2025, 9, 2, 0, 0, 0, 0, time.UTC),
	}
	if err := store.SaveGroup(ctx, other); err != nil {
		t.Fatal(err)
	}
	svc := newTestService(t, store, Options{})

	res, err := svc.ApplyEdits(ctx, "Monday", "Red Ball Clinic",
		[]RowEdit{{RowID: "r9", Name: str("Walk-in")}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Created) != 1 || res.Created[0].RowID != "id-001" {
		t.Fatalf("created = %+v", res.Created)
	}
	g2, _ := store.GetGroup(ctx, "g2")
	if g2.Records[0].Name != "Z" {
		t.Errorf("other group touched: %+v", g2.Records[0])
	}
}

func TestApplyEditsPerUploadStaysInsideKey(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewMemStore(), Options{Policy: PolicyPerUpload})
	mustImport(t, svc, signupRows())
	green, _ := svc.Roster(ctx, "Tuesday", "Green Ball Clinic")
	if len(green.Records) != 1 {
		t.Fatalf("green records = %d", len(green.Records))
	}
	ben := green.Records[0].RowID

	res, err := svc.ApplyEdits(ctx, "Monday", "Red Ball Clinic",
		[]RowEdit{{RowID: ben, Fee: str("$99")}}, []string{ben})
	if err != nil {
		t.Fatal(err)
	}
	if res.Deleted != 0 || res.Updated != 0 {
		t.Fatalf("deleted=%d updated=%d", res.Deleted, res.Updated)
	}
	green, _ = svc.Roster(ctx, "Tuesday", "Green Ball Clinic")
	if len(green.Records) != 1 || green.Records[0].Fee == "$99" {
		t.Fatalf("Tuesday/Green changed: %+v", green.Records)
	}

	res, err = svc.ApplyEdits(ctx, "Monday", "Red Ball Clinic",
		[]RowEdit{{RowID: ben, Name: str("Walk-in")}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Created) != 1 || res.Created[0].RowID == ben {
		t.Fatalf("created = %+v", res.Created)
	}
	red, _ := svc.Roster(ctx, "Monday", "Red Ball Clinic")
	if len(red.Records) != 3 {
		t.Fatalf("red records = %d", len(red.Records))
	}
	green, _ = svc.Roster(ctx, "Tuesday", "Green Ball Clinic")
	if len(green.Records) != 1 || green.Records[0].Name != "Ben" {
		t.Fatalf("Tuesday/Green changed: %+v", green.Records)
	}
}

func TestApplyEditsDeletes(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewMemStore(), Options{})
	mustImport(t, svc, signupRows())
	v, _ := svc.Roster(ctx, "Monday", "Red Ball Clinic")

	res, err := svc.ApplyEdits(ctx, "Monday", "Red Ball Clinic",
		[]RowEdit{{RowID: v.Records[0].RowID, Delete: true}},
		[]string{v.Records[1].RowID, "unknown"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Deleted != 2 {
		t.Fatalf("deleted = %d", res.Deleted)
	}
	v, _ = svc.Roster(ctx, "Monday", "Red Ball Clinic")
	if len(v.Records) != 0 {
		t.Fatalf("records left = %d", len(v.Records))
	}
	// グループ自体は残る
	if _, err := svc.FindGroup(ctx, "Monday", "Red Ball Clinic"); err != nil {
		t.Fatalf("group gone: %v", err)
	}
}

func TestApplyEditsRegistersNewExtraColumns(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewMemStore(), Options{})
	mustImport(t, svc, signupRows())
	v, _ := svc.Roster(ctx, "Monday", "Red Ball Clinic")

	_, err := svc.ApplyEdits(ctx, "Monday", "Red Ball Clinic", []RowEdit{
		{RowID: v.Records[0].RowID, Extra: map[string]string{"Week 1": "x"}},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	v, _ = svc.Roster(ctx, "Monday", "Red Ball Clinic")
	if len(v.Columns) != 1 || v.Columns[0] != "Week 1" {
		t.Fatalf("columns = %v", v.Columns)
	}
	for _, r := range v.Records {
		if _, ok := r.Extra["Week 1"]; !ok {
			t.Errorf("%s lacks Week 1", r.Name)
		}
	}
	if v.Records[0].Extra["Week 1"] != "x" || v.Records[1].Extra["Week 1"] != "" {
		t.Errorf("values = %q %q", v.Records[0].Extra["Week 1"], v.Records[1].Extra["Week 1"])
	}

	_, err = svc.ApplyEdits(ctx, "Monday", "Red Ball Clinic", []RowEdit{
		{RowID: v.Records[0].RowID, Extra: map[string]string{"Name": "x"}},
	}, nil)
	if !IsCode(err, CodeInvalidArgument) {
		t.Fatalf("core field as extra: err = %v", err)
	}
}

func TestApplyEditsWithoutGroupWritesNothing(t *testing.T) {
	store := NewMemStore()
	svc := newTestService(t, store, Options{})
	_, err := svc.ApplyEdits(context.Background(), "Monday", "Red Ball Clinic",
		[]RowEdit{{Name: str("x")}}, nil)
	if !IsCode(err, CodeNotFound) || !strings.Contains(err.Error(), "import first") {
		t.Fatalf("err = %v", err)
	}
	groups, _ := store.ListGroups(context.Background())
	if len(groups) != 0 {
		t.Fatal("edit created a group")
	}
}

// Reads and writes are separate store calls: an edit that lands between
// another edit's read and write is lost (last writer wins).
func TestApplyEditsLostUpdate(t *testing.T) {
	ctx := context.Background()
	mem := NewMemStore()
	store := &hookStore{MemStore: mem}
	svc := newTestService(t, store, Options{})
	mustImport(t, svc, signupRows())
	v, _ := svc.Roster(ctx, "Monday", "Red Ball Clinic")
	row := v.Records[0].RowID

	store.afterFind = func() {
		if _, err := svc.ApplyEdits(ctx, "Monday", "Red Ball Clinic",
			[]RowEdit{{RowID: row, Comments: str("from second editor")}}, nil); err != nil {
			t.Errorf("second edit: %v", err)
		}
	}
	if _, err := svc.ApplyEdits(ctx, "Monday", "Red Ball Clinic",
		[]RowEdit{{RowID: row, Fee: str("$10")}}, nil); err != nil {
		t.Fatal(err)
	}

	v, _ = svc.Roster(ctx, "Monday", "Red Ball Clinic")
	got := v.Records[0]
	if got.Fee != "$10" {
		t.Errorf("fee = %q", got.Fee)
	}
	if got.Comments != "" {
		t.Errorf("expected the second editor's comment to be overwritten, got %q", got.Comments)
	}
}

// ===== rows / columns =====

func TestAddBlankRow(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewMemStore(), Options{})
	if _, err := svc.AddBlankRow(ctx, "Monday", "Red Ball Clinic"); !IsCode(err, CodeNotFound) {
		t.Fatalf("err = %v", err)
	}
	mustImport(t, svc, signupRows())
	if _, err := svc.AddExtraColumn(ctx, "Monday", "Red Ball Clinic", "Paid"); err != nil {
		t.Fatal(err)
	}
	r, err := svc.AddBlankRow(ctx, "Monday", "Red Ball Clinic")
	if err != nil {
		t.Fatal(err)
	}
	if r.Name != "" || !r.Manual || r.RowID == "" {
		t.Fatalf("row = %+v", r)
	}
	if v, ok := r.Extra["Paid"]; !ok || v != "" {
		t.Fatalf("extra = %v", r.Extra)
	}
	v, _ := svc.Roster(ctx, "Monday", "Red Ball Clinic")
	if len(v.Records) != 3 {
		t.Fatalf("records = %d", len(v.Records))
	}
}

func TestAddBlankRowCreateOnDemand(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewMemStore(), Options{CreateOnDemand: true, DefaultSession: "Fall 2025"})
	r, err := svc.AddBlankRow(ctx, "Thursday", "Yellow Ball Clinic")
	if err != nil {
		t.Fatal(err)
	}
	g, err := svc.FindGroup(ctx, "Thursday", "Yellow Ball Clinic")
	if err != nil {
		t.Fatal(err)
	}
	if !g.Scoped() || g.Session != "Fall 2025" || g.IndexOf(r.RowID) != 0 {
		t.Fatalf("group = %+v", g)
	}
}

func TestAddExtraColumn(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewMemStore(), Options{})
	mustImport(t, svc, signupRows())

	g, err := svc.AddExtraColumn(ctx, "Monday", "Red Ball Clinic", " 2025-09-15 ")
	if err != nil {
		t.Fatal(err)
	}
	if !g.HasColumn("2025-09-15") {
		t.Fatalf("columns = %v", g.Columns)
	}
	for _, r := range g.Records {
		if v, ok := r.Extra["2025-09-15"]; !ok || v != "" {
			t.Errorf("record %s extra = %v", r.Name, r.Extra)
		}
	}

	cases := []struct {
		name string
		col  string
		want Code
	}{
		{"duplicate", "2025-09-15", CodeConflict},
		{"empty", "  ", CodeInvalidArgument},
		{"core field", "comments", CodeInvalidArgument},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AddExtraColumn(ctx, "Monday", "Red Ball Clinic", tc.col)
			if !IsCode(err, tc.want) {
				t.Fatalf("err = %v, want %s", err, tc.want)
			}
		})
	}
	if _, err := svc.AddExtraColumn(ctx, "Friday", "Red Ball Clinic", "x"); !IsCode(err, CodeNotFound) {
		t.Fatalf("err = %v", err)
	}
}

// ===== deletes =====

func TestDeleteRow(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewMemStore(), Options{})
	mustImport(t, svc, signupRows())
	v, _ := svc.Roster(ctx, "Tuesday", "Green Ball Clinic")

	if err := svc.DeleteRow(ctx, v.Records[0].RowID); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteRow(ctx, v.Records[0].RowID); !IsCode(err, CodeNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
	v, err := svc.Roster(ctx, "Tuesday", "Green Ball Clinic")
	if err != nil || len(v.Records) != 0 {
		t.Fatalf("roster = %+v, %v", v, err)
	}
}

func TestDeleteGroupPerClinic(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewMemStore(), Options{})
	mustImport(t, svc, signupRows())

	n, err := svc.DeleteGroup(ctx, "Monday", "Red Ball Clinic")
	if err != nil || n != 2 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	if _, err := svc.FindGroup(ctx, "Monday", "Red Ball Clinic"); !IsCode(err, CodeNotFound) {
		t.Fatalf("err = %v", err)
	}
	if _, err := svc.DeleteGroup(ctx, "Monday", "Red Ball Clinic"); !IsCode(err, CodeNotFound) {
		t.Fatalf("err = %v", err)
	}
	groups, _ := svc.ListGroups(ctx)
	if len(groups) != 2 {
		t.Fatalf("groups = %d", len(groups))
	}
}

func TestDeleteGroupPerUploadPullsRecords(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewMemStore(), Options{Policy: PolicyPerUpload})
	mustImport(t, svc, signupRows())

	n, err := svc.DeleteGroup(ctx, "Monday", "Red Ball Clinic")
	if err != nil || n != 2 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	groups, _ := svc.ListGroups(ctx)
	if len(groups) != 1 || groups[0].Records != 2 {
		t.Fatalf("groups = %+v", groups)
	}
}

func TestDeleteGroupByID(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewMemStore(), Options{})
	res := mustImport(t, svc, signupRows())
	if err := svc.DeleteGroupByID(ctx, res.Groups[0].GroupID); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteGroupByID(ctx, res.Groups[0].GroupID); !IsCode(err, CodeNotFound) {
		t.Fatalf("err = %v", err)
	}
}

// ===== views =====

func TestSectionsUseLatestGroupAndDisplayOrder(t *testing.T) {
	ctx := context.Background()
	order := []attendance.Key{
		{Day: "Tuesday", Clinic: "Green Ball Clinic"},
		{Day: "Monday", Clinic: "Red Ball Clinic"},
	}
	svc := newTestService(t, NewMemStore(), Options{Policy: PolicyPerUpload, DisplayOrder: order})
	mustImport(t, svc, signupRows())
	second := mustImport(t, svc, signupRows()[:2])

	secs, err := svc.Sections(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(secs) != 2 {
		t.Fatalf("sections = %d", len(secs))
	}
	if secs[0].Label != "Tuesday - Green Ball Clinic" {
		t.Errorf("first = %s", secs[0].Label)
	}
	mon := secs[1]
	if mon.GroupID != second.Groups[0].GroupID || len(mon.Records) != 1 {
		t.Errorf("monday section from %s with %d records", mon.GroupID, len(mon.Records))
	}
}

func TestExportGroupAndAll(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewMemStore(), Options{})
	mustImport(t, svc, signupRows())

	tb, name, err := svc.ExportGroup(ctx, "monday", "RedBallClinic")
	if err != nil {
		t.Fatal(err)
	}
	if name != "Monday_RedBallClinic" || len(tb.Rows) != 2 {
		t.Fatalf("name=%s rows=%d", name, len(tb.Rows))
	}
	all, err := svc.ExportAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all.Rows) != 4 || all.Header[0] != "Group" {
		t.Fatalf("header=%v rows=%d", all.Header, len(all.Rows))
	}
}

func TestParsePolicy(t *testing.T) {
	if p, err := ParsePolicy(""); err != nil || p != PolicyPerClinic {
		t.Fatalf("%v %v", p, err)
	}
	if p, err := ParsePolicy("PER_UPLOAD"); err != nil || p != PolicyPerUpload {
		t.Fatalf("%v %v", p, err)
	}
	if _, err := ParsePolicy("weekly"); err == nil {
		t.Fatal("expected error")
	}
}

// ===== properties =====

func seedGroup(t *testing.T, store Store, records ...attendance.Record) {
	t.Helper()
	g := attendance.Group{
		ID: "g1", Day: monRed.Day, Clinic: monRed.Clinic,
		Columns:   []string{"camp1"},
		Records:   records,
		CreatedAt: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := store.SaveGroup(context.Background(), g); err != nil {
		t.Fatal(err)
	}
}

func TestEditKeepsUnsentExtraValues(t *testing.T) {
	store := NewMemStore()
	r1 := rec("r1", monRed, "A")
	r1.Extra = map[string]string{"camp1": "x"}
	seedGroup(t, store, r1)
	svc := newTestService(t, store, Options{})

	if _, err := svc.ApplyEdits(context.Background(), "Monday", "Red Ball Clinic",
		[]RowEdit{{RowID: "r1", Name: str("B")}}, nil); err != nil {
		t.Fatal(err)
	}
	g, _ := store.GetGroup(context.Background(), "g1")
	if g.Records[0].Name != "B" || g.Records[0].ExtraValue("camp1") != "x" {
		t.Fatalf("record = %+v", g.Records[0])
	}
}

func TestEditDeleteFlagRemovesExactlyOne(t *testing.T) {
	store := NewMemStore()
	seedGroup(t, store, rec("r1", monRed, "A"), rec("r2", monRed, "B"), rec("r3", monRed, "C"))
	svc := newTestService(t, store, Options{})

	_, err := svc.ApplyEdits(context.Background(), "Monday", "Red Ball Clinic", []RowEdit{
		{RowID: "r1", Name: str("A")},
		{RowID: "r2", Delete: true},
		{RowID: "r3", Name: str("C")},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	g, _ := store.GetGroup(context.Background(), "g1")
	if ids(g.Records) != "r1,r3" {
		t.Fatalf("records = %s", ids(g.Records))
	}
}

func TestReimportSameTableIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	svc := newTestService(t, store, Options{})
	mustImport(t, svc, signupRows())
	first, _ := svc.Roster(ctx, "Monday", "Red Ball Clinic")
	mustImport(t, svc, signupRows())

	groups, _ := store.ListGroups(ctx)
	n := 0
	for _, g := range groups {
		if g.Contains(monRed) {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("%d groups hold %s", n, monRed)
	}
	second, _ := svc.Roster(ctx, "Monday", "Red Ball Clinic")
	if ids(second.Records) != ids(first.Records) {
		t.Fatalf("records %s -> %s", ids(first.Records), ids(second.Records))
	}
}
