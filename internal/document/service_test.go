package document

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/docuflow/docuflow/internal/actionlog"
	"github.com/docuflow/docuflow/internal/apperr"
	"github.com/docuflow/docuflow/internal/models"
	"github.com/docuflow/docuflow/internal/repository"
	"github.com/docuflow/docuflow/internal/storage"
)

const pdfBody = "%PDF-1.4 fake body"

func pdfDataURI() string {
	return "data:application/pdf;base64," + base64.StdEncoding.EncodeToString([]byte(pdfBody))
}

type fakeMailer struct {
	sent []sentMail
	fail error
}

type sentMail struct {
	to      string
	shareID int64
	pdfID   string
	empID   int64
	kind    string
}

func (f *fakeMailer) SendShareDocument(ctx context.Context, to string, sharedDocumentID int64, documentPDFID string, employeeID int64, kind string) error {
	if f.fail != nil {
		return f.fail
	}
	f.sent = append(f.sent, sentMail{to, sharedDocumentID, documentPDFID, employeeID, kind})
	return nil
}

type seqHashes struct{ n int }

func (h *seqHashes) AccessHash() (string, error) {
	h.n++
	return fmt.Sprintf("%064x", h.n), nil
}

type fixture struct {
	svc    *Service
	mem    *repository.Memory
	blobs  *storage.Memory
	mailer *fakeMailer
	now    *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := repository.NewMemory()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mem.Now = func() time.Time { return now }

	blobs := storage.NewMemory()
	mailer := &fakeMailer{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewService(Deps{
		Documents: repository.MemoryDocuments{Memory: mem},
		Shares:    repository.MemoryShares{Memory: mem},
		Partials:  repository.MemoryPartials{Memory: mem},
		Employees: repository.MemoryEmployees{Memory: mem},
		Storage:   blobs,
		Mailer:    mailer,
		Tokens:    &seqHashes{},
		Actions:   actionlog.NewRecorder(repository.MemoryActions{Memory: mem}, log),
		Logger:    log,
		ValidFor:  60,
	})
	f := &fixture{svc: svc, mem: mem, blobs: blobs, mailer: mailer, now: &now}
	svc.now = func() time.Time { return now }
	return f
}

func (f *fixture) advance(d time.Duration) { *f.now = f.now.Add(d) }

func (f *fixture) createDoc(t *testing.T, owner int64, pdfID string) *models.Document {
	t.Helper()
	doc, err := f.svc.Create(context.Background(), owner, CreateInput{
		PDFID:      pdfID,
		Name:       "NDA",
		PDFBase64:  pdfDataURI(),
		Pages:      3,
		Canvas:     json.RawMessage(`[]`),
		UpdateDate: 1700000000000,
	})
	if err != nil {
		t.Fatalf("create document: %v", err)
	}
	return doc
}

func (f *fixture) addEmployee(t *testing.T, owner int64, email string) *models.Employee {
	t.Helper()
	emp, err := f.mem.CreateEmployee(context.Background(), &models.Employee{
		UserID: owner, Name: "Signer", Email: email,
	})
	if err != nil {
		t.Fatalf("create employee: %v", err)
	}
	return emp
}

func TestCreateStoresBlobAndRow(t *testing.T) {
	f := newFixture(t)
	doc := f.createDoc(t, 1, "doc-1")

	if doc.FilePath != "pdfs/doc-1.pdf" {
		t.Fatalf("file path = %q", doc.FilePath)
	}
	b, ok := f.blobs.Bytes("pdfs/doc-1.pdf")
	if !ok || string(b) != pdfBody {
		t.Fatalf("blob not stored or wrong bytes: %q", b)
	}

	docs, err := f.svc.ListActive(context.Background(), 1)
	if err != nil || len(docs) != 1 || docs[0].PDFID != "doc-1" {
		t.Fatalf("list active = %v, %v", docs, err)
	}
	if got := f.mem.Actions(); len(got) != 1 || got[0].Action != models.ActionCreated {
		t.Fatalf("actions = %+v", got)
	}
}

func TestCreateDuplicatePDFID(t *testing.T) {
	f := newFixture(t)
	f.createDoc(t, 1, "doc-1")

	_, err := f.svc.Create(context.Background(), 1, CreateInput{
		PDFID: "doc-1", Name: "Other", PDFBase64: pdfDataURI(), Pages: 1,
	})
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("want conflict, got %v", err)
	}
	if fields := apperr.FieldsOf(err); fields["PDFId"] == "" {
		t.Fatalf("want PDFId field message, got %v", fields)
	}
}

func TestCreateRejectsBadBase64(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), 1, CreateInput{
		PDFID: "doc-x", Name: "NDA", PDFBase64: "not-base-64!!", Pages: 1,
	})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("want validation error, got %v", err)
	}
	if fields := apperr.FieldsOf(err); fields["PDFBase64"] == "" {
		t.Fatalf("want PDFBase64 field message, got %v", fields)
	}
}

func TestCreateRejectsMalformedCanvas(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), 1, CreateInput{
		PDFID: "doc-x", Name: "NDA", PDFBase64: pdfDataURI(), Pages: 1,
		Canvas: json.RawMessage(`{"unterminated`),
	})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("want validation error, got %v", err)
	}
}

func TestCanvasRoundTrip(t *testing.T) {
	f := newFixture(t)
	canvas := json.RawMessage(`[{"t":"sig","p":1,"x":10,"y":20}]`)
	doc, err := f.svc.Create(context.Background(), 1, CreateInput{
		PDFID: "doc-c", Name: "NDA", PDFBase64: pdfDataURI(), Pages: 1, Canvas: canvas,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	stored, err := f.mem.GetByID(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(stored.Canvas) != string(canvas) {
		t.Fatalf("canvas round trip: got %s want %s", stored.Canvas, canvas)
	}
}

func TestUpdatePatchesFieldsAndOverwritesBlob(t *testing.T) {
	f := newFixture(t)
	f.createDoc(t, 1, "doc-1")

	name := "NDA v2"
	pages := 5
	newBody := "%PDF-1.4 replaced"
	b64 := base64.StdEncoding.EncodeToString([]byte(newBody))
	doc, err := f.svc.Update(context.Background(), 1, "doc-1", UpdatePatch{
		Name:      &name,
		Pages:     &pages,
		Canvas:    json.RawMessage(`[{"t":"text"}]`),
		PDFBase64: &b64,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if doc.Name != "NDA v2" || doc.Pages != 5 {
		t.Fatalf("patched doc = %+v", doc)
	}
	b, _ := f.blobs.Bytes("pdfs/doc-1.pdf")
	if string(b) != newBody {
		t.Fatalf("blob not overwritten in place: %q", b)
	}
}

func TestMutationsByNonOwnerAreNotFound(t *testing.T) {
	f := newFixture(t)
	f.createDoc(t, 1, "doc-1")

	name := "stolen"
	if _, err := f.svc.Update(context.Background(), 2, "doc-1", UpdatePatch{Name: &name}); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("update: want not found, got %v", err)
	}
	if err := f.svc.Trash(context.Background(), 2, "doc-1"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("trash: want not found, got %v", err)
	}
	if err := f.svc.Archive(context.Background(), 2, "doc-1"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("archive: want not found, got %v", err)
	}

	doc, err := f.mem.GetByPDFID(context.Background(), "doc-1")
	if err != nil || doc.Name != "NDA" || doc.Trashed() || doc.IsArchived {
		t.Fatalf("document mutated by non-owner: %+v, %v", doc, err)
	}
}

func TestShareIsIdempotentWhileLive(t *testing.T) {
	f := newFixture(t)
	doc := f.createDoc(t, 1, "doc-1")
	emp := f.addEmployee(t, 1, "signer@example.com")

	res, err := f.svc.Share(context.Background(), 1, "doc-1", []int64{emp.ID})
	if err != nil {
		t.Fatalf("share: %v", err)
	}
	if res.TotalNewShares != 1 || len(res.Outcomes) != 1 || !res.Outcomes[0].Created {
		t.Fatalf("first share result = %+v", res)
	}
	first := res.Outcomes[0].Share
	if len(first.AccessHash) != 64 {
		t.Fatalf("access hash length = %d", len(first.AccessHash))
	}
	if len(f.mailer.sent) != 1 {
		t.Fatalf("mail count = %d", len(f.mailer.sent))
	}
	if got := f.mailer.sent[0]; got.to != "signer@example.com" || got.pdfID != doc.PDFID || got.kind != "mail" {
		t.Fatalf("sent mail = %+v", got)
	}

	res, err = f.svc.Share(context.Background(), 1, "doc-1", []int64{emp.ID})
	if err != nil {
		t.Fatalf("re-share: %v", err)
	}
	if res.TotalNewShares != 0 || res.Outcomes[0].Created {
		t.Fatalf("second share should reuse: %+v", res)
	}
	if res.Outcomes[0].Share.AccessHash != first.AccessHash {
		t.Fatal("re-share returned a different share")
	}
	if len(f.mailer.sent) != 1 {
		t.Fatalf("mail count after re-share = %d", len(f.mailer.sent))
	}
}

func TestShareAfterExpiryCreatesFreshShare(t *testing.T) {
	f := newFixture(t)
	f.createDoc(t, 1, "doc-1")
	emp := f.addEmployee(t, 1, "signer@example.com")

	res, _ := f.svc.Share(context.Background(), 1, "doc-1", []int64{emp.ID})
	first := res.Outcomes[0].Share

	f.advance(61 * time.Minute)

	res, err := f.svc.Share(context.Background(), 1, "doc-1", []int64{emp.ID})
	if err != nil {
		t.Fatalf("re-share after expiry: %v", err)
	}
	second := res.Outcomes[0].Share
	if !res.Outcomes[0].Created || second.ID == first.ID || second.AccessHash == first.AccessHash {
		t.Fatalf("expected fresh share, got %+v (first %+v)", second, first)
	}
	if len(f.mailer.sent) != 2 {
		t.Fatalf("mail count = %d", len(f.mailer.sent))
	}
	if _, err := f.mem.Get(context.Background(), first.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatal("expired share should have been deleted")
	}
}

func TestShareMailFailureLeavesNoShare(t *testing.T) {
	f := newFixture(t)
	f.createDoc(t, 1, "doc-1")
	emp := f.addEmployee(t, 1, "signer@example.com")
	f.mailer.fail = errors.New("relay down")

	res, err := f.svc.Share(context.Background(), 1, "doc-1", []int64{emp.ID})
	if err != nil {
		t.Fatalf("share: %v", err)
	}
	if res.TotalNewShares != 0 || res.Outcomes[0].Error == "" {
		t.Fatalf("expected failed outcome, got %+v", res.Outcomes[0])
	}

	doc, _ := f.mem.GetByPDFID(context.Background(), "doc-1")
	if _, err := f.mem.GetPending(context.Background(), doc.ID, emp.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatal("phantom share left behind after mail failure")
	}
}

func TestShareCollectsPerRecipientFailures(t *testing.T) {
	f := newFixture(t)
	f.createDoc(t, 1, "doc-1")
	emp := f.addEmployee(t, 1, "signer@example.com")

	res, err := f.svc.Share(context.Background(), 1, "doc-1", []int64{emp.ID, 999})
	if err != nil {
		t.Fatalf("share: %v", err)
	}
	if res.TotalNewShares != 1 || len(res.Outcomes) != 2 {
		t.Fatalf("result = %+v", res)
	}
	if res.Outcomes[1].Error == "" {
		t.Fatal("missing employee should produce an outcome error")
	}
}

func TestBulkShareSkipsForeignDocuments(t *testing.T) {
	f := newFixture(t)
	f.createDoc(t, 1, "mine")
	f.createDoc(t, 2, "theirs")
	emp := f.addEmployee(t, 1, "signer@example.com")

	res, err := f.svc.BulkShare(context.Background(), 1, []string{"mine", "theirs"}, []int64{emp.ID})
	if err != nil {
		t.Fatalf("bulk share: %v", err)
	}
	if res.TotalNewShares != 1 || len(res.Outcomes) != 2 {
		t.Fatalf("result = %+v", res)
	}
	if res.Outcomes[1].Error == "" {
		t.Fatal("foreign document should be reported, not shared")
	}
	if len(f.mailer.sent) != 1 {
		t.Fatalf("mail count = %d", len(f.mailer.sent))
	}
}

func TestRemindSendsReminderKind(t *testing.T) {
	f := newFixture(t)
	f.createDoc(t, 1, "doc-1")
	emp := f.addEmployee(t, 1, "signer@example.com")
	res, _ := f.svc.Share(context.Background(), 1, "doc-1", []int64{emp.ID})
	share := res.Outcomes[0].Share

	if err := f.svc.Remind(context.Background(), 1, share.ID); err != nil {
		t.Fatalf("remind: %v", err)
	}
	if len(f.mailer.sent) != 2 || f.mailer.sent[1].kind != "reminder" {
		t.Fatalf("sent = %+v", f.mailer.sent)
	}

	if err := f.svc.Remind(context.Background(), 2, share.ID); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("foreign remind: want not found, got %v", err)
	}
}

func TestRemindMailFailureSurfacesDependency(t *testing.T) {
	f := newFixture(t)
	f.createDoc(t, 1, "doc-1")
	emp := f.addEmployee(t, 1, "signer@example.com")
	res, _ := f.svc.Share(context.Background(), 1, "doc-1", []int64{emp.ID})

	f.mailer.fail = apperr.Dependency("mail delivery failed", errors.New("relay down"))
	err := f.svc.Remind(context.Background(), 1, res.Outcomes[0].Share.ID)
	if apperr.KindOf(err) != apperr.KindDependency {
		t.Fatalf("want dependency error, got %v", err)
	}
}

func TestResaveSignedFinalizesShare(t *testing.T) {
	f := newFixture(t)
	f.createDoc(t, 1, "doc-1")
	emp := f.addEmployee(t, 1, "signer@example.com")
	res, _ := f.svc.Share(context.Background(), 1, "doc-1", []int64{emp.ID})
	shareID := res.Outcomes[0].Share.ID

	signed, err := f.svc.ResaveSigned(context.Background(), ResaveInput{
		SharedDocumentID: shareID,
		Name:             "NDA-signed",
		PDFBase64:        pdfDataURI(),
		Pages:            3,
		Canvas:           json.RawMessage(`[{"t":"sig","p":1,"x":10,"y":20}]`),
	})
	if err != nil {
		t.Fatalf("resave: %v", err)
	}
	if signed.Status != models.ShareStatusSigned || signed.ValidFor != 0 || signed.SignedAt == nil {
		t.Fatalf("share not finalized: %+v", signed)
	}
	if !signed.ExpiredAt(*f.now) {
		t.Fatal("signed share should be immediately expired")
	}
	if signed.FilePath == nil || !strings.HasPrefix(*signed.FilePath, "signed_documents/NDA-signed-") {
		t.Fatalf("signed blob path = %v", signed.FilePath)
	}
	if _, ok := f.blobs.Bytes(*signed.FilePath); !ok {
		t.Fatal("signed blob missing")
	}

	_, err = f.svc.ResaveSigned(context.Background(), ResaveInput{
		SharedDocumentID: shareID, Name: "again", PDFBase64: pdfDataURI(), Pages: 3,
	})
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("double resave: want conflict, got %v", err)
	}
}

func TestResaveSignedRejectsNonPositivePages(t *testing.T) {
	f := newFixture(t)
	f.createDoc(t, 1, "doc-1")
	emp := f.addEmployee(t, 1, "signer@example.com")
	res, _ := f.svc.Share(context.Background(), 1, "doc-1", []int64{emp.ID})
	shareID := res.Outcomes[0].Share.ID

	for _, pages := range []int{0, -1} {
		_, err := f.svc.ResaveSigned(context.Background(), ResaveInput{
			SharedDocumentID: shareID, Name: "NDA-signed", PDFBase64: pdfDataURI(), Pages: pages,
		})
		if apperr.KindOf(err) != apperr.KindValidation {
			t.Fatalf("pages=%d: want validation error, got %v", pages, err)
		}
	}

	share, err := f.mem.Get(context.Background(), shareID)
	if err != nil {
		t.Fatalf("get share: %v", err)
	}
	if share.Status != models.ShareStatusPending {
		t.Fatalf("rejected resave mutated the share: %+v", share)
	}
}

func TestResaveSuffixKeepsIdenticalNamesApart(t *testing.T) {
	f := newFixture(t)
	f.createDoc(t, 1, "doc-1")
	e1 := f.addEmployee(t, 1, "a@example.com")
	e2 := f.addEmployee(t, 1, "b@example.com")
	res, _ := f.svc.Share(context.Background(), 1, "doc-1", []int64{e1.ID, e2.ID})

	for _, o := range res.Outcomes {
		if _, err := f.svc.ResaveSigned(context.Background(), ResaveInput{
			SharedDocumentID: o.Share.ID, Name: "same-name", PDFBase64: pdfDataURI(), Pages: 1,
		}); err != nil {
			t.Fatalf("resave: %v", err)
		}
	}

	signed := 0
	for _, k := range f.blobs.Keys() {
		if strings.HasPrefix(k, "signed_documents/same-name-") {
			signed++
		}
	}
	if signed != 2 {
		t.Fatalf("want 2 distinct signed blobs, got %d", signed)
	}
}

func TestResolveShareAccess(t *testing.T) {
	f := newFixture(t)
	f.createDoc(t, 1, "doc-1")
	emp := f.addEmployee(t, 1, "signer@example.com")
	res, _ := f.svc.Share(context.Background(), 1, "doc-1", []int64{emp.ID})
	share := res.Outcomes[0].Share

	if _, err := f.svc.ResolveShareAccess(context.Background(), share.ID, "doc-1", emp.ID); err != nil {
		t.Fatalf("live link: %v", err)
	}
	if _, err := f.svc.ResolveShareAccess(context.Background(), share.ID, "doc-1", emp.ID+1); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("wrong employee: want not found, got %v", err)
	}
	if _, err := f.svc.ResolveShareAccess(context.Background(), share.ID, "other-doc", emp.ID); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("wrong pdf id: want not found, got %v", err)
	}

	f.advance(61 * time.Minute)
	if _, err := f.svc.ResolveShareAccess(context.Background(), share.ID, "doc-1", emp.ID); apperr.KindOf(err) != apperr.KindExpired {
		t.Fatalf("expired link: want expired, got %v", err)
	}
}

func TestExpiryIsMonotonic(t *testing.T) {
	f := newFixture(t)
	f.createDoc(t, 1, "doc-1")
	emp := f.addEmployee(t, 1, "signer@example.com")
	res, _ := f.svc.Share(context.Background(), 1, "doc-1", []int64{emp.ID})
	share := res.Outcomes[0].Share

	f.advance(61 * time.Minute)
	for i := 0; i < 3; i++ {
		if !share.ExpiredAt(*f.now) {
			t.Fatalf("share became unexpired at step %d", i)
		}
		f.advance(24 * time.Hour)
	}
}

func TestTrackCountsByStatus(t *testing.T) {
	f := newFixture(t)
	f.createDoc(t, 1, "doc-1")
	e1 := f.addEmployee(t, 1, "a@example.com")
	e2 := f.addEmployee(t, 1, "b@example.com")
	res, _ := f.svc.Share(context.Background(), 1, "doc-1", []int64{e1.ID, e2.ID})
	if _, err := f.svc.ResaveSigned(context.Background(), ResaveInput{
		SharedDocumentID: res.Outcomes[0].Share.ID, Name: "done", PDFBase64: pdfDataURI(), Pages: 1,
	}); err != nil {
		t.Fatalf("resave: %v", err)
	}

	track, err := f.svc.Track(context.Background(), 1)
	if err != nil {
		t.Fatalf("track: %v", err)
	}
	if track.Total != 2 || track.SignedCount != 1 || track.PendingCount != 1 {
		t.Fatalf("track = %+v", track)
	}

	signed, err := f.svc.ListSigned(context.Background(), 1)
	if err != nil || len(signed) != 1 {
		t.Fatalf("list signed = %v, %v", signed, err)
	}
}

func TestLifecycleTrashRestoreForceDelete(t *testing.T) {
	f := newFixture(t)
	f.createDoc(t, 1, "doc-1")
	ctx := context.Background()

	if err := f.svc.Trash(ctx, 1, "doc-1"); err != nil {
		t.Fatalf("trash: %v", err)
	}
	if docs, _ := f.svc.ListActive(ctx, 1); len(docs) != 0 {
		t.Fatal("trashed doc still active")
	}
	if docs, _ := f.svc.ListTrashed(ctx, 1); len(docs) != 1 {
		t.Fatal("trashed doc missing from trash listing")
	}

	if err := f.svc.Restore(ctx, 1, "doc-1"); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if docs, _ := f.svc.ListActive(ctx, 1); len(docs) != 1 {
		t.Fatal("restored doc not active")
	}
	// Restore only applies to the trashed set.
	if err := f.svc.Restore(ctx, 1, "doc-1"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("restore of active doc: want not found, got %v", err)
	}

	if err := f.svc.Trash(ctx, 1, "doc-1"); err != nil {
		t.Fatalf("trash again: %v", err)
	}
	if err := f.svc.ForceDelete(ctx, 1, "doc-1"); err != nil {
		t.Fatalf("force delete: %v", err)
	}
	if _, ok := f.blobs.Bytes("pdfs/doc-1.pdf"); ok {
		t.Fatal("blob survived force delete")
	}
	// Idempotent on the blob side: deleting the gone key is not an error.
	if err := f.svc.ForceDelete(ctx, 1, "doc-1"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("second force delete: want not found, got %v", err)
	}
}

func TestArchiveListing(t *testing.T) {
	f := newFixture(t)
	f.createDoc(t, 1, "doc-1")
	ctx := context.Background()

	if err := f.svc.Archive(ctx, 1, "doc-1"); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if docs, _ := f.svc.ListActive(ctx, 1); len(docs) != 0 {
		t.Fatal("archived doc still in active listing")
	}
	if docs, _ := f.svc.ListArchived(ctx, 1); len(docs) != 1 {
		t.Fatal("archived doc missing from archive listing")
	}
	if err := f.svc.Unarchive(ctx, 1, "doc-1"); err != nil {
		t.Fatalf("unarchive: %v", err)
	}
	if docs, _ := f.svc.ListActive(ctx, 1); len(docs) != 1 {
		t.Fatal("unarchived doc not active")
	}
}

func TestStorePartialImageAndLiteral(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	png := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("pngbytes"))
	p, err := f.svc.StorePartial(ctx, 1, PartialInput{Value: png})
	if err != nil {
		t.Fatalf("store image partial: %v", err)
	}
	if !strings.HasPrefix(p.FilePath, "partials/partial-") || !strings.HasSuffix(p.FilePath, ".png") {
		t.Fatalf("partial path = %q", p.FilePath)
	}
	if p.FileType != models.PartialTypeSignature {
		t.Fatalf("file type = %q", p.FileType)
	}
	if b, ok := f.blobs.Bytes(p.FilePath); !ok || string(b) != "pngbytes" {
		t.Fatalf("partial blob = %q, %v", b, ok)
	}

	lit, err := f.svc.StorePartial(ctx, 1, PartialInput{Value: "J.D.", FileType: models.PartialTypeInitials})
	if err != nil {
		t.Fatalf("store literal partial: %v", err)
	}
	if lit.FilePath != "J.D." || lit.FileType != models.PartialTypeInitials {
		t.Fatalf("literal partial = %+v", lit)
	}

	list, err := f.svc.ListPartials(ctx, 1)
	if err != nil || len(list) != 2 {
		t.Fatalf("list partials = %v, %v", list, err)
	}
}

func TestOpenSignedDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.blobs.Put(ctx, "signed_documents/done.pdf", strings.NewReader("bytes"), 5, "application/pdf"); err != nil {
		t.Fatalf("seed blob: %v", err)
	}

	rc, err := f.svc.OpenSignedDocument(ctx, "done.pdf")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	b, _ := io.ReadAll(rc)
	rc.Close()
	if string(b) != "bytes" {
		t.Fatalf("read = %q", b)
	}

	if _, err := f.svc.OpenSignedDocument(ctx, "../secrets.pdf"); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("traversal: want validation, got %v", err)
	}
	if _, err := f.svc.OpenSignedDocument(ctx, "missing.pdf"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("missing: want not found, got %v", err)
	}
}

func TestDecodeBase64PDFForms(t *testing.T) {
	raw := base64.StdEncoding.EncodeToString([]byte(pdfBody))

	for _, tc := range []struct {
		name    string
		payload string
		wantErr bool
	}{
		{"raw base64", raw, false},
		{"data uri", "data:application/pdf;base64," + raw, false},
		{"empty", "", true},
		{"garbage", "!!!", true},
		{"empty decode", "data:application/pdf;base64,", true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeBase64PDF(tc.payload)
			if tc.wantErr {
				if apperr.KindOf(err) != apperr.KindValidation {
					t.Fatalf("want validation error, got %v", err)
				}
				return
			}
			if err != nil || string(got) != pdfBody {
				t.Fatalf("decode = %q, %v", got, err)
			}
		})
	}
}
