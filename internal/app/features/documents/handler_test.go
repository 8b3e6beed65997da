package documents_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"

	"github.com/leirefolket/leirefolket/internal/app/features/documents"
	documentstore "github.com/leirefolket/leirefolket/internal/app/store/documents"
	"github.com/leirefolket/leirefolket/internal/app/system/storage"
	"github.com/leirefolket/leirefolket/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// fakeStore keeps uploaded objects in memory.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeStore() *fakeStore { return &fakeStore{objects: map[string][]byte{}} }

func (f *fakeStore) Put(_ context.Context, path string, r io.Reader, _ int64, _ *storage.PutOptions) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[path] = data
	return nil
}

func (f *fakeStore) Delete(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, path)
	return nil
}

func (f *fakeStore) URL(path string) string { return "https://files.example.com/" + path }

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

func newTestHandler(t *testing.T) (*documents.Handler, *fakeStore, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store := newFakeStore()
	return documents.NewHandler(db, store, zap.NewNop()), store, db
}

func multipartUpload(t *testing.T, u testutil.TestUser, filename, contentType string, payload []byte, title string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="document"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("part write: %v", err)
	}
	if title != "" {
		_ = mw.WriteField("title", title)
	}
	_ = mw.Close()

	req := httptest.NewRequest("POST", "/medlem/dokumenter", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return testutil.WithUser(req, u)
}

func TestHandleUpload_StoresObjectAndRecord(t *testing.T) {
	h, store, db := newTestHandler(t)

	req := multipartUpload(t, testutil.AdminUser(), "vedtekter.pdf", "application/pdf", []byte("%PDF-1.7"), "Vedtekter")
	rec := testutil.NewRecorder()

	h.HandleUpload(rec, req)

	rec.AssertRedirect(t, "/medlem/dokumenter")
	if store.count() != 1 {
		t.Errorf("stored objects: got %d, want 1", store.count())
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	docs, err := documentstore.New(db).List(ctx)
	if err != nil || len(docs) != 1 {
		t.Fatalf("document record missing: %v (%d)", err, len(docs))
	}
	if docs[0].Title != "Vedtekter" || docs[0].FileName != "vedtekter.pdf" {
		t.Errorf("record fields: %+v", docs[0])
	}
}

func TestHandleUpload_FilenameBecomesTitle(t *testing.T) {
	h, _, db := newTestHandler(t)

	req := multipartUpload(t, testutil.AdminUser(), "referat.pdf", "application/pdf", []byte("%PDF-1.7"), "")
	h.HandleUpload(testutil.NewRecorder(), req)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	docs, _ := documentstore.New(db).List(ctx)
	if len(docs) != 1 || docs[0].Title != "referat.pdf" {
		t.Errorf("missing title must fall back to the filename: %+v", docs)
	}
}

func TestHandleUpload_MemberForbidden(t *testing.T) {
	h, store, _ := newTestHandler(t)

	req := multipartUpload(t, testutil.MemberUser(), "vedtekter.pdf", "application/pdf", []byte("%PDF-1.7"), "")
	rec := testutil.NewRecorder()

	func() {
		defer func() { _ = recover() }()
		h.HandleUpload(rec, req)
	}()

	if store.count() != 0 {
		t.Error("member upload must not reach storage")
	}
}

func TestHandleUpload_RejectsUnsupportedType(t *testing.T) {
	h, store, _ := newTestHandler(t)

	req := multipartUpload(t, testutil.AdminUser(), "virus.exe", "application/octet-stream", []byte{0x4d, 0x5a}, "")
	rec := testutil.NewRecorder()

	func() {
		defer func() { _ = recover() }()
		h.HandleUpload(rec, req)
	}()

	if store.count() != 0 {
		t.Errorf("unsupported type must not reach storage, got %d objects", store.count())
	}
}

func TestHandleDelete_RemovesRecordAndObject(t *testing.T) {
	h, store, db := newTestHandler(t)

	req := multipartUpload(t, testutil.AdminUser(), "aarsmelding.pdf", "application/pdf", []byte("%PDF-1.7"), "Årsmelding")
	h.HandleUpload(testutil.NewRecorder(), req)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	docs, err := documentstore.New(db).List(ctx)
	if err != nil || len(docs) != 1 {
		t.Fatalf("seed document missing: %v", err)
	}

	delReq := testutil.NewAuthenticatedRequest("POST", "/medlem/dokumenter/"+docs[0].ID.Hex()+"/slett", testutil.AdminUser())
	delReq = testutil.WithChiURLParam(delReq, "id", docs[0].ID.Hex())
	rec := testutil.NewRecorder()

	h.HandleDelete(rec, delReq)

	rec.AssertRedirect(t, "/medlem/dokumenter")
	if store.count() != 0 {
		t.Error("object not removed from storage")
	}
	docs, _ = documentstore.New(db).List(ctx)
	if len(docs) != 0 {
		t.Error("record not removed")
	}
}
