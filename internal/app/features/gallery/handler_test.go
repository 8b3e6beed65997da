package gallery_test

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

	"github.com/leirefolket/leirefolket/internal/app/features/gallery"
	gallerystore "github.com/leirefolket/leirefolket/internal/app/store/gallery"
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

func newTestHandler(t *testing.T) (*gallery.Handler, *fakeStore, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store := newFakeStore()
	return gallery.NewHandler(db, store, nil, nil, zap.NewNop()), store, db
}

func multipartUpload(t *testing.T, field, filename, contentType string, payload []byte, extra map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("part write: %v", err)
	}
	for k, v := range extra {
		_ = mw.WriteField(k, v)
	}
	_ = mw.Close()

	req := httptest.NewRequest("POST", "/admin/galleri", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return testutil.WithUser(req, testutil.AdminUser())
}

func TestHandleUpload_StoresObjectAndRecord(t *testing.T) {
	h, store, db := newTestHandler(t)

	req := multipartUpload(t, "image", "krus.jpg", "image/jpeg", []byte("jpegdata"), map[string]string{"title": "Krus"})
	rec := testutil.NewRecorder()

	h.HandleUpload(rec, req)

	rec.AssertRedirect(t, "/admin/galleri")
	if store.count() != 1 {
		t.Errorf("stored objects: got %d, want 1", store.count())
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	imgs, err := gallerystore.New(db).List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(imgs) != 1 {
		t.Fatalf("gallery records: got %d, want 1", len(imgs))
	}
	if imgs[0].Title != "Krus" {
		t.Errorf("title: got %q", imgs[0].Title)
	}
	if imgs[0].Order != 1 {
		t.Errorf("first image order: got %d, want 1", imgs[0].Order)
	}
}

func TestHandleUpload_RejectsUnsupportedType(t *testing.T) {
	h, store, _ := newTestHandler(t)

	req := multipartUpload(t, "image", "skript.svg", "image/svg+xml", []byte("<svg/>"), nil)
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

	req := multipartUpload(t, "image", "krus.jpg", "image/jpeg", []byte("jpegdata"), nil)
	h.HandleUpload(testutil.NewRecorder(), req)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	imgs, err := gallerystore.New(db).List(ctx)
	if err != nil || len(imgs) != 1 {
		t.Fatalf("seed image missing: %v", err)
	}

	delReq := testutil.NewAuthenticatedRequest("POST", "/admin/galleri/"+imgs[0].ID.Hex()+"/slett", testutil.AdminUser())
	delReq = testutil.WithChiURLParam(delReq, "id", imgs[0].ID.Hex())
	rec := testutil.NewRecorder()

	h.HandleDelete(rec, delReq)

	rec.AssertRedirect(t, "/admin/galleri")
	if store.count() != 0 {
		t.Errorf("object not removed from storage")
	}
	imgs, _ = gallerystore.New(db).List(ctx)
	if len(imgs) != 0 {
		t.Errorf("record not removed")
	}
}
