package gallery

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leirefolket/leirefolket/internal/app/live"
	gallerystore "github.com/leirefolket/leirefolket/internal/app/store/gallery"
	"github.com/leirefolket/leirefolket/internal/domain/models"
	"github.com/leirefolket/leirefolket/internal/testutil"
	"go.uber.org/zap"
)

// oneShotWatcher emits a single snapshot and ends the feed, standing in
// for a change stream during handler tests.
type oneShotWatcher struct{}

func (oneShotWatcher) Watch(_ context.Context, _ live.Query) <-chan live.Snapshot {
	ch := make(chan live.Snapshot, 1)
	ch <- live.Snapshot{}
	close(ch)
	return ch
}

func TestServeLive_DropsCacheEntryWhenConnectionEnds(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cache := live.NewCache()
	h := &Handler{
		DB:      db,
		Gallery: gallerystore.New(db),
		Binder:  live.NewBinder(oneShotWatcher{}, zap.NewNop()),
		Cache:   cache,
		Log:     zap.NewNop(),
	}

	req := httptest.NewRequest("GET", "/galleri/live", nil)
	rec := httptest.NewRecorder()

	h.ServeLive(rec, req)

	if !strings.Contains(rec.Body.String(), "Ingen bilder") {
		t.Errorf("expected the snapshot to stream the grid, got %q", rec.Body.String())
	}
	// Each public visit binds a fresh key, so a finished connection must
	// not leave its fragment behind.
	if cache.Len() != 0 {
		t.Errorf("cache entries after disconnect: got %d, want 0", cache.Len())
	}
}

func TestRenderGalleryFragment_Empty(t *testing.T) {
	out, err := renderGalleryFragment(nil)
	if err != nil {
		t.Fatalf("renderGalleryFragment: %v", err)
	}
	if !strings.Contains(out, "Ingen bilder") {
		t.Errorf("empty gallery must show the placeholder, got %q", out)
	}
}

func TestRenderGalleryFragment_Images(t *testing.T) {
	out, err := renderGalleryFragment([]models.GalleryImage{
		{Title: "Rakubrenning", URL: "https://files.example.com/gallery/raku.jpg"},
		{Title: "", URL: "https://files.example.com/gallery/krus.jpg"},
	})
	if err != nil {
		t.Fatalf("renderGalleryFragment: %v", err)
	}
	if !strings.Contains(out, "gallery-grid") {
		t.Error("fragment must render the grid wrapper")
	}
	if !strings.Contains(out, "raku.jpg") || !strings.Contains(out, "krus.jpg") {
		t.Errorf("fragment must include both images, got %q", out)
	}
	if strings.Count(out, "<figcaption>") != 1 {
		t.Errorf("only titled images get captions, got %q", out)
	}
}
