// internal/app/features/gallery/handler.go
package gallery

import (
	"context"
	"html/template"
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	uierrors "github.com/leirefolket/leirefolket/internal/app/features/errors"
	"github.com/leirefolket/leirefolket/internal/app/live"
	gallerystore "github.com/leirefolket/leirefolket/internal/app/store/gallery"
	"github.com/leirefolket/leirefolket/internal/app/system/authz"
	"github.com/leirefolket/leirefolket/internal/app/system/storage"
	"github.com/leirefolket/leirefolket/internal/app/system/timeouts"
	"github.com/leirefolket/leirefolket/internal/app/system/viewdata"
	"github.com/leirefolket/leirefolket/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// maxImageBytes caps gallery uploads at 10 MB.
const maxImageBytes = 10 << 20

// Handler serves the public gallery and the admin management page.
type Handler struct {
	DB      *mongo.Database
	Gallery *gallerystore.Store
	Storage storage.Store
	Binder  *live.Binder
	Cache   *live.Cache
	Log     *zap.Logger
	ErrLog  *uierrors.ErrorLogger
}

func NewHandler(db *mongo.Database, store storage.Store, binder *live.Binder, cache *live.Cache, logger *zap.Logger) *Handler {
	return &Handler{
		DB:      db,
		Gallery: gallerystore.New(db),
		Storage: store,
		Binder:  binder,
		Cache:   cache,
		Log:     logger,
		ErrLog:  uierrors.NewErrorLogger(logger),
	}
}

type galleryPageData struct {
	viewdata.BaseVM
	Images   []models.GalleryImage
	GridHTML template.HTML
	Admin    bool
	Error    string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /galleri – public gallery                                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeGallery(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	// The first paint uses the same fragment the live region streams,
	// so the two never differ.
	grid, err := h.galleryFragmentHTML(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "gallery: list failed", err,
			"Galleriet kunne ikke lastes. Prøv igjen senere.", "/")
		return
	}

	role, _, _, _ := authz.UserCtx(r)
	templates.Render(w, r, "gallery", galleryPageData{
		BaseVM:   viewdata.NewBaseVM(r, h.DB, "Galleri", "/"),
		GridHTML: grid,
		Admin:    models.ParseRole(role).CanManageUsers(),
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Admin management (mounted under /admin/galleri)                             |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeManage handles GET /admin/galleri.
func (h *Handler) ServeManage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	images, err := h.Gallery.List(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "gallery: list failed", err,
			"Galleriet kunne ikke lastes. Prøv igjen senere.", "/")
		return
	}

	templates.Render(w, r, "gallery_manage", galleryPageData{
		BaseVM: viewdata.NewBaseVM(r, h.DB, "Administrer galleri", "/galleri"),
		Images: images,
		Admin:  true,
	})
}

// HandleUpload handles POST /admin/galleri. The file goes to object storage
// first; the gallery record is only written once the bytes are safe.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		h.ErrLog.LogBadRequest(w, r, "gallery upload: bad multipart form", err,
			"Bildet kunne ikke leses. Er det under 10 MB?", "/admin/galleri")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "gallery upload: missing file", err,
			"Velg et bilde å laste opp.", "/admin/galleri")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType != "image/jpeg" && contentType != "image/png" && contentType != "image/webp" {
		h.ErrLog.LogBadRequest(w, r, "gallery upload: unsupported type", nil,
			"Bare JPEG, PNG og WebP støttes.", "/admin/galleri")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	info, err := storage.UploadFile(ctx, h.Storage, "gallery", header.Filename, file, header.Size, contentType)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "gallery upload: storage put failed", err,
			"Bildet kunne ikke lagres. Prøv igjen.", "/admin/galleri")
		return
	}

	_, _, uid, _ := authz.UserCtx(r)
	if _, err := h.Gallery.Add(ctx, models.GalleryImage{
		Title:   r.FormValue("title"),
		URL:     info.URL,
		Path:    info.Path,
		AddedBy: uid,
	}); err != nil {
		// Roll back the orphaned object; a failure here only costs storage.
		if derr := h.Storage.Delete(ctx, info.Path); derr != nil {
			h.Log.Warn("gallery upload: orphan cleanup failed",
				zap.String("path", info.Path), zap.Error(derr))
		}
		h.ErrLog.LogServerError(w, r, "gallery upload: record insert failed", err,
			"Bildet kunne ikke lagres. Prøv igjen.", "/admin/galleri")
		return
	}

	http.Redirect(w, r, "/admin/galleri", http.StatusSeeOther)
}

// HandleReorder handles POST /admin/galleri/{id}/rekkefolge.
func (h *Handler) HandleReorder(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "gallery reorder: bad id", err,
			"Ugyldig bilde.", "/admin/galleri")
		return
	}

	order, err := strconv.Atoi(r.FormValue("order"))
	if err != nil || order < 1 {
		h.ErrLog.LogBadRequest(w, r, "gallery reorder: bad order", err,
			"Ugyldig rekkefølge.", "/admin/galleri")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Gallery.SetOrder(ctx, id, order); err != nil {
		if err == mongo.ErrNoDocuments {
			h.ErrLog.LogNotFound(w, r, "gallery reorder: image gone",
				"Bildet finnes ikke lenger.", "/admin/galleri")
			return
		}
		h.ErrLog.LogServerError(w, r, "gallery reorder: update failed", err,
			"Rekkefølgen kunne ikke lagres.", "/admin/galleri")
		return
	}

	http.Redirect(w, r, "/admin/galleri", http.StatusSeeOther)
}

// HandleDelete handles POST /admin/galleri/{id}/slett. The record goes
// first; a leftover object in storage is recoverable, a dangling record
// with a dead URL is user-visible.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "gallery delete: bad id", err,
			"Ugyldig bilde.", "/admin/galleri")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	img, err := h.Gallery.GetByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			http.Redirect(w, r, "/admin/galleri", http.StatusSeeOther)
			return
		}
		h.ErrLog.LogServerError(w, r, "gallery delete: lookup failed", err,
			"Bildet kunne ikke slettes.", "/admin/galleri")
		return
	}

	if _, err := h.Gallery.Delete(ctx, id); err != nil {
		h.ErrLog.LogServerError(w, r, "gallery delete: record delete failed", err,
			"Bildet kunne ikke slettes.", "/admin/galleri")
		return
	}

	if img.Path != "" {
		if err := h.Storage.Delete(ctx, img.Path); err != nil {
			h.Log.Warn("gallery delete: object delete failed",
				zap.String("path", img.Path), zap.Error(err))
		}
	}

	http.Redirect(w, r, "/admin/galleri", http.StatusSeeOther)
}
