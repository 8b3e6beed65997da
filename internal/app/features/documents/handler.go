// internal/app/features/documents/handler.go
package documents

import (
	"context"
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	uierrors "github.com/leirefolket/leirefolket/internal/app/features/errors"
	documentstore "github.com/leirefolket/leirefolket/internal/app/store/documents"
	"github.com/leirefolket/leirefolket/internal/app/system/authz"
	"github.com/leirefolket/leirefolket/internal/app/system/gates"
	"github.com/leirefolket/leirefolket/internal/app/system/storage"
	"github.com/leirefolket/leirefolket/internal/app/system/timeouts"
	"github.com/leirefolket/leirefolket/internal/app/system/viewdata"
	"github.com/leirefolket/leirefolket/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// maxDocumentBytes caps document uploads at 20 MB.
const maxDocumentBytes = 20 << 20

// allowedDocTypes lists the content types members can download safely.
var allowedDocTypes = map[string]bool{
	"application/pdf": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       true,
	"application/msword":       true,
	"application/vnd.ms-excel": true,
	"text/plain":               true,
}

// Handler serves the member document archive.
type Handler struct {
	DB        *mongo.Database
	Documents *documentstore.Store
	Storage   storage.Store
	Log       *zap.Logger
	ErrLog    *uierrors.ErrorLogger
}

func NewHandler(db *mongo.Database, store storage.Store, logger *zap.Logger) *Handler {
	return &Handler{
		DB:        db,
		Documents: documentstore.New(db),
		Storage:   store,
		Log:       logger,
		ErrLog:    uierrors.NewErrorLogger(logger),
	}
}

type documentsPageData struct {
	viewdata.BaseVM
	Documents []models.Document
	Admin     bool
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /medlem/dokumenter                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeDocuments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	docs, err := h.Documents.List(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "documents: list failed", err,
			"Dokumentene kunne ikke lastes. Prøv igjen.", "/medlem")
		return
	}

	role, _, _, _ := authz.UserCtx(r)
	templates.Render(w, r, "documents", documentsPageData{
		BaseVM:    viewdata.NewBaseVM(r, h.DB, "Dokumenter", "/medlem"),
		Documents: docs,
		Admin:     models.ParseRole(role).CanManageUsers(),
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /medlem/dokumenter – upload (admin)                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleUpload stores the file first; the record is only written once the
// bytes are safe.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAdmin(w, r, "Bare styret kan laste opp dokumenter.", "/medlem/dokumenter")
	if !g.OK {
		return
	}

	if err := r.ParseMultipartForm(maxDocumentBytes); err != nil {
		h.ErrLog.LogBadRequest(w, r, "documents upload: bad multipart form", err,
			"Filen kunne ikke leses. Er den under 20 MB?", "/medlem/dokumenter")
		return
	}

	file, header, err := r.FormFile("document")
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "documents upload: missing file", err,
			"Velg en fil å laste opp.", "/medlem/dokumenter")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !allowedDocTypes[contentType] {
		h.ErrLog.LogBadRequest(w, r, "documents upload: unsupported type", nil,
			"Filtypen støttes ikke. Last opp PDF, Word, Excel eller ren tekst.", "/medlem/dokumenter")
		return
	}

	title := r.FormValue("title")
	if title == "" {
		title = header.Filename
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	info, err := storage.UploadFile(ctx, h.Storage, "documents", header.Filename, file, header.Size, contentType)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "documents upload: storage put failed", err,
			"Filen kunne ikke lagres. Prøv igjen.", "/medlem/dokumenter")
		return
	}

	_, err = h.Documents.Add(ctx, models.Document{
		Title:          title,
		Path:           info.Path,
		URL:            info.URL,
		FileName:       header.Filename,
		Size:           header.Size,
		UploadedByID:   g.UserID,
		UploadedByName: g.Name,
	})
	if err != nil {
		if derr := h.Storage.Delete(ctx, info.Path); derr != nil {
			h.Log.Warn("documents upload: orphan cleanup failed",
				zap.String("path", info.Path), zap.Error(derr))
		}
		h.ErrLog.LogServerError(w, r, "documents upload: record insert failed", err,
			"Filen kunne ikke lagres. Prøv igjen.", "/medlem/dokumenter")
		return
	}

	http.Redirect(w, r, "/medlem/dokumenter", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /medlem/dokumenter/{id}/slett – delete (admin)                         |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleDelete removes the record first; a leftover object in storage is
// recoverable, a dangling record with a dead URL is user-visible.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if g := gates.RequireAdmin(w, r, "Bare styret kan slette dokumenter.", "/medlem/dokumenter"); !g.OK {
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "documents delete: bad id", err,
			"Ugyldig dokument.", "/medlem/dokumenter")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	doc, err := h.Documents.GetByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			http.Redirect(w, r, "/medlem/dokumenter", http.StatusSeeOther)
			return
		}
		h.ErrLog.LogServerError(w, r, "documents delete: lookup failed", err,
			"Dokumentet kunne ikke slettes.", "/medlem/dokumenter")
		return
	}

	if _, err := h.Documents.Delete(ctx, id); err != nil {
		h.ErrLog.LogServerError(w, r, "documents delete: record delete failed", err,
			"Dokumentet kunne ikke slettes.", "/medlem/dokumenter")
		return
	}

	if doc.Path != "" {
		if err := h.Storage.Delete(ctx, doc.Path); err != nil {
			h.Log.Warn("documents delete: object delete failed",
				zap.String("path", doc.Path), zap.Error(err))
		}
	}

	http.Redirect(w, r, "/medlem/dokumenter", http.StatusSeeOther)
}
