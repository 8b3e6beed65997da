// internal/app/features/feed/handler.go
package feed

import (
	"context"
	"html/template"
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	uierrors "github.com/leirefolket/leirefolket/internal/app/features/errors"
	"github.com/leirefolket/leirefolket/internal/app/live"
	commentstore "github.com/leirefolket/leirefolket/internal/app/store/comments"
	poststore "github.com/leirefolket/leirefolket/internal/app/store/posts"
	reactionstore "github.com/leirefolket/leirefolket/internal/app/store/reactions"
	"github.com/leirefolket/leirefolket/internal/app/system/auth"
	"github.com/leirefolket/leirefolket/internal/app/system/timeouts"
	"github.com/leirefolket/leirefolket/internal/app/system/viewdata"
	"github.com/leirefolket/leirefolket/internal/domain/models"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"go.mongodb.org/mongo-driver/mongo"
)

// Feed page sizes. The page starts at the first step and grows one step per
// "load more" click.
const (
	FeedStep     = 5
	FeedMaxLimit = 50
)

// Handler serves the member feed: posts, comments, and likes.
type Handler struct {
	DB        *mongo.Database
	Posts     *poststore.Store
	Comments  *commentstore.Store
	Reactions *reactionstore.Store
	Binder    *live.Binder
	Cache     *live.Cache
	Log       *zap.Logger
	ErrLog    *uierrors.ErrorLogger

	sanitize *bluemonday.Policy
}

func NewHandler(db *mongo.Database, binder *live.Binder, cache *live.Cache, logger *zap.Logger) *Handler {
	return &Handler{
		DB:        db,
		Posts:     poststore.New(db),
		Comments:  commentstore.New(db),
		Reactions: reactionstore.New(db),
		Binder:    binder,
		Cache:     cache,
		Log:       logger,
		ErrLog:    uierrors.NewErrorLogger(logger),
		sanitize:  bluemonday.UGCPolicy(),
	}
}

// NormalizeLimit clamps a requested feed size to a whole number of steps.
func NormalizeLimit(n int) int {
	if n < FeedStep {
		return FeedStep
	}
	if n > FeedMaxLimit {
		return FeedMaxLimit
	}
	return n - n%FeedStep
}

// canPublish reports whether the user may create or remove posts.
func canPublish(u *auth.SessionUser) bool {
	return u != nil && models.ParseRole(u.Role).CanPublish()
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /medlem – feed page                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeFeed(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	limit := NormalizeLimit(atoi(r.URL.Query().Get("antall")))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	posts, err := h.loadFeed(ctx, u.ID, int64(limit))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "feed: load failed", err,
			"Innleggene kunne ikke lastes. Prøv igjen.", "/")
		return
	}

	// First paint and SSE repaints share one fragment renderer, so the
	// page never flashes a different layout when the stream connects.
	feedHTML, err := feedFragmentHTML(posts, u, limit)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "feed: render failed", err,
			"Innleggene kunne ikke vises. Prøv igjen.", "/")
		return
	}

	data := struct {
		viewdata.BaseVM
		FeedHTML   template.HTML
		Limit      int
		CanPublish bool
	}{
		BaseVM:     viewdata.NewBaseVM(r, h.DB, "Medlem", "/"),
		FeedHTML:   feedHTML,
		Limit:      limit,
		CanPublish: canPublish(u),
	}

	templates.Render(w, r, "feed", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /medlem/innlegg – create post (admin/contributor)                      |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleCreatePost(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	if !canPublish(u) {
		uierrors.RenderForbidden(w, r, "Bare styret og bidragsytere kan publisere innlegg.", "/medlem")
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "feed: bad form", err,
			"Skjemaet kunne ikke leses. Prøv igjen.", "/medlem")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	_, err := h.Posts.Create(ctx, models.Post{
		Title:      r.FormValue("title"),
		Content:    h.sanitize.Sanitize(r.FormValue("content")),
		AuthorID:   u.ID,
		AuthorName: u.Name,
	})
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "feed: create post failed", err,
			"Innlegget kunne ikke lagres. Har det en tittel?", "/medlem")
		return
	}

	http.Redirect(w, r, "/medlem", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /medlem/innlegg/{id}/slett                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleDeletePost(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "feed: bad post id", err,
			"Ugyldig innlegg.", "/medlem")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	post, err := h.Posts.GetByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			http.Redirect(w, r, "/medlem", http.StatusSeeOther)
			return
		}
		h.ErrLog.LogServerError(w, r, "feed: post lookup failed", err,
			"Innlegget kunne ikke slettes.", "/medlem")
		return
	}

	// Admins may remove anything; contributors only their own posts.
	if !models.ParseRole(u.Role).CanDeleteContent() && post.AuthorID != u.ID {
		uierrors.RenderForbidden(w, r, "Du kan bare slette dine egne innlegg.", "/medlem")
		return
	}

	if _, err := h.Posts.Delete(ctx, id); err != nil {
		h.ErrLog.LogServerError(w, r, "feed: delete post failed", err,
			"Innlegget kunne ikke slettes.", "/medlem")
		return
	}

	// Comment and reaction cleanup is best effort; orphans are invisible
	// once the post is gone.
	if _, err := h.Comments.DeleteByPost(ctx, id); err != nil {
		h.Log.Warn("feed: comment cleanup failed", zap.Error(err))
	}
	if _, err := h.Reactions.DeleteByPost(ctx, id); err != nil {
		h.Log.Warn("feed: reaction cleanup failed", zap.Error(err))
	}

	http.Redirect(w, r, "/medlem", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /medlem/innlegg/{id}/liker – toggle like                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleToggleLike(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "feed: bad post id", err,
			"Ugyldig innlegg.", "/medlem")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Reactions.Toggle(ctx, id, u.ID); err != nil {
		h.ErrLog.LogServerError(w, r, "feed: toggle like failed", err,
			"Reaksjonen kunne ikke lagres.", "/medlem")
		return
	}

	// The live region repaints the feed; the POST itself has nothing to show.
	if r.Header.Get("HX-Request") == "true" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/medlem", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Comments                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleAddComment handles POST /medlem/innlegg/{id}/kommentar.
func (h *Handler) HandleAddComment(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "feed: bad post id", err,
			"Ugyldig innlegg.", "/medlem")
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "feed: bad form", err,
			"Skjemaet kunne ikke leses. Prøv igjen.", "/medlem")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	// The post must still exist; commenting on a deleted post is a no-op
	// with a friendly message rather than an orphaned record.
	if _, err := h.Posts.GetByID(ctx, id); err != nil {
		if err == mongo.ErrNoDocuments {
			h.ErrLog.LogNotFound(w, r, "feed: comment on missing post",
				"Innlegget finnes ikke lenger.", "/medlem")
			return
		}
		h.ErrLog.LogServerError(w, r, "feed: post lookup failed", err,
			"Kommentaren kunne ikke lagres.", "/medlem")
		return
	}

	_, err = h.Comments.Add(ctx, models.Comment{
		PostID:      id,
		Text:        h.sanitize.Sanitize(r.FormValue("text")),
		AuthorID:    u.ID,
		AuthorName:  u.Name,
		AuthorPhoto: u.PhotoURL,
	})
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "feed: add comment failed", err,
			"Kommentaren kunne ikke lagres. Er den tom?", "/medlem")
		return
	}

	if r.Header.Get("HX-Request") == "true" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/medlem", http.StatusSeeOther)
}

// HandleDeleteComment handles POST /medlem/kommentar/{id}/slett.
func (h *Handler) HandleDeleteComment(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "feed: bad comment id", err,
			"Ugyldig kommentar.", "/medlem")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	deleted, err := h.Comments.Delete(ctx, id, u.ID, models.ParseRole(u.Role).CanDeleteContent())
	if err != nil {
		h.ErrLog.LogServerError(w, r, "feed: delete comment failed", err,
			"Kommentaren kunne ikke slettes.", "/medlem")
		return
	}
	if deleted == 0 {
		uierrors.RenderForbidden(w, r, "Du kan bare slette dine egne kommentarer.", "/medlem")
		return
	}

	if r.Header.Get("HX-Request") == "true" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/medlem", http.StatusSeeOther)
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
		if n > FeedMaxLimit {
			return FeedMaxLimit
		}
	}
	return n
}
