// internal/app/features/events/handler.go
package events

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	uierrors "github.com/leirefolket/leirefolket/internal/app/features/errors"
	"github.com/leirefolket/leirefolket/internal/app/live"
	eventstore "github.com/leirefolket/leirefolket/internal/app/store/events"
	rsvpstore "github.com/leirefolket/leirefolket/internal/app/store/rsvps"
	"github.com/leirefolket/leirefolket/internal/app/system/auth"
	"github.com/leirefolket/leirefolket/internal/app/system/timeouts"
	"github.com/leirefolket/leirefolket/internal/app/system/viewdata"
	"github.com/leirefolket/leirefolket/internal/domain/models"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// dateLayout is the format the event form posts ("2006-01-02T15:04" from
// <input type="datetime-local">).
const dateLayout = "2006-01-02T15:04"

// Handler serves the member event calendar with RSVPs.
type Handler struct {
	DB     *mongo.Database
	Events *eventstore.Store
	RSVPs  *rsvpstore.Store
	Binder *live.Binder
	Cache  *live.Cache
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger

	sanitize *bluemonday.Policy
}

func NewHandler(db *mongo.Database, binder *live.Binder, cache *live.Cache, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Events:   eventstore.New(db),
		RSVPs:    rsvpstore.New(db),
		Binder:   binder,
		Cache:    cache,
		Log:      logger,
		ErrLog:   uierrors.NewErrorLogger(logger),
		sanitize: bluemonday.UGCPolicy(),
	}
}

func canManage(u *auth.SessionUser) bool {
	return u != nil && models.ParseRole(u.Role).CanPublish()
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /medlem/arrangementer                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeEvents(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	upcomingViews, pastViews, err := h.loadEventViews(ctx, u)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "events: load failed", err,
			"Arrangementene kunne ikke lastes. Prøv igjen.", "/medlem")
		return
	}

	base := viewdata.NewBaseVM(r, h.DB, "Arrangementer", "/medlem")

	// First paint and SSE repaints share one fragment renderer, so the
	// page never flashes a different layout when the stream connects.
	listHTML, err := eventsListHTML(upcomingViews, pastViews, base.CSRFToken)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "events: render failed", err,
			"Arrangementene kunne ikke vises. Prøv igjen.", "/medlem")
		return
	}

	data := struct {
		viewdata.BaseVM
		ListHTML  template.HTML
		CanManage bool
	}{
		BaseVM:    base,
		ListHTML:  listHTML,
		CanManage: canManage(u),
	}

	templates.Render(w, r, "events", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /medlem/arrangementer – create (admin/contributor)                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	if !canManage(u) {
		uierrors.RenderForbidden(w, r, "Bare styret og bidragsytere kan opprette arrangementer.", "/medlem/arrangementer")
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "events: bad form", err,
			"Skjemaet kunne ikke leses. Prøv igjen.", "/medlem/arrangementer")
		return
	}

	date, err := time.ParseInLocation(dateLayout, r.FormValue("date"), time.Local)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "events: bad date", err,
			"Ugyldig dato.", "/medlem/arrangementer")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	_, err = h.Events.Create(ctx, models.Event{
		Title:       r.FormValue("title"),
		Description: h.sanitize.Sanitize(r.FormValue("description")),
		Location:    r.FormValue("location"),
		Date:        date,
		AuthorID:    u.ID,
		AuthorName:  u.Name,
	})
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "events: create failed", err,
			"Arrangementet kunne ikke lagres. Har det en tittel og dato?", "/medlem/arrangementer")
		return
	}

	http.Redirect(w, r, "/medlem/arrangementer", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /medlem/arrangementer/{id}/endre – edit (admin or author)              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	id, event, ok := h.loadOwnEvent(w, r, u)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "events: bad form", err,
			"Skjemaet kunne ikke leses. Prøv igjen.", "/medlem/arrangementer")
		return
	}

	date := event.Date
	if raw := r.FormValue("date"); raw != "" {
		parsed, err := time.ParseInLocation(dateLayout, raw, time.Local)
		if err != nil {
			h.ErrLog.LogBadRequest(w, r, "events: bad date", err,
				"Ugyldig dato.", "/medlem/arrangementer")
			return
		}
		date = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	err := h.Events.Update(ctx, id, models.Event{
		Title:       r.FormValue("title"),
		Description: h.sanitize.Sanitize(r.FormValue("description")),
		Location:    r.FormValue("location"),
		ImageURL:    event.ImageURL,
		Date:        date,
	})
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "events: update failed", err,
			"Arrangementet kunne ikke oppdateres.", "/medlem/arrangementer")
		return
	}

	http.Redirect(w, r, "/medlem/arrangementer", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /medlem/arrangementer/{id}/slett                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	id, _, ok := h.loadOwnEvent(w, r, u)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Events.Delete(ctx, id); err != nil {
		h.ErrLog.LogServerError(w, r, "events: delete failed", err,
			"Arrangementet kunne ikke slettes.", "/medlem/arrangementer")
		return
	}
	if _, err := h.RSVPs.DeleteByEvent(ctx, id); err != nil {
		h.Log.Warn("events: rsvp cleanup failed", zap.Error(err))
	}

	http.Redirect(w, r, "/medlem/arrangementer", http.StatusSeeOther)
}

// loadOwnEvent resolves {id} and checks the admin-or-author rule shared by
// edit and delete.
func (h *Handler) loadOwnEvent(w http.ResponseWriter, r *http.Request, u *auth.SessionUser) (primitive.ObjectID, *models.Event, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "events: bad id", err,
			"Ugyldig arrangement.", "/medlem/arrangementer")
		return primitive.NilObjectID, nil, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	event, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			h.ErrLog.LogNotFound(w, r, "events: not found",
				"Arrangementet finnes ikke.", "/medlem/arrangementer")
			return primitive.NilObjectID, nil, false
		}
		h.ErrLog.LogServerError(w, r, "events: lookup failed", err,
			"Noe gikk galt. Prøv igjen.", "/medlem/arrangementer")
		return primitive.NilObjectID, nil, false
	}

	if !models.ParseRole(u.Role).CanDeleteContent() && event.AuthorID != u.ID {
		uierrors.RenderForbidden(w, r, "Du kan bare endre dine egne arrangementer.", "/medlem/arrangementer")
		return primitive.NilObjectID, nil, false
	}
	return id, event, true
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /medlem/arrangementer/{id}/svar – RSVP toggle                          |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleRSVP(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "events: bad id", err,
			"Ugyldig arrangement.", "/medlem/arrangementer")
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "events: bad form", err,
			"Skjemaet kunne ikke leses. Prøv igjen.", "/medlem/arrangementer")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	// The event must exist; answers to deleted events would linger forever.
	if _, err := h.Events.GetByID(ctx, id); err != nil {
		if err == mongo.ErrNoDocuments {
			h.ErrLog.LogNotFound(w, r, "events: rsvp on missing event",
				"Arrangementet finnes ikke lenger.", "/medlem/arrangementer")
			return
		}
		h.ErrLog.LogServerError(w, r, "events: lookup failed", err,
			"Svaret kunne ikke lagres.", "/medlem/arrangementer")
		return
	}

	if _, err := h.RSVPs.Toggle(ctx, id, u.ID, u.Name, u.PhotoURL, r.FormValue("answer")); err != nil {
		h.ErrLog.LogBadRequest(w, r, "events: rsvp failed", err,
			"Svaret kunne ikke lagres.", "/medlem/arrangementer")
		return
	}

	if r.Header.Get("HX-Request") == "true" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/medlem/arrangementer", http.StatusSeeOther)
}
