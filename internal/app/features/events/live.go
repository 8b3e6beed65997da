// internal/app/features/events/live.go
package events

import (
	"context"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"github.com/leirefolket/leirefolket/internal/app/live"
	eventstore "github.com/leirefolket/leirefolket/internal/app/store/events"
	"github.com/leirefolket/leirefolket/internal/app/system/auth"
	"github.com/leirefolket/leirefolket/internal/app/system/timeouts"
	"github.com/leirefolket/leirefolket/internal/domain/models"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// eventView is one event with the attendance data the page needs.
// AttendeesHTML is the same fragment the live region streams, so the
// first paint and later repaints never differ.
type eventView struct {
	models.Event
	DescriptionHTML template.HTML
	AttendeesHTML   template.HTML
	CanEdit         bool
}

// descPolicy re-sanitizes descriptions at render time. They are sanitized
// on write too, but records imported from the old site predate that.
var descPolicy = bluemonday.UGCPolicy()

func (h *Handler) buildViews(ctx context.Context, events []models.Event, u *auth.SessionUser) ([]eventView, error) {
	var role models.Role
	if u != nil {
		role = models.ParseRole(u.Role)
	}
	views := make([]eventView, 0, len(events))
	for _, e := range events {
		attendees, err := h.attendeeFragmentHTML(ctx, e.ID, u)
		if err != nil {
			return nil, err
		}
		views = append(views, eventView{
			Event:           e,
			DescriptionHTML: template.HTML(descPolicy.Sanitize(e.Description)),
			AttendeesHTML:   attendees,
			CanEdit: u != nil && (role.CanDeleteContent() ||
				(role.CanPublish() && e.AuthorID == u.ID)),
		})
	}
	return views, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /medlem/arrangementer/live/{id} – live attendee list for one event      |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLive(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "bad event id", http.StatusBadRequest)
		return
	}

	key := u.ID + ":rsvps:" + id.Hex()
	q := live.Query{
		Collection: "rsvps",
		Filter:     bson.M{"event_id": id},
		Sort:       bson.D{{Key: "status", Value: 1}, {Key: "user_name", Value: 1}},
	}

	render := func(s live.Snapshot) (string, error) {
		if s.Err != nil {
			return `<div class="live-error">Direkteoppdatering falt ut. Last siden på nytt.</div>`, nil
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
		defer cancel()
		rsvps, err := h.RSVPs.ListByEvent(ctx, id)
		if err != nil {
			return "", err
		}
		return renderAttendeeFragment(rsvps, id, u)
	}

	live.ServeRegion(w, r, h.Binder, h.Cache, h.Log, key, q, render)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /medlem/arrangementer/live – live event list                            |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeLiveList streams the upcoming/past event lists. Creating, editing,
// or deleting an event repaints the whole region for every open calendar.
// The per-event attendee regions reconnect on their own when the swapped
// fragment lands.
func (h *Handler) ServeLiveList(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	key := u.ID + ":events"
	q := eventsListQuery()
	token := csrf.Token(r)

	render := func(s live.Snapshot) (string, error) {
		if s.Err != nil {
			return `<div class="live-error">Direkteoppdatering falt ut. Last siden på nytt.</div>`, nil
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
		defer cancel()
		upcoming, past, err := h.loadEventViews(ctx, u)
		if err != nil {
			return "", err
		}
		return renderEventsListFragment(upcoming, past, token)
	}

	live.ServeRegion(w, r, h.Binder, h.Cache, h.Log, key, q, render)
}

// eventsListQuery is the live query behind the event list region. RSVPs
// stay out of it: the nested attendee regions repaint those, and pulling
// them in here would reconnect every attendee stream on each answer.
func eventsListQuery() live.Query {
	return live.Query{
		Collection: "events",
		Sort:       bson.D{{Key: "date", Value: 1}},
	}
}

// loadEventViews assembles the upcoming and past lists for one viewer.
func (h *Handler) loadEventViews(ctx context.Context, u *auth.SessionUser) ([]eventView, []eventView, error) {
	startOfToday := eventstore.StartOfToday(time.Local)
	upcoming, err := h.Events.ListUpcoming(ctx, startOfToday)
	if err != nil {
		return nil, nil, err
	}
	past, err := h.Events.ListPast(ctx, startOfToday)
	if err != nil {
		return nil, nil, err
	}
	upcomingViews, err := h.buildViews(ctx, upcoming, u)
	if err != nil {
		return nil, nil, err
	}
	pastViews, err := h.buildViews(ctx, past, u)
	if err != nil {
		return nil, nil, err
	}
	return upcomingViews, pastViews, nil
}

type eventsListData struct {
	Upcoming  []eventView
	Past      []eventView
	CSRFToken string
}

// renderEventsListFragment renders the list markup shared by the initial
// page load and every SSE repaint. The embedded forms need the CSRF token
// because a repaint replaces them wholesale.
func renderEventsListFragment(upcoming, past []eventView, csrfToken string) (string, error) {
	var sb strings.Builder
	err := eventsListFragmentTmpl.Execute(&sb, eventsListData{
		Upcoming:  upcoming,
		Past:      past,
		CSRFToken: csrfToken,
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}

func eventsListHTML(upcoming, past []eventView, csrfToken string) (template.HTML, error) {
	s, err := renderEventsListFragment(upcoming, past, csrfToken)
	return template.HTML(s), err
}

var eventsListFragmentTmpl = template.Must(template.New("events_list").Parse(`
<h2>Kommende</h2>
{{if .Upcoming}}
<ul class="event-list">
  {{range .Upcoming}}
  <li class="event">
    <h3>{{.Title}}</h3>
    <p class="event-meta">
      {{.Date.Format "02.01.2006 kl. 15:04"}}{{if .Location}} · {{.Location}}{{end}}
    </p>
    {{if .Description}}<p class="event-description">{{.DescriptionHTML}}</p>{{end}}
    <div id="rsvp-{{.ID.Hex}}"
         hx-ext="sse"
         sse-connect="/medlem/arrangementer/live/{{.ID.Hex}}"
         sse-swap="snapshot"
         hx-headers='{"X-CSRF-Token": "{{$.CSRFToken}}"}'>
      {{.AttendeesHTML}}
    </div>
    {{if .CanEdit}}
    <details class="edit-event">
      <summary>Endre</summary>
      <form method="post" action="/medlem/arrangementer/{{.ID.Hex}}/endre">
        <input type="hidden" name="gorilla.csrf.Token" value="{{$.CSRFToken}}">
        <label>Tittel <input type="text" name="title" value="{{.Title}}" required></label>
        <label>Dato og tid <input type="datetime-local" name="date" value="{{.Date.Format "2006-01-02T15:04"}}"></label>
        <label>Sted <input type="text" name="location" value="{{.Location}}"></label>
        <label>Beskrivelse <textarea name="description" rows="4">{{.Description}}</textarea></label>
        <button type="submit">Lagre</button>
      </form>
      <form method="post" action="/medlem/arrangementer/{{.ID.Hex}}/slett"
            onsubmit="return confirm('Slette arrangementet og alle svar?')">
        <input type="hidden" name="gorilla.csrf.Token" value="{{$.CSRFToken}}">
        <button type="submit" class="danger">Slett</button>
      </form>
    </details>
    {{end}}
  </li>
  {{end}}
</ul>
{{else}}
<p>Ingen kommende arrangementer.</p>
{{end}}

{{if .Past}}
<h2>Tidligere</h2>
<ul class="event-list past">
  {{range .Past}}
  <li class="event">
    <h3>{{.Title}}</h3>
    <p class="event-meta">
      {{.Date.Format "02.01.2006"}}{{if .Location}} · {{.Location}}{{end}}
    </p>
    {{if .CanEdit}}
    <form method="post" action="/medlem/arrangementer/{{.ID.Hex}}/slett"
          onsubmit="return confirm('Slette arrangementet og alle svar?')">
      <input type="hidden" name="gorilla.csrf.Token" value="{{$.CSRFToken}}">
      <button type="submit" class="danger">Slett</button>
    </form>
    {{end}}
  </li>
  {{end}}
</ul>
{{end}}
`))

func renderAttendeeFragment(rsvps []models.RSVP, eventID primitive.ObjectID, u *auth.SessionUser) (string, error) {
	var coming, notComing []models.RSVP
	own := ""
	for _, r := range rsvps {
		if r.Status == models.RSVPComing {
			coming = append(coming, r)
		} else {
			notComing = append(notComing, r)
		}
		if u != nil && r.UserID == u.ID {
			own = r.Status
		}
	}

	var sb strings.Builder
	err := attendeeFragmentTmpl.Execute(&sb, struct {
		EventID   string
		Coming    []models.RSVP
		NotComing []models.RSVP
		OwnAnswer string
	}{
		EventID:   eventID.Hex(),
		Coming:    coming,
		NotComing: notComing,
		OwnAnswer: own,
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (h *Handler) attendeeFragmentHTML(ctx context.Context, eventID primitive.ObjectID, u *auth.SessionUser) (template.HTML, error) {
	rsvps, err := h.RSVPs.ListByEvent(ctx, eventID)
	if err != nil {
		return "", err
	}
	s, err := renderAttendeeFragment(rsvps, eventID, u)
	if err != nil {
		return "", err
	}
	return template.HTML(s), nil
}

// The fragment uses hx-post only; the CSRF token travels in the
// X-CSRF-Token header inherited from the region wrapper.
var attendeeFragmentTmpl = template.Must(template.New("attendees").Parse(`
<div class="rsvp">
  <div class="rsvp-buttons">
    <button hx-post="/medlem/arrangementer/{{.EventID}}/svar" hx-vals='{"answer": "coming"}'
            {{if eq .OwnAnswer "coming"}}class="active"{{end}}>
      Jeg kommer{{if eq .OwnAnswer "coming"}} ✓{{end}}
    </button>
    <button hx-post="/medlem/arrangementer/{{.EventID}}/svar" hx-vals='{"answer": "not_coming"}'
            {{if eq .OwnAnswer "not_coming"}}class="active"{{end}}>
      Jeg kommer ikke{{if eq .OwnAnswer "not_coming"}} ✓{{end}}
    </button>
  </div>
  <p class="rsvp-count">{{len .Coming}} kommer</p>
  {{if .Coming}}
  <ul class="attendees">
    {{range .Coming}}
    <li>{{if .UserPhoto}}<img src="{{.UserPhoto}}" alt="">{{end}}{{.UserName}}</li>
    {{end}}
  </ul>
  {{end}}
  {{if .NotComing}}
  <details class="not-coming">
    <summary>{{len .NotComing}} kommer ikke</summary>
    <ul class="attendees">
      {{range .NotComing}}<li>{{.UserName}}</li>{{end}}
    </ul>
  </details>
  {{end}}
</div>
`))
