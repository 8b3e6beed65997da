package events

import (
	"strings"
	"testing"
	"time"

	"github.com/leirefolket/leirefolket/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestEventsListQuery_WatchesEvents(t *testing.T) {
	q := eventsListQuery()
	if q.Collection != "events" {
		t.Fatalf("collection: got %q, want events", q.Collection)
	}
	if len(q.Also) != 0 {
		t.Errorf("rsvp writes repaint the nested attendee regions, not the list; got Also=%v", q.Also)
	}
}

func TestRenderEventsListFragment_Empty(t *testing.T) {
	out, err := renderEventsListFragment(nil, nil, "tok")
	if err != nil {
		t.Fatalf("renderEventsListFragment: %v", err)
	}
	if !strings.Contains(out, "Ingen kommende arrangementer") {
		t.Errorf("empty list must show the placeholder, got %q", out)
	}
	if strings.Contains(out, "Tidligere") {
		t.Errorf("past section must be omitted when empty, got %q", out)
	}
}

func TestRenderEventsListFragment_Sections(t *testing.T) {
	id1, id2 := primitive.NewObjectID(), primitive.NewObjectID()
	upcoming := []eventView{{
		Event: models.Event{ID: id1, Title: "Rakukveld", Location: "Verkstedet",
			Date: time.Date(2026, 9, 12, 18, 0, 0, 0, time.Local)},
		CanEdit: true,
	}}
	past := []eventView{{
		Event: models.Event{ID: id2, Title: "Sommermarked",
			Date: time.Date(2026, 6, 1, 10, 0, 0, 0, time.Local)},
	}}

	out, err := renderEventsListFragment(upcoming, past, "tok")
	if err != nil {
		t.Fatalf("renderEventsListFragment: %v", err)
	}
	if !strings.Contains(out, "Rakukveld") || !strings.Contains(out, "Sommermarked") {
		t.Errorf("both sections must render, got %q", out)
	}
	if !strings.Contains(out, "/medlem/arrangementer/live/"+id1.Hex()) {
		t.Errorf("upcoming events must embed their attendee region, got %q", out)
	}
	if !strings.Contains(out, `value="tok"`) {
		t.Errorf("embedded forms need the CSRF token after a repaint, got %q", out)
	}
	if !strings.Contains(out, "/medlem/arrangementer/"+id1.Hex()+"/endre") {
		t.Errorf("editable events must carry the edit form, got %q", out)
	}
	if strings.Contains(out, "/medlem/arrangementer/"+id2.Hex()+"/slett") {
		t.Errorf("non-editable past events must not carry a delete form, got %q", out)
	}
}

func TestRenderEventsListFragment_DescriptionMarkup(t *testing.T) {
	views := []eventView{{
		Event: models.Event{ID: primitive.NewObjectID(), Title: "Glasurkurs",
			Description: "<em>alle</em> nivå", Date: time.Now()},
		DescriptionHTML: "<em>alle</em> nivå",
	}}
	out, err := renderEventsListFragment(views, nil, "tok")
	if err != nil {
		t.Fatalf("renderEventsListFragment: %v", err)
	}
	if !strings.Contains(out, "<em>alle</em>") {
		t.Errorf("sanitized description must render unescaped, got %q", out)
	}
}
