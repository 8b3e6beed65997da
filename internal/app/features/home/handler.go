// internal/app/features/home/handler.go
package home

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/waffle/pantry/templates"
	eventstore "github.com/leirefolket/leirefolket/internal/app/store/events"
	gallerystore "github.com/leirefolket/leirefolket/internal/app/store/gallery"
	"github.com/leirefolket/leirefolket/internal/app/system/timeouts"
	"github.com/leirefolket/leirefolket/internal/app/system/viewdata"
	"github.com/leirefolket/leirefolket/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// teaserImages is how many gallery images the landing page shows.
const teaserImages = 4

// Handler serves the public landing page.
type Handler struct {
	DB      *mongo.Database
	Gallery *gallerystore.Store
	Events  *eventstore.Store
	Log     *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:      db,
		Gallery: gallerystore.New(db),
		Events:  eventstore.New(db),
		Log:     logger,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET / – landing                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	// The teasers are decoration; the landing page still renders if either
	// query fails.
	var teaser []models.GalleryImage
	if imgs, err := h.Gallery.List(ctx); err == nil {
		if len(imgs) > teaserImages {
			imgs = imgs[:teaserImages]
		}
		teaser = imgs
	} else {
		h.Log.Warn("home: gallery teaser failed", zap.Error(err))
	}

	var nextEvent *models.Event
	if events, err := h.Events.ListUpcoming(ctx, eventstore.StartOfToday(time.Local)); err == nil && len(events) > 0 {
		nextEvent = &events[0]
	}

	data := struct {
		viewdata.BaseVM
		Teaser    []models.GalleryImage
		NextEvent *models.Event
	}{
		BaseVM:    viewdata.NewBaseVM(r, h.DB, "", "/"),
		Teaser:    teaser,
		NextEvent: nextEvent,
	}

	templates.Render(w, r, "home", data)
}
