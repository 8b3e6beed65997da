// internal/app/features/personvern/handler.go
package personvern

import (
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/leirefolket/leirefolket/internal/app/system/viewdata"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the privacy policy page.
type Handler struct {
	DB  *mongo.Database
	Log *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:  db,
		Log: logger,
	}
}

type pageData struct {
	viewdata.BaseVM
}

func (h *Handler) ServePrivacy(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "personvern", pageData{
		BaseVM: viewdata.NewBaseVM(r, h.DB, "Personvern", "/"),
	})
}
