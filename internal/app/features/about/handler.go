// internal/app/features/about/handler.go
package about

import (
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/leirefolket/leirefolket/internal/app/system/viewdata"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB  *mongo.Database
	Log *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Log: logger}
}

func (h *Handler) ServeAbout(w http.ResponseWriter, r *http.Request) {
	data := struct {
		viewdata.BaseVM
	}{
		BaseVM: viewdata.NewBaseVM(r, h.DB, "Om oss", "/"),
	}

	templates.Render(w, r, "about", data)
}
