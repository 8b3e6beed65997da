// internal/app/features/adminusers/api.go
package adminusers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/leirefolket/leirefolket/internal/app/accounts"
	"github.com/leirefolket/leirefolket/internal/app/system/auth"
	"github.com/leirefolket/leirefolket/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// apiResponse is the JSON body every account-management endpoint returns.
// Code is the stable machine-readable category on failures.
type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body apiResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeAPIError maps a service error to its HTTP status and JSON body.
func (h *Handler) writeAPIError(w http.ResponseWriter, op string, err error) {
	code := accounts.CodeOf(err)
	status := accounts.HTTPStatus(code)

	msg := "Noe gikk galt. Prøv igjen."
	if ae, ok := err.(*accounts.Error); ok {
		msg = ae.Message
	}
	if status >= 500 {
		h.Log.Error("adminusers api: "+op+" failed", zap.Error(err))
	} else {
		h.Log.Warn("adminusers api: "+op+" rejected",
			zap.String("code", string(code)), zap.Error(err))
	}
	writeJSON(w, status, apiResponse{Success: false, Message: msg, Code: string(code)})
}

// decodeUID reads a {"uid": "..."} request body.
func decodeUID(r *http.Request) (string, error) {
	var body struct {
		UID string `json:"uid"`
	}
	err := json.NewDecoder(r.Body).Decode(&body)
	return body.UID, err
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /admin/brukere/api/slett – permanent delete, no grace period           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleAPIPermanentDelete(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CurrentUser(r)
	uid, err := decodeUID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiResponse{
			Success: false, Message: "Ugyldig forespørsel.", Code: string(accounts.CodeInvalidArgument)})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.Accounts.PermanentDeleteNow(ctx, caller, uid); err != nil {
		h.writeAPIError(w, "permanent delete", err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "Kontoen er slettet og medlemskapet arkivert."})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /admin/brukere/api/gjenopprett – cancel a pending deletion             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleAPIRestorePending(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CurrentUser(r)
	uid, err := decodeUID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiResponse{
			Success: false, Message: "Ugyldig forespørsel.", Code: string(accounts.CodeInvalidArgument)})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.Accounts.RestorePendingUser(ctx, caller, uid); err != nil {
		h.writeAPIError(w, "restore pending", err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "Kontoen er gjenåpnet."})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /admin/brukere/api/arkiv/gjenopprett – rebuild from an archive record  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleAPIRestoreArchived(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CurrentUser(r)

	var body struct {
		ArchiveID string `json:"archive_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, apiResponse{
			Success: false, Message: "Ugyldig forespørsel.", Code: string(accounts.CodeInvalidArgument)})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if _, err := h.Accounts.RestoreFromArchive(ctx, caller, body.ArchiveID); err != nil {
		h.writeAPIError(w, "restore archived", err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true,
		Message: "Medlemmet er gjenopprettet og har fått midlertidig passord på e-post."})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /admin/brukere/api/arkiv/slett – wipe a single archive record          |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleAPIWipeArchiveRecord(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CurrentUser(r)

	var body struct {
		ArchiveID string `json:"archive_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, apiResponse{
			Success: false, Message: "Ugyldig forespørsel.", Code: string(accounts.CodeInvalidArgument)})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.Accounts.WipeArchiveRecord(ctx, caller, body.ArchiveID); err != nil {
		h.writeAPIError(w, "wipe archive record", err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "Arkivposten er slettet."})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /admin/brukere/api/arkiv/toem – wipe the whole archive                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleAPIWipeArchive(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	count, err := h.Accounts.WipeArchived(ctx, caller)
	if err != nil {
		h.writeAPIError(w, "wipe archive", err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true,
		Message: "Arkivet er tømt (" + strconv.FormatInt(count, 10) + " poster fjernet)."})
}
