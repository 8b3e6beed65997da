// Package accounts implements the account-lifecycle operations that cross
// store boundaries: immediate deletion, restores, archive wipes, and the
// scheduled cleanup of accounts whose deletion grace period has run out.
//
// All admin-facing operations take the calling session user and fail with
// categorized errors; handlers translate the codes to HTTP.
package accounts

import (
	"context"
	"time"

	archivestore "github.com/leirefolket/leirefolket/internal/app/store/archive"
	credentialstore "github.com/leirefolket/leirefolket/internal/app/store/credentials"
	userstore "github.com/leirefolket/leirefolket/internal/app/store/users"
	"github.com/leirefolket/leirefolket/internal/app/system/auth"
	"github.com/leirefolket/leirefolket/internal/app/system/authutil"
	"github.com/leirefolket/leirefolket/internal/app/system/mailer"
	"github.com/leirefolket/leirefolket/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// GracePeriod is how long a pending_deletion account survives before the
// cleanup sweep archives and removes it.
const GracePeriod = 30 * 24 * time.Hour

// Service wires the user, credential, and archive stores into the
// account-lifecycle operations.
type Service struct {
	users   *userstore.Store
	creds   *credentialstore.Store
	archive *archivestore.Store
	mail    *mailer.Mailer
	baseURL string
	log     *zap.Logger
}

// New builds the service. baseURL is used in restore emails.
func New(users *userstore.Store, creds *credentialstore.Store, archive *archivestore.Store, mail *mailer.Mailer, baseURL string, logger *zap.Logger) *Service {
	return &Service{
		users:   users,
		creds:   creds,
		archive: archive,
		mail:    mail,
		baseURL: baseURL,
		log:     logger,
	}
}

// requireAdmin checks the caller before any admin operation.
func requireAdmin(caller *auth.SessionUser) *Error {
	if caller == nil || caller.ID == "" {
		return E(CodeUnauthenticated, "innlogging kreves")
	}
	if !models.ParseRole(caller.Role).CanManageUsers() {
		return E(CodePermissionDenied, "bare administratorer kan forvalte kontoer")
	}
	return nil
}

// PermanentDeleteNow removes an account immediately, without a grace
// period: the membership summary goes to the archive with reason
// "banned/immediate", then the credential and profile are removed. The
// steps are not transactional; a failure partway leaves the archive record
// in place, which is the safe side to fail on.
func (s *Service) PermanentDeleteNow(ctx context.Context, caller *auth.SessionUser, targetUID string) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	if targetUID == "" {
		return E(CodeInvalidArgument, "uid mangler")
	}
	if targetUID == caller.ID {
		return E(CodeInvalidArgument, "du kan ikke slette din egen konto her")
	}

	u, err := s.users.GetByID(ctx, targetUID)
	if err == mongo.ErrNoDocuments {
		return E(CodeNotFound, "fant ingen bruker med denne id-en")
	}
	if err != nil {
		return Wrap(CodeInternal, "kunne ikke hente bruker", err)
	}

	if err := s.removeAccount(ctx, u, models.ArchiveReasonBanned); err != nil {
		return err
	}

	s.log.Info("account permanently deleted",
		zap.String("uid", targetUID),
		zap.String("by", caller.ID))
	return nil
}

// RestorePendingUser cancels a pending deletion, returning the account to
// active. Restoring an account that is not pending is a precondition
// failure, not a no-op, so the admin UI can tell the two apart.
func (s *Service) RestorePendingUser(ctx context.Context, caller *auth.SessionUser, targetUID string) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	if targetUID == "" {
		return E(CodeInvalidArgument, "uid mangler")
	}

	if _, err := s.users.GetByID(ctx, targetUID); err == mongo.ErrNoDocuments {
		return E(CodeNotFound, "fant ingen bruker med denne id-en")
	} else if err != nil {
		return Wrap(CodeInternal, "kunne ikke hente bruker", err)
	}

	err := s.users.ClearPendingDeletion(ctx, targetUID)
	if err == mongo.ErrNoDocuments {
		return E(CodeFailedPrecondition, "kontoen er ikke markert for sletting")
	}
	if err != nil {
		return Wrap(CodeInternal, "kunne ikke gjenopprette kontoen", err)
	}

	// The deletion request disabled the credential; a restored account
	// must be able to sign in again.
	if err := s.creds.SetDisabled(ctx, targetUID, false); err != nil {
		return Wrap(CodeInternal, "kunne ikke gjenåpne innloggingen", err)
	}

	s.log.Info("pending deletion cancelled",
		zap.String("uid", targetUID),
		zap.String("by", caller.ID))
	return nil
}

// RestoreFromArchive rebuilds a membership from an archive record: a new
// credential with a temporary password, a fresh profile carrying the
// archived name, email, and role, and the archive record removed. Returns
// the new UID.
func (s *Service) RestoreFromArchive(ctx context.Context, caller *auth.SessionUser, archiveID string) (string, error) {
	if err := requireAdmin(caller); err != nil {
		return "", err
	}

	oid, err := primitive.ObjectIDFromHex(archiveID)
	if err != nil {
		return "", E(CodeInvalidArgument, "ugyldig arkiv-id")
	}

	rec, err := s.archive.GetByID(ctx, oid)
	if err == mongo.ErrNoDocuments {
		return "", E(CodeNotFound, "fant ingen arkivpost med denne id-en")
	}
	if err != nil {
		return "", Wrap(CodeInternal, "kunne ikke hente arkivpost", err)
	}
	if rec.Email == "" {
		return "", E(CodeFailedPrecondition, "arkivposten mangler e-postadresse")
	}

	tempPW := authutil.TempPassword()
	hash, err := authutil.HashPassword(tempPW)
	if err != nil {
		return "", Wrap(CodeInternal, "kunne ikke lage passord", err)
	}

	cred, err := s.creds.Create(ctx, rec.Email, hash, true)
	if err == credentialstore.ErrDuplicateEmail {
		return "", E(CodeFailedPrecondition, "det finnes allerede en konto med denne e-postadressen")
	}
	if err != nil {
		return "", Wrap(CodeInternal, "kunne ikke opprette innlogging", err)
	}

	role := models.ParseRole(rec.Role)
	if err := s.users.EnsureProfile(ctx, cred.UID(), rec.Email, rec.FullName, role); err != nil {
		return "", Wrap(CodeInternal, "kunne ikke opprette profil", err)
	}

	if _, err := s.archive.Delete(ctx, oid); err != nil {
		// The membership is restored; a stale archive row is log-worthy
		// but not worth failing the restore over.
		s.log.Warn("restored member but failed to remove archive record",
			zap.String("archive_id", archiveID), zap.Error(err))
	}

	if s.mail != nil {
		email := mailer.BuildResetEmail(mailer.ResetEmailData{
			SiteName:     models.DefaultSiteName,
			Name:         rec.FullName,
			TempPassword: tempPW,
			LoginURL:     s.baseURL + "/login",
		})
		email.To = rec.Email
		if err := s.mail.Send(email); err != nil {
			s.log.Warn("failed to send restore email",
				zap.String("to", rec.Email), zap.Error(err))
		}
	}

	s.log.Info("member restored from archive",
		zap.String("archive_id", archiveID),
		zap.String("new_uid", cred.UID()),
		zap.String("by", caller.ID))
	return cred.UID(), nil
}

// WipeArchived removes every archive record and returns the count removed.
func (s *Service) WipeArchived(ctx context.Context, caller *auth.SessionUser) (int64, error) {
	if err := requireAdmin(caller); err != nil {
		return 0, err
	}

	count, err := s.archive.WipeAll(ctx)
	if err != nil {
		return 0, Wrap(CodeInternal, "kunne ikke tømme arkivet", err)
	}

	s.log.Info("archive wiped",
		zap.Int64("removed", count),
		zap.String("by", caller.ID))
	return count, nil
}

// WipeArchiveRecord removes a single archive record, for the member who
// asks to have their trace removed without emptying the whole archive.
func (s *Service) WipeArchiveRecord(ctx context.Context, caller *auth.SessionUser, archiveID string) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}

	oid, err := primitive.ObjectIDFromHex(archiveID)
	if err != nil {
		return E(CodeInvalidArgument, "ugyldig arkiv-id")
	}

	n, err := s.archive.Delete(ctx, oid)
	if err != nil {
		return Wrap(CodeInternal, "kunne ikke slette arkivposten", err)
	}
	if n == 0 {
		return E(CodeNotFound, "fant ingen arkivpost med denne id-en")
	}

	s.log.Info("archive record wiped",
		zap.String("archive_id", archiveID),
		zap.String("by", caller.ID))
	return nil
}

// CleanupResult summarizes one cleanup sweep.
type CleanupResult struct {
	Examined int
	Removed  int
	Failed   int
}

// CleanupPendingDeletions archives and removes every account whose
// pending_deletion grace period has run out. Failures are contained per
// record: one stubborn account never blocks the rest of the sweep.
func (s *Service) CleanupPendingDeletions(ctx context.Context) (CleanupResult, error) {
	cutoff := time.Now().Add(-GracePeriod)
	due, err := s.users.ListPendingOlderThan(ctx, cutoff)
	if err != nil {
		return CleanupResult{}, Wrap(CodeInternal, "could not list pending deletions", err)
	}

	res := CleanupResult{Examined: len(due)}
	for i := range due {
		u := &due[i]
		if err := s.removeAccount(ctx, u, models.ArchiveReasonVoluntary); err != nil {
			res.Failed++
			s.log.Error("cleanup: failed to remove account",
				zap.String("uid", u.ID), zap.Error(err))
			continue
		}
		res.Removed++
	}

	if res.Examined > 0 {
		s.log.Info("deletion cleanup sweep finished",
			zap.Int("examined", res.Examined),
			zap.Int("removed", res.Removed),
			zap.Int("failed", res.Failed))
	}
	return res, nil
}

// removeAccount archives a membership summary, then removes the credential
// and the profile. Archive-first ordering: if a later step fails, the
// member is still recoverable from the archive.
func (s *Service) removeAccount(ctx context.Context, u *models.User, reason string) error {
	_, err := s.archive.Add(ctx, models.ArchiveRecord{
		UID:       u.ID,
		FullName:  u.DisplayName,
		Email:     u.Email,
		Role:      u.Role,
		StartDate: u.MemberSince,
		EndDate:   time.Now(),
		Reason:    reason,
	})
	if err != nil {
		return Wrap(CodeInternal, "kunne ikke arkivere medlemskapet", err)
	}

	if _, err := s.creds.Delete(ctx, u.ID); err != nil {
		return Wrap(CodeInternal, "kunne ikke fjerne innloggingen", err)
	}

	if _, err := s.users.Delete(ctx, u.ID); err != nil {
		return Wrap(CodeInternal, "kunne ikke fjerne profilen", err)
	}
	return nil
}
