// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/leirefolket/leirefolket/internal/app/accounts"
	"github.com/leirefolket/leirefolket/internal/app/live"
	archivestore "github.com/leirefolket/leirefolket/internal/app/store/archive"
	credentialstore "github.com/leirefolket/leirefolket/internal/app/store/credentials"
	userstore "github.com/leirefolket/leirefolket/internal/app/store/users"
	"github.com/leirefolket/leirefolket/internal/app/system/mailer"
	"github.com/leirefolket/leirefolket/internal/app/system/storage"
	"github.com/leirefolket/leirefolket/internal/app/system/tasks"
	"github.com/leirefolket/leirefolket/internal/app/system/viewdata"
	"github.com/leirefolket/leirefolket/internal/app/system/workers"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Runtime singletons built in Startup, consumed by BuildHandler and
// torn down in Shutdown. WAFFLE passes DBDeps by value between hooks,
// so anything constructed after ConnectDB lives here instead.
var (
	fileStore   storage.Store
	liveBinder  *live.Binder
	liveCache   *live.Cache
	mailSender  *mailer.Mailer
	accountsSvc *accounts.Service
	jobRunner   *workers.Runner
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It builds
// the object store, the live-region plumbing, the mailer, the account
// service, and starts the background job runner.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	store, err := storage.NewMinio(ctx, storage.Config{
		Endpoint:  appCfg.MinioEndpoint,
		AccessKey: appCfg.MinioAccessKey,
		SecretKey: appCfg.MinioSecretKey,
		Bucket:    appCfg.MinioBucket,
		Region:    appCfg.MinioRegion,
		UseSSL:    appCfg.MinioUseSSL,
		PublicURL: appCfg.MinioPublicURL,
	})
	if err != nil {
		logger.Error("minio init failed", zap.Error(err))
		return err
	}
	fileStore = store
	viewdata.Init(fileStore)

	watcher := live.NewMongoWatcher(deps.MongoDatabase, logger)
	liveBinder = live.NewBinder(watcher, logger)
	liveCache = live.NewCache()

	mailSender = mailer.New(
		appCfg.MailSMTPHost,
		appCfg.MailSMTPPort,
		appCfg.MailSMTPUser,
		appCfg.MailSMTPPass,
		appCfg.MailFrom,
		logger,
	)

	accountsSvc = accounts.New(
		userstore.New(deps.MongoDatabase),
		credentialstore.New(deps.MongoDatabase),
		archivestore.New(deps.MongoDatabase),
		mailSender,
		appCfg.BaseURL,
		logger,
	)

	// Daily sweep that archives accounts whose deletion grace period
	// has expired.
	jobRunner = workers.NewRunner(logger, tasks.DeletionCleanupJob(accountsSvc, logger))
	jobRunner.Start()

	return nil
}
