package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dmitrijs2005/diary/internal/client/blob"
	"github.com/dmitrijs2005/diary/internal/client/client"
	"github.com/dmitrijs2005/diary/internal/client/config"
	"github.com/dmitrijs2005/diary/internal/client/editor"
	"github.com/dmitrijs2005/diary/internal/client/images"
	"github.com/dmitrijs2005/diary/internal/client/session"
	"github.com/dmitrijs2005/diary/internal/logging"
	"github.com/dmitrijs2005/diary/internal/models"
)

// Remote is the diary server as the commands see it.
type Remote interface {
	editor.Gateway
	Register(ctx context.Context, userName, password string) error
	Login(ctx context.Context, userName, password string) error
	Ping(ctx context.Context) error
	DeleteAll(ctx context.Context) ([]models.Entry, error)
	ListAll(ctx context.Context) <-chan models.Result[models.Diaries]
	ListFiltered(ctx context.Context, center time.Time) <-chan models.Result[models.Diaries]
}

type Images interface {
	editor.Images
	URL(ctx context.Context, remotePath string) (string, error)
	Reconcile(ctx context.Context) (images.Report, error)
	Wait()
}

type Session interface {
	UserID(ctx context.Context) (string, bool)
	Logout(ctx context.Context) error
}

type App struct {
	cfg     *config.Config
	logger  logging.Logger
	remote  Remote
	images  Images
	session Session
	loc     *time.Location
	prompt  *Prompter
	out     io.Writer
	closers []func() error
}

// NewApp is the composition root of the CLI.
func NewApp(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) (*App, error) {
	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := logging.NewTextLogger(os.Stderr, level)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	repos, err := client.InitDatabase(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, logger: logger, loc: loc, prompt: NewPrompter(in, out), out: out}
	a.closers = append(a.closers, repos.Close)

	sess := session.NewTokenSession(repos.Metadata)
	a.session = sess

	remote, err := client.NewDiaryClient(cfg.ServerEndpointAddr, sess, loc)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.remote = remote
	a.closers = append(a.closers, remote.Close)

	storage, err := blob.NewS3Storage(ctx, blob.S3Config{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		PartSize:  cfg.S3PartSize,
	})
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.images = images.NewCoordinator(storage, repos.Uploads, repos.Deletes, sess, cfg.CacheDir, logger)

	return a, nil
}

// Close waits for background image transfers, then releases the
// connection and the database in reverse order of creation.
func (a *App) Close() error {
	if a.images != nil {
		a.images.Wait()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) editorDeps() editor.Deps {
	return editor.Deps{Gateway: a.remote, Images: a.images, Logger: a.logger}
}

// requestContext bounds a single request/response call.
func (a *App) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.cfg == nil || a.cfg.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.cfg.RequestTimeout)
}
