// Package images moves diary images between the local disk and blob
// storage. Transfers run in the background and are not tied to the entry
// write that triggers them; the pending-operation ledgers record what still
// needs doing so Reconcile can finish it later.
package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/dmitrijs2005/diary/internal/client/blob"
	"github.com/dmitrijs2005/diary/internal/client/repositories/deletes"
	"github.com/dmitrijs2005/diary/internal/client/repositories/uploads"
	"github.com/dmitrijs2005/diary/internal/common"
	"github.com/dmitrijs2005/diary/internal/filex"
	"github.com/dmitrijs2005/diary/internal/logging"
	"github.com/dmitrijs2005/diary/internal/models"
	"golang.org/x/sync/errgroup"
)

// fetchParallelism bounds concurrent downloads in Fetch.
const fetchParallelism = 4

// Owner reports the signed-in user.
type Owner interface {
	UserID(ctx context.Context) (string, bool)
}

type Coordinator struct {
	storage  blob.Storage
	uploads  uploads.Repository
	deletes  deletes.Repository
	owner    Owner
	cacheDir string
	logger   logging.Logger

	now func() time.Time
	wg  sync.WaitGroup
}

func NewCoordinator(storage blob.Storage, up uploads.Repository, del deletes.Repository, owner Owner, cacheDir string, logger logging.Logger) *Coordinator {
	return &Coordinator{
		storage:  storage,
		uploads:  up,
		deletes:  del,
		owner:    owner,
		cacheDir: cacheDir,
		logger:   logger.With("module", "images"),
		now:      time.Now,
	}
}

// RemotePath names the remote object for a local image:
// images/{owner}/{localName}-{unixMillis}.{ext}.
func (c *Coordinator) RemotePath(ctx context.Context, localPath, mimeHint string) (string, error) {
	owner, ok := c.owner.UserID(ctx)
	if !ok {
		return "", common.ErrNotAuthenticated
	}
	name := fmt.Sprintf("%s-%d.%s", localName(localPath), c.now().UnixMilli(), extension(mimeHint))
	return path.Join(common.ImagesRoot, owner, name), nil
}

// CommitUploads starts a background upload for every image still pending
// upload and returns immediately.
func (c *Coordinator) CommitUploads(ctx context.Context, images []models.Image) {
	ctx = context.WithoutCancel(ctx)
	for _, img := range images {
		if !img.PendingUpload || img.RemotePath == "" || img.LocalPath == "" {
			continue
		}
		c.wg.Add(1)
		go func(img models.Image) {
			defer c.wg.Done()
			c.upload(ctx, img)
		}(img)
	}
}

func (c *Coordinator) upload(ctx context.Context, img models.Image) {
	tr := c.storage.Upload(ctx, img.RemotePath, img.LocalPath, "")

	recorded := false
	for p := range tr.Progress() {
		if recorded || p.Session == "" {
			continue
		}
		recorded = true
		if err := c.uploads.Add(ctx, models.PendingUpload{
			RemotePath:   img.RemotePath,
			LocalPath:    img.LocalPath,
			SessionToken: p.Session,
			CreatedAt:    c.now(),
		}); err != nil {
			c.logger.Debug(ctx, "pending upload not recorded", "path", img.RemotePath, "error", err)
		}
	}

	if err := tr.Wait(); err != nil {
		c.logger.Warn(ctx, "image upload failed", "path", img.RemotePath, "error", err)
		if !recorded {
			// No session was issued; record the upload so a retry starts it over.
			_ = c.uploads.Add(ctx, models.PendingUpload{RemotePath: img.RemotePath, LocalPath: img.LocalPath, CreatedAt: c.now()})
		}
		return
	}

	if err := c.uploads.Remove(ctx, img.RemotePath); err != nil {
		c.logger.Warn(ctx, "pending upload not cleared", "path", img.RemotePath, "error", err)
	}
}

// CommitDeletes starts a background delete for every path. Failed deletes
// are recorded in the delete ledger.
func (c *Coordinator) CommitDeletes(ctx context.Context, remotePaths []string) {
	ctx = context.WithoutCancel(ctx)
	for _, p := range remotePaths {
		if p == "" {
			continue
		}
		c.wg.Add(1)
		go func(p string) {
			defer c.wg.Done()
			c.remove(ctx, p)
		}(p)
	}
}

func (c *Coordinator) remove(ctx context.Context, remotePath string) {
	err := c.storage.Delete(ctx, remotePath)
	if err == nil {
		return
	}

	c.logger.Warn(ctx, "image delete failed", "path", remotePath, "error", err)
	if err := c.deletes.Add(ctx, models.PendingDelete{RemotePath: remotePath, CreatedAt: c.now()}); err != nil {
		c.logger.Error(ctx, "pending delete not recorded", "path", remotePath, "error", err)
	}
}

// Wait blocks until every background transfer started so far has ended.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Fetch makes each remote image available in the cache directory and calls
// fn once per image as it arrives, in arrival order. Calls to fn are
// serialized. Image.Index is the position in remotePaths so callers can
// restore the original order. A failed image does not stop the others;
// the failures are joined into the returned error.
func (c *Coordinator) Fetch(ctx context.Context, remotePaths []string, fn func(models.Image)) error {
	dir, err := filex.EnsureDir(c.cacheDir)
	if err != nil {
		return err
	}

	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	g.SetLimit(fetchParallelism)

	for i, rp := range remotePaths {
		g.Go(func() error {
			local, err := c.fetchOne(ctx, dir, rp)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				c.logger.Warn(ctx, "image fetch failed", "path", rp, "error", err)
				errs = append(errs, err)
				return nil
			}
			fn(models.Image{LocalPath: local, RemotePath: rp, Index: i})
			return nil
		})
	}

	_ = g.Wait()
	return errors.Join(errs...)
}

func (c *Coordinator) fetchOne(ctx context.Context, dir, remotePath string) (string, error) {
	local := filepath.Join(dir, filepath.FromSlash(remotePath))
	if filex.Exists(local) {
		return local, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := filex.EnsureDir(filepath.Dir(local)); err != nil {
		return "", err
	}
	err := filex.WriteAtomic(local, func(w io.Writer) error {
		return c.storage.Download(ctx, remotePath, w)
	})
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", remotePath, err)
	}
	return local, nil
}

// URL returns a time-limited download URL for a remote image.
func (c *Coordinator) URL(ctx context.Context, remotePath string) (string, error) {
	return c.storage.DownloadURL(ctx, remotePath)
}
