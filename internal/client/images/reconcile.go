package images

import (
	"context"
	"errors"
	"io/fs"
	"os"
)

// Report counts what one Reconcile pass did.
type Report struct {
	Uploaded int
	Deleted  int
	Dropped  int
	Failed   int
}

// Reconcile retries every ledger row once: pending uploads resume from
// their session token, pending deletes are reissued. Rows are removed on
// success. An upload whose local file is gone can never finish and is
// dropped. It stops early only when ctx ends or a ledger cannot be read.
func (c *Coordinator) Reconcile(ctx context.Context) (Report, error) {
	var rep Report

	pending, err := c.uploads.List(ctx)
	if err != nil {
		return rep, err
	}
	for _, u := range pending {
		if err := ctx.Err(); err != nil {
			return rep, err
		}

		if _, err := os.Stat(u.LocalPath); errors.Is(err, fs.ErrNotExist) {
			c.logger.Warn(ctx, "dropping pending upload without local file", "path", u.RemotePath, "local", u.LocalPath)
			if err := c.uploads.Remove(ctx, u.RemotePath); err == nil {
				rep.Dropped++
			}
			continue
		}

		tr := c.storage.Upload(ctx, u.RemotePath, u.LocalPath, u.SessionToken)
		for range tr.Progress() {
		}
		if err := tr.Wait(); err != nil {
			c.logger.Warn(ctx, "retry upload failed", "path", u.RemotePath, "error", err)
			rep.Failed++
			continue
		}
		if err := c.uploads.Remove(ctx, u.RemotePath); err != nil {
			rep.Failed++
			continue
		}
		rep.Uploaded++
	}

	dels, err := c.deletes.List(ctx)
	if err != nil {
		return rep, err
	}
	for _, d := range dels {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		if err := c.storage.Delete(ctx, d.RemotePath); err != nil {
			c.logger.Warn(ctx, "retry delete failed", "path", d.RemotePath, "error", err)
			rep.Failed++
			continue
		}
		if err := c.deletes.Remove(ctx, d.RemotePath); err != nil {
			rep.Failed++
			continue
		}
		rep.Deleted++
	}

	return rep, nil
}
