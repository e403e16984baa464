package file

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/xerrors"

	"github.com/basewatch/goapi/base/ctx"
	"github.com/basewatch/goapi/base/log"
	"github.com/basewatch/goapi/domain"
	"github.com/basewatch/goapi/domain/launch"
)

type cursorFile struct {
	LastSeenBlock uint64    `json:"lastSeenBlock"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type impl struct {
	path string
}

// New persists the cursor as a small JSON file. Writes go through a temp
// file and rename so a crash mid-write never leaves a truncated cursor.
func New(path string) launch.CursorRepo {
	return &impl{path: path}
}

func (im *impl) Get(c ctx.Ctx) (*launch.Cursor, error) {
	raw, err := os.ReadFile(im.path)
	if os.IsNotExist(err) {
		return nil, domain.ErrNotFound
	} else if err != nil {
		c.WithFields(log.Fields{
			"err":  err,
			"path": im.path,
		}).Error("read cursor file failed")
		return nil, err
	}

	var cf cursorFile
	if err := json.Unmarshal(raw, &cf); err != nil {
		c.WithFields(log.Fields{
			"err":  err,
			"path": im.path,
		}).Error("unmarshal cursor file failed")
		return nil, xerrors.Errorf("corrupt cursor file %s: %w", im.path, err)
	}

	return &launch.Cursor{
		LastSeenBlock: domain.BlockNumber(cf.LastSeenBlock),
		UpdatedAt:     cf.UpdatedAt,
	}, nil
}

func (im *impl) Put(c ctx.Ctx, cursor *launch.Cursor) error {
	raw, err := json.Marshal(cursorFile{
		LastSeenBlock: uint64(cursor.LastSeenBlock),
		UpdatedAt:     cursor.UpdatedAt,
	})
	if err != nil {
		return err
	}

	dir := filepath.Dir(im.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return xerrors.Errorf("create cursor dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(im.path)+".tmp.*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmp.Name(), im.path); err != nil {
		c.WithFields(log.Fields{
			"err":  err,
			"path": im.path,
		}).Error("rename cursor file failed")
		return err
	}
	return nil
}
