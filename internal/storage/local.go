package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Local keeps product photos on disk, month-partitioned the same way
// the S3 driver lays out the bucket, so switching drivers does not
// change the key shape stored on image records.
type Local struct {
	BaseDir   string
	URLPrefix string
}

func NewLocal(baseDir, urlPrefix string) *Local {
	return &Local{BaseDir: baseDir, URLPrefix: urlPrefix}
}

func (l *Local) Put(ctx context.Context, r io.Reader, in PutInput) (PutResult, error) {
	_ = ctx

	ext, err := imageExt(in.Filename, in.ContentType)
	if err != nil {
		return PutResult{}, err
	}
	key := imageKey(ext)

	dstPath := filepath.Join(l.BaseDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return PutResult{}, err
	}

	f, err := os.OpenFile(dstPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return PutResult{}, err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return PutResult{}, err
	}

	url := strings.TrimRight(l.URLPrefix, "/") + "/" + key
	return PutResult{Key: key, URL: url}, nil
}

func (l *Local) Delete(ctx context.Context, key string) error {
	_ = ctx
	// keys contain the month partition separator; Clean pins the path
	// under BaseDir so a crafted key cannot climb out
	rel := strings.TrimPrefix(path.Clean("/"+key), "/")
	return os.Remove(filepath.Join(l.BaseDir, filepath.FromSlash(rel)))
}

func (l *Local) String() string { return fmt.Sprintf("local(%s)", l.BaseDir) }
