package workspace

import (
	"context"
	_ "crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/docker/go-units"
	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/weles/pkg/storage"
)

// Archive mirrors workspace files to blob storage so a replaced or wiped
// workspace can be repopulated.
type Archive interface {
	// Store uploads the local file at src under key.
	Store(ctx context.Context, key, src string) error
	// StoreAll uploads several files concurrently; keys map to local paths.
	StoreAll(ctx context.Context, files map[string]string) error
	// Restore downloads key into dst. It is a no-op when dst already exists.
	Restore(ctx context.Context, key, dst string) error
	// Remove deletes key. Missing keys are not an error.
	Remove(ctx context.Context, key string) error
	// Open streams an archived blob.
	Open(ctx context.Context, key string) (*storage.Blob, error)
}

// ErrCorrupt reports an archived blob whose content does not match the
// digest recorded when it was stored.
var ErrCorrupt = errors.New("archived file failed digest verification")

// DigestKey is the blob metadata entry holding the content digest.
const DigestKey = "digest"

// ModelKey is the blob key of a file in a model directory.
func ModelKey(name, file string) string {
	return path.Join("models", name, file)
}

// DatasetKey is the blob key of a stored dataset.
func DatasetKey(hash string) string {
	return path.Join("datasets", hash)
}

// NewArchive wraps store. A nil store yields an archive whose uploads are
// skipped and whose reads report storage.ErrDisabled.
func NewArchive(store storage.System, logger *slog.Logger) Archive {
	if store == nil {
		return disabled{}
	}
	return &blobArchive{
		store:  store,
		logger: logger.With("system", "archive"),
	}
}

type blobArchive struct {
	store  storage.System
	logger *slog.Logger
}

func (a *blobArchive) Store(ctx context.Context, key, src string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer f.Close()

	dgst, err := digest.FromReader(f)
	if err != nil {
		return fmt.Errorf("digest %s: %w", src, err)
	}
	size, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}

	opts := storage.UploadOptions{
		ContentType: "application/octet-stream",
		Metadata:    map[string]string{DigestKey: dgst.String()},
	}
	if err := a.store.Upload(ctx, key, f, opts); err != nil {
		return err
	}

	a.logger.Info("file archived", "key", key, "size", units.HumanSize(float64(size)), "digest", dgst)
	return nil
}

func (a *blobArchive) StoreAll(ctx context.Context, files map[string]string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for key, src := range files {
		g.Go(func() error {
			return a.Store(gctx, key, src)
		})
	}
	return g.Wait()
}

func (a *blobArchive) Restore(ctx context.Context, key, dst string) error {
	exists, err := Exists(dst)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	blob, err := a.store.Download(ctx, key)
	if err != nil {
		return err
	}
	defer blob.Body.Close()

	var body io.Reader = blob.Body
	if recorded, ok := blob.Metadata[DigestKey]; ok {
		dgst, err := digest.Parse(recorded)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
		}
		body = &verifiedReader{r: blob.Body, v: dgst.Verifier(), key: key}
	} else {
		a.logger.Warn("archived file has no digest, restoring unverified", "key", key)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	n, err := CopyFileAtomic(dst, body, 0o644)
	if err != nil {
		return fmt.Errorf("restore %s: %w", dst, err)
	}

	a.logger.Info("file restored", "key", key, "path", dst, "size", units.HumanSize(float64(n)))
	return nil
}

func (a *blobArchive) Remove(ctx context.Context, key string) error {
	if err := a.store.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	return nil
}

func (a *blobArchive) Open(ctx context.Context, key string) (*storage.Blob, error) {
	return a.store.Download(ctx, key)
}

// verifiedReader feeds a digest verifier and replaces the final io.EOF with
// ErrCorrupt when the content does not match.
type verifiedReader struct {
	r   io.Reader
	v   digest.Verifier
	key string
}

func (vr *verifiedReader) Read(p []byte) (int, error) {
	n, err := vr.r.Read(p)
	if n > 0 {
		vr.v.Write(p[:n])
	}
	if err == io.EOF && !vr.v.Verified() {
		return n, fmt.Errorf("%w: %s", ErrCorrupt, vr.key)
	}
	return n, err
}

type disabled struct{}

func (disabled) Store(context.Context, string, string) error         { return nil }
func (disabled) StoreAll(context.Context, map[string]string) error   { return nil }
func (disabled) Remove(context.Context, string) error                { return nil }
func (disabled) Open(context.Context, string) (*storage.Blob, error) { return nil, storage.ErrDisabled }

func (disabled) Restore(_ context.Context, _ string, dst string) error {
	exists, err := Exists(dst)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return storage.ErrDisabled
}
