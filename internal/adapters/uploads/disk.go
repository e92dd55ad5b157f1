// Package uploads stores images submitted with admin requests.
package uploads

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"healthdir/internal/domain"
)

// PublicPrefix is the URL path the disk store's files are served under.
const PublicPrefix = "/uploads/"

// Disk writes uploads into a local directory under a random name.
type Disk struct{ dir string }

func NewDisk(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Disk{dir: dir}, nil
}

func (d *Disk) Dir() string { return d.dir }

// Save returns the server-relative path of the stored file.
func (d *Disk) Save(ctx context.Context, u domain.Upload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := uuid.NewString() + extension(u.Filename)
	f, err := os.OpenFile(filepath.Join(d.dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, u.Body); err != nil {
		f.Close()
		_ = os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return PublicPrefix + name, nil
}

func extension(filename string) string {
	return strings.ToLower(path.Ext(filepath.Base(filename)))
}
