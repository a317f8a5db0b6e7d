/*
Copyright © 2024 the GGS authors.
This file is part of GGS.

GGS is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

GGS is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with GGS.  If not, see <http://www.gnu.org/licenses/>.
*/

package ggsutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/go-cloud/blob"
)

// joinOut joins an output directory, which may be a blob location,
// and a file name.
func joinOut(dir, name string) string {
	if IsBlob(dir) {
		return strings.TrimSuffix(dir, "/") + "/" + name
	}
	return filepath.Join(dir, name)
}

type uploader struct {
	// files is a set of file path pairs. The first of each pair
	// is a local file path and the second is a blob storage
	// path where it should be uploaded to.
	files [][2]string
	err   error
	dir   string
}

// maybeUpload checks whether the given output file path refers to
// a blob storage location. If it does, then a temporary file location
// is returned. The file will then be uploaded to blob storage when
// the uploadOutput method is run.
func (u *uploader) maybeUpload(path string) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	if !IsBlob(path) {
		return path, nil
	}
	if u.dir == "" {
		u.dir, u.err = os.MkdirTemp("", "ggs")
		if u.err != nil {
			return "", fmt.Errorf("ggsutil: creating temporary output directory: %v", u.err)
		}
	}
	local := filepath.Join(u.dir, filepath.Base(path))
	u.files = append(u.files, [2]string{local, path})
	return local, nil
}

// uploadOutput copies the files registered by maybeUpload to blob
// storage.
func (u *uploader) uploadOutput(ctx context.Context, c chan string) error {
	if u.err != nil {
		return u.err
	}
	for _, files := range u.files {
		if err := retry(ctx, files[1], c, func() error { return upload(ctx, files[0], files[1]) }); err != nil {
			return err
		}
		if c != nil {
			c <- fmt.Sprintf("Uploaded %s", files[1])
		}
	}
	return nil
}

func upload(ctx context.Context, local, remote string) error {
	r, err := os.Open(local)
	if err != nil {
		return fmt.Errorf("ggsutil: opening file '%s' for upload: %v", local, err)
	}
	defer r.Close()
	bucketName, key, err := splitBlob(remote)
	if err != nil {
		return fmt.Errorf("ggsutil: parsing url '%s' for upload: %v", remote, err)
	}
	bucket, err := OpenBucket(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("ggsutil: opening bucket to upload file '%s': %v", remote, err)
	}
	w, err := bucket.NewWriter(ctx, key, &blob.WriterOptions{})
	if err != nil {
		return fmt.Errorf("ggsutil: opening writer to upload file '%s': %v", remote, err)
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("ggsutil: uploading file '%s' to '%s': %v", local, remote, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("ggsutil: uploading file '%s' to '%s': %v", local, remote, err)
	}
	return nil
}
