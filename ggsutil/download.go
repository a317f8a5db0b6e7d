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
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/cenkalti/backoff"
	"github.com/google/go-cloud/blob"
	"github.com/google/go-cloud/blob/fileblob"
	"github.com/google/go-cloud/blob/gcsblob"
	"github.com/google/go-cloud/blob/s3blob"
	"github.com/google/go-cloud/gcp"
)

// newBackOff returns the retry policy for transfers.
var newBackOff = func(ctx context.Context) backoff.BackOff {
	return backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 4), ctx)
}

// retry runs f under the transfer retry policy, reporting failed
// attempts to c.
func retry(ctx context.Context, what string, c chan string, f func() error) error {
	return backoff.RetryNotify(f, newBackOff(ctx), func(err error, d time.Duration) {
		if c != nil {
			c <- fmt.Sprintf("%s: %v: retrying in %v", what, err, d)
		}
	})
}

// maybeDownload checks if path is an existing local file.
// If not and path is a URL or a blob, it downloads the file to a
// temporary directory and returns the path to the downloaded file.
// Other paths are returned unchanged. c, if not nil, is a channel
// across which logging messages will be sent.
func maybeDownload(ctx context.Context, path string, c chan string) (string, error) {
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return path, nil
	}
	switch {
	case strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://"):
		return downloadHTTP(ctx, path, c)
	case IsBlob(path):
		return downloadBlob(ctx, path, c)
	}
	return path, nil
}

// tempFile creates a file named after the last element of
// remote in a new temporary directory.
func tempFile(remote string) (*os.File, error) {
	dir, err := os.MkdirTemp("", "ggs")
	if err != nil {
		return nil, fmt.Errorf("ggsutil: creating temporary download directory: %v", err)
	}
	name := path.Base(remote)
	if u, err := url.Parse(remote); err == nil && u.Path != "" {
		name = path.Base(u.Path)
	}
	if name == "." || name == "/" {
		name = "download"
	}
	w, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("ggsutil: creating file for download: %v", err)
	}
	return w, nil
}

// downloadHTTP downloads a file from the specified URL and returns
// the path to the downloaded file.
func downloadHTTP(ctx context.Context, path string, c chan string) (string, error) {
	w, err := tempFile(path)
	if err != nil {
		return "", err
	}
	defer w.Close()
	if c != nil {
		c <- fmt.Sprintf("Downloading %s", path)
	}
	err = retry(ctx, path, c, func() error {
		req, err := http.NewRequest(http.MethodGet, path, nil)
		if err != nil {
			return err
		}
		resp, err := http.DefaultClient.Do(req.WithContext(ctx))
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("status %s", resp.Status)
		}
		if err := rewind(w); err != nil {
			return err
		}
		_, err = io.Copy(w, resp.Body)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("ggsutil: downloading %s: %v", path, err)
	}
	return w.Name(), nil
}

// rewind empties f so a failed transfer can be retried.
func rewind(f *os.File) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	_, err := f.Seek(0, io.SeekStart)
	return err
}

// IsBlob returns whether the given filename represents a blob.
// (i.e., if it starts with `gs://`, 's3://', or 'file://').
func IsBlob(path string) bool {
	return strings.HasPrefix(path, "gs://") || strings.HasPrefix(path, "s3://") || strings.HasPrefix(path, "file://")
}

// OpenBucket returns the blob storage bucket specified by bucketName,
// where bucketName must be in the format 'provider://name' where provider
// is the name of the storage provider and name is the name of the bucket.
// Even if name contains subdirectories, only the base directory name will be
// used when opening the bucket.
// The currently accepted storage providers are "file" for the local filesystem
// (a directory relative to the working directory), "gs" for Google Cloud
// Storage, and "s3" for AWS S3.
func OpenBucket(ctx context.Context, bucketName string) (*blob.Bucket, error) {
	u, err := url.Parse(bucketName)
	if err != nil {
		return nil, fmt.Errorf("ggsutil.OpenBucket: %v", err)
	}
	switch u.Scheme {
	case "file":
		return fileblob.NewBucket(u.Hostname())
	case "gs":
		return gsBucket(ctx, u.Hostname())
	case "s3":
		return s3Bucket(ctx, u.Hostname())
	default:
		return nil, fmt.Errorf("ggsutil.OpenBucket: invalid provider %s", u.Scheme)
	}
}

func gsBucket(ctx context.Context, name string) (*blob.Bucket, error) {
	// See here for information on credentials:
	// https://cloud.google.com/docs/authentication/getting-started
	creds, err := gcp.DefaultCredentials(ctx)
	if err != nil {
		return nil, err
	}
	c, err := gcp.NewHTTPClient(gcp.DefaultTransport(), gcp.CredentialsTokenSource(creds))
	if err != nil {
		return nil, err
	}
	return gcsblob.OpenBucket(ctx, name, c)
}

// s3Bucket opens an s3 storage bucket. It assumes the following
// environment variables are set: AWS_REGION, AWS_ACCESS_KEY_ID, and
// AWS_SECRET_ACCESS_KEY.
func s3Bucket(ctx context.Context, name string) (*blob.Bucket, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-1"
	}
	c := &aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewEnvCredentials(),
	}
	s, err := session.NewSession(c)
	if err != nil {
		return nil, err
	}
	return s3blob.OpenBucket(ctx, s, name)
}

// splitBlob splits a blob path into its bucket and key.
func splitBlob(path string) (bucket, key string, err error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", "", err
	}
	return u.Scheme + "://" + u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

// downloadBlob downloads the specified file from blob storage.
func downloadBlob(ctx context.Context, path string, c chan string) (string, error) {
	bucketName, key, err := splitBlob(path)
	if err != nil {
		return "", fmt.Errorf("ggsutil: downloading %s: %v", path, err)
	}
	bucket, err := OpenBucket(ctx, bucketName)
	if err != nil {
		return "", fmt.Errorf("ggsutil: downloading %s: %v", path, err)
	}
	w, err := tempFile(path)
	if err != nil {
		return "", err
	}
	defer w.Close()
	if c != nil {
		c <- fmt.Sprintf("Downloading %s", path)
	}
	err = retry(ctx, path, c, func() error {
		r, err := bucket.NewReader(ctx, key)
		if err != nil {
			return err
		}
		defer r.Close()
		if err := rewind(w); err != nil {
			return err
		}
		_, err = io.Copy(w, r)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("ggsutil: downloading %s: %v", path, err)
	}
	return w.Name(), nil
}
