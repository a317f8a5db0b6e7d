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
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cenkalti/backoff"
)

func init() {
	newBackOff = func(ctx context.Context) backoff.BackOff {
		return backoff.WithContext(backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 1), ctx)
	}
}

// helperLog returns a channel whose messages are logged when the
// test finishes.
func helperLog(t *testing.T) chan string {
	c := make(chan string, 1000)
	t.Cleanup(func() {
		close(c)
		for msg := range c {
			t.Log(msg)
		}
	})
	return c
}

func TestMaybeDownloadLocal(t *testing.T) {
	ctx := context.Background()
	for _, path := range []string{"/dev/null", "/blah/test/"} {
		k, err := maybeDownload(ctx, path, helperLog(t))
		if err != nil {
			t.Fatal(err)
		}
		if k != path {
			t.Errorf("expected %s, got %s", path, k)
		}
	}
}

func TestMaybeDownloadRemote(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "rtofs_3dz.nc"), []byte("currents"), 0644); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.FileServer(http.Dir(dir)))
	defer srv.Close()

	k, err := maybeDownload(context.Background(), srv.URL+"/rtofs_3dz.nc", helperLog(t))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(k, "rtofs_3dz.nc") {
		t.Errorf("expected tempDir/rtofs_3dz.nc, got %s", k)
	}
	b, err := os.ReadFile(k)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "currents" {
		t.Errorf("downloaded %q", b)
	}
}

func TestMaybeDownloadRemoteFail(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	if _, err := maybeDownload(context.Background(), srv.URL+"/missing.nc", helperLog(t)); err == nil {
		t.Error("expected an error")
	}
}

func TestJoinOut(t *testing.T) {
	for _, test := range []struct{ dir, want string }{
		{"out", filepath.Join("out", "a.nc")},
		{"gs://bucket/ggs/", "gs://bucket/ggs/a.nc"},
		{"s3://bucket", "s3://bucket/a.nc"},
	} {
		if got := joinOut(test.dir, "a.nc"); got != test.want {
			t.Errorf("joinOut(%q) = %q; want %q", test.dir, got, test.want)
		}
	}
}

// TestBlobRoundTrip uploads a file to a local bucket and downloads it again.
func TestBlobRoundTrip(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)
	if err := os.Mkdir("bucket", os.ModePerm); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	u := new(uploader)
	const remote = "file://bucket/RU29_GOFS_DepthAverage_20240305T00Z.nc"
	local, err := u.maybeUpload(remote)
	if err != nil {
		t.Fatal(err)
	}
	if local == remote {
		t.Fatal("blob output was not redirected to a local file")
	}
	if err := os.WriteFile(local, []byte("depth averages"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := u.uploadOutput(ctx, helperLog(t)); err != nil {
		t.Fatal(err)
	}

	k, err := maybeDownload(ctx, remote, helperLog(t))
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(k)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "depth averages" {
		t.Errorf("downloaded %q", b)
	}
}

func TestOpenBucketInvalid(t *testing.T) {
	if _, err := OpenBucket(context.Background(), "ftp://bucket"); err == nil {
		t.Error("expected an error")
	}
}
