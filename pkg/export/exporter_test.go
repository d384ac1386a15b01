/*
Copyright © 2026 SUSE LLC
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at
    http://www.apache.org/licenses/LICENSE-2.0
Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package export_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/rancher-sandbox/bridge-profiler/pkg/export"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportWritesLocalFile(t *testing.T) {
	t.Parallel()

	outDir := t.TempDir()
	exporter := export.NewExporter("", outDir)

	payload := []byte(`{"traceEvents":[],"samples":[]}`)
	path, err := exporter.Export(context.Background(), payload)
	require.NoError(t, err)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, written)
}

func TestExportUploadsToNetworkedSource(t *testing.T) {
	t.Parallel()

	var (
		gotPath string
		gotBody []byte
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	exporter := export.NewExporter(server.URL+"/", t.TempDir())

	payload := []byte(`{"traceEvents":[],"samples":[]}`)
	_, err := exporter.Export(context.Background(), payload)
	require.NoError(t, err)

	assert.Equal(t, "/systrace", gotPath)
	assert.Equal(t, payload, gotBody)
}

func TestExportSkipsUploadForLocalSource(t *testing.T) {
	t.Parallel()

	exporter := export.NewExporter("file:///opt/app/bundle.js", t.TempDir())

	path, err := exporter.Export(context.Background(), []byte("{}"))
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestExportSurvivesUploadFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	exporter := export.NewExporter(server.URL, t.TempDir())

	// Upload failures are logged, not surfaced: the local file remains
	// the durable record.
	path, err := exporter.Export(context.Background(), []byte("{}"))
	require.NoError(t, err)
	assert.FileExists(t, path)
}
