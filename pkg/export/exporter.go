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

// Package export writes finished traces to local storage and, when the
// trace source is reachable over the network, uploads them to its
// collector route. The local file is always the durable record; upload
// failures are logged and never retried.
package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/log-go"
	"github.com/adrg/xdg"
	"github.com/google/uuid"
)

// uploadRoute is resolved relative to the configured base URL.
const uploadRoute = "systrace"

const uploadTimeout = 30 * time.Second

// Exporter persists trace payloads.
type Exporter struct {
	baseURL string
	outDir  string
	client  *http.Client
}

// NewExporter creates an exporter. baseURL is the trace source the
// profiler was served from; only http(s) sources are uploaded to. An
// empty outDir falls back to the user's state directory.
func NewExporter(baseURL, outDir string) *Exporter {
	if outDir == "" {
		outDir = filepath.Join(xdg.StateHome, "bridge-profiler")
	}

	return &Exporter{
		baseURL: baseURL,
		outDir:  outDir,
		client:  &http.Client{Timeout: uploadTimeout},
	}
}

// Export writes the payload to a local trace file and uploads it when
// the base URL names a networked source. It returns the local path.
func (e *Exporter) Export(ctx context.Context, payload []byte) (string, error) {
	path, err := e.writeLocal(payload)
	if err != nil {
		return "", err
	}

	log.Infof("trace written to %s", path)

	target, err := url.Parse(e.baseURL)
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") {
		log.Warnf("trace upload needs a networked source URL; %s stays local-only", path)

		return path, nil
	}

	if err := e.upload(ctx, target, payload); err != nil {
		log.Errorf("uploading trace: %v", err)
	}

	return path, nil
}

func (e *Exporter) writeLocal(payload []byte) (string, error) {
	if err := os.MkdirAll(e.outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating trace directory: %w", err)
	}

	path := filepath.Join(e.outDir, fmt.Sprintf("trace-%s.json", uuid.NewString()))
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return "", fmt.Errorf("writing trace file: %w", err)
	}

	return path, nil
}

func (e *Exporter) upload(ctx context.Context, base *url.URL, payload []byte) error {
	route, err := url.Parse(uploadRoute)
	if err != nil {
		return err
	}

	target := base.ResolveReference(route)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Add("Content-Type", "application/json")
	req.Close = true

	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		return fmt.Errorf("collector rejected trace: %s: %s", resp.Status, body)
	}

	log.Infof("trace uploaded to %s", target)

	return nil
}
