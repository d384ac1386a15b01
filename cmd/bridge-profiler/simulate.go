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

package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/Masterminds/log-go"
	"github.com/rancher-sandbox/bridge-profiler/pkg/dispatch"
	"github.com/rancher-sandbox/bridge-profiler/pkg/export"
	"github.com/rancher-sandbox/bridge-profiler/pkg/procinfo"
	"github.com/rancher-sandbox/bridge-profiler/pkg/profiler"
	"github.com/rancher-sandbox/bridge-profiler/pkg/registry"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

//nolint:gochecknoglobals
var (
	simDuration  time.Duration
	simOutputDir string
	simUploadURL string
)

//nolint:gochecknoglobals
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a synthetic workload through a profiling session",
	Long: `Simulate registers a small set of demo modules, profiles them under a
synthetic workload for the given duration, and exports the recorded
trace. The output loads in any Trace Event Format viewer.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSimulation(cmd.Context())
	},
}

//nolint:gochecknoinits
func init() {
	simulateCmd.Flags().DurationVar(&simDuration, "duration", 2*time.Second,
		"how long to run the synthetic workload")
	simulateCmd.Flags().StringVar(&simOutputDir, "output-dir", "",
		"directory for the trace file (default: user state directory)")
	simulateCmd.Flags().StringVar(&simUploadURL, "upload-url", "",
		"base URL of a trace collector; http(s) only")
	rootCmd.AddCommand(simulateCmd)
}

type layoutModule struct {
	registry.ModuleBase
}

func (m *layoutModule) ModuleName() string { return "Layout" }

func (m *layoutModule) Measure(width, height float64) float64 {
	time.Sleep(200 * time.Microsecond)

	return width * height
}

func (m *layoutModule) ApplyInsets(top, left, bottom, right float64) float64 {
	time.Sleep(80 * time.Microsecond)

	return top + left + bottom + right
}

type networkModule struct {
	registry.ModuleBase
}

func (m *networkModule) ModuleName() string { return "Network" }

func (m *networkModule) Fetch(resource string) string {
	time.Sleep(500 * time.Microsecond)

	return "ok:" + resource
}

func runSimulation(parent context.Context) error {
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg := registry.NewStaticRegistry()
	layout := reg.Register(&layoutModule{}, dispatch.NewQueue("com.bridge.LayoutQueue"))
	network := reg.Register(&networkModule{}, dispatch.NewQueue("com.bridge.NetworkQueue"))

	controller := profiler.NewController(procinfo.NewHost())
	controller.Start(ctx, reg)

	log.Infof("profiling a synthetic workload for %s", simDuration)

	deadline := time.Now().Add(simDuration)
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		for time.Now().Before(deadline) && ctx.Err() == nil {
			if _, err := layout.Invoke("Measure", 320.0, 480.0); err != nil {
				return fmt.Errorf("layout workload: %w", err)
			}

			if _, err := layout.Invoke("ApplyInsets", 20.0, 0.0, 34.0, 0.0); err != nil {
				return fmt.Errorf("layout workload: %w", err)
			}
		}

		return nil
	})

	group.Go(func() error {
		thread := network.Queue().Thread()

		for time.Now().Before(deadline) && ctx.Err() == nil {
			cookie := controller.BeginAsyncEvent("fetch", map[string]any{"resource": "bundle.js"})
			flow := controller.BeginFlowEvent(thread)

			if _, err := network.Invoke("Fetch", "bundle.js"); err != nil {
				return fmt.Errorf("network workload: %w", err)
			}

			controller.EndFlowEvent(thread, flow)
			controller.EndAsyncEvent(cookie, "network", thread)
		}

		return nil
	})

	if err := group.Wait(); err != nil {
		log.Errorf("synthetic workload: %v", err)
	}

	exporter := export.NewExporter(simUploadURL, simOutputDir)

	exported := make(chan error, 1)
	controller.Stop(ctx, reg, func(payload []byte) {
		_, err := exporter.Export(ctx, payload)
		exported <- err
	})

	select {
	case err := <-exported:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
