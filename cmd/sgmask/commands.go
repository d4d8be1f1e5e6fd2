// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ajroetker/go-subgroup/internal/assert"
	"github.com/ajroetker/go-subgroup/subgroup"
	"github.com/ajroetker/go-subgroup/subgroup/contrib/maskcheck"
	"github.com/ajroetker/go-subgroup/subgroup/contrib/ndrange"
	"github.com/ajroetker/go-subgroup/subgroup/contrib/oracle"
)

// errChecksFailed is returned when a check ran but did not pass. The
// details have already been printed.
var errChecksFailed = errors.New("checks failed")

type app struct {
	out     io.Writer
	errOut  io.Writer
	envFile string
	cfg     Config
	logger  *slog.Logger
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "sgmask",
		Short:         "Sub-group lane mask self-checks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.envFile, "env-file", ".env", "dotenv file to load before reading SGMASK_* variables")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text or json")
	pf.Int("sg-size", 0, "sub-group size (0 uses the host default)")
	pf.Int("workers", 0, "concurrent work-groups (0 uses GOMAXPROCS)")

	root.AddCommand(a.infoCmd(), a.checkCmd(), a.sweepCmd(), a.verifyCmd())

	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := LoadConfig(a.envFile)
	if err != nil {
		return err
	}
	if err := cfg.ApplyFlags(cmd.Flags()); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := cfg.Logger(a.errOut)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	assert.SetLogger(logger)
	return nil
}

func (a *app) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the detected SIMD level and sub-group sizes",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			widths := make([]string, 0, len(subgroup.SupportedWidths()))
			for _, w := range subgroup.SupportedWidths() {
				widths = append(widths, fmt.Sprint(w))
			}
			fmt.Fprintf(a.out, "SIMD level:        %s\n", subgroup.CurrentName())
			fmt.Fprintf(a.out, "Default size:      %d\n", subgroup.DefaultSize())
			fmt.Fprintf(a.out, "Configured size:   %d\n", a.cfg.SubGroup())
			fmt.Fprintf(a.out, "Supported widths:  %s\n", strings.Join(widths, ","))
			fmt.Fprintf(a.out, "Precondition checks: %t\n", assert.Enabled)
			return nil
		},
	}
}

func (a *app) newQueue(sgSize int, reg prometheus.Registerer) (*ndrange.Queue, error) {
	return ndrange.New(
		ndrange.WithSubGroupSize(sgSize),
		ndrange.WithWorkers(a.cfg.Workers),
		ndrange.WithLogger(a.logger),
		ndrange.WithMetrics(ndrange.NewMetrics(reg)),
	)
}

// runCheck runs the mask check for one sub-group size and prints the
// outcome. It returns errChecksFailed when a check failed.
func (a *app) runCheck(ctx context.Context, sgSize int, r ndrange.Range) error {
	reg := prometheus.NewRegistry()
	q, err := a.newQueue(sgSize, reg)
	if err != nil {
		return err
	}
	defer q.Close()

	res, report, err := maskcheck.Run(ctx, q, r)
	if report != nil {
		a.logMetrics(reg, sgSize)
	}
	if err != nil {
		if report != nil && !report.Failed.IsEmpty() {
			a.logger.Error("sub-groups failed",
				slog.Int("sub_group_size", sgSize),
				slog.Uint64("failed_items", report.Failed.GetCardinality()),
				slog.Any("error", err),
			)
		}
		return err
	}

	failures := res.Failures()
	for _, msg := range failures {
		fmt.Fprintln(a.out, msg)
	}
	if len(failures) > 0 {
		for _, line := range res.Dump() {
			fmt.Fprintln(a.out, line)
		}
		return errChecksFailed
	}
	return nil
}

// logMetrics logs every counter gathered from reg at debug level.
func (a *app) logMetrics(reg *prometheus.Registry, sgSize int) {
	families, err := reg.Gather()
	if err != nil {
		a.logger.Warn("gathering metrics", slog.Any("error", err))
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				a.logger.Debug("metric",
					slog.Int("sub_group_size", sgSize),
					slog.String("name", mf.GetName()),
					slog.Float64("value", c.GetValue()),
				)
			}
		}
	}
}

func (a *app) checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Ballot even/odd masks over an ND-range and check the Mask API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := ndrange.Range{Global: a.cfg.GlobalSize, Local: a.cfg.LocalSize}
			if err := a.runCheck(cmd.Context(), a.cfg.SubGroup(), r); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Test passed.")
			return nil
		},
	}
	cmd.Flags().Int("global", 256, "total work items")
	cmd.Flags().Int("local", 128, "work items per work-group")
	return cmd
}

func (a *app) sweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Check and verify every supported sub-group size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var failed []int
			for _, w := range subgroup.SupportedWidths() {
				if w < 4 {
					continue
				}
				local := max(a.cfg.LocalSize, w)
				err := errors.Join(
					a.runCheck(cmd.Context(), w, ndrange.Range{Global: 2 * local, Local: local}),
					oracle.VerifyWidth(w, a.cfg.Samples, a.cfg.Seed),
				)
				status := "ok"
				if err != nil {
					status = "FAIL"
					failed = append(failed, w)
					if !errors.Is(err, errChecksFailed) {
						fmt.Fprintln(a.errOut, err)
					}
				}
				fmt.Fprintf(a.out, "sub-group size %3d: %s\n", w, status)
			}
			if len(failed) > 0 {
				return fmt.Errorf("%w for sizes %v", errChecksFailed, failed)
			}
			fmt.Fprintln(a.out, "Test passed.")
			return nil
		},
	}
	cmd.Flags().Int("local", 128, "work items per work-group")
	cmd.Flags().Int("samples", 64, "random masks verified per size")
	cmd.Flags().Uint64("seed", 1, "random seed")
	return cmd
}

func (a *app) verifyCmd() *cobra.Command {
	var width int
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Compare random masks of one width against the reference model",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if width == 0 {
				width = a.cfg.SubGroup()
			}
			if !subgroup.ValidWidth(width) {
				return fmt.Errorf("width %d: %w", width, subgroup.ErrInvalidWidth)
			}
			if err := oracle.VerifyWidth(width, a.cfg.Samples, a.cfg.Seed); err != nil {
				fmt.Fprintln(a.out, err)
				return errChecksFailed
			}
			fmt.Fprintf(a.out, "%d masks of width %d match the reference model\n", a.cfg.Samples, width)
			return nil
		},
	}
	cmd.Flags().IntVar(&width, "width", 0, "mask width (0 uses the sub-group size)")
	cmd.Flags().Int("samples", 64, "random masks to verify")
	cmd.Flags().Uint64("seed", 1, "random seed")
	return cmd
}
