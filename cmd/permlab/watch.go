package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/0xcro3dile/permlab/internal/adapters/filewatcher"
	"github.com/0xcro3dile/permlab/internal/adapters/loader"
	"github.com/0xcro3dile/permlab/internal/domain/entities"
	"github.com/0xcro3dile/permlab/internal/domain/usecases"
	"github.com/0xcro3dile/permlab/internal/infrastructure/report"
)

func newWatchCommand(opts *globalOptions) *cobra.Command {
	var reportDir string
	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Analyze measurement drafts dropped into a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := opts.cfg.Watch.Dir
			if len(args) == 1 {
				dir = args[0]
			}
			if cmd.Flags().Changed("reports") {
				opts.cfg.Watch.ReportDir = reportDir
			}
			for _, d := range []string{dir, opts.cfg.Watch.ReportDir} {
				if d == "" {
					continue
				}
				if err := os.MkdirAll(d, 0755); err != nil {
					return err
				}
			}

			ctx, cancel := signalContext()
			defer cancel()

			intake := usecases.NewIntakeUseCase(loader.NewMultiLoader(), opts.newAdapter(), opts.sessionOptions()...)
			writer := &reportWriter{dir: opts.cfg.Watch.ReportDir}

			// Drafts already present are analyzed before watching.
			entries, err := os.ReadDir(dir)
			if err != nil {
				return err
			}
			for _, e := range entries {
				path := filepath.Join(dir, e.Name())
				if e.IsDir() || !hasExtension(path, opts.cfg.Watch.Extensions) {
					continue
				}
				writer.handle(intake.Process(ctx, path))
			}

			watcher, err := filewatcher.NewDraftWatcher(opts.cfg.Watch.Extensions, log.Log)
			if err != nil {
				return err
			}
			defer watcher.Stop()

			events, err := watcher.Watch(ctx, dir)
			if err != nil {
				return err
			}
			intake.Run(ctx, events, writer.handle)
			return nil
		},
	}
	cmd.Flags().StringVar(&reportDir, "reports", "", "directory for report files (default: next to each draft)")
	return cmd
}

// reportWriter stores one plain-text report per analyzed draft.
type reportWriter struct {
	dir string
}

func (w *reportWriter) handle(res *usecases.IntakeResult, err error) {
	if res == nil {
		log.WithError(err).Warn("draft not loaded")
		return
	}
	entry := log.WithField("file", res.File.Path)
	if res.Skipped {
		entry.Debug("draft unchanged, skipping")
		return
	}

	var rce *entities.RemoteComputationError
	switch {
	case errors.As(err, &rce):
		entry.WithError(err).Warn("analysis failed, will retry on next change")
	case err != nil:
		entry.WithError(err).Warn("draft rejected")
	default:
		entry.WithField("state", res.Snapshot.State.String()).Info("draft analyzed")
	}

	var buf bytes.Buffer
	if err := (report.Renderer{}).Render(&buf, res.Snapshot); err != nil {
		entry.WithError(err).Error("rendering report")
		return
	}
	if err != nil && res.Snapshot.Error == "" {
		buf.WriteString("Error: " + err.Error() + "\n")
	}
	path := reportPath(res.File.Path, w.dir)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		entry.WithError(err).Error("writing report")
		return
	}
	entry.WithField("report", path).Debug("report written")
}

// reportPath maps drafts/core-7.yaml to drafts/core-7.report.txt, or into dir when set.
func reportPath(draftPath, dir string) string {
	base := strings.TrimSuffix(filepath.Base(draftPath), filepath.Ext(draftPath)) + ".report.txt"
	if dir == "" {
		dir = filepath.Dir(draftPath)
	}
	return filepath.Join(dir, base)
}

func hasExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
