package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"clipdeck/internal/backend"
	"clipdeck/internal/config"
	"clipdeck/internal/fileutil"
	"clipdeck/internal/logging"
	"clipdeck/internal/notifications"
	"clipdeck/internal/resources"
	"clipdeck/internal/services"
	"clipdeck/internal/textutil"
)

type savedClip struct {
	ClipID string `json:"clip_id" yaml:"clip_id"`
	Path   string `json:"path" yaml:"path"`
	Bytes  int64  `json:"bytes" yaml:"bytes"`
}

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "download <filename> [clip-id...]",
		Short: "Save clips to the download directory",
		Long: "Saves each selected clip as clip_<n>.mp4, numbered by its position in the\n" +
			"video's clip listing, under <download_dir>/<video>/.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := args[0]
			return ctx.withSession(cmd, func(s *session) error {
				clips, err := s.orch.LoadClips(commandCtx(cmd), filename)
				if err != nil {
					return err
				}
				selected, err := selectClips(clips, args[1:])
				if err != nil {
					return err
				}
				root := s.cfg.Paths.DownloadDir
				if strings.TrimSpace(outDir) != "" {
					if root, err = config.ExpandPath(outDir); err != nil {
						return err
					}
				}
				dir := filepath.Join(root, textutil.SanitizeFileName(strings.TrimSuffix(filename, filepath.Ext(filename))))
				notifier := ctx.notifier(cmd)

				saved := make([]savedClip, 0, len(selected))
				for _, idx := range selected {
					dest := filepath.Join(dir, textutil.ClipFileName(idx))
					item, err := saveClip(cmd, s, clips[idx], dest)
					if err != nil {
						return err
					}
					saved = append(saved, item)
					_ = notifier.Publish(commandCtx(cmd), notifications.EventDownloadSaved, notifications.Payload{
						"filename": filename,
						"id":       item.ClipID,
						"path":     item.Path,
					})
				}
				return ctx.emit(cmd, saved, func(w io.Writer) error {
					if len(saved) == 0 {
						fmt.Fprintf(w, "No clips for %s\n", filename)
					}
					return nil
				})
			})
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory to save into (default: paths.download_dir)")
	return cmd
}

// saveClip holds the downloaded bytes in a short-lived handle, copies them to
// dest and revokes the handle whether or not the copy succeeds.
func saveClip(cmd *cobra.Command, s *session, clip backend.Clip, dest string) (savedClip, error) {
	id := clip.ID.String()
	ctx := services.WithFilename(services.WithClipID(commandCtx(cmd), id), filepath.Base(dest))
	download, err := s.client.DownloadClip(ctx, clip.URL)
	if err != nil {
		return savedClip{}, services.Fail(services.ReasonDownloadFailed, services.ErrRemote, "download", "fetch", "clip "+id, err)
	}
	handle, err := s.manager.Create(resources.DownloadIdentity(id), download.Data, download.MediaType)
	if err != nil {
		return savedClip{}, services.Fail(services.ReasonDownloadFailed, services.ErrTransient, "download", "stage", "clip "+id, err)
	}
	defer func() {
		if err := s.manager.Revoke(handle); err != nil {
			s.logger.Debug("download handle revoke failed", logging.Error(err))
		}
	}()
	if err := fileutil.CopyFileVerified(handle.Path(), dest); err != nil {
		return savedClip{}, services.Fail(services.ReasonDownloadFailed, services.ErrTransient, "download", "save", dest, err)
	}
	logging.WithContext(ctx, s.logger).Info("clip saved", logging.String("path", dest), logging.Int64("size_bytes", handle.Size()))
	return savedClip{ClipID: id, Path: dest, Bytes: handle.Size()}, nil
}
