package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dukerupert/mediaguard"
	"github.com/dukerupert/mediaguard/internal/media"
	"github.com/dukerupert/mediaguard/internal/storage"
	"github.com/dukerupert/mediaguard/internal/validation"
	"github.com/spf13/cobra"
)

type uploadOptions struct {
	folder   string
	claimed  string
	category string
}

func newUploadCmd(a *app) *cobra.Command {
	var opts uploadOptions

	cmd := &cobra.Command{
		Use:   "upload FILE",
		Short: "Validate a file and store it with the configured provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := a.loadConfig()
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			facade := storage.NewFacade(cfg.Storage, logger)
			svc := media.NewService(media.Config{
				MaxImageBytes: cfg.Media.MaxImageBytes,
				MaxVideoBytes: cfg.Media.MaxVideoBytes,
				Folders:       cfg.Media.Folders,
				Content: validation.Content{
					Images: cfg.ImageAllowList(),
					Videos: cfg.VideoAllowList(),
				},
			}, facade, logger, nil)

			result, err := svc.Ingest(cmd.Context(), mediaguard.Category(opts.category), mediaguard.UploadTarget{
				Data:         data,
				OriginalName: filepath.Base(args[0]),
				ContentType:  claimedType(opts.claimed, data),
				Folder:       opts.folder,
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(a.stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().StringVar(&opts.folder, "folder", "", "destination folder")
	cmd.Flags().StringVar(&opts.claimed, "type", "", "claimed MIME type")
	cmd.Flags().StringVar(&opts.category, "category", "auto", "image, video or auto")
	_ = cmd.MarkFlagRequired("folder")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete URL",
		Short: "Delete an object previously returned by upload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := a.loadConfig()
			if err != nil {
				return err
			}

			facade := storage.NewFacade(cfg.Storage, logger)
			if err := facade.DeleteFile(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "deleted %s\n", args[0])
			return nil
		},
	}
}
