package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dukerupert/mediaguard"
	"github.com/dukerupert/mediaguard/internal/media"
	"github.com/dukerupert/mediaguard/internal/validation"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"
)

// errRejected is returned when a file fails validation so the process exits
// non-zero. The reason has already been printed.
var errRejected = errors.New("rejected")

type validateOptions struct {
	claimed  string
	category string
	allow    []string
}

func newValidateCmd(a *app) *cobra.Command {
	var opts validateOptions

	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a file against the configured allow-lists",
		Long: `Check a file the way the upload endpoint would. The claimed type
defaults to a guess from the file contents when --type is not given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := a.loadConfig()
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			claimed := claimedType(opts.claimed, data)

			content := validation.Content{
				Images: cfg.ImageAllowList(),
				Videos: cfg.VideoAllowList(),
			}
			if len(opts.allow) > 0 {
				list := mediaguard.NewAllowList(opts.allow...)
				content = validation.Content{Images: list, Videos: list}
			}

			var verdict mediaguard.Verdict
			switch mediaguard.Category(opts.category) {
			case "", media.CategoryAuto:
				verdict = content.Media(data, claimed)
			case mediaguard.CategoryImage, mediaguard.CategoryVideo:
				verdict = content.For(mediaguard.Category(opts.category), data, claimed)
			default:
				return fmt.Errorf("unknown category %q", opts.category)
			}

			if !verdict.Valid {
				fmt.Fprintf(a.stdout, "%s: rejected (%s) claimed=%s detected=%s\n",
					args[0], mediaguard.ErrorMessage(verdict.Err), claimed, verdict.Detected)
				return errRejected
			}
			fmt.Fprintf(a.stdout, "%s: ok claimed=%s detected=%s\n", args[0], claimed, verdict.Detected)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.claimed, "type", "", "claimed MIME type")
	cmd.Flags().StringVar(&opts.category, "category", "auto", "image, video or auto")
	cmd.Flags().StringSliceVar(&opts.allow, "allow", nil, "MIME types to allow instead of the configured lists")
	return cmd
}

// claimedType returns explicit, or the mimetype guess for data.
func claimedType(explicit string, data []byte) string {
	if explicit != "" {
		return explicit
	}
	return mediaguard.NormalizeMIME(mimetype.Detect(data).String())
}
