package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dukerupert/mediaguard/internal/sniff"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"
)

// sniffPrefix is how much of each file is read for detection.
const sniffPrefix = 64

func newSniffCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sniff FILE...",
		Short: "Print the detected format of each file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FILE\tFORMAT\tMIME\tBRAND\tHINT")
			for _, path := range args {
				head, err := readHead(path, sniffPrefix)
				if err != nil {
					return err
				}
				detected := sniff.DetectType(head)
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					path,
					detected,
					orDash(detected.MIME()),
					orDash(sniff.Brand(head)),
					mimetype.Detect(head).String(),
				)
			}
			return w.Flush()
		},
	}
}

func readHead(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return buf[:read], nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
