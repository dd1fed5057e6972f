package main

import (
	"bufio"
	"os"

	"github.com/spf13/cobra"

	"relink/internal/listing"
)

// defaultExtensions is the image set the lister filters for when -e is not
// given.
var defaultExtensions = []string{
	"dpx", "exr", "gif", "heic", "jpeg", "jpg", "png", "svg", "tiff", "webp",
}

// listCmd is the enumeration sibling of the dedup engine: it prints matching
// files sorted by modification time so downstream tools can consume them.
func listCmd() *cobra.Command {
	var (
		all        bool
		noSort     bool
		nullSep    bool
		quote      bool
		extensions []string
	)

	cmd := &cobra.Command{
		Use:   "list [flags] [TARGET...]",
		Short: "List files recursively, sorted by last-modified time",
		RunE: func(cmd *cobra.Command, args []string) error {
			targets := args
			if len(targets) == 0 {
				targets = []string{"."}
			}

			reg := listing.New(extensions, all)
			reg.Populate(targets)
			if !noSort {
				reg.SortByModTime()
			}

			w := bufio.NewWriter(os.Stdout)
			if err := reg.WriteAll(w, nullSep, quote); err != nil {
				return err
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false,
		"include hidden subfiles and subdirectories of targets")
	cmd.Flags().BoolVarP(&noSort, "no-sort", "n", false,
		"disable sorting by last-modified time")
	cmd.Flags().BoolVarP(&nullSep, "null", "0", false,
		"use NUL as separator, not newline")
	cmd.Flags().BoolVar(&quote, "quote", false, "shell-quote paths")
	cmd.Flags().StringSliceVarP(&extensions, "extensions", "e", defaultExtensions,
		"file extensions to filter for")

	return cmd
}
