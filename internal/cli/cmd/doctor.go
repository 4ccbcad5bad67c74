package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"streambake/internal/util/deps"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "doctor",
		Short:         "Diagnose external dependencies (ffmpeg, ffprobe, mediainfo, exiftool)",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := deps.Find(
				getPersistentString(cmd, "ffmpeg", ""),
				getPersistentString(cmd, "ffprobe", ""),
				getPersistentString(cmd, "mediainfo", ""),
				getPersistentString(cmd, "exiftool", ""),
			)
			if err != nil {
				return &ExitError{Code: ExitMissingDep, Err: err}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "FFmpeg:    %s\n", t.FFmpeg)
			fmt.Fprintf(cmd.OutOrStdout(), "FFprobe:   %s\n", t.FFprobe)
			fmt.Fprintf(cmd.OutOrStdout(), "MediaInfo: %s\n", t.MediaInfo)
			if t.ExifTool != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "ExifTool:  %s\n", t.ExifTool)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "ExifTool:  not found (tag probe disabled)")
			}
			return nil
		},
	}
}
