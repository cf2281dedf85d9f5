package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var errMissingInput = errors.New("a source URL or list file is required")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			rootCmd.PrintErrln(styles.Error.Render("Error: " + err.Error()))
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:   "ytwrap [source]",
		Short: "ytwrap - download videos through yt-dlp",
		Long: `A thin wrapper around yt-dlp. Downloads a single URL, or with -b every URL
of the list file given as source, one after another, streaming yt-dlp's
progress as it runs.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.source = args[0]
			}
			if opts.source == "" {
				cmd.Usage()
				return errMissingInput
			}
			return runDownload(cmd, opts)
		},
	}

	bindDownloadFlags(rootCmd.Flags(), opts)

	persistent := rootCmd.PersistentFlags()
	persistent.StringVar(&opts.configPath, "config", "", "Config file (default searches ./configs, ~/.config/ytwrap, /etc/ytwrap)")
	persistent.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(newHistoryCmd(opts))
	rootCmd.AddCommand(newStatsCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func bindDownloadFlags(flags *pflag.FlagSet, opts *cliOptions) {
	flags.StringVarP(&opts.output, "output", "o", "", "Output path template")
	flags.StringVarP(&opts.quality, "quality", "q", "best", "Format selector passed to yt-dlp")
	flags.BoolVarP(&opts.extractAudio, "extract-audio", "x", false, "Extract audio only")
	flags.StringVar(&opts.audioFormat, "audio-format", "mp3", "Audio format when extracting audio")
	flags.BoolVarP(&opts.subtitles, "subtitles", "s", false, "Download subtitles")
	flags.StringVar(&opts.subLang, "sub-lang", "zh,en", "Comma separated subtitle languages")
	flags.BoolVarP(&opts.playlist, "playlist", "p", false, "Treat the source as a playlist")
	flags.IntVarP(&opts.concurrent, "concurrent", "N", 1, "Concurrent fragment downloads")
	flags.BoolVarP(&opts.batch, "batch", "b", false, "Treat the source as a file with one URL per line")
	flags.BoolVarP(&opts.info, "info", "i", false, "Print metadata instead of downloading")
	flags.BoolVar(&opts.jsonOut, "json", false, "With --info, print the full metadata document as JSON")
	flags.BoolVar(&opts.noInstall, "no-install", false, "Fail instead of installing yt-dlp when missing")
}
