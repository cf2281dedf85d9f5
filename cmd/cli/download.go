package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourusername/ytwrap-go/internal/app"
	"github.com/yourusername/ytwrap-go/internal/domain"
	"github.com/yourusername/ytwrap-go/internal/infrastructure"
	"github.com/yourusername/ytwrap-go/pkg/logger"
)

// errReported marks a failure whose message was already printed
var errReported = errors.New("failed")

type cliOptions struct {
	source       string
	output       string
	quality      string
	extractAudio bool
	audioFormat  string
	subtitles    bool
	subLang      string
	playlist     bool
	concurrent   int
	batch        bool
	info         bool
	jsonOut      bool
	noInstall    bool
	configPath   string
	logLevel     string
}

// session bundles what every command needs after config is loaded
type session struct {
	config   *domain.Config
	logger   *zap.Logger
	repo     *infrastructure.SQLiteDownloadRepository
	delegate *app.Delegate
}

func (r *session) Close() {
	if r.repo != nil {
		r.repo.Close()
	}
	r.logger.Sync()
}

func setup(opts *cliOptions) (*session, error) {
	config, err := app.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		config.Logging.Level = opts.logLevel
	}

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	rt := &session{config: config, logger: log}
	delegateOpts := []app.DelegateOption{
		app.WithNotifier(infrastructure.NewNotificationService(&config.Notification, log)),
	}

	if config.History.Enabled {
		repo, err := infrastructure.NewSQLiteDownloadRepository(config.History.DatabasePath)
		if err != nil {
			log.Warn("History disabled, database unavailable",
				zap.String("path", config.History.DatabasePath),
				zap.Error(err))
		} else {
			rt.repo = repo
			delegateOpts = append(delegateOpts, app.WithRepository(repo))
		}
	}
	if config.Logging.DownloadLog {
		delegateOpts = append(delegateOpts, app.WithDownloadLog(infrastructure.NewDownloadLog(config.Logging.LogsDir)))
	}

	rt.delegate = app.NewDelegate(config, log, delegateOpts...)
	return rt, nil
}

// buildRequest applies config defaults, then any flag the user set
func buildRequest(cmd *cobra.Command, opts *cliOptions, config *domain.Config) domain.DownloadRequest {
	reqOpts := config.Download.RequestOptions()
	changed := cmd.Flags().Changed

	if opts.output != "" {
		reqOpts = append(reqOpts, domain.WithOutputTemplate(opts.output))
	}
	if changed("quality") {
		reqOpts = append(reqOpts, domain.WithQuality(opts.quality))
	}
	if changed("audio-format") {
		reqOpts = append(reqOpts, func(r *domain.DownloadRequest) { r.AudioFormat = opts.audioFormat })
	}
	if opts.extractAudio {
		reqOpts = append(reqOpts, domain.WithAudio(""))
	}
	if changed("sub-lang") {
		reqOpts = append(reqOpts, func(r *domain.DownloadRequest) { r.SubtitleLanguages = domain.ParseLanguages(opts.subLang) })
	}
	if opts.subtitles {
		reqOpts = append(reqOpts, domain.WithSubtitles())
	}
	if changed("concurrent") {
		reqOpts = append(reqOpts, domain.WithConcurrency(opts.concurrent))
	}
	reqOpts = append(reqOpts, domain.WithPlaylist(opts.playlist))

	return domain.NewDownloadRequest(opts.source, reqOpts...)
}

func runDownload(cmd *cobra.Command, opts *cliOptions) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	if opts.noInstall {
		if !rt.delegate.CheckToolAvailable(ctx) {
			fmt.Fprintln(errOut, styles.Error.Render("yt-dlp is not available: "+infrastructure.ManualInstallHint))
			return errReported
		}
	} else if err := rt.delegate.EnsureToolInstalled(ctx); err != nil {
		fmt.Fprintln(errOut, styles.Error.Render(err.Error()))
		fmt.Fprintln(errOut, infrastructure.ManualInstallHint)
		return errReported
	}

	req := buildRequest(cmd, opts, rt.config)
	if opts.batch {
		return runBatch(cmd, rt.delegate, opts.source, req)
	}

	if opts.info {
		return printInfo(cmd, rt.delegate, opts.source, opts.jsonOut)
	}

	if err := req.Validate(); err != nil {
		return err
	}

	fmt.Fprintln(errOut, styles.Title.Render("Downloading "+req.Source))
	if !rt.delegate.Download(ctx, req, out) {
		if ctx.Err() != nil {
			fmt.Fprintln(errOut, styles.Error.Render("Cancelled"))
		} else {
			fmt.Fprintln(errOut, styles.Error.Render("Download failed"))
		}
		return errReported
	}
	fmt.Fprintln(errOut, styles.Success.Render("Download complete"))
	return nil
}

func runBatch(cmd *cobra.Command, d *app.Delegate, listPath string, template domain.DownloadRequest) error {
	errOut := cmd.ErrOrStderr()

	result, err := d.BatchDownload(cmd.Context(), listPath, template, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	fmt.Fprintln(errOut, renderBatchSummary(result))
	if !result.OK() {
		return errReported
	}
	return nil
}

func renderBatchSummary(result app.BatchResult) string {
	status := styles.Success.Render("OK")
	switch {
	case result.Cancelled:
		status = styles.Error.Render("CANCELLED")
	case !result.OK():
		status = styles.Error.Render("FAILED")
	}

	lines := []string{
		styles.Title.Render("Batch finished ") + status,
		field("Total", fmt.Sprint(result.Total)),
		field("Succeeded", fmt.Sprint(result.Succeeded)),
		field("Failed", fmt.Sprint(result.Failed)),
	}
	return styles.Summary.Render(strings.Join(lines, "\n"))
}

func printInfo(cmd *cobra.Command, d *app.Delegate, source string, asJSON bool) error {
	if source == "" {
		return errors.New("--info needs a source URL")
	}

	meta, err := d.FetchMetadata(cmd.Context(), source)
	if err != nil {
		return err
	}
	if asJSON {
		return writeMetadataJSON(cmd.OutOrStdout(), meta)
	}
	writeMetadata(cmd.OutOrStdout(), meta)
	return nil
}

// writeMetadataJSON prints the tool's document as received, indented.
// Metadata built without a raw document falls back to its own fields.
func writeMetadataJSON(w io.Writer, meta *domain.Metadata) error {
	var buf bytes.Buffer
	if len(meta.Raw) > 0 {
		if err := json.Indent(&buf, meta.Raw, "", "  "); err != nil {
			return fmt.Errorf("failed to format metadata: %w", err)
		}
	} else {
		data, err := json.MarshalIndent(meta, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format metadata: %w", err)
		}
		buf.Write(data)
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}

func writeMetadata(w io.Writer, meta *domain.Metadata) {
	fmt.Fprintln(w, styles.Title.Render(meta.Title))
	fmt.Fprintln(w, field("ID", meta.ID))
	if meta.Uploader != "" {
		fmt.Fprintln(w, field("Uploader", meta.Uploader))
	}
	if meta.Duration > 0 {
		fmt.Fprintln(w, field("Duration", meta.DurationValue().Round(time.Second).String()))
	}
	if t := meta.UploadTime(); !t.IsZero() {
		fmt.Fprintln(w, field("Uploaded", t.Format("2006-01-02")))
	}
	if meta.ViewCount > 0 {
		fmt.Fprintln(w, field("Views", fmt.Sprint(meta.ViewCount)))
	}
	if meta.IsPlaylist() {
		fmt.Fprintln(w, field("Playlist", fmt.Sprintf("%s (%d entries)", meta.PlaylistTitle, meta.PlaylistCount)))
	}
	if meta.WebpageURL != "" {
		fmt.Fprintln(w, field("URL", meta.WebpageURL))
	}

	if len(meta.Formats) == 0 {
		return
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FORMAT\tEXT\tRESOLUTION\tVCODEC\tACODEC\tSIZE\tNOTE")
	for _, f := range meta.Formats {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			f.FormatID, f.Ext, f.Resolution, f.VCodec, f.ACodec, domain.HumanSize(f.Filesize), f.Note)
	}
	tw.Flush()
}
