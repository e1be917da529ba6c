package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shaiso/addonloader/internal/config"
	"github.com/shaiso/addonloader/internal/domain"
	"github.com/shaiso/addonloader/internal/fetcher"
	"github.com/shaiso/addonloader/internal/pipeline"
	"github.com/shaiso/addonloader/internal/report"
	"github.com/shaiso/addonloader/internal/resolver"
	"github.com/shaiso/addonloader/internal/telemetry"
	"github.com/shaiso/addonloader/internal/unpack"
)

// localFlags — флаги, переопределяющие config для локальных команд.
type localFlags struct {
	origin       string
	scratchDir   string
	userAgent    string
	pageTimeout  time.Duration
	fetchTimeout time.Duration
}

func (f *localFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.origin, "origin", "", "Listing site origin (default from LISTING_ORIGIN)")
	cmd.Flags().StringVar(&f.scratchDir, "scratch-dir", "", "Directory for downloaded archives (default from SCRATCH_DIR)")
	cmd.Flags().StringVar(&f.userAgent, "user-agent", "", "User-Agent header")
	cmd.Flags().DurationVar(&f.pageTimeout, "page-timeout", 0, "Listing page timeout (0 keeps PAGE_TIMEOUT_SEC)")
	cmd.Flags().DurationVar(&f.fetchTimeout, "fetch-timeout", 0, "Download timeout (0 keeps FETCH_TIMEOUT_SEC)")
}

func (f *localFlags) apply(cfg config.Config) config.Config {
	if f.origin != "" {
		cfg.ListingOrigin = strings.TrimRight(f.origin, "/")
	}
	if f.scratchDir != "" {
		cfg.ScratchDir = f.scratchDir
	}
	if f.userAgent != "" {
		cfg.UserAgent = f.userAgent
	}
	if f.pageTimeout > 0 {
		cfg.PageTimeout = f.pageTimeout
	}
	if f.fetchTimeout > 0 {
		cfg.FetchTimeout = f.fetchTimeout
	}
	return cfg
}

func newResolver(cfg config.Config, logger *slog.Logger) *resolver.Resolver {
	return resolver.New(resolver.Config{
		Origin:         cfg.ListingOrigin,
		ReleaseFlag:    cfg.ReleaseFlag,
		MinGameVersion: &cfg.MinGameVersion,
		UserAgent:      cfg.UserAgent,
		Timeout:        config.TimeoutOrNone(cfg.PageTimeout),
		Logger:         logger,
	})
}

// NewInstallCmd создаёт команду локальной установки.
//
// Pipeline выполняется в процессе, результат печатается одной строкой JSON
// в stdout. При неудачной установке команда возвращает ErrInstallFailed.
func NewInstallCmd(cfgFn func() config.Config, outputFn func() *Output) *cobra.Command {
	var flags localFlags
	var req domain.AddonRequest

	cmd := &cobra.Command{
		Use:   "install [ADDON_TOKEN]",
		Short: "Download and unpack an addon into a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()
			cfg := flags.apply(cfgFn())
			logger := telemetry.SetupLoggerTo(cmd.ErrOrStderr())

			if len(args) == 1 {
				req.AddonToken = args[0]
			}
			if req.AddonsDirectory != "" {
				abs, err := filepath.Abs(req.AddonsDirectory)
				if err != nil {
					return fmt.Errorf("addons directory: %w", err)
				}
				req.AddonsDirectory = abs
			}
			if req.CorrelationID == "" {
				req.CorrelationID = uuid.NewString()
			}

			pipe, err := pipeline.New(pipeline.Config{
				Resolver: newResolver(cfg, logger),
				Fetcher: fetcher.New(fetcher.Config{
					UserAgent: cfg.UserAgent,
					Timeout:   config.TimeoutOrNone(cfg.FetchTimeout),
					Logger:    logger,
				}),
				Unpacker:   unpack.New(unpack.Config{Logger: logger}),
				Reporter:   report.NewWriter(out.Writer()),
				ScratchDir: cfg.ScratchDir,
				Logger:     logger,
			})
			if err != nil {
				return err
			}

			install, err := pipe.Run(cmd.Context(), req)
			if err != nil {
				return err
			}
			if install.Stage == domain.StageFailed {
				return ErrInstallFailed
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&req.AddonsDirectory, "dir", "", "Addons directory to unpack into (required)")
	cmd.Flags().StringVar(&req.Title, "title", "", "Addon title (used when no token is given)")
	cmd.Flags().StringVar(&req.ArchiveURL, "url", "", "Full listing page URL")
	cmd.Flags().StringVar(&req.CorrelationID, "correlation-id", "", "Correlation id echoed in the outcome (default: random)")
	cmd.MarkFlagRequired("dir")

	return cmd
}

// NewResolveCmd создаёт команду, печатающую URL архива без скачивания.
func NewResolveCmd(cfgFn func() config.Config, outputFn func() *Output) *cobra.Command {
	var flags localFlags
	var req domain.AddonRequest

	cmd := &cobra.Command{
		Use:   "resolve [ADDON_TOKEN]",
		Short: "Print the download URL of the newest qualifying release",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()
			cfg := flags.apply(cfgFn())
			logger := telemetry.SetupLoggerTo(cmd.ErrOrStderr())

			if len(args) == 1 {
				req.AddonToken = args[0]
			}
			if strings.TrimSpace(req.ArchiveURL) == "" && req.Slug() == "" {
				return fmt.Errorf("%w: addon token, --title or --url is required", domain.ErrInvalidRequest)
			}

			r := newResolver(cfg, logger)
			listing := r.ListingURL(req)

			download, err := r.Resolve(cmd.Context(), listing)
			if err != nil {
				return err
			}

			out.Print(
				[]string{"LISTING", "DOWNLOAD_URL"},
				[][]string{{listing, download.URL}},
				map[string]string{"listing_url": listing, "download_url": download.URL},
			)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&req.Title, "title", "", "Addon title (used when no token is given)")
	cmd.Flags().StringVar(&req.ArchiveURL, "url", "", "Full listing page URL")

	return cmd
}
