package cli

import (
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/glorpus-work/upkeep/pkg/config"
	"github.com/glorpus-work/upkeep/pkg/media"
	"github.com/glorpus-work/upkeep/pkg/platform"
	"github.com/spf13/cobra"
)

type mediaOptions struct {
	os        string
	arch      string
	mediaType string
}

// NewMediaCmd creates the media command.
func NewMediaCmd() *cobra.Command {
	var opts mediaOptions

	cmd := &cobra.Command{
		Use:   "media LOCATION",
		Short: "List the media of an update descriptor",
		Long: `Fetch an update descriptor from a URL or a local file and list the media
it publishes. The media that would be installed on the selected platform is
marked with an asterisk.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMedia(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.os, "os", "", "Target operating system (defaults to the configured platform)")
	cmd.Flags().StringVar(&opts.arch, "arch", "", "Target architecture (defaults to the configured platform)")
	cmd.Flags().StringVar(&opts.mediaType, "type", media.TypeInstaller.String(), "Media type to select")

	return cmd
}

// descriptorLocation accepts an absolute URL or a local path.
func descriptorLocation(location string) (*url.URL, error) {
	if u, err := url.Parse(location); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		return u, nil
	}
	abs, err := filepath.Abs(location)
	if err != nil {
		return nil, fmt.Errorf("invalid descriptor location %q: %w", location, err)
	}
	return &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}, nil
}

func (o mediaOptions) platform(cfg *config.Config) platform.Platform {
	p := cfg.Platform()
	if o.os != "" {
		p.OS = platform.NormalizeOS(o.os)
	}
	if o.arch != "" {
		p.Arch = platform.NormalizeArch(o.arch)
	}
	return p
}

type mediaRow struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Key     string `json:"key"`
	Size    int64  `json:"size"`
	URL     string `json:"url"`
	Best    bool   `json:"best"`
}

func runMedia(cmd *cobra.Command, location string, opts mediaOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	mediaType, err := media.ParseType(opts.mediaType)
	if err != nil {
		return err
	}
	loc, err := descriptorLocation(location)
	if err != nil {
		return err
	}

	fetcher := media.NewHTTPFetcher(cfg.Settings.DescriptorTimeout, cfg.Settings.UserAgent)
	descriptor, err := fetcher.Fetch(commandContext(cmd), loc)
	if err != nil {
		return err
	}

	best, found := descriptor.Best(media.HostKey(opts.platform(cfg), mediaType))
	rows := make([]mediaRow, 0, descriptor.Len())
	for _, m := range descriptor.Media() {
		rows = append(rows, mediaRow{
			Name:    m.Name,
			Version: m.Version,
			Key:     m.Key.String(),
			Size:    m.FileSize,
			URL:     m.URL.String(),
			Best:    found && m.Key == best.Key,
		})
	}
	return printMedia(cmd.OutOrStdout(), cfg, rows)
}

func printMedia(w io.Writer, cfg *config.Config, rows []mediaRow) error {
	if isJSON(cfg) {
		return printJSON(w, rows)
	}
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "No media published")
		return nil
	}

	tabWriter := tabwriter.NewWriter(w, 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(tabWriter, " \tNAME\tVERSION\tTARGET\tSIZE")
	for _, row := range rows {
		marker := " "
		if row.Best {
			marker = "*"
		}
		_, _ = fmt.Fprintf(tabWriter, "%s\t%s\t%s\t%s\t%d\n", marker, row.Name, row.Version, strings.ToLower(row.Key), row.Size)
	}
	return tabWriter.Flush()
}
