package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"kiln/internal/build"
	"kiln/internal/domain/config"
	"kiln/internal/index"
	"kiln/internal/metrics"
	"kiln/internal/serve"
)

// CLI holds the global flags and the subcommands.
type CLI struct {
	Config  string `short:"c" help:"Site configuration file (YAML, or TOML by extension)" default:"site.yaml"`
	Verbose bool   `short:"v" help:"Enable debug logging"`
	Drafts  bool   `help:"Include draft pages and sections"`

	Build BuildCmd `cmd:"" help:"Build the site into the public directory"`
	Serve ServeCmd `cmd:"" help:"Build, watch and serve the site with live reload"`
	Check CheckCmd `cmd:"" help:"Load and link the content without writing anything"`
	List  ListCmd  `cmd:"" help:"List the pages of the last build, newest first"`

	out io.Writer `kong:"-"`
}

// AfterApply sets up logging once flags are parsed.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

func (c *CLI) stdout() io.Writer {
	if c.out != nil {
		return c.out
	}
	return os.Stdout
}

// loadConfig reads the config file and applies the command's overrides
// before validating it.
func (c *CLI) loadConfig(override func(*config.Config)) (config.Config, error) {
	cfg, err := config.LoadOrDefaultWith(c.Config, func(cfg *config.Config) {
		if c.Drafts {
			cfg.Build.IncludeDrafts = true
		}
		if override != nil {
			override(cfg)
		}
	})
	if err != nil {
		return cfg, fmt.Errorf("load config %s: %w", c.Config, err)
	}
	return cfg, nil
}

type BuildCmd struct {
	Output  string `short:"o" help:"Output directory, overriding build.public_dir"`
	BaseURL string `name:"base-url" help:"Override site.base_url"`
}

func (b *BuildCmd) Run(ctx context.Context, root *CLI) error {
	cfg, err := root.loadConfig(func(cfg *config.Config) {
		if b.Output != "" {
			cfg.Build.PublicDir = b.Output
		}
		if b.BaseURL != "" {
			cfg.Site.BaseURL = b.BaseURL
		}
	})
	if err != nil {
		return err
	}

	res, err := (&build.Builder{Cfg: cfg, Logger: slog.Default()}).Run(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(root.stdout(), "built %d pages and %d sections into %s (%d written, %d unchanged, %d removed)\n",
		res.Pages, res.Sections, cfg.Build.PublicDir, res.Written, res.Skipped, res.Removed)
	return nil
}

type ServeCmd struct {
	Addr    string `short:"a" help:"Listen address" default:"127.0.0.1:1111"`
	BaseURL string `name:"base-url" help:"Base URL of the served site; defaults to the listen address"`
}

func (s *ServeCmd) Run(ctx context.Context, root *CLI) error {
	cfg, err := root.loadConfig(func(cfg *config.Config) {
		cfg.Site.BaseURL = s.BaseURL
		if cfg.Site.BaseURL == "" {
			cfg.Site.BaseURL = "http://" + localAddr(s.Addr)
		}
	})
	if err != nil {
		return err
	}

	srv := serve.New(cfg, serve.Options{Logger: slog.Default(), Metrics: metrics.New()})
	defer srv.Close()
	return srv.ListenAndServe(ctx, s.Addr)
}

func localAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "127.0.0.1" + addr
	}
	return addr
}

type CheckCmd struct{}

var errCheckFailed = errors.New("check found problems")

func (c *CheckCmd) Run(ctx context.Context, root *CLI) error {
	cfg, err := root.loadConfig(nil)
	if err != nil {
		return err
	}
	rep, err := (&build.Builder{Cfg: cfg, Logger: slog.Default()}).Check(ctx)
	if err != nil {
		return err
	}
	printReport(root.stdout(), rep)
	if !rep.OK() {
		return errCheckFailed
	}
	return nil
}

func printReport(w io.Writer, rep *build.Report) {
	fmt.Fprintf(w, "%d pages, %d sections, %d taxonomies\n", rep.Pages, rep.Sections, rep.Taxonomies)
	for _, c := range rep.Collisions {
		fmt.Fprintf(w, "collision: %s claimed by %s\n", c.Path, strings.Join(c.Files, ", "))
	}
	sections := make([]string, 0, len(rep.Unsorted))
	for section := range rep.Unsorted {
		sections = append(sections, section)
	}
	sort.Strings(sections)
	for _, section := range sections {
		for _, p := range rep.Unsorted[section] {
			fmt.Fprintf(w, "warning: %s cannot be sorted in %s, left out of its pages\n", p, section)
		}
	}
	for _, p := range rep.Orphans {
		fmt.Fprintf(w, "orphan: %s\n", p)
	}
	for _, warn := range rep.Warnings {
		fmt.Fprintf(w, "warning: %s: %s\n", warn.Path, warn.Msg)
	}
	if len(rep.ExternalLinks) > 0 {
		fmt.Fprintf(w, "%d external links\n", len(rep.ExternalLinks))
	}
}

type ListCmd struct {
	Lang  string `short:"l" help:"Only list pages of this language"`
	Page  int    `short:"p" help:"Result page" default:"1"`
	Limit int    `short:"n" help:"Pages per result page" default:"20"`
}

func (l *ListCmd) Run(root *CLI) error {
	cfg, err := root.loadConfig(nil)
	if err != nil {
		return err
	}
	st, err := index.Open(index.OpenOptions{Path: cfg.Build.IndexPath, ReadOnly: true})
	if err != nil {
		return fmt.Errorf("open index (run a build first): %w", err)
	}
	defer st.Close()

	pages, err := st.List(index.ListOptions{
		Lang:         l.Lang,
		Page:         l.Page,
		Size:         l.Limit,
		IncludeDraft: cfg.Build.IncludeDrafts,
	})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(root.stdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tLANG\tTITLE\tPERMALINK")
	for _, p := range pages {
		date := "-"
		if !p.Date.IsZero() {
			date = p.Date.Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", date, p.Lang, p.Title, p.Permalink)
	}
	return tw.Flush()
}
