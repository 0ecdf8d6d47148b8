package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	domainerr "kiln/internal/domain/errors"
	"kiln/internal/slug"
)

type Config struct {
	Site       SiteConfig                `yaml:"site" toml:"site"`
	Build      BuildConfig               `yaml:"build" toml:"build"`
	Slugify    SlugifyConfig             `yaml:"slugify" toml:"slugify"`
	Taxonomies []TaxonomyConfig          `yaml:"taxonomies" toml:"taxonomies"`
	Languages  map[string]LanguageConfig `yaml:"languages" toml:"languages"`
}

type SiteConfig struct {
	Title           string `yaml:"title" toml:"title"`
	Description     string `yaml:"description" toml:"description"`
	Author          string `yaml:"author" toml:"author"`
	BaseURL         string `yaml:"base_url" toml:"base_url"`
	DefaultLanguage string `yaml:"default_language" toml:"default_language"`
	Theme           string `yaml:"theme" toml:"theme"`
}

type BuildConfig struct {
	ContentDir    string    `yaml:"content_dir" toml:"content_dir"`
	PublicDir     string    `yaml:"public_dir" toml:"public_dir"`
	ThemeDir      string    `yaml:"theme_dir" toml:"theme_dir"`
	IndexPath     string    `yaml:"index_path" toml:"index_path"`
	IncludeDrafts bool      `yaml:"include_drafts" toml:"include_drafts"`
	Now           time.Time `yaml:"-" toml:"-"`
}

type SlugifyConfig struct {
	Paths      slug.Strategy `yaml:"paths" toml:"paths"`
	Taxonomies slug.Strategy `yaml:"taxonomies" toml:"taxonomies"`
}

// LanguageConfig describes one language besides the default one.
type LanguageConfig struct {
	Title      string           `yaml:"title" toml:"title"`
	Taxonomies []TaxonomyConfig `yaml:"taxonomies" toml:"taxonomies"`
}

func Default() Config {
	return Config{
		Site: SiteConfig{
			Title:           "kiln",
			DefaultLanguage: "en",
			Theme:           "default",
		},
		Build: BuildConfig{
			ContentDir: "content",
			PublicDir:  "public",
			ThemeDir:   "themes",
			IndexPath:  ".kiln/index.db",
			Now:        time.Now(),
		},
		Slugify: SlugifyConfig{
			Paths:      slug.On,
			Taxonomies: slug.On,
		},
	}
}

func (c Config) Validate() error {
	var ve domainerr.ValidationError

	if strings.TrimSpace(c.Site.BaseURL) == "" {
		ve.Add("site.base_url", "must not be empty")
	} else if !isValidAbsURL(c.Site.BaseURL) {
		ve.Add("site.base_url", "must be a valid absolute URL")
	}

	if strings.TrimSpace(c.Site.DefaultLanguage) == "" {
		ve.Add("site.default_language", "must not be empty")
	}

	if !c.Slugify.Paths.Valid() {
		ve.Add("slugify.paths", "must be 'on', 'safe' or 'off'")
	}
	if !c.Slugify.Taxonomies.Valid() {
		ve.Add("slugify.taxonomies", "must be 'on', 'safe' or 'off'")
	}

	if strings.TrimSpace(c.Build.ContentDir) == "" {
		ve.Add("build.content_dir", "must not be empty")
	}
	if strings.TrimSpace(c.Build.PublicDir) == "" {
		ve.Add("build.public_dir", "must not be empty")
	}
	if strings.TrimSpace(c.Build.IndexPath) == "" {
		ve.Add("build.index_path", "must not be empty")
	}

	validateTaxonomies(&ve, "taxonomies", c.Taxonomies, c.Slugify.Taxonomies)
	codes := make([]string, 0, len(c.Languages))
	for code := range c.Languages {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		if code == c.Site.DefaultLanguage {
			ve.Add("languages."+code, "must not repeat the default language")
			continue
		}
		if strings.ContainsAny(code, "./ ") || code == "" {
			ve.Add("languages."+code, "is not a valid language code")
		}
		validateTaxonomies(&ve, "languages."+code+".taxonomies", c.Languages[code].Taxonomies, c.Slugify.Taxonomies)
	}

	if ve.HasAny() {
		return ve
	}
	return nil
}

func validateTaxonomies(ve *domainerr.ValidationError, field string, taxonomies []TaxonomyConfig, strategy slug.Strategy) {
	seen := make(map[string]struct{}, len(taxonomies))
	// two names with one slug would share an output directory and term index
	slugs := make(map[string]string, len(taxonomies))
	for i, tc := range taxonomies {
		name := strings.TrimSpace(tc.Name)
		if name == "" {
			ve.Add(fmt.Sprintf("%s[%d].name", field, i), "must not be empty")
			continue
		}
		s := slug.Paths(name, strategy)
		if _, dup := seen[name]; dup {
			ve.Add(fmt.Sprintf("%s[%d].name", field, i), fmt.Sprintf("duplicate taxonomy %q", name))
		} else if other, dup := slugs[s]; dup {
			ve.Add(fmt.Sprintf("%s[%d].name", field, i), fmt.Sprintf("taxonomy %q has the same slug as %q", name, other))
		} else {
			slugs[s] = name
		}
		seen[name] = struct{}{}
		if tc.PaginateBy < 0 {
			ve.Add(fmt.Sprintf("%s[%d].paginate_by", field, i), "must not be negative")
		}
	}
}

func isValidAbsURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// Load reads a YAML file, or a TOML file when the name ends in .toml, on top
// of Default. Fields absent from the file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := decode(path, data, &cfg); err != nil {
		return cfg, err
	}
	return finish(cfg)
}

// LoadOrDefault behaves like Load but falls back to Default when the file does not exist.
func LoadOrDefault(path string) (Config, error) {
	return LoadOrDefaultWith(path, nil)
}

// LoadOrDefaultWith is LoadOrDefault with command line overrides applied
// before validation.
func LoadOrDefaultWith(path string, override func(*Config)) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return cfg, err
	}
	if err == nil {
		if err := decode(path, data, &cfg); err != nil {
			return cfg, err
		}
	}
	if override != nil {
		override(&cfg)
	}
	return finish(cfg)
}

func decode(path string, data []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func finish(cfg Config) (Config, error) {
	if cfg.Build.Now.IsZero() {
		cfg.Build.Now = time.Now()
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	cfg.Resolve()
	return cfg, nil
}

// Resolve fills the derived taxonomy fields. Load calls it after Validate;
// configs built in code must call it themselves.
func (c *Config) Resolve() {
	c.Taxonomies = c.resolveTaxonomies(c.Site.DefaultLanguage, c.Taxonomies)
	for code, lc := range c.Languages {
		lc.Taxonomies = c.resolveTaxonomies(code, lc.Taxonomies)
		c.Languages[code] = lc
	}
}

func (c *Config) resolveTaxonomies(lang string, in []TaxonomyConfig) []TaxonomyConfig {
	out := make([]TaxonomyConfig, 0, len(in))
	for _, tc := range in {
		tc.Name = strings.TrimSpace(tc.Name)
		tc.Slug = slug.Paths(tc.Name, c.Slugify.Taxonomies)
		tc.Lang = lang
		if tc.PaginatePath == "" {
			tc.PaginatePath = "page"
		}
		out = append(out, tc)
	}
	return out
}

func (c Config) IsMultilingual() bool {
	return len(c.OtherLanguageCodes()) > 0
}

// OtherLanguageCodes returns the sorted codes of every non-default language.
func (c Config) OtherLanguageCodes() []string {
	codes := make([]string, 0, len(c.Languages))
	for code := range c.Languages {
		if code == c.Site.DefaultLanguage {
			continue
		}
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// LanguageCodes returns the default language followed by the others.
func (c Config) LanguageCodes() []string {
	return append([]string{c.Site.DefaultLanguage}, c.OtherLanguageCodes()...)
}

func (c Config) HasLanguage(code string) bool {
	if code == c.Site.DefaultLanguage {
		return true
	}
	_, ok := c.Languages[code]
	return ok
}

func (c Config) TaxonomiesFor(lang string) []TaxonomyConfig {
	if lang == c.Site.DefaultLanguage {
		return c.Taxonomies
	}
	return c.Languages[lang].Taxonomies
}

// MakePermalink joins path onto the base URL with exactly one slash between
// them and a trailing slash unless path is empty or already has one.
func (c Config) MakePermalink(path string) string {
	base := c.Site.BaseURL
	trailing := "/"
	if path == "" || strings.HasSuffix(path, "/") {
		trailing = ""
	}

	switch {
	case strings.HasSuffix(base, "/") && path == "/":
		return base
	case path == "/":
		return base + "/"
	case strings.HasSuffix(base, "/") && strings.HasPrefix(path, "/"):
		return base + path[1:] + trailing
	case strings.HasSuffix(base, "/") || strings.HasPrefix(path, "/"):
		return base + path + trailing
	default:
		return base + "/" + path + trailing
	}
}

// Hash fingerprints every setting that changes rendered output.
func (c Config) Hash() string {
	cp := c
	cp.Build.Now = time.Time{}
	data, err := yaml.Marshal(cp)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
