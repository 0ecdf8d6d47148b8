package config

// TaxonomyConfig declares one classification axis such as tags or categories.
// Slug and Lang are derived when the config is loaded.
type TaxonomyConfig struct {
	Name         string `yaml:"name" toml:"name"`
	PaginateBy   int    `yaml:"paginate_by" toml:"paginate_by"`
	PaginatePath string `yaml:"paginate_path" toml:"paginate_path"`
	Render       *bool  `yaml:"render" toml:"render"`
	Feed         bool   `yaml:"feed" toml:"feed"`

	Slug string `yaml:"-" toml:"-"`
	Lang string `yaml:"-" toml:"-"`
}

func (t TaxonomyConfig) IsPaginated() bool {
	return t.PaginateBy > 0
}

func (t TaxonomyConfig) ShouldRender() bool {
	return t.Render == nil || *t.Render
}
