package index

var (
	bMeta    = []byte("meta")     // build meta field -> value
	bPages   = []byte("pages")    // source path -> pageBytes
	bAlias   = []byte("alias")    // alias url path -> permalink
	bOutputs = []byte("outputs")  // out path -> render hash
	bIdxDate = []byte("idx_date") // lang -> sub-bucket of date keys
)

var (
	metaBuildID    = []byte("build_id")
	metaBuiltAt    = []byte("built_at")
	metaConfigHash = []byte("config_hash")
	metaThemeHash  = []byte("theme_hash")
)
