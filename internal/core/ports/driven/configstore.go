package driven

// ConfigStore is flat key/value access to the settings file. Keys are
// dotted paths such as "llm.provider" or "pipeline.k". Typed getters return
// the zero value when a key is missing or holds another type.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	// GetFloat also accepts integer values.
	GetFloat(key string) float64
	GetBool(key string) bool
	GetStringSlice(key string) []string

	// Set updates the value and persists the file.
	Set(key string, value any) error
	Save() error
	Load() error

	// Path is the backing file, or "" for in-memory stores.
	Path() string
}
