package driven

// ConfigStore is the persisted key/value settings file. Keys are dotted
// section paths such as "fusion.lexical_weight". Typed getters return the
// zero value for missing keys or values of another type.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	GetFloat(key string) float64
	GetBool(key string) bool

	// Set stores value under key and writes the file.
	Set(key string, value any) error

	// Path returns the location of the settings file.
	Path() string
}
