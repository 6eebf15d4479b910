package assets

// Built-in asset names.
const (
	PageIndex        = "index"
	PageLogin        = "login"
	DefaultStyleName = "default"
)

// Loader loads page sources and styles by name.
type Loader interface {
	// LoadStyle loads a CSS style by name (without .css extension).
	LoadStyle(name string) (string, error)

	// LoadPage loads a Markdown page by name (without .md extension).
	LoadPage(name string) (string, error)
}
