// Package assets provides the Markdown pages and CSS served by the web
// front end.
//
// # Loader Architecture
//
//	Loader (interface)
//	    │
//	    ├── EmbeddedLoader    - pages and styles compiled into the binary
//	    ├── FilesystemLoader  - overrides from a directory on disk
//	    └── Resolver          - custom first, embedded as fallback
//
// Renderer turns a page into a complete HTML document: the Markdown is
// converted with goldmark and wrapped in a layout carrying the style and an
// optional status message.
//
// # Directory Structure
//
//	{basePath}/
//	├── pages/
//	│   └── {name}.md            # e.g. index.md, login.md
//	└── styles/
//	    └── {name}.css           # e.g. default.css
//
// # Security
//
// Asset names are validated against path traversal. FilesystemLoader
// resolves symlinks and verifies paths stay within basePath.
package assets
