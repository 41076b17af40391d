// Package web carries the console's templates and static assets inside the binary.
package web

import "embed"

// Templates holds the layouts, partials and pages parsed by internal/view.
//
//go:embed templates
var Templates embed.FS

// Static holds the stylesheet and the live-list script served under /static/.
//
//go:embed static
var Static embed.FS
