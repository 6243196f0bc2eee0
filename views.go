package auth

import (
	"embed"
	"io/fs"
)

//go:embed views/*.html
var viewsFS embed.FS

// ViewsFS exposes the embedded HTML views rooted at the template directory.
func ViewsFS() fs.FS {
	sub, err := fs.Sub(viewsFS, "views")
	if err != nil {
		panic(err)
	}
	return sub
}
