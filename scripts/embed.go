// Package scripts holds the Risor scripts shipped with termit.
package scripts

import (
	"embed"
	"io/fs"
)

//go:embed rules/*.risor
var embedded embed.FS

// Rules returns the vocabulary validation rules, rooted at the rules
// directory.
func Rules() fs.FS {
	sub, err := fs.Sub(embedded, "rules")
	if err != nil {
		panic(err)
	}
	return sub
}
