/*
Package markup persists and reorders the editable annotations (text, stickers, shapes)
of an image editor across save and load cycles.

An annotation document is the editor's image state: the crop of the canvas the document
was authored for and the ordered shape lists of the annotation, decoration and redaction
layers. Pictographs inside the document are escaped with the pictograph package before the
document is stored, so the stored form holds exactly one byte per character.

The package is also available as a command line tool. To check the supported commands type:

	$ markup --help

In case you wish to integrate the API in a self constructed environment here is a simple example:

	package main

	import (
		"context"
		"fmt"

		"github.com/esimov/markup"
	)

	func main() {
		l := &markup.Loader{}

		// Load blocks until the document is fetched. A missing document yields an empty one.
		doc := l.Load(context.Background(), "https://example.com/meta/42.json", true)

		if _, err := doc.MoveBack("shape-id"); err != nil {
			fmt.Printf("Error reordering the shapes: %s", err.Error())
		}

		buf, err := doc.Encode()
		if err != nil {
			fmt.Printf("Error encoding the document: %s", err.Error())
		}
		_ = buf
	}
*/
package markup
