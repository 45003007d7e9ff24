// Package assets embeds the files bundled into the toolchat binary.
package assets

import (
	_ "embed"
)

//go:embed system_prompt.txt
var SystemInstruction string

// IndexHTML is the landing page served when the static directory has none.
//
//go:embed index.html
var IndexHTML []byte
