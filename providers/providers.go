// Package providers registers every built-in provider with the default
// registry when imported.
package providers

import (
	_ "github.com/chzzk-archiver/chzzk-archiver/provider/clip"
	_ "github.com/chzzk-archiver/chzzk-archiver/provider/vod"
)
