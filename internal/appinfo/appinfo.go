package appinfo

import (
	"time"
)

var (
	Name        = "filemock"
	Title       = "Filemock"
	Description = "File-backed mock HTTP/HTTPS server driven by a directory tree."

	// Application version
	Version = "0.1.0"

	StartTime = time.Now()
)
