package migrate

import "errors"

// Error variables for migration steps. Every error returned by Migrate wraps
// exactly one of these.
var (
	ErrDocumentIDRequired = errors.New("document id is required")
	ErrMissingDependency  = errors.New("missing dependency")
	ErrDownload           = errors.New("download failed")
	ErrConversion         = errors.New("conversion failed")
	ErrService            = errors.New("document service failed")
	ErrUntitled           = errors.New("document has no title")
	ErrWiki               = errors.New("wiki update failed")
	ErrRecord             = errors.New("recording migration failed")
)
