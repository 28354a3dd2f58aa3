package config

import "errors"

// Error variables for configuration loading.
var (
	ErrConfigFileNotFound   = errors.New("config file not found")
	ErrConfigFileRead       = errors.New("cannot read config file")
	ErrConfigInvalid        = errors.New("invalid config file")
	ErrWikiAPIEmpty         = errors.New("wiki_api cannot be empty")
	ErrRootPageEmpty        = errors.New("root_page cannot be empty")
	ErrDefaultCategoryEmpty = errors.New("default_category cannot be empty")
	ErrUnknownMarkup        = errors.New("markup must be \"mediawiki\" or \"markdown\"")
	ErrInvalidTimeout       = errors.New("http_timeout must be a non-negative duration like \"30s\"")
	ErrNoStateDir           = errors.New("cannot determine state directory: set state_dir or HOME")
)
