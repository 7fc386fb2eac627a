package models

import "path/filepath"

// TestFixture is one leaf directory of the fixture tree together with its resolved configuration.
type TestFixture struct {
	// Path is relative to the source root, slash separated.
	Path   string     `json:"path" yaml:"path"`
	Dir    string     `json:"dir" yaml:"dir"`
	Config TestConfig `json:"config" yaml:"config"`
	// Err is set when the fixture's configuration could not be resolved.
	Err error `json:"-" yaml:"-"`
}

// Name is the leaf directory name.
func (f TestFixture) Name() string {
	return filepath.Base(f.Dir)
}

// RequestPath is the request file for the fixture's media type. The file is optional.
func (f TestFixture) RequestPath() string {
	return filepath.Join(f.Dir, f.Config.EffectiveMediaType().FileName(RequestFileName))
}

// ResponsePath is the expected response file for the fixture's media type.
func (f TestFixture) ResponsePath() string {
	return filepath.Join(f.Dir, f.Config.EffectiveMediaType().FileName(ResponseFileName))
}

// SQLScriptPath returns the pre or post script of the named database.
func (f TestFixture) SQLScriptPath(database, suffix string) string {
	return filepath.Join(f.Dir, database+suffix)
}

// HTTPRequest is what the transport sends for a fixture.
type HTTPRequest struct {
	Method    string
	URL       string
	Headers   map[string]string
	Body      []byte
	MediaType MediaType
}

// HTTPResponse is what the transport received.
type HTTPResponse struct {
	StatusCode int
	Headers    map[string][]string
	Body       []byte
}
