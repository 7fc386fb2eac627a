package models

import "strings"

// MediaType is the MIME type a fixture's bodies are processed and compared as.
type MediaType string

const (
	MediaTypeXML     MediaType = "application/xml"
	MediaTypeSOAP    MediaType = "application/soap+xml"
	MediaTypeTextXML MediaType = "text/xml"
	MediaTypeJSON    MediaType = "application/json"
	MediaTypePlain   MediaType = "text/plain"
)

// DefaultMediaType is used when no layer declares a mediaType.
const DefaultMediaType = MediaTypeXML

// Fixture file names. The extension is derived from the media type.
const (
	ConfigFileName           = "test.conf"
	RequestFileName          = "request"
	ResponseFileName         = "response"
	ExpectedResponseFileName = "expected_response"
	ActualResponseFileName   = "actual_response"
	ActualResponseInfoFile   = "actual_response_info.json"
	PreSQLSuffix             = "_pre.sql"
	PostSQLSuffix            = "_post.sql"
)

// Family groups media types that share a canonicalizer, differ and body processor.
type Family string

const (
	FamilyXML     Family = "xml"
	FamilyJSON    Family = "json"
	FamilyGeneric Family = "generic"
)

// Family reports which processing family handles the media type.
// Parameters like "; charset=utf-8" are ignored.
func (m MediaType) Family() Family {
	base := strings.ToLower(strings.TrimSpace(strings.SplitN(string(m), ";", 2)[0]))
	switch {
	case base == string(MediaTypeJSON), strings.HasSuffix(base, "+json"):
		return FamilyJSON
	case base == string(MediaTypeXML), base == string(MediaTypeTextXML), strings.HasSuffix(base, "+xml"):
		return FamilyXML
	default:
		return FamilyGeneric
	}
}

// Extension is the file extension (without dot) used for request and response files.
func (m MediaType) Extension() string {
	switch m.Family() {
	case FamilyJSON:
		return "json"
	case FamilyXML:
		return "xml"
	default:
		return "txt"
	}
}

// FileName joins a base file name with the extension for the media type.
func (m MediaType) FileName(base string) string {
	return base + "." + m.Extension()
}
