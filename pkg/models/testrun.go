package models

import (
	"path"
	"time"
)

// ResponseInfo is out-of-band metadata about a response, stored next to the body.
type ResponseInfo struct {
	ResponseCode int `json:"responseCode" yaml:"responseCode"`
}

// SquitResult is the outcome of a single executed fixture.
type SquitResult struct {
	ID                   int           `json:"id" yaml:"id"`
	ContextPath          string        `json:"contextPath" yaml:"context_path"`
	SuitePath            string        `json:"suitePath" yaml:"suite_path"`
	TestPath             string        `json:"testPath" yaml:"test_path"`
	Title                string        `json:"title,omitempty" yaml:"title,omitempty"`
	Diff                 string        `json:"diff" yaml:"diff"`
	Ignored              bool          `json:"ignored" yaml:"ignored"`
	Error                bool          `json:"error" yaml:"error"`
	MediaType            MediaType     `json:"mediaType" yaml:"media_type"`
	Tags                 []string      `json:"tags,omitempty" yaml:"tags,omitempty"`
	ExpectedResponseInfo *ResponseInfo `json:"expectedResponseInfo,omitempty" yaml:"expected_response_info,omitempty"`
	ActualResponseInfo   *ResponseInfo `json:"actualResponseInfo,omitempty" yaml:"actual_response_info,omitempty"`
	// ExpectedBody and ActualBody are the processed bodies the diff was computed from.
	ExpectedBody string        `json:"expectedBody,omitempty" yaml:"expected_body,omitempty"`
	ActualBody   string        `json:"actualBody,omitempty" yaml:"actual_body,omitempty"`
	Duration     time.Duration `json:"duration" yaml:"duration"`
}

// IsSuccess reports whether the fixture produced no differences.
func (r SquitResult) IsSuccess() bool {
	return r.Diff == ""
}

// FullPath joins context, suite and test path.
func (r SquitResult) FullPath() string {
	return path.Join(r.ContextPath, r.SuitePath, r.TestPath)
}

// ResultTreeNode is one directory level of the aggregated results.
type ResultTreeNode struct {
	Name       string            `json:"name" yaml:"name"`
	Children   []*ResultTreeNode `json:"children,omitempty" yaml:"children,omitempty"`
	Result     *SquitResult      `json:"result,omitempty" yaml:"result,omitempty"`
	Successful int               `json:"successful" yaml:"successful"`
	Failed     int               `json:"failed" yaml:"failed"`
	Total      int               `json:"total" yaml:"total"`
	Success    bool              `json:"success" yaml:"success"`
}

// TestStatus is the verdict shown for a result in the terminal summary.
type TestStatus string

const (
	TestStatusPassed  TestStatus = "PASSED"
	TestStatusFailed  TestStatus = "FAILED"
	TestStatusError   TestStatus = "ERROR"
	TestStatusIgnored TestStatus = "IGNORED"
)

// Status maps a result onto its TestStatus.
func (r SquitResult) Status() TestStatus {
	switch {
	case r.Ignored:
		return TestStatusIgnored
	case r.Error:
		return TestStatusError
	case r.IsSuccess():
		return TestStatusPassed
	default:
		return TestStatusFailed
	}
}
