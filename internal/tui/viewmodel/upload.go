package viewmodel

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Veraticus/costdb/internal/common"
	"github.com/Veraticus/costdb/internal/model"
)

// UploadState is a step of the upload and process flow.
type UploadState int

// Upload states.
const (
	UploadIdle UploadState = iota
	UploadFileSelected
	UploadUploading
	UploadUploaded
	UploadProcessing
	UploadProcessed
)

func (s UploadState) String() string {
	switch s {
	case UploadIdle:
		return "Idle"
	case UploadFileSelected:
		return "FileSelected"
	case UploadUploading:
		return "Uploading"
	case UploadUploaded:
		return "Uploaded"
	case UploadProcessing:
		return "Processing"
	case UploadProcessed:
		return "Processed"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// Flow errors.
var (
	ErrNoFileSelected   = errors.New("no file selected")
	ErrUploadInFlight   = errors.New("upload already in progress")
	ErrNotUploaded      = errors.New("upload a file before processing")
	ErrProcessInFlight  = errors.New("processing already in progress")
	ErrUnexpectedResult = errors.New("no request in flight")
)

// Generic messages used when the server gives no reason.
const (
	NotCSVMessage         = "Please select a CSV file"
	UploadFailedMessage   = "Upload failed"
	ProcessFailedMessage  = "Processing failed"
	TemplateFailedMessage = "Template download failed"
	BusyMessage           = "Wait for the current request to finish before choosing another file"
)

// UploadFlow tracks one upload and process cycle. Err is orthogonal to State:
// a failure records a message and returns State to the last stable step.
type UploadFlow struct {
	Upload  *model.UploadResult
	Process *model.ProcessResult
	File    string
	Err     string
	State   UploadState
}

// IsCSVName reports whether name ends in .csv, ignoring case.
func IsCSVName(name string) bool {
	return strings.EqualFold(filepath.Ext(strings.TrimSpace(name)), ".csv")
}

// SelectFile selects path for upload. A non-CSV name sets Err and leaves the
// current selection untouched. Selecting a file clears earlier results.
func (f *UploadFlow) SelectFile(path string) error {
	path = strings.TrimSpace(path)
	if f.Busy() {
		return ErrUploadInFlight
	}
	if !IsCSVName(path) {
		f.Err = NotCSVMessage
		return common.ErrNotCSV
	}
	f.File = path
	f.Upload = nil
	f.Process = nil
	f.Err = ""
	f.State = UploadFileSelected
	return nil
}

// FileName returns the base name of the selected file.
func (f UploadFlow) FileName() string {
	if f.File == "" {
		return ""
	}
	return filepath.Base(f.File)
}

// Busy reports whether a request is in flight.
func (f UploadFlow) Busy() bool {
	return f.State == UploadUploading || f.State == UploadProcessing
}

// CanUpload reports whether the upload action is enabled.
func (f UploadFlow) CanUpload() bool {
	return f.File != "" && !f.Busy()
}

// CanProcess reports whether the process action is enabled.
func (f UploadFlow) CanProcess() bool {
	return f.Upload != nil && !f.Busy()
}

// StartUpload moves to Uploading.
func (f *UploadFlow) StartUpload() error {
	switch {
	case f.Busy():
		return ErrUploadInFlight
	case f.File == "":
		return ErrNoFileSelected
	}
	f.Err = ""
	f.Upload = nil
	f.Process = nil
	f.State = UploadUploading
	return nil
}

// UploadSucceeded records the upload result and unlocks processing.
func (f *UploadFlow) UploadSucceeded(result model.UploadResult) error {
	if f.State != UploadUploading {
		return ErrUnexpectedResult
	}
	f.Upload = &result
	f.State = UploadUploaded
	return nil
}

// UploadFailed records message, or the generic fallback, and returns to FileSelected.
func (f *UploadFlow) UploadFailed(message string) error {
	if f.State != UploadUploading {
		return ErrUnexpectedResult
	}
	f.Err = fallback(message, UploadFailedMessage)
	f.State = UploadFileSelected
	return nil
}

// StartProcess moves to Processing.
func (f *UploadFlow) StartProcess() error {
	switch {
	case f.Busy():
		return ErrProcessInFlight
	case f.Upload == nil:
		return ErrNotUploaded
	}
	f.Err = ""
	f.Process = nil
	f.State = UploadProcessing
	return nil
}

// ProcessSucceeded records the processing counts.
func (f *UploadFlow) ProcessSucceeded(result model.ProcessResult) error {
	if f.State != UploadProcessing {
		return ErrUnexpectedResult
	}
	f.Process = &result
	f.State = UploadProcessed
	return nil
}

// ProcessFailed records message, or the generic fallback, and returns to Uploaded.
func (f *UploadFlow) ProcessFailed(message string) error {
	if f.State != UploadProcessing {
		return ErrUnexpectedResult
	}
	f.Err = fallback(message, ProcessFailedMessage)
	f.State = UploadUploaded
	return nil
}

// SetError fills the error slot without changing state.
func (f *UploadFlow) SetError(message string) {
	f.Err = message
}

// DismissError clears the error slot.
func (f *UploadFlow) DismissError() {
	f.Err = ""
}

// UploadSummary lists the facts shown after a successful upload.
func UploadSummary(r model.UploadResult) []string {
	return []string{
		"File: " + r.Filename,
		fmt.Sprintf("Rows: %d", r.Rows),
		"Columns: " + strings.Join(r.Columns, ", "),
	}
}

// ProcessSummary lists the facts shown after a successful processing run.
func ProcessSummary(r model.ProcessResult) []string {
	return []string{
		fmt.Sprintf("Standardized items: %d", r.StandardizedItems),
		fmt.Sprintf("Analytics records: %d", r.AnalyticsRecords),
		fmt.Sprintf("Anomalies found: %d", r.AnomaliesFound),
	}
}

func fallback(message, generic string) string {
	if strings.TrimSpace(message) == "" {
		return generic
	}
	return message
}
