package drapto

import (
	"context"
	"time"
)

// EventType identifies the kind of progress event Drapto reported.
type EventType string

const (
	EventTypeHardware          EventType = "hardware"
	EventTypeInitialization    EventType = "initialization"
	EventTypeStageProgress     EventType = "stage_progress"
	EventTypeCropResult        EventType = "crop_result"
	EventTypeEncodingConfig    EventType = "encoding_config"
	EventTypeEncodingStarted   EventType = "encoding_started"
	EventTypeEncodingProgress  EventType = "encoding_progress"
	EventTypeValidation        EventType = "validation"
	EventTypeEncodingComplete  EventType = "encoding_complete"
	EventTypeOperationComplete EventType = "operation_complete"
	EventTypeWarning           EventType = "warning"
	EventTypeError             EventType = "error"
	EventTypeBatchStarted      EventType = "batch_started"
	EventTypeFileProgress      EventType = "file_progress"
	EventTypeBatchComplete     EventType = "batch_complete"
	EventTypeUnknown           EventType = "unknown"
)

// ProgressUpdate captures a single Drapto progress event. Scalar fields are
// populated for stage and encoding progress; the pointer payloads carry the
// structured events emitted by the library reporter.
type ProgressUpdate struct {
	Type      EventType
	Timestamp time.Time

	Percent float64
	Stage   string
	Message string

	ETA          time.Duration
	Bitrate      string
	Speed        float64
	FPS          float64
	TotalFrames  int64
	CurrentFrame int64

	Hardware       *HardwareInfo
	Video          *VideoInfo
	Crop           *CropSummary
	EncodingConfig *EncodingConfig
	Validation     *ValidationSummary
	Result         *EncodingResult

	OperationComplete string
	Warning           string
	Error             *ReporterIssue

	BatchStart   *BatchStartInfo
	FileProgress *FileProgress
	BatchSummary *BatchSummary
}

// HardwareInfo describes the encoding host.
type HardwareInfo struct {
	Hostname string
}

// VideoInfo summarizes the source video at initialization.
type VideoInfo struct {
	InputFile        string
	OutputFile       string
	Duration         string
	Resolution       string
	Category         string
	DynamicRange     string
	AudioDescription string
}

// CropSummary reports the outcome of auto-crop detection.
type CropSummary struct {
	Message      string
	Crop         string
	Required     bool
	Disabled     bool
	Candidates   []CropCandidate
	TotalSamples int
}

// CropCandidate is one crop geometry considered during detection.
type CropCandidate struct {
	Crop    string
	Count   int
	Percent float64
}

// EncodingConfig captures the encoder parameters Drapto settled on.
type EncodingConfig struct {
	Encoder            string
	Preset             string
	Tune               string
	Quality            string
	PixelFormat        string
	MatrixCoefficients string
	AudioCodec         string
	AudioDescription   string
	DraptoPreset       string
	PresetSettings     []PresetSetting
	SVTParams          string
}

// PresetSetting is a single key/value pair from a Drapto preset profile.
type PresetSetting struct {
	Key   string
	Value string
}

// ValidationSummary reports post-encode validation results.
type ValidationSummary struct {
	Passed bool
	Steps  []ValidationStep
}

// ValidationStep is one named validation check.
type ValidationStep struct {
	Name    string
	Passed  bool
	Details string
}

// EncodingResult summarizes a completed encode.
type EncodingResult struct {
	InputFile            string
	OutputFile           string
	OriginalSize         int64
	EncodedSize          int64
	SizeReductionPercent float64
	VideoStream          string
	AudioStream          string
	AverageSpeed         float64
	OutputPath           string
	Duration             time.Duration
}

// ReporterIssue is a structured error surfaced by Drapto.
type ReporterIssue struct {
	Title      string
	Message    string
	Context    string
	Suggestion string
}

// BatchStartInfo announces a multi-file batch.
type BatchStartInfo struct {
	TotalFiles int
	FileList   []string
	OutputDir  string
}

// FileProgress positions the current file within a batch.
type FileProgress struct {
	CurrentFile int
	TotalFiles  int
}

// BatchSummary reports aggregate batch results.
type BatchSummary struct {
	SuccessfulCount       int
	TotalFiles            int
	TotalOriginalSize     int64
	TotalEncodedSize      int64
	TotalReductionPercent float64
	TotalDuration         time.Duration
}

// EncodeOptions configures a single encode invocation.
type EncodeOptions struct {
	// Progress receives typed events as the encode runs. May be nil.
	Progress func(ProgressUpdate)
	// PresetProfile selects a named Drapto preset. Empty or "default"
	// leaves Drapto's defaults in place.
	PresetProfile string
}

// Client defines Drapto encoding behaviour.
type Client interface {
	Encode(ctx context.Context, inputPath, outputDir string, opts EncodeOptions) (string, error)
}
