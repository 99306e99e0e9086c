package drapto

import (
	"time"

	draptolib "github.com/five82/drapto"
)

// hopperReporter adapts the Drapto Reporter interface to Hopper's
// ProgressUpdate callback system.
type hopperReporter struct {
	callback func(ProgressUpdate)
}

func newHopperReporter(callback func(ProgressUpdate)) *hopperReporter {
	return &hopperReporter{callback: callback}
}

func (r *hopperReporter) Hardware(s draptolib.HardwareSummary) {
	r.callback(ProgressUpdate{
		Type:      EventTypeHardware,
		Timestamp: time.Now(),
		Hardware:  &HardwareInfo{Hostname: s.Hostname},
	})
}

func (r *hopperReporter) Initialization(s draptolib.InitializationSummary) {
	r.callback(ProgressUpdate{
		Type:      EventTypeInitialization,
		Timestamp: time.Now(),
		Video: &VideoInfo{
			InputFile:        s.InputFile,
			OutputFile:       s.OutputFile,
			Duration:         s.Duration,
			Resolution:       s.Resolution,
			Category:         s.Category,
			DynamicRange:     s.DynamicRange,
			AudioDescription: s.AudioDescription,
		},
	})
}

func (r *hopperReporter) StageProgress(s draptolib.StageProgress) {
	var eta time.Duration
	if s.ETA != nil {
		eta = *s.ETA
	}
	r.callback(ProgressUpdate{
		Type:      EventTypeStageProgress,
		Timestamp: time.Now(),
		Percent:   float64(s.Percent),
		Stage:     s.Stage,
		Message:   s.Message,
		ETA:       eta,
	})
}

func (r *hopperReporter) CropResult(s draptolib.CropSummary) {
	var candidates []CropCandidate
	for _, c := range s.Candidates {
		candidates = append(candidates, CropCandidate{
			Crop:    c.Crop,
			Count:   c.Count,
			Percent: c.Percent,
		})
	}

	r.callback(ProgressUpdate{
		Type:      EventTypeCropResult,
		Timestamp: time.Now(),
		Crop: &CropSummary{
			Message:      s.Message,
			Crop:         s.Crop,
			Required:     s.Required,
			Disabled:     s.Disabled,
			Candidates:   candidates,
			TotalSamples: s.TotalSamples,
		},
	})
}

func (r *hopperReporter) EncodingConfig(s draptolib.EncodingConfigSummary) {
	settings := make([]PresetSetting, 0, len(s.DraptoPresetSettings))
	for _, pair := range s.DraptoPresetSettings {
		settings = append(settings, PresetSetting{Key: pair[0], Value: pair[1]})
	}
	r.callback(ProgressUpdate{
		Type:      EventTypeEncodingConfig,
		Timestamp: time.Now(),
		EncodingConfig: &EncodingConfig{
			Encoder:            s.Encoder,
			Preset:             s.Preset,
			Tune:               s.Tune,
			Quality:            s.Quality,
			PixelFormat:        s.PixelFormat,
			MatrixCoefficients: s.MatrixCoefficients,
			AudioCodec:         s.AudioCodec,
			AudioDescription:   s.AudioDescription,
			DraptoPreset:       s.DraptoPreset,
			PresetSettings:     settings,
			SVTParams:          s.SVTAV1Params,
		},
	})
}

func (r *hopperReporter) EncodingStarted(totalFrames uint64) {
	r.callback(ProgressUpdate{
		Type:        EventTypeEncodingStarted,
		Timestamp:   time.Now(),
		TotalFrames: int64(totalFrames),
	})
}

func (r *hopperReporter) EncodingProgress(s draptolib.ProgressSnapshot) {
	r.callback(ProgressUpdate{
		Type:         EventTypeEncodingProgress,
		Timestamp:    time.Now(),
		Percent:      float64(s.Percent),
		Stage:        "encoding",
		Speed:        float64(s.Speed),
		FPS:          float64(s.FPS),
		ETA:          s.ETA,
		Bitrate:      s.Bitrate,
		TotalFrames:  int64(s.TotalFrames),
		CurrentFrame: int64(s.CurrentFrame),
	})
}

func (r *hopperReporter) ValidationComplete(s draptolib.ValidationSummary) {
	steps := make([]ValidationStep, 0, len(s.Steps))
	for _, step := range s.Steps {
		steps = append(steps, ValidationStep{
			Name:    step.Name,
			Passed:  step.Passed,
			Details: step.Details,
		})
	}
	r.callback(ProgressUpdate{
		Type:      EventTypeValidation,
		Timestamp: time.Now(),
		Validation: &ValidationSummary{
			Passed: s.Passed,
			Steps:  steps,
		},
	})
}

func (r *hopperReporter) EncodingComplete(s draptolib.EncodingOutcome) {
	r.callback(ProgressUpdate{
		Type:      EventTypeEncodingComplete,
		Timestamp: time.Now(),
		Result: &EncodingResult{
			InputFile:            s.InputFile,
			OutputFile:           s.OutputFile,
			OriginalSize:         int64(s.OriginalSize),
			EncodedSize:          int64(s.EncodedSize),
			SizeReductionPercent: reductionPercent(int64(s.OriginalSize), int64(s.EncodedSize)),
			VideoStream:          s.VideoStream,
			AudioStream:          s.AudioStream,
			AverageSpeed:         float64(s.AverageSpeed),
			OutputPath:           s.OutputPath,
			Duration:             s.TotalTime,
		},
	})
}

func (r *hopperReporter) Warning(message string) {
	r.callback(ProgressUpdate{
		Type:      EventTypeWarning,
		Timestamp: time.Now(),
		Warning:   message,
	})
}

func (r *hopperReporter) Error(e draptolib.ReporterError) {
	r.callback(ProgressUpdate{
		Type:      EventTypeError,
		Timestamp: time.Now(),
		Error: &ReporterIssue{
			Title:      e.Title,
			Message:    e.Message,
			Context:    e.Context,
			Suggestion: e.Suggestion,
		},
	})
}

func (r *hopperReporter) OperationComplete(message string) {
	r.callback(ProgressUpdate{
		Type:              EventTypeOperationComplete,
		Timestamp:         time.Now(),
		OperationComplete: message,
	})
}

func (r *hopperReporter) BatchStarted(s draptolib.BatchStartInfo) {
	r.callback(ProgressUpdate{
		Type:      EventTypeBatchStarted,
		Timestamp: time.Now(),
		BatchStart: &BatchStartInfo{
			TotalFiles: s.TotalFiles,
			FileList:   append([]string(nil), s.FileList...),
			OutputDir:  s.OutputDir,
		},
	})
}

func (r *hopperReporter) FileProgress(s draptolib.FileProgressContext) {
	r.callback(ProgressUpdate{
		Type:      EventTypeFileProgress,
		Timestamp: time.Now(),
		FileProgress: &FileProgress{
			CurrentFile: s.CurrentFile,
			TotalFiles:  s.TotalFiles,
		},
	})
}

func (r *hopperReporter) BatchComplete(s draptolib.BatchSummary) {
	r.callback(ProgressUpdate{
		Type:      EventTypeBatchComplete,
		Timestamp: time.Now(),
		BatchSummary: &BatchSummary{
			SuccessfulCount:       s.SuccessfulCount,
			TotalFiles:            s.TotalFiles,
			TotalOriginalSize:     int64(s.TotalOriginalSize),
			TotalEncodedSize:      int64(s.TotalEncodedSize),
			TotalReductionPercent: reductionPercent(int64(s.TotalOriginalSize), int64(s.TotalEncodedSize)),
			TotalDuration:         s.TotalDuration,
		},
	})
}

func reductionPercent(original, encoded int64) float64 {
	if original <= 0 {
		return 0
	}
	return (1 - float64(encoded)/float64(original)) * 100
}

var _ draptolib.Reporter = (*hopperReporter)(nil)
