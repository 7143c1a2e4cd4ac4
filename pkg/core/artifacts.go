package core

import "context"

// ArtifactConfig decides when a step's screenshot is kept.
type ArtifactConfig struct {
	CaptureOnFailure bool `yaml:"captureOnFailure" json:"captureOnFailure"`
	CaptureOnSuccess bool `yaml:"captureOnSuccess" json:"captureOnSuccess"`
	Screenshot       bool `yaml:"screenshot" json:"screenshot"` // master switch
}

// DefaultArtifactConfig captures a screenshot for failed and errored steps only.
func DefaultArtifactConfig() ArtifactConfig {
	return ArtifactConfig{
		CaptureOnFailure: true,
		Screenshot:       true,
	}
}

// ShouldCapture reports whether a step that ended in status gets a screenshot.
// Skipped and unfinished steps never do.
func (c ArtifactConfig) ShouldCapture(status StepStatus) bool {
	if !c.Screenshot {
		return false
	}
	switch status {
	case StatusFailed, StatusErrored:
		return c.CaptureOnFailure
	case StatusPassed:
		return c.CaptureOnSuccess
	}
	return false
}

// ArtifactCollector captures debug artifacts. Every Driver satisfies it.
type ArtifactCollector interface {
	Screenshot(ctx context.Context) ([]byte, error)
}
