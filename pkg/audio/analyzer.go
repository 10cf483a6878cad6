package audio

import (
	"context"

	"amanai-be/pkg/analysis"
	"amanai-be/pkg/recording"
)

type blobAnalyzer interface {
	Analyze(ctx context.Context, blob []byte) (*analysis.Outcome, error)
}

// WAVAnalyzer wraps a finished PCM recording in a WAV container before
// handing it to the analysis gateway.
type WAVAnalyzer struct {
	gateway blobAnalyzer
}

func NewWAVAnalyzer(gateway blobAnalyzer) *WAVAnalyzer {
	return &WAVAnalyzer{gateway: gateway}
}

func (a *WAVAnalyzer) Analyze(ctx context.Context, rec recording.Recording) (*analysis.Outcome, error) {
	if len(rec.Data) == 0 {
		return a.gateway.Analyze(ctx, nil)
	}
	return a.gateway.Analyze(ctx, EncodeWAV(rec.Data, rec.SampleRate, rec.Channels))
}
