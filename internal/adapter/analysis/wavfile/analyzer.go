// Package wavfile computes analysis documents from local WAV files. It
// stands in for a remote analysis service: the engine consumes its output
// through the same provider port and never touches audio samples itself.
package wavfile

import (
	"log/slog"
	"math"
	"math/cmplx"
	"os"
	"path/filepath"
	"sync"

	"github.com/dhowden/tag"
	"github.com/go-audio/wav"
	"github.com/mjibson/go-dsp/fft"

	"github.com/tejashwikalptaru/pulseviz/internal/domain"
	"github.com/tejashwikalptaru/pulseviz/internal/ports"
)

const (
	// segmentSeconds is the chroma resolution: one pitch vector per window.
	segmentSeconds = 0.25
	// sectionSeconds is the loudness resolution.
	sectionSeconds = 15.0
	// minFreq/maxFreq bound the bins that contribute to the chroma vector.
	minFreq = 55.0
	maxFreq = 4000.0
)

// Analyzer derives pitch, beat and loudness data from WAV files on disk.
// Results are cached per track, so repeated track changes do not re-decode.
type Analyzer struct {
	logger *slog.Logger
	root   string

	mu    sync.Mutex
	cache map[string]*domain.TrackAnalysis
}

// NewAnalyzer creates an analyzer rooted at the given directory. Track IDs
// resolve to <root>/<id>.wav unless they already name a .wav path.
func NewAnalyzer(logger *slog.Logger, root string) *Analyzer {
	return &Analyzer{
		logger: logger,
		root:   root,
		cache:  make(map[string]*domain.TrackAnalysis),
	}
}

// Analysis decodes and analyzes the track's WAV file.
func (a *Analyzer) Analysis(trackID string) (*domain.TrackAnalysis, error) {
	a.mu.Lock()
	if cached, ok := a.cache[trackID]; ok {
		a.mu.Unlock()
		return cached, nil
	}
	a.mu.Unlock()

	analysis, err := a.analyzeFile(trackID, a.resolve(trackID))
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.cache[trackID] = analysis
	a.mu.Unlock()

	return analysis, nil
}

// resolve maps a track ID to a WAV path.
func (a *Analyzer) resolve(trackID string) string {
	if filepath.Ext(trackID) == ".wav" {
		return trackID
	}
	return filepath.Join(a.root, trackID+".wav")
}

func (a *Analyzer) analyzeFile(trackID, path string) (*domain.TrackAnalysis, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.NewProviderError("analyze", trackID,
				"no audio file for track", domain.ErrAnalysisNotFound)
		}
		return nil, domain.NewProviderError("analyze", trackID, "open failed", err)
	}
	defer func() {
		_ = f.Close()
	}()

	// Metadata is best effort; WAV files rarely carry tags.
	if meta, err := tag.ReadFrom(f); err == nil {
		a.logger.Debug("track metadata",
			slog.String("track_id", trackID),
			slog.String("title", meta.Title()),
			slog.String("artist", meta.Artist()))
	}
	if _, err := f.Seek(0, 0); err != nil {
		return nil, domain.NewProviderError("analyze", trackID, "seek failed", err)
	}

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, domain.NewProviderError("analyze", trackID,
			"not a valid wav file", domain.ErrUnsupportedFormat)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, domain.NewProviderError("analyze", trackID, "decode failed", err)
	}
	if buf.Format == nil || buf.Format.SampleRate <= 0 || len(buf.Data) == 0 {
		return nil, domain.NewProviderError("analyze", trackID,
			"empty or malformed pcm stream", domain.ErrUnsupportedFormat)
	}

	mono := downmix(buf.Data, buf.Format.NumChannels, int(decoder.BitDepth))
	sampleRate := buf.Format.SampleRate
	duration := float64(len(mono)) / float64(sampleRate)

	segments, flux := chromaPass(mono, sampleRate)
	analysis := &domain.TrackAnalysis{
		TrackID:         trackID,
		DurationSeconds: duration,
		Segments:        segments,
		Beats:           beatsFromFlux(flux, segmentSeconds),
		Sections:        loudnessPass(mono, sampleRate),
	}

	a.logger.Info("track analyzed",
		slog.String("track_id", trackID),
		slog.Float64("duration", duration),
		slog.Int("segments", len(analysis.Segments)),
		slog.Int("beats", len(analysis.Beats)),
		slog.Int("sections", len(analysis.Sections)))

	return analysis, nil
}

// downmix converts interleaved integer PCM to normalized mono samples.
func downmix(data []int, channels, bitDepth int) []float64 {
	if channels < 1 {
		channels = 1
	}
	// Guard before shifting: a bogus depth must not become a negative
	// shift. Fall back to 16-bit scaling.
	if bitDepth < 1 || bitDepth > 32 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))

	frames := len(data) / channels
	mono := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(data[i*channels+c])
		}
		mono[i] = sum / float64(channels) / scale
	}
	return mono
}

// chromaPass walks the signal in segment windows, computing one 12-band
// pitch vector per window plus the spectral flux between adjacent windows.
func chromaPass(mono []float64, sampleRate int) ([]domain.Segment, []float64) {
	window := int(segmentSeconds * float64(sampleRate))
	if window < 2 {
		return nil, nil
	}

	var segments []domain.Segment
	var flux []float64
	var prevMags []float64

	for start := 0; start < len(mono); start += window {
		end := min(start+window, len(mono))
		mags := magnitudes(mono[start:end])

		segments = append(segments, domain.Segment{
			Start:    float64(start) / float64(sampleRate),
			Duration: float64(end-start) / float64(sampleRate),
			Pitches:  chromaVector(mags, len(mono[start:end]), sampleRate),
		})
		flux = append(flux, spectralFlux(mags, prevMags))
		prevMags = mags
	}

	return segments, flux
}

// magnitudes returns the magnitude spectrum of one window.
func magnitudes(samples []float64) []float64 {
	spectrum := fft.FFTReal(samples)
	mags := make([]float64, len(spectrum)/2)
	for k := range mags {
		mags[k] = cmplx.Abs(spectrum[k])
	}
	return mags
}

// chromaVector folds the magnitude spectrum into 12 pitch classes, with
// class 0 = C, normalized so the strongest class is 1.0.
func chromaVector(mags []float64, windowLen, sampleRate int) []float64 {
	chroma := make([]float64, domain.BandCount)
	if windowLen == 0 {
		return chroma
	}

	binWidth := float64(sampleRate) / float64(windowLen)
	for k := 1; k < len(mags); k++ {
		freq := float64(k) * binWidth
		if freq < minFreq || freq > maxFreq {
			continue
		}
		// MIDI note number; 69 is A4 at 440 Hz.
		note := 69.0 + 12.0*math.Log2(freq/440.0)
		class := int(math.Round(note)) % domain.BandCount
		if class < 0 {
			class += domain.BandCount
		}
		chroma[class] += mags[k]
	}

	var peak float64
	for _, v := range chroma {
		if v > peak {
			peak = v
		}
	}
	if peak > 0 {
		for i := range chroma {
			chroma[i] /= peak
		}
	}
	return chroma
}

// spectralFlux sums positive magnitude increases against the previous window.
func spectralFlux(mags, prev []float64) float64 {
	var sum float64
	for k := range mags {
		var p float64
		if k < len(prev) {
			p = prev[k]
		}
		if d := mags[k] - p; d > 0 {
			sum += d
		}
	}
	return sum
}

// beatsFromFlux peak-picks onset times from the flux curve. A window is a
// beat when its flux is a local maximum above the mean plus one standard
// deviation; confidence is the flux relative to the strongest onset.
func beatsFromFlux(flux []float64, windowSeconds float64) []domain.Beat {
	if len(flux) < 3 {
		return nil
	}

	var mean float64
	for _, v := range flux {
		mean += v
	}
	mean /= float64(len(flux))

	var variance float64
	for _, v := range flux {
		variance += (v - mean) * (v - mean)
	}
	stddev := math.Sqrt(variance / float64(len(flux)))
	threshold := mean + stddev

	var peak float64
	for _, v := range flux {
		if v > peak {
			peak = v
		}
	}
	if peak <= 0 {
		return nil
	}

	var beats []domain.Beat
	for i := 1; i < len(flux)-1; i++ {
		if flux[i] < threshold || flux[i] < flux[i-1] || flux[i] < flux[i+1] {
			continue
		}
		beats = append(beats, domain.Beat{
			Start:      float64(i) * windowSeconds,
			Confidence: math.Min(flux[i]/peak, 1.0),
		})
	}
	// The very first window is all increase by definition; treat it as an
	// onset when it clears the threshold.
	if flux[0] >= threshold && flux[0] > flux[1] {
		beats = append([]domain.Beat{{
			Start:      0,
			Confidence: math.Min(flux[0]/peak, 1.0),
		}}, beats...)
	}
	return beats
}

// loudnessPass computes windowed RMS loudness sections in dBFS.
func loudnessPass(mono []float64, sampleRate int) []domain.Section {
	window := int(sectionSeconds * float64(sampleRate))
	if window > len(mono) {
		window = len(mono)
	}
	if window < 1 {
		return nil
	}

	var sections []domain.Section
	for start := 0; start < len(mono); start += window {
		end := min(start+window, len(mono))

		var sum float64
		for _, s := range mono[start:end] {
			sum += s * s
		}
		rms := math.Sqrt(sum / float64(end-start))

		db := -96.0 // silence floor
		if rms > 0 {
			db = 20 * math.Log10(rms)
		}

		sections = append(sections, domain.Section{
			Start:      float64(start) / float64(sampleRate),
			Duration:   float64(end-start) / float64(sampleRate),
			LoudnessDb: db,
		})
	}
	return sections
}

// Verify interface implementation at compile time.
var _ ports.AnalysisProvider = (*Analyzer)(nil)
