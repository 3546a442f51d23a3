// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"math"

	applog "bass/internal/log"
)

// FrequencyBand is a named frequency range [LowHz, HighHz).
type FrequencyBand struct {
	Name   string
	LowHz  float64
	HighHz float64
}

// DefaultBands covers the audible range in six bands. The top band is
// stretched to Nyquist by NewBandEnergyProcessor.
var DefaultBands = []FrequencyBand{
	{Name: "sub", LowHz: 20, HighHz: 60},
	{Name: "bass", LowHz: 60, HighHz: 250},
	{Name: "lowMid", LowHz: 250, HighHz: 500},
	{Name: "mid", LowHz: 500, HighHz: 2000},
	{Name: "highMid", LowHz: 2000, HighHz: 4000},
	{Name: "treble", LowHz: 4000, HighHz: 20000},
}

// levelScale maps the RMS magnitude of a band to a display level.
const levelScale = 50.0

// BandLevel is the display level of one band, clamped to [0, 1].
type BandLevel struct {
	Name  string  `json:"name"`
	Level float64 `json:"level"`
}

// BandEnergyProcessor reduces a spectrum to per-band levels. Not safe for
// concurrent use; it belongs to the publisher goroutine.
type BandEnergyProcessor struct {
	provider FFTResultProvider
	bands    []FrequencyBand
	binBand  []int // Band index of each bin, -1 when outside every band.
	mags     []float64
	energy   []float64
	counts   []int
	levels   []BandLevel
}

// NewBandEnergyProcessor precomputes the bin-to-band mapping for provider.
// A nil bands slice selects DefaultBands.
func NewBandEnergyProcessor(provider FFTResultProvider, bands []FrequencyBand) (*BandEnergyProcessor, error) {
	if provider == nil {
		return nil, errors.New("band energy requires a non-nil FFTResultProvider")
	}
	if bands == nil {
		bands = DefaultBands
	}
	bands = append([]FrequencyBand(nil), bands...)
	if n := len(bands); n > 0 {
		bands[n-1].HighHz = math.Max(bands[n-1].HighHz, provider.GetSampleRate()/2+1)
	}

	bins := provider.Bins()
	p := &BandEnergyProcessor{
		provider: provider,
		bands:    bands,
		binBand:  make([]int, bins),
		mags:     make([]float64, bins),
		energy:   make([]float64, len(bands)),
		counts:   make([]int, len(bands)),
		levels:   make([]BandLevel, len(bands)),
	}
	for i := range p.binBand {
		p.binBand[i] = -1
		freq := provider.GetFrequencyForBin(i)
		for b, band := range bands {
			if freq >= band.LowHz && freq < band.HighHz {
				p.binBand[i] = b
				break
			}
		}
	}
	for b, band := range bands {
		p.levels[b].Name = band.Name
	}

	applog.Infof("Analysis: Initializing BandEnergyProcessor with %d bands.", len(bands))
	return p, nil
}

// Process reads the latest spectrum and returns the band levels. The returned
// slice is reused by the next call.
func (p *BandEnergyProcessor) Process() ([]BandLevel, error) {
	if err := p.provider.GetMagnitudesInto(p.mags); err != nil {
		return nil, err
	}

	clear(p.energy)
	clear(p.counts)
	for i, m := range p.mags {
		if b := p.binBand[i]; b >= 0 {
			p.energy[b] += m * m
			p.counts[b]++
		}
	}

	for b := range p.levels {
		level := 0.0
		if p.counts[b] > 0 {
			level = math.Sqrt(p.energy[b]/float64(p.counts[b])) * levelScale
		}
		p.levels[b].Level = math.Min(1, level)
	}
	return p.levels, nil
}

// Bands returns the band definitions in use.
func (p *BandEnergyProcessor) Bands() []FrequencyBand {
	return p.bands
}

// LevelMap converts levels to a name-keyed map for JSON messages.
func LevelMap(levels []BandLevel) map[string]float64 {
	m := make(map[string]float64, len(levels))
	for _, l := range levels {
		m[l.Name] = l.Level
	}
	return m
}
