package lavalink

import "sort"

// EqualizerBand adjusts the gain of one of the 15 bands
type EqualizerBand struct {
	Band int     `json:"band"`
	Gain float64 `json:"gain"`
}

// Timescale changes speed, pitch and rate
type Timescale struct {
	Speed float64 `json:"speed"`
	Pitch float64 `json:"pitch"`
	Rate  float64 `json:"rate"`
}

// Rotation pans the audio around the listener
type Rotation struct {
	RotationHz float64 `json:"rotationHz"`
}

// Karaoke removes the vocal band
type Karaoke struct {
	Level       float64 `json:"level"`
	MonoLevel   float64 `json:"monoLevel"`
	FilterBand  float64 `json:"filterBand"`
	FilterWidth float64 `json:"filterWidth"`
}

// Filters is the Lavalink filter object. Sending it replaces every filter.
type Filters struct {
	Equalizer []EqualizerBand `json:"equalizer,omitempty"`
	Timescale *Timescale      `json:"timescale,omitempty"`
	Rotation  *Rotation       `json:"rotation,omitempty"`
	Karaoke   *Karaoke        `json:"karaoke,omitempty"`
}

var presets = map[string]Filters{
	"bassboost": {Equalizer: []EqualizerBand{
		{Band: 0, Gain: 0.6}, {Band: 1, Gain: 0.67}, {Band: 2, Gain: 0.67}, {Band: 3, Gain: 0.4},
	}},
	"nightcore": {Timescale: &Timescale{Speed: 1.25, Pitch: 1.25, Rate: 1}},
	"vaporwave": {Timescale: &Timescale{Speed: 0.8, Pitch: 0.8, Rate: 1}},
	"8d":        {Rotation: &Rotation{RotationHz: 0.2}},
	"karaoke":   {Karaoke: &Karaoke{Level: 1, MonoLevel: 1, FilterBand: 220, FilterWidth: 100}},
}

// FilterNames lists the available filter presets
func FilterNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsFilter reports whether name is a known preset
func IsFilter(name string) bool {
	_, ok := presets[name]
	return ok
}

// buildFilters merges the named presets. Later names win on conflicts.
func buildFilters(names []string) Filters {
	var f Filters
	for _, name := range names {
		p, ok := presets[name]
		if !ok {
			continue
		}
		if p.Equalizer != nil {
			f.Equalizer = p.Equalizer
		}
		if p.Timescale != nil {
			f.Timescale = p.Timescale
		}
		if p.Rotation != nil {
			f.Rotation = p.Rotation
		}
		if p.Karaoke != nil {
			f.Karaoke = p.Karaoke
		}
	}
	return f
}
