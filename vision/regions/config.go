package regions

import (
	"fmt"
	"math"
	"reflect"
	"slices"

	"github.com/a8m/envsubst"
	"github.com/go-viper/mapstructure/v2"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"

	"go.viam.com/framemask/rimage"
)

// Defaults for a Config.
const (
	DefaultScaleFactor            = 3.0
	DefaultStructuringElementSize = 5
	DefaultDownscaleInterpolation = rimage.MaskInterpolationBilinear
)

// ColorTarget is a named inclusive range in 8-bit HSV. Hue runs 0..179 (degrees halved), saturation
// and value 0..255.
type ColorTarget struct {
	Name string `json:"name"`
	Low  [3]int `json:"low"`
	High [3]int `json:"high"`
}

// LowHSV returns the lower bound. Call Validate first; out of range channels are truncated.
func (ct ColorTarget) LowHSV() rimage.HSV {
	return rimage.HSV{H: uint8(ct.Low[0]), S: uint8(ct.Low[1]), V: uint8(ct.Low[2])}
}

// HighHSV returns the upper bound.
func (ct ColorTarget) HighHSV() rimage.HSV {
	return rimage.HSV{H: uint8(ct.High[0]), S: uint8(ct.High[1]), V: uint8(ct.High[2])}
}

// Validate checks that every bound is a byte.
func (ct ColorTarget) Validate() error {
	for ch := 0; ch < 3; ch++ {
		if ct.Low[ch] < 0 || ct.Low[ch] > 255 || ct.High[ch] < 0 || ct.High[ch] > 255 {
			return errors.Errorf("target %q channel %d bounds must be within 0..255, got %d..%d",
				ct.Name, ch, ct.Low[ch], ct.High[ch])
		}
	}
	return nil
}

// Unsatisfiable explains why no pixel can ever fall inside the target, or returns "" when some
// pixel can. Such targets are kept as configured.
func (ct ColorTarget) Unsatisfiable() string {
	channels := []string{"hue", "saturation", "value"}
	for ch, name := range channels {
		if ct.Low[ch] > ct.High[ch] {
			return fmt.Sprintf("%s low %d is above high %d", name, ct.Low[ch], ct.High[ch])
		}
	}
	if ct.Low[0] > rimage.MaxHue {
		return fmt.Sprintf("hue low %d is above the largest hue %d", ct.Low[0], rimage.MaxHue)
	}
	return ""
}

// Satisfiable reports whether some pixel can fall inside the target.
func (ct ColorTarget) Satisfiable() bool {
	return ct.Unsatisfiable() == ""
}

// Config holds everything the classifier needs. Each Classifier keeps its own copy, so several
// target sets can be used side by side.
type Config struct {
	Targets                []ColorTarget            `json:"targets"`
	ScaleFactor            float64                  `json:"scale_factor"`
	StructuringElementSize int                      `json:"structuring_element_size"`
	DownscaleInterpolation rimage.MaskInterpolation `json:"downscale_interpolation"`
}

// ReferenceTargets returns the three targets the classifier uses unless configured otherwise.
// falco-2 has a hue range above MaxHue and never matches.
func ReferenceTargets() []ColorTarget {
	return []ColorTarget{
		{Name: "falco-1", Low: [3]int{156, 155, 61}, High: [3]int{167, 183, 165}},
		{Name: "falco-2", Low: [3]int{253, 173, 114}, High: [3]int{254, 178, 186}},
		{Name: "falco-3", Low: [3]int{17, 89, 28}, High: [3]int{58, 183, 48}},
	}
}

// DefaultConfig returns the reference targets with the default scale and kernel.
func DefaultConfig() Config {
	return Config{
		Targets:                ReferenceTargets(),
		ScaleFactor:            DefaultScaleFactor,
		StructuringElementSize: DefaultStructuringElementSize,
		DownscaleInterpolation: DefaultDownscaleInterpolation,
	}
}

// Validate returns the first problem with the config.
func (cfg Config) Validate() error {
	if len(cfg.Targets) == 0 {
		return errors.New("at least one color target is required")
	}
	for _, target := range cfg.Targets {
		if err := target.Validate(); err != nil {
			return err
		}
	}
	if !(cfg.ScaleFactor > 0) || math.IsInf(cfg.ScaleFactor, 0) {
		return errors.Errorf("scale_factor must be a positive number, got %v", cfg.ScaleFactor)
	}
	if cfg.StructuringElementSize < 1 || cfg.StructuringElementSize%2 == 0 {
		return errors.Errorf("structuring_element_size must be a positive odd number, got %d",
			cfg.StructuringElementSize)
	}
	return cfg.DownscaleInterpolation.Validate()
}

// ConfigSchema describes the fields a config file may set.
func ConfigSchema() *jsonschema.Schema {
	return jsonschema.Reflect(&Config{})
}

func (cfg Config) clone() Config {
	cfg.Targets = slices.Clone(cfg.Targets)
	return cfg
}

// ConfigFromAttributes builds a Config from a decoded JSON object. Missing fields take their
// defaults; unknown fields are an error.
func ConfigFromAttributes(attributes map[string]interface{}) (Config, error) {
	var cfg Config
	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		Result:     &cfg,
		Metadata:   &md,
		DecodeHook: strictNumbersHook,
	})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return Config{}, errors.Wrap(err, "cannot decode classifier config")
	}
	if len(md.Unused) != 0 {
		slices.Sort(md.Unused)
		return Config{}, errors.Errorf("unknown classifier config fields %v", md.Unused)
	}

	defaults := DefaultConfig()
	if !slices.Contains(md.Keys, "targets") {
		cfg.Targets = defaults.Targets
	}
	if !slices.Contains(md.Keys, "scale_factor") {
		cfg.ScaleFactor = defaults.ScaleFactor
	}
	if !slices.Contains(md.Keys, "structuring_element_size") {
		cfg.StructuringElementSize = defaults.StructuringElementSize
	}
	if cfg.DownscaleInterpolation == "" {
		cfg.DownscaleInterpolation = defaults.DownscaleInterpolation
	}
	return cfg, cfg.Validate()
}

// strictNumbersHook rejects arrays of the wrong length and fractional numbers for integer fields,
// which mapstructure would otherwise zero-fill and truncate.
func strictNumbersHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	switch to.Kind() {
	case reflect.Array:
		if from.Kind() == reflect.Slice || from.Kind() == reflect.Array {
			if n := reflect.ValueOf(data).Len(); n != to.Len() {
				return nil, errors.Errorf("expected %d values, got %d", to.Len(), n)
			}
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if from.Kind() == reflect.Float32 || from.Kind() == reflect.Float64 {
			if f := reflect.ValueOf(data).Float(); f != math.Trunc(f) {
				return nil, errors.Errorf("expected a whole number, got %v", f)
			}
		}
	}
	return data, nil
}

// ReadConfig reads a JSON5 config file, so comments and trailing commas are allowed. ${VAR}
// references are replaced from the environment first.
func ReadConfig(path string) (Config, error) {
	buf, err := envsubst.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var attributes map[string]interface{}
	if err := json5.Unmarshal(buf, &attributes); err != nil {
		return Config{}, errors.Wrapf(err, "cannot parse classifier config %q", path)
	}
	return ConfigFromAttributes(attributes)
}
