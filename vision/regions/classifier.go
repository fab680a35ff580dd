// Package regions classifies the pixels of video frames into regions of interest by color. The
// resulting masks feed controller inputs.
package regions

import (
	"image"

	"github.com/samber/lo"

	"go.viam.com/framemask/logging"
	"go.viam.com/framemask/rimage"
)

// binarizeThreshold splits resampled mask values back into members and non members.
const binarizeThreshold = 128

// A Classifier turns frames into masks of the pixels that match any of its color targets. It holds
// no state besides its config and is safe for concurrent use.
type Classifier struct {
	cfg    Config
	active []ColorTarget
	logger logging.Logger
}

// NewClassifier validates cfg and returns a classifier using a copy of it. Targets that can never
// match are kept and logged as warnings.
func NewClassifier(cfg Config, logger logging.Logger) (*Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.clone()

	for _, target := range cfg.Targets {
		if reason := target.Unsatisfiable(); reason != "" {
			logger.Warnw("color target can never match", "target", target.Name, "reason", reason)
		}
	}
	active := lo.Filter(cfg.Targets, func(target ColorTarget, _ int) bool {
		return target.Satisfiable()
	})
	logger.Debugw("classifier ready",
		"targets", lo.Map(cfg.Targets, func(target ColorTarget, _ int) string { return target.Name }),
		"scale_factor", cfg.ScaleFactor,
		"structuring_element_size", cfg.StructuringElementSize,
		"downscale_interpolation", cfg.DownscaleInterpolation,
	)
	return &Classifier{cfg: cfg, active: active, logger: logger}, nil
}

// Config returns a copy of the classifier's config.
func (c *Classifier) Config() Config {
	return c.cfg.clone()
}

// Classify returns the mask of img: MaskMember wherever the pixel belongs to a region of any target
// and MaskNonMember elsewhere. The mask has the size of img with its origin at (0, 0).
//
// The image is upscaled with a cubic filter before thresholding so that the opening which removes
// speckles does not also erase small real regions, then the mask is scaled back down.
func (c *Classifier) Classify(img image.Image) (*image.Gray, error) {
	if err := checkFrame(img); err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	upWidth, upHeight := rimage.ScaledSize(width, height, c.cfg.ScaleFactor)

	hsv := rimage.ConvertToHSV(rimage.ResizeCubic(img, upWidth, upHeight))

	mask := image.NewGray(image.Rect(0, 0, upWidth, upHeight))
	for _, target := range c.active {
		if err := rimage.Union(mask, rimage.InRange(hsv, target.LowHSV(), target.HighHSV())); err != nil {
			return nil, err
		}
	}

	opened, err := rimage.OpenSquare(mask, c.cfg.StructuringElementSize)
	if err != nil {
		return nil, err
	}
	out, err := rimage.ResizeMask(opened, width, height, c.cfg.DownscaleInterpolation)
	if err != nil {
		return nil, err
	}
	return rimage.Binarize(out, binarizeThreshold), nil
}

// Classify classifies img against targets with the default scale factor, kernel and
// interpolation.
func Classify(img image.Image, targets []ColorTarget) (*image.Gray, error) {
	cfg := DefaultConfig()
	cfg.Targets = targets
	c, err := NewClassifier(cfg, logging.Global())
	if err != nil {
		return nil, err
	}
	return c.Classify(img)
}
