package processor

import "imgopt/internal/codec"

// EncodePlan is the encoder policy's decision for one file.
type EncodePlan struct {
	// OutputExt is the destination extension with a leading dot.
	OutputExt string
	Params    codec.Params
}

// Converted reports whether the plan changes the file format.
func (p EncodePlan) Converted(srcExt string) bool {
	return p.OutputExt != srcExt
}

// PlanEncoding maps a source extension (lower-case, with dot) and the run
// configuration to encode parameters. Scan only yields the four supported
// extensions; anything else falls through to a JPEG plan.
func PlanEncoding(ext string, cfg Config) EncodePlan {
	switch ext {
	case ".png":
		if cfg.ConvertPNGToWebP {
			return EncodePlan{
				OutputExt: ".webp",
				Params:    codec.WebPParams{Quality: cfg.Quality, Lossless: false},
			}
		}
		return EncodePlan{
			OutputExt: ext,
			Params:    codec.PNGParams{CompressionLevel: codec.MaxPNGCompression, Optimize: true},
		}
	case ".webp":
		return EncodePlan{
			OutputExt: ext,
			Params:    codec.WebPParams{Quality: cfg.Quality, Optimize: true},
		}
	default:
		return EncodePlan{
			OutputExt: ext,
			Params:    codec.JPEGParams{Quality: cfg.Quality, Progressive: true, Optimize: true},
		}
	}
}
