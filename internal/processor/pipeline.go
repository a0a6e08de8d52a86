package processor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"imgopt/internal/codec"
	"imgopt/internal/metadata"
)

// Pipeline turns one source file into one optimized output.
type Pipeline struct {
	codec      codec.Codec
	compressor Compressor
	paths      *PathReserver
	log        *zap.Logger
}

// NewPipeline builds a pipeline. A nil compressor disables the external PNG
// pass; a nil logger discards debug output.
func NewPipeline(c codec.Codec, compressor Compressor, log *zap.Logger) *Pipeline {
	if compressor == nil {
		compressor = NoCompressor{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		codec:      c,
		compressor: compressor,
		paths:      NewPathReserver(),
		log:        log.Named("pipeline"),
	}
}

// Optimize decodes, strips, renames and re-encodes file. It never returns an
// error: every failure is folded into the Result so the caller can move on
// to the next file.
func (p *Pipeline) Optimize(ctx context.Context, file SourceFile, cfg Config) (res Result) {
	res = Result{Source: file.Path, OriginalSize: file.Size}
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("panic while optimizing", zap.String("path", file.Path), zap.Any("panic", r))
			res = failed(res, fmt.Errorf("internal error: %v", r))
		}
	}()

	srcInfo, err := os.Stat(file.Path)
	if err != nil {
		return failed(res, err)
	}
	res.OriginalSize = srcInfo.Size()

	if report, err := metadata.Inspect(file.Path); err == nil {
		res.Removed = report.Blocks
	}

	decoded, err := p.codec.Decode(file.Path)
	if err != nil {
		if errors.Is(err, codec.ErrUnreadable) {
			p.log.Debug("unreadable image", zap.String("path", file.Path), zap.Error(err))
			res.Outcome = OutcomeSkippedUnreadable
			res.Reason = ReasonUnreadable
			return res
		}
		return failed(res, err)
	}
	defer decoded.Close()

	frame, err := p.codec.Strip(decoded)
	if err != nil {
		return failed(res, fmt.Errorf("strip metadata: %w", err))
	}
	defer frame.Close()

	ext := strings.ToLower(file.Ext)
	plan := PlanEncoding(ext, cfg)

	destDir := cfg.DestDir
	if destDir == "" {
		destDir = filepath.Dir(file.Path)
	}
	base := filepath.Base(file.Path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	name := NameFor(stem, frame.Width(), frame.Height(), frame.Pix())

	dest, err := p.paths.Reserve(destDir, name, plan.OutputExt)
	if err != nil {
		return failed(res, fmt.Errorf("resolve destination: %w", err))
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		p.paths.Release(dest)
		return failed(res, err)
	}

	if err := p.write(frame, dest, plan, srcInfo.Mode().Perm()); err != nil {
		p.paths.Release(dest)
		return failed(res, err)
	}

	if plan.OutputExt == ".png" && !plan.Converted(ext) {
		res.Compressed = p.compressor.TryCompress(ctx, dest)
	}

	outInfo, err := os.Stat(dest)
	if err != nil {
		return failed(res, err)
	}

	res.Dest = dest
	res.NewSize = outInfo.Size()
	res.Outcome = OutcomeSuccess
	p.log.Debug("optimized",
		zap.String("path", file.Path),
		zap.String("dest", dest),
		zap.String("codec", p.codec.Name()),
		zap.String("format", plan.Params.Format()),
		zap.Int64("original", res.OriginalSize),
		zap.Int64("optimized", res.NewSize),
		zap.Bool("compressed", res.Compressed),
	)
	return res
}

// write encodes into a temp file next to dest and renames it into place, so a
// failed encode never leaves a partial file at the reserved path.
func (p *Pipeline) write(frame codec.Frame, dest string, plan EncodePlan, perm os.FileMode) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(dest), "imgopt-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmpFile.Name())

	if err := tmpFile.Chmod(perm); err != nil {
		_ = tmpFile.Close()
		return err
	}

	bw := bufio.NewWriter(tmpFile)
	if err := p.codec.Encode(bw, frame, plan.Params); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("encode %s: %w", plan.Params.Format(), err)
	}
	if err := bw.Flush(); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	return os.Rename(tmpFile.Name(), dest)
}

func failed(res Result, err error) Result {
	res.Dest = ""
	res.NewSize = 0
	res.Outcome = OutcomeFailed
	res.Reason = err.Error()
	return res
}
