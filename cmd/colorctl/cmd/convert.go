package cmd

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jpfielding/colorpipe.go/pkg/cms"
	"github.com/jpfielding/colorpipe.go/pkg/pipeline"
	"github.com/jpfielding/colorpipe.go/pkg/pixel"
	"github.com/jpfielding/colorpipe.go/pkg/profile"
	"github.com/jpfielding/colorpipe.go/pkg/util"
	"github.com/spf13/cobra"
	"golang.org/x/image/tiff"
)

// NewConvertCmd converts an image from one profile's RGB to another.
func NewConvertCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "convert an image between color profiles",
		Long:  "decodes a PNG/TIFF, runs the input and output color modules over the pixel buffer, and encodes the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _ := cmd.Flags().GetString("in")
			out, _ := cmd.Flags().GetString("out")
			from, _ := cmd.Flags().GetString("from")
			to, _ := cmd.Flags().GetString("to")
			blueRemap, _ := cmd.Flags().GetBool("blue-remap")
			clip, _ := cmd.Flags().GetString("gamut-clip")

			if in == "" && len(args) > 0 {
				in = args[0]
			}
			if in == "" || out == "" {
				return fmt.Errorf("both --in and --out are required")
			}
			return runConvert(in, out, from, to, blueRemap, clip)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringP("in", "i", "", "input image (png or tiff)")
	pf.StringP("out", "o", "", "output image (png or tiff)")
	pf.String("from", "srgb", "source profile kind")
	pf.String("to", "srgb", "destination profile kind")
	pf.Bool("blue-remap", false, "apply the blue-highlight correction")
	pf.String("gamut-clip", "", "clip through this profile kind before Lab")
	return cmd
}

func runConvert(inPath, outPath, from, to string, blueRemap bool, clip string) error {
	fromKind, err := parseKind(from)
	if err != nil {
		return err
	}
	toKind, err := parseKind(to)
	if err != nil {
		return err
	}
	clipKind := profile.KindNone
	if clip != "" {
		if clipKind, err = parseKind(clip); err != nil {
			return err
		}
	}

	raw, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	slog.Debug("convert: input loaded",
		slog.String("path", inPath),
		slog.String("md5", util.Md5ThenHex(raw)))

	buf, err := decodeToBuffer(inPath)
	if err != nil {
		return err
	}

	pctx := pipeline.NewContext(cms.NewBuiltinEngine(),
		pipeline.WithBlobSource(fileBlobSource))
	var in pipeline.InputModule
	var out pipeline.OutputModule
	in.Commit(pctx, pipeline.InputParams{
		Kind:      fromKind,
		Intent:    cms.IntentRelativeColorimetric,
		BlueRemap: blueRemap,
		GamutClip: clipKind,
	})
	out.Commit(pctx, pipeline.OutputParams{
		Kind:   toKind,
		Intent: cms.IntentRelativeColorimetric,
	})

	if err := in.Process(pctx, buf); err != nil {
		return fmt.Errorf("input module: %w", err)
	}
	if err := out.Process(pctx, buf); err != nil {
		return fmt.Errorf("output module: %w", err)
	}
	return encodeBuffer(buf, outPath)
}

// fileBlobSource loads profile bytes for file-backed kinds; CLI edge
// only, the core does no I/O.
func fileBlobSource(_ profile.Kind, filename string) ([]byte, error) {
	return os.ReadFile(filename)
}

func parseKind(name string) (profile.Kind, error) {
	switch strings.ToLower(name) {
	case "srgb":
		return profile.KindSRGB, nil
	case "adobergb":
		return profile.KindAdobeRGB, nil
	case "prophoto":
		return profile.KindProPhoto, nil
	case "lin_prophoto":
		return profile.KindLinProPhoto, nil
	case "rec2020":
		return profile.KindRec2020, nil
	case "lin_rec2020":
		return profile.KindLinRec2020, nil
	case "lin_rec709":
		return profile.KindLinRec709, nil
	case "display":
		return profile.KindDisplay, nil
	}
	return profile.KindNone, fmt.Errorf("unknown profile kind %q", name)
}

// decodeToBuffer reads a PNG/TIFF into a 4-channel float buffer.
func decodeToBuffer(path string) (*pixel.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	bounds := img.Bounds()
	buf := pixel.NewBuffer(bounds.Dx(), bounds.Dy(), 4)
	slog.Debug("convert: decoded",
		slog.String("format", format),
		slog.Int("width", buf.Width), slog.Int("height", buf.Height))

	for y := 0; y < buf.Height; y++ {
		row := buf.Row(y)
		for x := 0; x < buf.Width; x++ {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			row[x*4] = float32(r) / 65535.0
			row[x*4+1] = float32(g) / 65535.0
			row[x*4+2] = float32(b) / 65535.0
			row[x*4+3] = float32(a) / 65535.0
		}
	}
	return buf, nil
}

// encodeBuffer writes the buffer as 16-bit TIFF or PNG by extension.
func encodeBuffer(buf *pixel.Buffer, path string) error {
	img := image.NewRGBA64(image.Rect(0, 0, buf.Width, buf.Height))
	for y := 0; y < buf.Height; y++ {
		row := buf.Row(y)
		for x := 0; x < buf.Width; x++ {
			img.SetRGBA64(x, y, color.RGBA64{
				R: toU16(row[x*4]),
				G: toU16(row[x*4+1]),
				B: toU16(row[x*4+2]),
				A: toU16(row[x*4+3]),
			})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		return tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return png.Encode(f, img)
	}
}

func toU16(v float32) uint16 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 65535
	}
	return uint16(v*65535.0 + 0.5)
}
