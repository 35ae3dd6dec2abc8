package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jpfielding/colorpipe.go/pkg/cms"
	"github.com/jpfielding/colorpipe.go/pkg/picker"
	"github.com/jpfielding/colorpipe.go/pkg/pipeline"
	"github.com/jpfielding/colorpipe.go/pkg/pixel"
	"github.com/spf13/cobra"
)

// NewStatsCmd samples region statistics from an image.
func NewStatsCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "compute mean/min/max over an image region",
		Long:  "decodes a PNG/TIFF, optionally converts to Lab, and reduces the region to per-channel statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _ := cmd.Flags().GetString("in")
			boxSpec, _ := cmd.Flags().GetString("box")
			space, _ := cmd.Flags().GetString("space")
			from, _ := cmd.Flags().GetString("from")

			if in == "" && len(args) > 0 {
				in = args[0]
			}
			if in == "" {
				return fmt.Errorf("--in is required")
			}
			return runStats(in, boxSpec, space, from)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringP("in", "i", "", "input image (png or tiff)")
	pf.String("box", "", "region as x0,y0,x1,y1 (default: whole image)")
	pf.String("space", "rgb", "statistics space (rgb|lab|lch)")
	pf.String("from", "srgb", "profile kind the image is encoded in")
	return cmd
}

func runStats(inPath, boxSpec, space, from string) error {
	fromKind, err := parseKind(from)
	if err != nil {
		return err
	}
	buf, err := decodeToBuffer(inPath)
	if err != nil {
		return err
	}

	box := picker.Box{X1: buf.Width, Y1: buf.Height}
	if boxSpec != "" {
		if box, err = parseBox(boxSpec); err != nil {
			return err
		}
	}

	pctx := pipeline.NewContext(cms.NewBuiltinEngine())
	view := picker.ViewNative
	labels := [3]string{"R", "G", "B"}

	switch strings.ToLower(space) {
	case "rgb":
	case "lab", "lch":
		var in pipeline.InputModule
		in.Commit(pctx, pipeline.InputParams{Kind: fromKind, Intent: cms.IntentRelativeColorimetric})
		if err := in.Process(pctx, buf); err != nil {
			return fmt.Errorf("converting to Lab: %w", err)
		}
		labels = [3]string{"L", "a", "b"}
		if strings.ToLower(space) == "lch" {
			view = picker.ViewLCh
			labels = [3]string{"L", "C", "h"}
		}
	default:
		return fmt.Errorf("unknown space %q", space)
	}

	desc := pixel.Descriptor{Channels: 4, Space: pixel.SpaceRGB, Layout: pixel.Layout4Ch}
	st := pctx.Picker.Reduce(buf, desc, box, view)

	fmt.Printf("=== Region %d,%d - %d,%d ===\n", box.X0, box.Y0, box.X1, box.Y1)
	for ch := 0; ch < 3; ch++ {
		fmt.Printf("%s: mean=%.5f min=%.5f max=%.5f\n",
			labels[ch], st.Mean[ch], st.Min[ch], st.Max[ch])
	}
	return nil
}

func parseBox(spec string) (picker.Box, error) {
	parts := strings.Split(spec, ",")
	if len(parts) != 4 {
		return picker.Box{}, fmt.Errorf("box must be x0,y0,x1,y1, got %q", spec)
	}
	var vals [4]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return picker.Box{}, fmt.Errorf("box coordinate %q: %w", p, err)
		}
		vals[i] = v
	}
	return picker.Box{X0: vals[0], Y0: vals[1], X1: vals[2], Y1: vals[3]}, nil
}
