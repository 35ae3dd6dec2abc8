package cmd

import (
	"context"
	"fmt"

	"github.com/jpfielding/colorpipe.go/pkg/cms"
	"github.com/jpfielding/colorpipe.go/pkg/pipeline"
	"github.com/jpfielding/colorpipe.go/pkg/profile"
	"github.com/spf13/cobra"
)

// NewProfilesCmd lists the built-in profiles and their extracted
// pipeline capabilities.
func NewProfilesCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "list built-in profiles and their fast-path capabilities",
		Long:  "shows, per profile, whether the matrix fast path is available, the nonlinear channel count, and the middle-grey luminance",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfiles()
		},
	}
	return cmd
}

var inspectKinds = []profile.Kind{
	profile.KindSRGB,
	profile.KindAdobeRGB,
	profile.KindProPhoto,
	profile.KindLinProPhoto,
	profile.KindRec2020,
	profile.KindLinRec2020,
	profile.KindLinRec709,
	profile.KindLab,
	profile.KindXYZ,
}

func runProfiles() error {
	pctx := pipeline.NewContext(cms.NewBuiltinEngine())

	fmt.Println("=== Built-in Profiles ===")
	for _, kind := range inspectKinds {
		info := pctx.Cache.GetOrCreate(kind, "", cms.IntentRelativeColorimetric)
		_, _, hasMatrix := info.Matrices()

		fmt.Printf("%-14s %-28s", kind, info.Description())
		switch {
		case info.IsPCS():
			fmt.Printf(" path=pcs\n")
		case hasMatrix:
			fmt.Printf(" path=matrix nonlinear=%d grey=%.4f\n",
				info.NonlinearChannels(), info.Grey())
		default:
			fmt.Printf(" path=full\n")
		}
	}
	return nil
}
