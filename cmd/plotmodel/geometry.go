package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"plotmodel/pkg/dataset"
	"plotmodel/pkg/geometry"
	"plotmodel/pkg/units"
)

var geometryOpts struct {
	width, height int
	pixel         float64
	distance      float64
	wavelength    float64
	beamX, beamY  float64
	beamMM        bool
	pixels        bool
	energy        bool
}

var geometryCmd = &cobra.Command{
	Use:   "geometry",
	Short: "Show the diffraction geometry fields of a detector",
	Long: `geometry builds a detector and its environment from the configured
defaults and the flags, then prints every geometry field. The beam centre
is given in pixels unless --beam-mm is set, in which case it is written
through the fields back to the detector.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return showGeometry(cmd.OutOrStdout())
	},
}

func init() {
	fs := geometryCmd.Flags()
	fs.IntVar(&geometryOpts.width, "width", 1024, "Detector width in pixels")
	fs.IntVar(&geometryOpts.height, "height", 1024, "Detector height in pixels")
	fs.Float64Var(&geometryOpts.pixel, "pixel-size", 0, "Pixel size in mm, 0 takes the configured one")
	fs.Float64Var(&geometryOpts.distance, "distance", 0, "Sample to detector distance in mm, 0 takes the configured one")
	fs.Float64Var(&geometryOpts.wavelength, "wavelength", 0, "Wavelength in Å, 0 takes the configured one")
	fs.Float64Var(&geometryOpts.beamX, "beam-x", -1, "Beam centre x, negative for the detector centre")
	fs.Float64Var(&geometryOpts.beamY, "beam-y", -1, "Beam centre y, negative for the detector centre")
	fs.BoolVar(&geometryOpts.beamMM, "beam-mm", false, "Beam centre flags are in mm")
	fs.BoolVar(&geometryOpts.pixels, "pixels", false, "Show the beam centre in pixels")
	fs.BoolVar(&geometryOpts.energy, "energy", false, "Show the wavelength as photon energy in keV")
}

func positive(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}

func showGeometry(out io.Writer) error {
	o := geometryOpts
	det := geometry.NewDetector(o.width, o.height,
		positive(o.pixel, cfg.Geometry.PixelSize),
		positive(o.distance, cfg.Geometry.Distance))
	det.SetBeamCentre(float64(o.width)/2, float64(o.height)/2)
	env := geometry.NewEnvironment(positive(o.wavelength, cfg.Geometry.Wavelength))

	m := geometry.NewModel(det, env)
	m.Activate()
	defer m.Deactivate()

	if o.beamX >= 0 || o.beamY >= 0 {
		if o.beamMM {
			bx, by := det.BeamCentreMM()
			if err := m.BeamX.SetValue(units.Of(orDefault(o.beamX, bx), units.Millimetre)); err != nil {
				return err
			}
			if err := m.BeamY.SetValue(units.Of(orDefault(o.beamY, by), units.Millimetre)); err != nil {
				return err
			}
		} else {
			bx, by := det.BeamCentre()
			det.SetBeamCentre(orDefault(o.beamX, bx), orDefault(o.beamY, by))
		}
	}
	if o.pixels {
		ux, uy := m.PixelUnits()
		if err := m.BeamX.SetUnit(ux); err != nil {
			return err
		}
		if err := m.BeamY.SetUnit(uy); err != nil {
			return err
		}
	}
	if o.energy {
		if err := m.Wavelength.SetUnit(units.KiloElectronVolt); err != nil {
			return err
		}
	}

	img, err := dataset.Realize(gaussian(o.width, o.height))
	if err != nil {
		return err
	}
	m.SetImage(img)

	bx, by := det.BeamCentre()
	fmt.Fprintf(out, "# detector %dx%d, beam centre at pixel (%.2f, %.2f)\n", o.width, o.height, bx, by)
	for _, f := range m.Fields() {
		fmt.Fprintln(out, f)
	}
	return nil
}
