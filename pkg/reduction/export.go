package reduction

import (
	"context"
	"fmt"

	"plotmodel/internal/models"
	"plotmodel/pkg/dataset"
	"plotmodel/pkg/region"
)

// Export is one region's share of ExportProfiles
type Export struct {
	Region string
	Result *Result
}

// ExportProfiles reduces data under every visible user region the reducer
// supports, in registry order. Regions that yield no result are skipped.
// The first failing region ends the export.
func ExportProfiles(ctx context.Context, r Reducer, regions *region.Registry, data dataset.Source, axes []*dataset.Array, slices []models.Slice, order models.AxisOrder) ([]Export, error) {
	var out []Export
	for _, reg := range regions.Regions() {
		if !reg.User || !reg.Visible || !supports(r, reg.Kind) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := safeReduce(ctx, r, RequestFor(reg, data, axes, slices, order))
		if err != nil {
			return nil, fmt.Errorf("export %q: %w", reg.Name, err)
		}
		if res == nil {
			continue
		}
		out = append(out, Export{Region: reg.Name, Result: res})
	}
	log.WithField("count", len(out)).Debug("profiles exported")
	return out, nil
}
