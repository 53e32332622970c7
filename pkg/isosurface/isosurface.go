// Package isosurface triangulates the surface where a volume crosses a
// threshold, using marching tetrahedra
package isosurface

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"plotmodel/internal/models"
	"plotmodel/pkg/axis"
	"plotmodel/pkg/dataset"
	"plotmodel/pkg/reduction"
)

// DefaultTickCount is the number of ticks generated per axis
const DefaultTickCount = 15

// Options control one surface generation
type Options struct {
	// Value is the iso level; points at or above it are inside
	Value float64

	// BoxSize is the sampling stride in voxels; zero means 1
	BoxSize int

	// MaxVertices caps the surface size; zero means no cap
	MaxVertices int

	// MaxBytes caps the memory for the sampled volume; zero means no cap
	MaxBytes uint64

	// Scale multiplies voxel positions along x, y and z; zeros mean 1
	Scale [3]float32

	// Workers is the number of slabs processed in parallel; zero means
	// one per CPU
	Workers int

	// TickCount is the number of ticks per axis; zero means DefaultTickCount
	TickCount int
}

func (o Options) boxSize() int {
	if o.BoxSize < 1 {
		return 1
	}
	return o.BoxSize
}

func (o Options) tickCount() int {
	if o.TickCount < 2 {
		return DefaultTickCount
	}
	return o.TickCount
}

func (o Options) scale(i int) float32 {
	if o.Scale[i] == 0 {
		return 1
	}
	return o.Scale[i]
}

// Surface is a generated mesh with its axis ticks
type Surface struct {
	Triangles []models.Triangle
	Ticks     [3][]float64
	Labels    [3][]string
}

// unit cube corners as (x, y, z)
var corners = [8][3]int{
	{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
	{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
}

// six tetrahedra sharing the 0-6 diagonal
var tetrahedra = [6][4]int{
	{0, 5, 1, 6}, {0, 1, 2, 6}, {0, 2, 3, 6},
	{0, 3, 7, 6}, {0, 7, 4, 6}, {0, 4, 5, 6},
}

// Generate triangulates src, a rank-3 dataset laid out [z, y, x]
func Generate(ctx context.Context, src dataset.Source, opts Options) (*Surface, error) {
	if src.Rank() != 3 {
		return nil, fmt.Errorf("isosurface of %q: need rank 3, have %d", src.Name(), src.Rank())
	}
	step := opts.boxSize()
	shape := src.Shape()
	sel := make([]models.Slice, 3)
	size := 1
	for d := range sel {
		sel[d] = models.Slice{Step: step}
		size *= sel[d].Count(shape[d])
	}
	if err := reduction.CheckAllocation("isosurface", size, opts.MaxBytes); err != nil {
		return nil, err
	}

	vol, err := src.Realize(sel)
	if err != nil {
		return nil, fmt.Errorf("isosurface of %q: %w", src.Name(), err)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	m := &mesher{
		vol:   vol,
		shape: vol.Shape(),
		iso:   opts.Value,
		max:   opts.MaxVertices,
	}
	for i := 0; i < 3; i++ {
		m.scale[i] = opts.scale(i) * float32(step)
	}
	tris, err := m.run(ctx, opts.Workers)
	if err != nil {
		return nil, err
	}

	s := &Surface{Triangles: tris}
	for i := 0; i < 3; i++ {
		// x, y, z extents come from dimensions 2, 1, 0
		extent := float64(shape[2-i]-1) * float64(opts.scale(i))
		s.Ticks[i], s.Labels[i] = axis.Ticks(0, extent, opts.tickCount())
	}
	return s, nil
}

type mesher struct {
	vol   *dataset.Array
	shape []int
	iso   float64
	scale [3]float32
	max   int

	vertices atomic.Int64
}

func (m *mesher) run(ctx context.Context, workers int) ([]models.Triangle, error) {
	depth := m.shape[0] - 1
	if depth < 1 || m.shape[1] < 2 || m.shape[2] < 2 {
		return nil, nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > depth {
		workers = depth
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type slabResult struct {
		index int
		tris  []models.Triangle
		err   error
	}
	results := make(chan slabResult, workers)
	var wg sync.WaitGroup
	per := (depth + workers - 1) / workers
	slabs := 0
	for z0 := 0; z0 < depth; z0 += per {
		z1 := z0 + per
		if z1 > depth {
			z1 = depth
		}
		wg.Add(1)
		go func(index, z0, z1 int) {
			defer wg.Done()
			tris, err := m.slab(ctx, z0, z1)
			results <- slabResult{index: index, tris: tris, err: err}
		}(slabs, z0, z1)
		slabs++
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	parts := make([][]models.Triangle, slabs)
	var firstErr error
	for res := range results {
		if res.err != nil && firstErr == nil {
			firstErr = res.err
			cancel()
		}
		parts[res.index] = res.tris
	}
	if firstErr != nil {
		return nil, firstErr
	}

	var out []models.Triangle
	for _, p := range parts {
		out = append(out, p...)
	}
	return out, nil
}

func (m *mesher) slab(ctx context.Context, z0, z1 int) ([]models.Triangle, error) {
	var tris []models.Triangle
	var vals [8]float64
	var pos [8][3]float32
	for z := z0; z < z1; z++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for y := 0; y < m.shape[1]-1; y++ {
			for x := 0; x < m.shape[2]-1; x++ {
				for c, off := range corners {
					cx, cy, cz := x+off[0], y+off[1], z+off[2]
					vals[c] = m.vol.At(cz, cy, cx)
					pos[c] = [3]float32{float32(cx) * m.scale[0], float32(cy) * m.scale[1], float32(cz) * m.scale[2]}
				}
				before := len(tris)
				for _, tet := range tetrahedra {
					tris = m.tetrahedron(tris, tet, &vals, &pos)
				}
				if added := len(tris) - before; added > 0 && m.max > 0 {
					if n := m.vertices.Add(int64(3 * added)); n > int64(m.max) {
						return nil, &reduction.UnsupportedOperationError{
							Op:     "isosurface",
							Reason: fmt.Sprintf("surface exceeds %d vertices; increase the box size", m.max),
						}
					}
				}
			}
		}
	}
	return tris, nil
}

func (m *mesher) tetrahedron(tris []models.Triangle, tet [4]int, vals *[8]float64, pos *[8][3]float32) []models.Triangle {
	var in, out []int
	for _, c := range tet {
		if math.IsNaN(vals[c]) {
			return tris
		}
		if vals[c] >= m.iso {
			in = append(in, c)
		} else {
			out = append(out, c)
		}
	}
	if len(in) == 0 || len(out) == 0 {
		return tris
	}

	cross := func(a, b int) [3]float32 {
		t := (m.iso - vals[a]) / (vals[b] - vals[a])
		var p [3]float32
		for i := range p {
			p[i] = pos[a][i] + float32(t)*(pos[b][i]-pos[a][i])
		}
		return p
	}
	// outward points from the inside corners towards the outside ones
	var outward [3]float32
	for i := range outward {
		var si, so float32
		for _, c := range in {
			si += pos[c][i]
		}
		for _, c := range out {
			so += pos[c][i]
		}
		outward[i] = so/float32(len(out)) - si/float32(len(in))
	}

	switch {
	case len(in) == 1:
		a := in[0]
		return appendFacet(tris, outward, cross(a, out[0]), cross(a, out[1]), cross(a, out[2]))
	case len(out) == 1:
		b := out[0]
		return appendFacet(tris, outward, cross(in[0], b), cross(in[1], b), cross(in[2], b))
	default:
		q0 := cross(in[0], out[0])
		q1 := cross(in[0], out[1])
		q2 := cross(in[1], out[1])
		q3 := cross(in[1], out[0])
		tris = appendFacet(tris, outward, q0, q1, q2)
		return appendFacet(tris, outward, q0, q2, q3)
	}
}

// appendFacet orients v1, v2, v3 so the normal agrees with outward and
// drops degenerate facets
func appendFacet(tris []models.Triangle, outward, v1, v2, v3 [3]float32) []models.Triangle {
	n := normal(v1, v2, v3)
	if n == ([3]float32{}) {
		return tris
	}
	if n[0]*outward[0]+n[1]*outward[1]+n[2]*outward[2] < 0 {
		v2, v3 = v3, v2
		n = [3]float32{-n[0], -n[1], -n[2]}
	}
	return append(tris, models.Triangle{Normal: n, Vertex1: v1, Vertex2: v2, Vertex3: v3})
}

// normal returns the unit normal of a counter-clockwise facet, or zero for
// a degenerate one
func normal(v1, v2, v3 [3]float32) [3]float32 {
	ux, uy, uz := v2[0]-v1[0], v2[1]-v1[1], v2[2]-v1[2]
	wx, wy, wz := v3[0]-v1[0], v3[1]-v1[1], v3[2]-v1[2]
	n := [3]float32{uy*wz - uz*wy, uz*wx - ux*wz, ux*wy - uy*wx}
	l := float32(math.Sqrt(float64(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])))
	if l == 0 {
		return [3]float32{}
	}
	return [3]float32{n[0] / l, n[1] / l, n[2] / l}
}
