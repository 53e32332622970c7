package models

// Triangle is one facet of a surface mesh
type Triangle struct {
	// Normal is the unit normal of the facet
	Normal [3]float32

	// Vertex1, Vertex2, Vertex3 are the corners in counter-clockwise order
	// seen from the side the normal points to
	Vertex1 [3]float32
	Vertex2 [3]float32
	Vertex3 [3]float32
}
