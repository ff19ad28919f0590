package detection

import (
	"image"
	"math"

	"github.com/ironsheep/plate-detect/internal/imaging"
)

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// Contour is an ordered, implicitly closed sequence of boundary points.
type Contour []Point

// Box is an axis-aligned bounding box. Width and Height are inclusive pixel
// extents, so a single pixel has a 1x1 box.
type Box struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect converts the box to an image.Rectangle with an exclusive Max corner.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// Area returns Width*Height.
func (b Box) Area() int {
	return b.Width * b.Height
}

// Area returns the area enclosed by the contour using the shoelace formula.
// Degenerate contours (fewer than three points, or a line traced out and
// back) have zero area.
func (c Contour) Area() float64 {
	if len(c) < 3 {
		return 0
	}
	var sum int
	for i := range c {
		j := (i + 1) % len(c)
		sum += c[i].X*c[j].Y - c[j].X*c[i].Y
	}
	return math.Abs(float64(sum)) / 2
}

// BoundingBox returns the smallest box containing every point.
func (c Contour) BoundingBox() Box {
	if len(c) == 0 {
		return Box{}
	}
	minX, minY := c[0].X, c[0].Y
	maxX, maxY := minX, minY
	for _, p := range c[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return Box{X: minX, Y: minY, Width: maxX - minX + 1, Height: maxY - minY + 1}
}

// neighbours in counterclockwise order as seen on screen (y grows downward),
// starting east.
var neighbours = [8]Point{
	{X: 1, Y: 0},   // E
	{X: 1, Y: -1},  // NE
	{X: 0, Y: -1},  // N
	{X: -1, Y: -1}, // NW
	{X: -1, Y: 0},  // W
	{X: -1, Y: 1},  // SW
	{X: 0, Y: 1},   // S
	{X: 1, Y: 1},   // SE
}

func direction(from, to Point) int {
	dx, dy := to.X-from.X, to.Y-from.Y
	for i, n := range neighbours {
		if n.X == dx && n.Y == dy {
			return i
		}
	}
	return -1
}

// FindExternalContours extracts the outer boundary of every outermost
// connected group of edge pixels.
//
// # Algorithm
//
//  1. Background pixels 4-connected to the image frame are marked as
//     "outside". Pixels beyond the frame count as outside background.
//  2. Edge pixels are grouped into 8-connected components in raster order.
//  3. A component is external when the background pixel left of its first
//     raster pixel is outside; components sitting in a hole of another
//     component are skipped, as are all inner (hole) borders.
//  4. The outer border is traced by border following from the first raster
//     pixel, then compressed so that only the endpoints of horizontal,
//     vertical and diagonal runs remain.
//
// Contours are returned in raster order of their first pixel.
func FindExternalContours(edges *imaging.EdgeMap) []Contour {
	width, height := edges.Width, edges.Height
	if width == 0 || height == 0 {
		return nil
	}

	outside := markOutside(edges)
	labeled := make([]bool, width*height)
	contours := make([]Contour, 0)

	stack := make([]Point, 0, 256)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			if !edges.Pix[i] || labeled[i] {
				continue
			}

			// Label the whole component so later pixels of it are skipped.
			labeled[i] = true
			stack = append(stack[:0], Point{X: x, Y: y})
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				for _, n := range neighbours {
					q := Point{X: p.X + n.X, Y: p.Y + n.Y}
					if !edges.At(q.X, q.Y) {
						continue
					}
					j := q.Y*width + q.X
					if !labeled[j] {
						labeled[j] = true
						stack = append(stack, q)
					}
				}
			}

			if x > 0 && !outside[i-1] {
				continue
			}
			contours = append(contours, compressChain(traceOuterBorder(edges, Point{X: x, Y: y})))
		}
	}

	return contours
}

// markOutside flood-fills (4-connected) the background reachable from the
// image frame.
func markOutside(edges *imaging.EdgeMap) []bool {
	width, height := edges.Width, edges.Height
	outside := make([]bool, width*height)
	stack := make([]int, 0, 2*(width+height))

	push := func(x, y int) {
		i := y*width + x
		if edges.Pix[i] || outside[i] {
			return
		}
		outside[i] = true
		stack = append(stack, i)
	}

	for x := 0; x < width; x++ {
		push(x, 0)
		push(x, height-1)
	}
	for y := 0; y < height; y++ {
		push(0, y)
		push(width-1, y)
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%width, i/width
		if x > 0 {
			push(x-1, y)
		}
		if x < width-1 {
			push(x+1, y)
		}
		if y > 0 {
			push(x, y-1)
		}
		if y < height-1 {
			push(x, y+1)
		}
	}
	return outside
}

// traceOuterBorder follows the outer border of the component containing
// start, which must have a background pixel to its left.
//
// The first neighbour is searched clockwise from the west; every following
// step searches counterclockwise starting just past the previous pixel. The
// trace ends when it is about to re-enter the start pixel from the first
// neighbour.
func traceOuterBorder(edges *imaging.EdgeMap, start Point) []Point {
	first := Point{}
	found := false
	for k := 0; k < 8; k++ {
		n := neighbours[(4-k+8)%8]
		p := Point{X: start.X + n.X, Y: start.Y + n.Y}
		if edges.At(p.X, p.Y) {
			first = p
			found = true
			break
		}
	}
	if !found {
		return []Point{start}
	}

	// Every border pixel is entered at most four times.
	limit := 4*edges.Width*edges.Height + 8

	points := []Point{start}
	prev, cur := first, start
	for len(points) < limit {
		d := direction(cur, prev)
		next := prev
		for k := 1; k <= 8; k++ {
			n := neighbours[(d+k)%8]
			p := Point{X: cur.X + n.X, Y: cur.Y + n.Y}
			if edges.At(p.X, p.Y) {
				next = p
				break
			}
		}

		if next == start && cur == first {
			break
		}
		prev, cur = cur, next
		points = append(points, cur)
	}
	return points
}

// compressChain drops every point whose incoming and outgoing steps share a
// direction, keeping only the endpoints of straight runs. The start point is
// always kept.
func compressChain(points []Point) Contour {
	n := len(points)
	if n < 3 {
		return Contour(points)
	}

	out := make(Contour, 0, n/2+1)
	out = append(out, points[0])
	for i := 1; i < n; i++ {
		in := direction(points[i-1], points[i])
		next := direction(points[i], points[(i+1)%n])
		if in != next {
			out = append(out, points[i])
		}
	}
	return out
}
