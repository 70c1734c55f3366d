package geometry

import "sort"

// EdgeKey identifies an undirected mesh edge by its two vertex indices,
// lower index first.
type EdgeKey struct {
	Lo, Hi int
}

// NewEdgeKey orders i and j into an EdgeKey.
func NewEdgeKey(i, j int) EdgeKey {
	if i > j {
		i, j = j, i
	}
	return EdgeKey{Lo: i, Hi: j}
}

// Adjacency is an arena of face neighbours: faces are addressed by index and
// neighbours are stored in one flat slice, so the structure can be shared
// read-only across goroutines.
type Adjacency struct {
	offsets   []int
	neighbors []int
}

// BuildAdjacency links every pair of faces sharing an edge. Edges shared by
// more than two faces (non-manifold) link all of them.
func BuildAdjacency(faces [][3]int) *Adjacency {
	edgeFaces := make(map[EdgeKey][]int, len(faces)*3/2)
	for fi, f := range faces {
		for k := 0; k < 3; k++ {
			key := NewEdgeKey(f[k], f[(k+1)%3])
			edgeFaces[key] = append(edgeFaces[key], fi)
		}
	}

	lists := make([][]int, len(faces))
	for _, shared := range edgeFaces {
		for i := 0; i < len(shared); i++ {
			for j := i + 1; j < len(shared); j++ {
				a, b := shared[i], shared[j]
				if a == b {
					continue
				}
				lists[a] = append(lists[a], b)
				lists[b] = append(lists[b], a)
			}
		}
	}

	adj := &Adjacency{offsets: make([]int, len(faces)+1)}
	for i, l := range lists {
		sort.Ints(l)
		l = dedupSorted(l)
		adj.neighbors = append(adj.neighbors, l...)
		adj.offsets[i+1] = len(adj.neighbors)
	}
	return adj
}

// Len returns the number of faces in the arena.
func (a *Adjacency) Len() int {
	return len(a.offsets) - 1
}

// Neighbors returns the faces sharing an edge with face, in ascending order.
// The returned slice aliases the arena and must not be modified.
func (a *Adjacency) Neighbors(face int) []int {
	return a.neighbors[a.offsets[face]:a.offsets[face+1]]
}

// Components groups the faces accepted by include into edge-connected
// regions. Regions are ordered by their lowest face index and each region
// lists its faces in ascending order.
func (a *Adjacency) Components(include func(face int) bool) [][]int {
	n := a.Len()
	visited := make([]bool, n)
	var regions [][]int
	var queue []int

	for start := 0; start < n; start++ {
		if visited[start] || !include(start) {
			continue
		}
		visited[start] = true
		queue = append(queue[:0], start)
		var region []int
		for len(queue) > 0 {
			f := queue[0]
			queue = queue[1:]
			region = append(region, f)
			for _, nb := range a.Neighbors(f) {
				if !visited[nb] && include(nb) {
					visited[nb] = true
					queue = append(queue, nb)
				}
			}
		}
		sort.Ints(region)
		regions = append(regions, region)
	}
	return regions
}

func dedupSorted(l []int) []int {
	if len(l) < 2 {
		return l
	}
	out := l[:1]
	for _, v := range l[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
