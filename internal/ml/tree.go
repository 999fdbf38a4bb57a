// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package ml

import (
	"context"
	"math"
	"math/rand/v2"
	"sort"
)

// DefaultMaxBins bounds the number of histogram bins per column.
const DefaultMaxBins = 255

// TreeConfig configures a single regression tree.
type TreeConfig struct {
	// MaxDepth limits tree depth. Zero means unlimited.
	MaxDepth int `json:"max_depth"`

	// MinSamplesSplit is the minimum node size that may be split. Default 2.
	MinSamplesSplit int `json:"min_samples_split"`

	// MinSamplesLeaf is the minimum size of each child. Default 1.
	MinSamplesLeaf int `json:"min_samples_leaf"`

	// MaxBins bounds candidate thresholds per column. Default 255.
	MaxBins int `json:"max_bins"`
}

func (c TreeConfig) withDefaults() TreeConfig {
	if c.MaxDepth < 0 {
		c.MaxDepth = 0
	}
	if c.MinSamplesSplit < 2 {
		c.MinSamplesSplit = 2
	}
	if c.MinSamplesLeaf < 1 {
		c.MinSamplesLeaf = 1
	}
	if c.MaxBins < 2 {
		c.MaxBins = DefaultMaxBins
	}
	return c
}

// Node is a flattened tree node. Leaves have Feature -1.
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t,omitempty"`
	Left      int32   `json:"l,omitempty"`
	Right     int32   `json:"r,omitempty"`
	Value     float64 `json:"v"`
}

// Tree is a fitted regression tree. Node 0 is the root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// predictRow walks the tree for one sparse row. Values at or below the
// threshold go left.
func (t *Tree) predictRow(r Row) float64 {
	i := int32(0)
	for {
		n := &t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if r.At(n.Feature) <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Depth returns the length of the longest root-to-leaf path.
func (t *Tree) Depth() int {
	if len(t.Nodes) == 0 {
		return 0
	}
	var walk func(i int32) int
	walk = func(i int32) int {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	return walk(0)
}

// binning maps every column value to a histogram bin. Bin b holds values in
// (edges[b-1], edges[b]], the last bin everything above the last edge.
type binning struct {
	edges   [][]float64
	offset  []int
	zeroBin []int32
	total   int

	// bins mirrors Matrix.Rows: bins[i][k] is the bin of Rows[i].Val[k].
	bins [][]int32
}

func newBinning(X *Matrix, maxBins int) *binning {
	n := X.NumRows()
	colVals := make([][]float64, X.Cols)
	for _, r := range X.Rows {
		for k, j := range r.Idx {
			colVals[j] = append(colVals[j], r.Val[k])
		}
	}

	b := &binning{
		edges:   make([][]float64, X.Cols),
		offset:  make([]int, X.Cols),
		zeroBin: make([]int32, X.Cols),
	}
	for j, vals := range colVals {
		b.edges[j] = columnEdges(vals, n-len(vals), maxBins)
		b.offset[j] = b.total
		b.total += len(b.edges[j]) + 1
		b.zeroBin[j] = int32(sort.SearchFloat64s(b.edges[j], 0))
	}

	b.bins = make([][]int32, n)
	for i, r := range X.Rows {
		rb := make([]int32, len(r.Idx))
		for k, j := range r.Idx {
			rb[k] = int32(sort.SearchFloat64s(b.edges[j], r.Val[k]))
		}
		b.bins[i] = rb
	}
	return b
}

func (b *binning) numBins(j int) int {
	return len(b.edges[j]) + 1
}

// binOf returns the bin of column j in row i, resolving implicit zeros.
func (b *binning) binOf(X *Matrix, i, j int) int32 {
	r := X.Rows[i]
	k := sort.SearchInts(r.Idx, j)
	if k < len(r.Idx) && r.Idx[k] == j {
		return b.bins[i][k]
	}
	return b.zeroBin[j]
}

// columnEdges returns sorted split thresholds for one column. Few distinct
// values yield every midpoint; otherwise thresholds sit at quantiles.
func columnEdges(nonzero []float64, zeros, maxBins int) []float64 {
	sorted := make([]float64, len(nonzero))
	copy(sorted, nonzero)
	sort.Float64s(sorted)

	distinct := make([]float64, 0, len(sorted)+1)
	if zeros > 0 {
		distinct = append(distinct, 0)
	}
	distinct = append(distinct, sorted...)
	sort.Float64s(distinct)
	distinct = dedupe(distinct)

	if len(distinct) <= 1 {
		return nil
	}
	if len(distinct) <= maxBins {
		edges := make([]float64, len(distinct)-1)
		for i := range edges {
			edges[i] = (distinct[i] + distinct[i+1]) / 2
		}
		return edges
	}

	all := make([]float64, 0, len(sorted)+zeros)
	for range zeros {
		all = append(all, 0)
	}
	all = append(all, sorted...)
	sort.Float64s(all)

	edges := make([]float64, 0, maxBins-1)
	for q := 1; q < maxBins; q++ {
		pos := q * len(all) / maxBins
		lo, hi := all[pos-1], all[pos]
		if lo == hi {
			edges = append(edges, lo)
		} else {
			edges = append(edges, (lo+hi)/2)
		}
	}
	return dedupe(edges)
}

func dedupe(sorted []float64) []float64 {
	if len(sorted) == 0 {
		return sorted
	}
	out := sorted[:1]
	for _, v := range sorted[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

type split struct {
	feature int
	bin     int
	gain    float64
}

// treeBuilder grows one tree over a shared binning. It is not safe for
// concurrent use; ensembles create one builder per worker.
type treeBuilder struct {
	cfg TreeConfig
	X   *Matrix
	bn  *binning
	y   []float64
	ctx context.Context

	histSum []float64
	histCnt []int
	colSum  []float64
	colCnt  []int
	touched []int

	nodes []Node
	built int
	err   error
}

func newTreeBuilder(ctx context.Context, cfg TreeConfig, X *Matrix, bn *binning) *treeBuilder {
	return &treeBuilder{
		cfg:     cfg.withDefaults(),
		X:       X,
		bn:      bn,
		ctx:     ctx,
		histSum: make([]float64, bn.total),
		histCnt: make([]int, bn.total),
		colSum:  make([]float64, X.Cols),
		colCnt:  make([]int, X.Cols),
	}
}

// build grows a tree on the samples listed in idx against targets y. idx is
// reordered in place and may contain duplicates.
func (b *treeBuilder) build(idx []int, y []float64) (*Tree, error) {
	b.y = y
	b.nodes = b.nodes[:0]
	b.built = 0
	b.err = nil
	b.grow(idx, 0)
	if b.err != nil {
		return nil, b.err
	}
	nodes := make([]Node, len(b.nodes))
	copy(nodes, b.nodes)
	return &Tree{Nodes: nodes}, nil
}

func (b *treeBuilder) grow(idx []int, depth int) int32 {
	id := int32(len(b.nodes))
	if b.err != nil {
		return id
	}

	b.built++
	if b.built%256 == 0 && contextCancelled(b.ctx) {
		b.err = b.ctx.Err()
		return id
	}

	n := len(idx)
	var sum, sumSq float64
	for _, i := range idx {
		sum += b.y[i]
		sumSq += b.y[i] * b.y[i]
	}
	meanY := sum / float64(n)
	b.nodes = append(b.nodes, Node{Feature: -1, Value: meanY})

	if b.cfg.MaxDepth > 0 && depth >= b.cfg.MaxDepth {
		return id
	}
	if n < b.cfg.MinSamplesSplit || n < 2*b.cfg.MinSamplesLeaf {
		return id
	}
	if sumSq/float64(n)-meanY*meanY <= 1e-12 {
		return id
	}

	s, ok := b.findSplit(idx, sum)
	if !ok {
		return id
	}

	nl := b.partition(idx, s)
	left := b.grow(idx[:nl], depth+1)
	right := b.grow(idx[nl:], depth+1)

	node := &b.nodes[id]
	node.Feature = s.feature
	node.Threshold = b.bn.edges[s.feature][s.bin]
	node.Left = left
	node.Right = right
	return id
}

func (b *treeBuilder) findSplit(idx []int, sum float64) (split, bool) {
	touched := b.touched[:0]
	for _, i := range idx {
		r := b.X.Rows[i]
		rb := b.bn.bins[i]
		yi := b.y[i]
		for k, j := range r.Idx {
			if b.colCnt[j] == 0 {
				touched = append(touched, j)
			}
			b.colCnt[j]++
			b.colSum[j] += yi
			h := b.bn.offset[j] + int(rb[k])
			b.histCnt[h]++
			b.histSum[h] += yi
		}
	}
	sort.Ints(touched)

	n := len(idx)
	minLeaf := b.cfg.MinSamplesLeaf
	parent := sum * sum / float64(n)
	best := split{feature: -1}

	for _, j := range touched {
		off := b.bn.offset[j]
		nb := b.bn.numBins(j)

		if nb > 1 {
			z := off + int(b.bn.zeroBin[j])
			b.histCnt[z] += n - b.colCnt[j]
			b.histSum[z] += sum - b.colSum[j]

			var cl int
			var sl float64
			for bin := 0; bin < nb-1; bin++ {
				cl += b.histCnt[off+bin]
				sl += b.histSum[off+bin]
				cr := n - cl
				if cl < minLeaf {
					continue
				}
				if cr < minLeaf {
					break
				}
				sr := sum - sl
				gain := sl*sl/float64(cl) + sr*sr/float64(cr) - parent
				if gain > best.gain {
					best = split{feature: j, bin: bin, gain: gain}
				}
			}
		}

		for h := off; h < off+nb; h++ {
			b.histCnt[h] = 0
			b.histSum[h] = 0
		}
		b.colCnt[j] = 0
		b.colSum[j] = 0
	}
	b.touched = touched

	return best, best.feature >= 0
}

// partition moves samples going left to the front of idx and returns their count.
func (b *treeBuilder) partition(idx []int, s split) int {
	lo, hi := 0, len(idx)-1
	for lo <= hi {
		if int(b.bn.binOf(b.X, idx[lo], s.feature)) <= s.bin {
			lo++
			continue
		}
		idx[lo], idx[hi] = idx[hi], idx[lo]
		hi--
	}
	return lo
}

// allIndices returns 0..n-1.
func allIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// bootstrapIndices draws n indices with replacement.
func bootstrapIndices(rng *rand.Rand, n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = rng.IntN(n)
	}
	return idx
}

// subsampleIndices draws round(frac·n) indices without replacement.
func subsampleIndices(rng *rand.Rand, n int, frac float64) []int {
	if frac >= 1 {
		return allIndices(n)
	}
	k := max(1, int(math.Round(frac*float64(n))))
	perm := rng.Perm(n)[:k]
	sort.Ints(perm)
	return perm
}

func predictTrees(trees []*Tree, X *Matrix, base, scale float64, average bool) []float64 {
	out := make([]float64, X.NumRows())
	for i, r := range X.Rows {
		s := 0.0
		for _, t := range trees {
			s += t.predictRow(r)
		}
		if average && len(trees) > 0 {
			s /= float64(len(trees))
		}
		out[i] = base + scale*s
	}
	return out
}
