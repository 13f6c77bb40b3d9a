// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package pool builds and settles non-interactive CTV payment pools: N
// participants share one taproot output, and the full tree of covenant
// transactions covering every order in which they may exit is committed to
// before the pool is funded.  No signing happens after funding; settlement
// only reveals pre-committed script paths.
package pool

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/ctvpool/ctv"
	"golang.org/x/sync/errgroup"
)

// Tree is the full pre-committed pool: one layer of nodes per number of
// exits performed, from the funded root (layer 0, nobody has exited) down to
// the terminal two-participant layer (layer N-2).  The tree is built once,
// before funding, and is read-only afterwards.
type Tree struct {
	params *Params

	// layers[k] maps the path key of each ordered exit sequence of
	// length k to its pre-built node.
	layers []map[string]*Node
}

// pathKey returns the canonical map key of an exit path.
func pathKey(path []uint32) string {
	if len(path) == 0 {
		return ""
	}
	parts := make([]string, len(path))
	for i, idx := range path {
		parts[i] = strconv.FormatUint(uint64(idx), 10)
	}
	return strings.Join(parts, "/")
}

// BuildTree constructs the entire pool tree bottom-up: the terminal layer
// first, then each earlier layer from its successor, since a node's covenant
// leaves commit to the addresses of its children.  Construction is
// deterministic: building twice from the same Params yields byte-identical
// scripts and addresses.  Nodes within one layer are compiled concurrently;
// layer ordering is strict.
func BuildTree(params *Params) (*Tree, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	n := params.NumUsers()
	t := &Tree{
		params: params,
		layers: make([]map[string]*Node, n-1),
	}

	for exited := n - 2; exited >= 0; exited-- {
		if err := t.buildLayer(exited); err != nil {
			return nil, err
		}
	}

	log.Infof("Built pool tree for %d participants: %d taproot outputs "+
		"across %d layers", n, t.NumNodes(), len(t.layers))

	return t, nil
}

// buildLayer builds every node of the layer reached after the given number
// of exits.  The successor layer must already exist, except for the terminal
// layer which has none.
func (t *Tree) buildLayer(exited int) error {
	paths := orderedPaths(t.params.NumUsers(), exited)
	nodes := make([]*Node, len(paths))

	// Sibling nodes share no state besides the read-only successor
	// layer, so they compile in parallel.  Each goroutine writes only
	// its own slot.
	var g errgroup.Group
	for i, path := range paths {
		g.Go(func() error {
			node, err := t.buildNode(path)
			if err != nil {
				return err
			}
			nodes[i] = node
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	layer := make(map[string]*Node, len(nodes))
	for _, node := range nodes {
		layer[pathKey(node.Path)] = node
	}
	t.layers[exited] = layer

	log.Debugf("Layer %d: %d nodes", exited, len(layer))

	return nil
}

// buildNode builds the node reached by the given exit path.  One rule covers
// every layer: each remaining participant gets a covenant leaf whose
// committed transaction pays them their share, funds the fee anchor, and
// sends the remainder onward.  At the terminal layer the remainder goes
// straight to the last remaining participant instead of a child node.
func (t *Tree) buildNode(path []uint32) (*Node, error) {
	params := t.params
	value := params.nodeValue(len(path))
	remaining := t.remaining(path)
	terminal := len(path) == params.NumUsers()-2

	leaves := make([]*Leaf, 0, len(remaining))
	for _, exiter := range remaining {
		var (
			continuationScript []byte
			childPath          []uint32
		)
		if terminal {
			// Exactly one other participant remains; the
			// remainder is their final payout.
			for _, other := range remaining {
				if other.Index != exiter.Index {
					continuationScript = other.PkScript
				}
			}
		} else {
			childPath = append(append([]uint32{}, path...),
				exiter.Index)
			child, err := t.Node(childPath)
			if err != nil {
				return nil, err
			}
			continuationScript = child.PkScript
		}

		outputs := []*wire.TxOut{
			wire.NewTxOut(
				int64(params.withdrawValue()),
				exiter.PkScript,
			),
			ctv.AnchorOutput(params.Fee),
			wire.NewTxOut(
				int64(value-params.Amount-params.Fee),
				continuationScript,
			),
		}

		template := &ctv.Template{
			Version:    params.txVersion(),
			LockTime:   0,
			Sequences:  []uint32{params.sequence()},
			Outputs:    outputs,
			InputIndex: 0,
		}
		if err := template.ValidateOutputs(); err != nil {
			return nil, fmt.Errorf("path %v, exiter %d: %w", path,
				exiter.Index, err)
		}
		commitment := template.Hash()

		script, err := ctv.LeafScript(commitment)
		if err != nil {
			return nil, fmt.Errorf("unable to build covenant "+
				"leaf for path %v, exiter %d: %w", path,
				exiter.Index, err)
		}

		leaves = append(leaves, &Leaf{
			Exiter:     exiter.Index,
			Commitment: commitment,
			Script:     script,
			Outputs:    outputs,
			ChildPath:  childPath,
		})
	}

	return compileNode(path, value, leaves, params.ChainParams)
}

// remaining returns the participants not named by path, in ascending index
// order.  The ordering fixes the leaf order inside every node.
func (t *Tree) remaining(path []uint32) []*Participant {
	exited := make(map[uint32]struct{}, len(path))
	for _, idx := range path {
		exited[idx] = struct{}{}
	}

	var remaining []*Participant
	for _, participant := range t.params.Participants {
		if _, ok := exited[participant.Index]; !ok {
			remaining = append(remaining, participant)
		}
	}
	return remaining
}

// Node returns the pre-built node for the given ordered exit path.
func (t *Tree) Node(path []uint32) (*Node, error) {
	if len(path) >= len(t.layers) {
		return nil, fmt.Errorf("%w: path %v is too long",
			ErrUnknownPath, path)
	}
	node, ok := t.layers[len(path)][pathKey(path)]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownPath, path)
	}
	return node, nil
}

// Root returns the entry pool node, which is funded directly.
func (t *Tree) Root() *Node {
	return t.layers[0][""]
}

// Params returns the configuration the tree was built from.
func (t *Tree) Params() *Params {
	return t.params
}

// NumNodes returns the total number of compiled taproot outputs.
func (t *Tree) NumNodes() int {
	total := 0
	for _, layer := range t.layers {
		total += len(layer)
	}
	return total
}

// LayerSize returns the number of nodes in the layer reached after the given
// number of exits.
func (t *Tree) LayerSize(exited int) int {
	if exited < 0 || exited >= len(t.layers) {
		return 0
	}
	return len(t.layers[exited])
}

// orderedPaths enumerates every ordered exit sequence of the given length
// over n participants, in lexicographic order.  The tree pre-commits to
// every order in which participants may leave, so the enumeration is over
// permutations, not subsets.
func orderedPaths(n, length int) [][]uint32 {
	var (
		paths [][]uint32
		used  = make([]bool, n)
	)

	var recurse func(prefix []uint32)
	recurse = func(prefix []uint32) {
		if len(prefix) == length {
			paths = append(paths, append([]uint32{}, prefix...))
			return
		}
		for idx := 0; idx < n; idx++ {
			if used[idx] {
				continue
			}
			used[idx] = true
			recurse(append(prefix, uint32(idx)))
			used[idx] = false
		}
	}
	recurse(make([]uint32, 0, length))

	return paths
}
