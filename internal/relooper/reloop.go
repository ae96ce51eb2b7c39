package relooper

import "sort"

// Edges is the relooper's input: for each block, its successor block ids in
// program order. This is exactly the `blocks: [(u32, [u32])]` contract of
// spec.md §6, expressed as a map for convenience.
type Edges map[BlockID][]BlockID

// Reloop computes a Shape tree reproducing the observable control flow
// of the CFG described by edges, entered at entry. It implements the
// Emscripten relooper algorithm (loop detection via strongly-connected
// components, followed by multiple-entry partitioning, followed by linear
// threading) well enough to shape any CFG built from single loops and
// if/else diamonds — the shapes this repository's front end produces.
// General irreducible/nested-multiple CFGs (see spec.md §9 Open Question b)
// are intentionally out of scope for this reference port: those edge kinds
// (*IntoMulti) are exercised directly against hand-built trees in
// internal/wasmtarget's tests instead (see DESIGN.md).
func Reloop(edges Edges, entry BlockID) Shape {
	st := &state{edges: edges, loopIDs: 0}
	all := allBlocks(edges, entry)
	return st.process(all, []BlockID{entry}, nil)
}

type state struct {
	edges   Edges
	loopIDs uint16
}

// loopFrame records an enclosing loop's header and body, used to classify
// back edges (LoopContinue) and exit edges (LoopBreak) while lowering the
// blocks inside that loop.
type loopFrame struct {
	id     uint16
	header BlockID
	body   map[BlockID]bool
}

func allBlocks(edges Edges, entry BlockID) map[BlockID]bool {
	set := map[BlockID]bool{entry: true}
	changed := true
	for changed {
		changed = false
		for b := range set {
			for _, s := range edges[b] {
				if !set[s] {
					set[s] = true
					changed = true
				}
			}
		}
	}
	return set
}

func (st *state) process(remaining map[BlockID]bool, entries []BlockID, loops []loopFrame) Shape {
	if len(entries) == 0 {
		return nil
	}
	if len(entries) > 1 {
		return st.processMultiple(remaining, entries, loops)
	}
	entry := entries[0]
	if !remaining[entry] {
		return nil
	}

	if body := st.sccContaining(remaining, entry); len(body) > 1 || st.hasSelfEdge(entry) {
		return st.processLoop(remaining, entry, body, loops)
	}

	return st.processSimple(remaining, entry, loops)
}

// hasSelfEdge reports whether entry branches directly to itself.
func (st *state) hasSelfEdge(entry BlockID) bool {
	for _, s := range st.edges[entry] {
		if s == entry {
			return true
		}
	}
	return false
}

// sccContaining computes the strongly-connected component containing entry,
// restricted to the induced subgraph over remaining. Returns a set
// including at least {entry}.
func (st *state) sccContaining(remaining map[BlockID]bool, entry BlockID) map[BlockID]bool {
	fwd := reachableWithBarrier(st.edges, remaining, entry, nil)
	back := map[BlockID]bool{entry: true}
	changed := true
	for changed {
		changed = false
		for b := range fwd {
			if back[b] {
				continue
			}
			for _, s := range st.edges[b] {
				if back[s] && remaining[b] {
					back[b] = true
					changed = true
					break
				}
			}
		}
	}
	out := map[BlockID]bool{}
	for b := range fwd {
		if back[b] {
			out[b] = true
		}
	}
	return out
}

// reachableWithBarrier returns the set of blocks reachable from start by
// edges staying within remaining, never continuing past a block in barrier
// (barrier blocks themselves are still included in the result, as reachable
// destinations, but exploration does not proceed past them).
func reachableWithBarrier(edges Edges, remaining map[BlockID]bool, start BlockID, barrier map[BlockID]bool) map[BlockID]bool {
	seen := map[BlockID]bool{start: true}
	stack := []BlockID{start}
	for len(stack) > 0 {
		n := len(stack) - 1
		b := stack[n]
		stack = stack[:n]
		if barrier[b] && b != start {
			continue
		}
		for _, s := range edges[b] {
			if !remaining[s] || seen[s] {
				continue
			}
			seen[s] = true
			stack = append(stack, s)
		}
	}
	return seen
}

func (st *state) processLoop(remaining map[BlockID]bool, header BlockID, body map[BlockID]bool, loops []loopFrame) Shape {
	id := st.loopIDs
	st.loopIDs++

	outside := map[BlockID]bool{}
	for b := range remaining {
		if !body[b] {
			outside[b] = true
		}
	}

	var exitEntries []BlockID
	seenExit := map[BlockID]bool{}
	for b := range body {
		for _, s := range st.edges[b] {
			if outside[s] && !seenExit[s] {
				seenExit[s] = true
				exitEntries = append(exitEntries, s)
			}
		}
	}
	sort.Slice(exitEntries, func(i, j int) bool { return exitEntries[i] < exitEntries[j] })

	frame := loopFrame{id: id, header: header, body: body}
	innerLoops := make([]loopFrame, len(loops), len(loops)+1)
	copy(innerLoops, loops)
	innerLoops = append(innerLoops, frame)
	// Recurse directly as a Simple rather than through process(): the loop
	// itself has already been recognised and wrapped here, so re-running the
	// SCC check on (body, header) would just rediscover the same loop and
	// recurse forever. Nested loops with a different header are still
	// detected normally once processSimple threads past this block.
	inner := st.processSimple(body, header, innerLoops)
	next := st.process(outside, exitEntries, loops)

	return &Loop{LoopID: id, Inner: inner, Next: next}
}

func (st *state) processSimple(remaining map[BlockID]bool, entry BlockID, loops []loopFrame) Shape {
	rest := map[BlockID]bool{}
	for b := range remaining {
		if b != entry {
			rest[b] = true
		}
	}

	branches := map[BlockID]Branch{}
	var forward []BlockID
	seenForward := map[BlockID]bool{}
	for _, s := range st.edges[entry] {
		if mode, id, ok := classifyBackward(s, loops); ok {
			branches[s] = Branch{Mode: mode, LoopID: id}
			continue
		}
		if !seenForward[s] {
			seenForward[s] = true
			forward = append(forward, s)
		}
	}

	simple := &Simple{Label: entry, Branches: branches}
	switch len(forward) {
	case 0:
		// no forward successors: nothing more to thread.
	case 1:
		branches[forward[0]] = Branch{Mode: MergedBranch}
		simple.Next = st.process(rest, forward, loops)
	default:
		for _, s := range forward {
			branches[s] = Branch{Mode: SetLabelAndBreak}
		}
		simple.Immediate = st.process(rest, forward, loops)
	}
	return simple
}

// classifyBackward checks whether successor s is the header of, or exits,
// some enclosing loop. Innermost loop frames are checked first.
func classifyBackward(s BlockID, loops []loopFrame) (BranchMode, uint16, bool) {
	for i := len(loops) - 1; i >= 0; i-- {
		f := loops[i]
		if s == f.header {
			return LoopContinue, f.id, true
		}
		if !f.body[s] {
			return LoopBreak, f.id, true
		}
	}
	return 0, 0, false
}

func (st *state) processMultiple(remaining map[BlockID]bool, entries []BlockID, loops []loopFrame) Shape {
	entrySet := map[BlockID]bool{}
	for _, e := range entries {
		entrySet[e] = true
	}

	reach := map[BlockID]map[BlockID]bool{}
	for _, e := range entries {
		barrier := map[BlockID]bool{}
		for _, o := range entries {
			if o != e {
				barrier[o] = true
			}
		}
		reach[e] = reachableWithBarrier(st.edges, remaining, e, barrier)
	}

	count := map[BlockID]int{}
	for _, e := range entries {
		for b := range reach[e] {
			count[b]++
		}
	}

	owned := map[BlockID]map[BlockID]bool{}
	claimed := map[BlockID]bool{}
	for _, e := range entries {
		set := map[BlockID]bool{}
		for b := range reach[e] {
			if count[b] == 1 {
				set[b] = true
				claimed[b] = true
			}
		}
		owned[e] = set
	}

	shared := map[BlockID]bool{}
	for b := range remaining {
		if !claimed[b] {
			shared[b] = true
		}
	}

	var nextEntries []BlockID
	seen := map[BlockID]bool{}
	for b := range remaining {
		if !claimed[b] {
			continue
		}
		for _, s := range st.edges[b] {
			if shared[s] && !seen[s] {
				seen[s] = true
				nextEntries = append(nextEntries, s)
			}
		}
	}
	sort.Slice(nextEntries, func(i, j int) bool { return nextEntries[i] < nextEntries[j] })

	sortedEntries := append([]BlockID(nil), entries...)
	sort.Slice(sortedEntries, func(i, j int) bool { return sortedEntries[i] < sortedEntries[j] })

	var handled []HandledBlock
	for _, e := range sortedEntries {
		inner := st.process(owned[e], []BlockID{e}, loops)
		handled = append(handled, HandledBlock{Labels: []BlockID{e}, Inner: inner})
	}

	next := st.process(shared, nextEntries, loops)
	return &Multiple{Handled: handled, Next: next}
}
