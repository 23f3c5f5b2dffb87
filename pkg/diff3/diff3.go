// Package diff3 implements a line-level three-way merge. It is the content
// reconciliation layer under tree-level rebasing: when both a rewritten
// ancestor and a descendant edited the same file, their texts meet here.
package diff3

import (
	"bytes"
	"strings"
)

// Result holds the outcome of a three-way merge.
type Result struct {
	Merged       []byte // merged content, with conflict markers if any
	HasConflicts bool
	Conflicts    int // number of conflicted regions
}

// span is a contiguous region of base lines and one side's replacement for
// that region.
type span struct {
	baseStart, baseEnd int
	lines              []string
	changed            bool
}

// Merge performs a three-way merge of base, ours and theirs.
//
//  1. Diff base→ours and base→theirs.
//  2. Convert each diff into spans: runs of unchanged or changed base lines.
//  3. Walk both span sequences aligned on base positions; one-sided changes
//     win, identical changes collapse, double-sided differing changes are
//     emitted as conflict regions with ours/theirs markers.
func Merge(base, ours, theirs []byte) Result {
	baseLines := splitLines(string(base))
	oursSpans := buildSpans(baseLines, splitLines(string(ours)))
	theirsSpans := buildSpans(baseLines, splitLines(string(theirs)))
	return mergeSpans(baseLines, oursSpans, theirsSpans)
}

// splitLines splits s into lines; a trailing newline does not produce an
// extra empty element.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// buildSpans converts a two-way edit script (base → side) into spans over
// base line ranges.
func buildSpans(base, side []string) []span {
	ops := diffLines(base, side)

	var spans []span
	baseIdx := 0
	i := 0
	for i < len(ops) {
		op := ops[i]

		if op.kind == editEqual {
			spans = append(spans, span{
				baseStart: baseIdx,
				baseEnd:   baseIdx + 1,
				lines:     []string{op.line},
			})
			baseIdx++
			i++
			continue
		}

		// Accumulate a contiguous changed region.
		start := baseIdx
		var sideLines []string
		for i < len(ops) && ops[i].kind != editEqual {
			if ops[i].kind == editDelete {
				baseIdx++
			} else {
				sideLines = append(sideLines, ops[i].line)
			}
			i++
		}
		spans = append(spans, span{
			baseStart: start,
			baseEnd:   baseIdx,
			lines:     sideLines,
			changed:   true,
		})
	}
	return spans
}

// mergeSpans walks ours and theirs span sequences in parallel, aligned by
// base positions.
func mergeSpans(baseLines []string, ours, theirs []span) Result {
	var merged bytes.Buffer
	res := Result{}

	oi, ti := 0, 0
	for oi < len(ours) || ti < len(theirs) {
		var os, ts *span
		if oi < len(ours) {
			os = &ours[oi]
		}
		if ti < len(theirs) {
			ts = &theirs[ti]
		}

		// One side exhausted: trailing insertions from the other.
		if os == nil {
			writeLines(&merged, ts.lines)
			ti++
			continue
		}
		if ts == nil {
			writeLines(&merged, os.lines)
			oi++
			continue
		}

		if os.baseStart == ts.baseStart && os.baseEnd == ts.baseEnd {
			// Aligned spans over the same base region.
			switch {
			case !os.changed && !ts.changed:
				writeLines(&merged, os.lines)
			case os.changed && !ts.changed:
				writeLines(&merged, os.lines)
			case !os.changed && ts.changed:
				writeLines(&merged, ts.lines)
			default:
				if linesEqual(os.lines, ts.lines) {
					writeLines(&merged, os.lines)
				} else {
					res.HasConflicts = true
					res.Conflicts++
					writeConflict(&merged, os.lines, ts.lines)
				}
			}
			oi++
			ti++
			continue
		}

		// Misaligned: a change on one side straddles multiple spans on the
		// other. Collect every span overlapping the combined region and
		// resolve the region as a whole.
		regionEnd := maxInt(os.baseEnd, ts.baseEnd)
		regionStart := minInt(os.baseStart, ts.baseStart)

		var oursRegion, theirsRegion []span
		for oi < len(ours) && ours[oi].baseStart < regionEnd {
			oursRegion = append(oursRegion, ours[oi])
			if ours[oi].baseEnd > regionEnd {
				regionEnd = ours[oi].baseEnd
			}
			oi++
		}
		for ti < len(theirs) && theirs[ti].baseStart < regionEnd {
			theirsRegion = append(theirsRegion, theirs[ti])
			if theirs[ti].baseEnd > regionEnd {
				regionEnd = theirs[ti].baseEnd
			}
			ti++
		}

		oursOut := flattenSpans(oursRegion)
		theirsOut := flattenSpans(theirsRegion)
		oursChanged := anyChanged(oursRegion)
		theirsChanged := anyChanged(theirsRegion)

		switch {
		case !oursChanged && !theirsChanged:
			writeLines(&merged, baseLines[regionStart:regionEnd])
		case oursChanged && !theirsChanged:
			writeLines(&merged, oursOut)
		case !oursChanged && theirsChanged:
			writeLines(&merged, theirsOut)
		default:
			if linesEqual(oursOut, theirsOut) {
				writeLines(&merged, oursOut)
			} else {
				res.HasConflicts = true
				res.Conflicts++
				writeConflict(&merged, oursOut, theirsOut)
			}
		}
	}

	res.Merged = merged.Bytes()
	return res
}

func writeLines(buf *bytes.Buffer, lines []string) {
	for _, l := range lines {
		buf.WriteString(l)
		buf.WriteByte('\n')
	}
}

func writeConflict(buf *bytes.Buffer, ours, theirs []string) {
	buf.WriteString("<<<<<<< ours\n")
	writeLines(buf, ours)
	buf.WriteString("=======\n")
	writeLines(buf, theirs)
	buf.WriteString(">>>>>>> theirs\n")
}

func flattenSpans(spans []span) []string {
	var lines []string
	for _, s := range spans {
		lines = append(lines, s.lines...)
	}
	return lines
}

func anyChanged(spans []span) bool {
	for _, s := range spans {
		if s.changed {
			return true
		}
	}
	return false
}

func linesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
