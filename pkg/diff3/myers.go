package diff3

// editKind classifies a line in an edit script.
type editKind int

const (
	editEqual editKind = iota
	editInsert
	editDelete
)

type editOp struct {
	kind editKind
	line string
}

// diffLines computes the shortest edit script transforming a into b with the
// Myers algorithm over whole lines. O((N+M)*D) time.
func diffLines(a, b []string) []editOp {
	n, m := len(a), len(b)

	if n == 0 && m == 0 {
		return nil
	}
	if n == 0 {
		ops := make([]editOp, m)
		for i, line := range b {
			ops[i] = editOp{kind: editInsert, line: line}
		}
		return ops
	}
	if m == 0 {
		ops := make([]editOp, n)
		for i, line := range a {
			ops[i] = editOp{kind: editDelete, line: line}
		}
		return ops
	}

	limit := n + m
	size := 2*limit + 1
	v := make([]int, size)

	// trace[d] is a snapshot of v after the d-th step, used for backtracking.
	var trace [][]int

	for d := 0; d <= limit; d++ {
		for k := -d; k <= d; k += 2 {
			idx := k + limit
			var x int
			if k == -d || (k != d && v[idx-1] < v[idx+1]) {
				x = v[idx+1] // down: insert
			} else {
				x = v[idx-1] + 1 // right: delete
			}
			y := x - k

			for x < n && y < m && a[x] == b[y] {
				x++
				y++
			}
			v[idx] = x

			if x >= n && y >= m {
				snap := make([]int, size)
				copy(snap, v)
				trace = append(trace, snap)
				return backtrack(trace, a, b, d)
			}
		}
		snap := make([]int, size)
		copy(snap, v)
		trace = append(trace, snap)
	}
	return nil
}

func backtrack(trace [][]int, a, b []string, dFinal int) []editOp {
	n, m := len(a), len(b)
	limit := n + m
	x, y := n, m

	var ops []editOp
	for d := dFinal; d > 0; d-- {
		k := x - y
		idx := k + limit
		vPrev := trace[d-1]

		var prevK int
		if k == -d || (k != d && vPrev[idx-1] < vPrev[idx+1]) {
			prevK = k + 1
		} else {
			prevK = k - 1
		}
		prevX := vPrev[prevK+limit]
		prevY := prevX - prevK

		for x > prevX && y > prevY {
			x--
			y--
			ops = append(ops, editOp{kind: editEqual, line: a[x]})
		}
		if k == prevK+1 {
			x--
			ops = append(ops, editOp{kind: editDelete, line: a[x]})
		} else {
			y--
			ops = append(ops, editOp{kind: editInsert, line: b[y]})
		}
	}
	for x > 0 && y > 0 {
		x--
		y--
		ops = append(ops, editOp{kind: editEqual, line: a[x]})
	}

	for i, j := 0, len(ops)-1; i < j; i, j = i+1, j-1 {
		ops[i], ops[j] = ops[j], ops[i]
	}
	return ops
}
