package matcher

// Block is a run of equal runes: a[A:A+Size] == b[B:B+Size].
type Block struct {
	A    int
	B    int
	Size int
}

// sequence computes Ratcliff/Obershelp matching blocks between two rune slices.
// It reproduces the classic "gestalt pattern matching" used by sequence
// matchers: take the longest common contiguous block (earliest in a, then
// earliest in b), then recurse on both sides of it.
type sequence struct {
	a, b []rune
	// b2j maps each rune of b to the ascending positions where it occurs.
	b2j map[rune][]int
}

// popularMinLen is the length of b from which very frequent runes stop being
// used as match anchors.
const popularMinLen = 200

func newSequence(a, b []rune) *sequence {
	s := &sequence{a: a, b: b, b2j: make(map[rune][]int)}
	for j, r := range b {
		s.b2j[r] = append(s.b2j[r], j)
	}

	n := len(b)
	if n >= popularMinLen {
		ntest := n/100 + 1
		for r, idxs := range s.b2j {
			if len(idxs) > ntest {
				delete(s.b2j, r)
			}
		}
	}
	return s
}

// longest finds the longest matching block in a[alo:ahi] and b[blo:bhi].
func (s *sequence) longest(alo, ahi, blo, bhi int) Block {
	besti, bestj, bestsize := alo, blo, 0

	j2len := map[int]int{}
	for i := alo; i < ahi; i++ {
		next := map[int]int{}
		for _, j := range s.b2j[s.a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = next
	}

	// Popular runes are absent from b2j; grow the block over them.
	for besti > alo && bestj > blo && s.a[besti-1] == s.b[bestj-1] {
		besti, bestj, bestsize = besti-1, bestj-1, bestsize+1
	}
	for besti+bestsize < ahi && bestj+bestsize < bhi && s.a[besti+bestsize] == s.b[bestj+bestsize] {
		bestsize++
	}

	return Block{A: besti, B: bestj, Size: bestsize}
}

// blocks returns every matching block, in no particular order.
func (s *sequence) blocks() []Block {
	type span struct{ alo, ahi, blo, bhi int }

	var out []Block
	queue := []span{{0, len(s.a), 0, len(s.b)}}
	for len(queue) > 0 {
		q := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		m := s.longest(q.alo, q.ahi, q.blo, q.bhi)
		if m.Size == 0 {
			continue
		}
		out = append(out, m)
		if q.alo < m.A && q.blo < m.B {
			queue = append(queue, span{q.alo, m.A, q.blo, m.B})
		}
		if m.A+m.Size < q.ahi && m.B+m.Size < q.bhi {
			queue = append(queue, span{m.A + m.Size, q.ahi, m.B + m.Size, q.bhi})
		}
	}
	return out
}

// ratio is 2*M/T where M is the number of matched runes and T the total length.
func (s *sequence) ratio() float64 {
	total := len(s.a) + len(s.b)
	if total == 0 {
		return 1.0
	}
	matched := 0
	for _, m := range s.blocks() {
		matched += m.Size
	}
	return 2.0 * float64(matched) / float64(total)
}
