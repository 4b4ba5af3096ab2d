package protocol

// StallGate decides when to stop sending to a link nobody reads. After
// Limit consecutive failed writes it drops reports, letting one in every
// Reprobe through so a returning host is noticed.
type StallGate struct {
	Limit   uint32
	Reprobe uint32

	failures uint32
	dropped  uint32
}

// Record notes the outcome of one write.
func (g *StallGate) Record(ok bool) {
	if ok {
		g.failures = 0
		g.dropped = 0
		return
	}
	g.failures++
}

func (g *StallGate) Stalled() bool { return g.failures > g.Limit }

// Drop reports whether the next report should be discarded, counting it
// if so.
func (g *StallGate) Drop() bool {
	if !g.Stalled() {
		return false
	}
	g.dropped++
	return g.Reprobe == 0 || g.dropped%g.Reprobe != 0
}
