package eviction

// fifo evicts in insertion order and ignores reads.
type fifo struct {
	queue []string
	set   map[string]struct{}
}

func newFIFO() *fifo {
	return &fifo{set: make(map[string]struct{})}
}

func (f *fifo) Touched(string) {}

// Added only records the first insertion; rewrites keep their place.
func (f *fifo) Added(identity string) {
	if _, ok := f.set[identity]; ok {
		return
	}
	f.queue = append(f.queue, identity)
	f.set[identity] = struct{}{}
}

func (f *fifo) Forget(identity string) {
	if _, ok := f.set[identity]; !ok {
		return
	}
	delete(f.set, identity)
	for i, v := range f.queue {
		if v == identity {
			f.queue = append(f.queue[:i], f.queue[i+1:]...)
			break
		}
	}
}

func (f *fifo) Victim() string {
	if len(f.queue) == 0 {
		return ""
	}
	identity := f.queue[0]
	f.queue = f.queue[1:]
	delete(f.set, identity)
	return identity
}
