package eviction

import "container/list"

// lru keeps identities in recency order: front is most recent.
type lru struct {
	order *list.List
	index map[string]*list.Element
}

func newLRU() *lru {
	return &lru{order: list.New(), index: make(map[string]*list.Element)}
}

func (l *lru) Touched(identity string) {
	if el, ok := l.index[identity]; ok {
		l.order.MoveToFront(el)
	}
}

// Added treats a rewrite of a known identity as a use.
func (l *lru) Added(identity string) {
	if el, ok := l.index[identity]; ok {
		l.order.MoveToFront(el)
		return
	}
	l.index[identity] = l.order.PushFront(identity)
}

func (l *lru) Forget(identity string) {
	if el, ok := l.index[identity]; ok {
		l.order.Remove(el)
		delete(l.index, identity)
	}
}

func (l *lru) Victim() string {
	el := l.order.Back()
	if el == nil {
		return ""
	}
	identity := l.order.Remove(el).(string)
	delete(l.index, identity)
	return identity
}
