// Package cache provides a bounded in-memory LRU cache that is safe for
// concurrent use. Operations are confined to a background goroutine, the same
// ownership style the facade package uses for actor state, so no external
// locking is needed.
package cache

import "container/list"

type entry[V any] struct {
	key string
	val V
}

type getReq[V any] struct {
	key  string
	resp chan getResp[V]
}

type getResp[V any] struct {
	val V
	ok  bool
}

type putReq[V any] struct {
	key string
	val V
}

// LRU is a fixed-size cache with least-recently-used eviction.
type LRU[V any] struct {
	getCh chan getReq[V]
	putCh chan putReq[V]
	delCh chan string
	stop  chan struct{}
}

// NewLRU creates an LRU holding at most size entries. A size <= 0 defaults
// to 128.
func NewLRU[V any](size int) *LRU[V] {
	if size <= 0 {
		size = 128
	}

	l := &LRU[V]{
		getCh: make(chan getReq[V]),
		putCh: make(chan putReq[V]),
		delCh: make(chan string),
		stop:  make(chan struct{}),
	}

	go l.run(size)

	return l
}

// Get returns the cached value for key and promotes it.
func (l *LRU[V]) Get(key string) (V, bool) {
	resp := make(chan getResp[V])
	select {
	case l.getCh <- getReq[V]{key: key, resp: resp}:
		r := <-resp
		return r.val, r.ok
	case <-l.stop:
		var zero V
		return zero, false
	}
}

// Put stores a value, evicting the least recently used entry when full.
func (l *LRU[V]) Put(key string, val V) {
	select {
	case l.putCh <- putReq[V]{key: key, val: val}:
	case <-l.stop:
	}
}

// Delete removes a key.
func (l *LRU[V]) Delete(key string) {
	select {
	case l.delCh <- key:
	case <-l.stop:
	}
}

// Close stops the background goroutine. The cache must not be used after.
func (l *LRU[V]) Close() { close(l.stop) }

func (l *LRU[V]) run(size int) {
	ll := list.New()
	index := make(map[string]*list.Element)

	for {
		select {
		case <-l.stop:
			return
		case req := <-l.getCh:
			if ele, ok := index[req.key]; ok {
				ll.MoveToFront(ele)
				req.resp <- getResp[V]{val: ele.Value.(*entry[V]).val, ok: true}
			} else {
				req.resp <- getResp[V]{}
			}
		case req := <-l.putCh:
			if ele, ok := index[req.key]; ok {
				ll.MoveToFront(ele)
				ele.Value.(*entry[V]).val = req.val
				continue
			}
			index[req.key] = ll.PushFront(&entry[V]{key: req.key, val: req.val})
			if ll.Len() > size {
				if last := ll.Back(); last != nil {
					ll.Remove(last)
					delete(index, last.Value.(*entry[V]).key)
				}
			}
		case key := <-l.delCh:
			if ele, ok := index[key]; ok {
				ll.Remove(ele)
				delete(index, key)
			}
		}
	}
}
