package repository

import "hash/fnv"

// Treap-backed quality index.
//
// Ordering: quality avg DESC, rating count DESC, then item id ASC, so an
// in-order traversal walks the catalog from best-reviewed to worst. The
// index holds every item; availability is filtered at collection time.

type qkey struct {
	avg   float64
	count int
	id    string
}

// ranksBefore reports whether a should appear before b in the
// quality-ordered traversal.
func (a qkey) ranksBefore(b qkey) bool {
	if a.avg != b.avg {
		return a.avg > b.avg
	}
	if a.count != b.count {
		return a.count > b.count
	}
	return a.id < b.id
}

type qnode struct {
	key   qkey
	prio  uint64
	left  *qnode
	right *qnode
}

// idPriority derives a stable heap priority from the item id, keeping the
// index deterministic across runs without a random source.
func idPriority(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}

func qRotateRight(y *qnode) *qnode {
	x := y.left
	y.left = x.right
	x.right = y
	return x
}

func qRotateLeft(x *qnode) *qnode {
	y := x.right
	x.right = y.left
	y.left = x
	return y
}

func qInsert(n *qnode, key qkey) *qnode {
	if n == nil {
		return &qnode{key: key, prio: idPriority(key.id)}
	}
	if key.ranksBefore(n.key) {
		n.left = qInsert(n.left, key)
		if n.left.prio > n.prio {
			n = qRotateRight(n)
		}
	} else {
		n.right = qInsert(n.right, key)
		if n.right.prio > n.prio {
			n = qRotateLeft(n)
		}
	}
	return n
}

func qDelete(n *qnode, key qkey) *qnode {
	if n == nil {
		return nil
	}
	if key == n.key {
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = qRotateRight(n)
			n.right = qDelete(n.right, key)
		} else {
			n = qRotateLeft(n)
			n.left = qDelete(n.left, key)
		}
		return n
	}
	if key.ranksBefore(n.key) {
		n.left = qDelete(n.left, key)
	} else {
		n.right = qDelete(n.right, key)
	}
	return n
}

// qCollect walks in rank order and appends ids accepted by keep, stopping
// at limit.
func qCollect(n *qnode, limit int, keep func(id string) bool, out *[]string) {
	if n == nil || len(*out) >= limit {
		return
	}
	qCollect(n.left, limit, keep, out)
	if len(*out) < limit && keep(n.key.id) {
		*out = append(*out, n.key.id)
	}
	if len(*out) < limit {
		qCollect(n.right, limit, keep, out)
	}
}
