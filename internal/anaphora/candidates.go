// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package anaphora

import (
	"container/list"

	"github.com/pdiddy/req-anaphora/pkg/types"
)

// candidateSet is an insertion-ordered set of spans keyed by lowercased
// span text. Re-inserting a key drops the earlier span and appends the new
// one, so the order reflects the most recent mention of each phrase.
type candidateSet struct {
	order *list.List
	index map[string]*list.Element
}

type candidate struct {
	key  string
	span types.Span
}

func newCandidateSet() *candidateSet {
	return &candidateSet{
		order: list.New(),
		index: make(map[string]*list.Element),
	}
}

// put appends span under key, replacing any earlier span with the same key.
func (c *candidateSet) put(key string, span types.Span) {
	if el, ok := c.index[key]; ok {
		c.order.Remove(el)
	}
	c.index[key] = c.order.PushBack(candidate{key: key, span: span})
}

func (c *candidateSet) len() int { return c.order.Len() }

func (c *candidateSet) spans() []types.Span {
	out := make([]types.Span, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(candidate).span)
	}
	return out
}
