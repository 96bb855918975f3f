package models

// QACache maps question ids to answer records and remembers insertion
// order, which is the order entries are listed and saved in.
type QACache struct {
	order   []string
	entries map[string]*QACacheEntry
}

// NewQACache returns an empty cache.
func NewQACache() *QACache {
	return &QACache{entries: make(map[string]*QACacheEntry)}
}

// Len returns the number of entries.
func (c *QACache) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// Get returns a copy of the entry for id.
func (c *QACache) Get(id string) (QACacheEntry, bool) {
	if c == nil {
		return QACacheEntry{}, false
	}
	e, ok := c.entries[id]
	if !ok {
		return QACacheEntry{}, false
	}
	return *e, true
}

// Has reports whether id is cached.
func (c *QACache) Has(id string) bool {
	if c == nil {
		return false
	}
	_, ok := c.entries[id]
	return ok
}

// Put inserts or replaces the entry for e.QuestionID. A replaced entry keeps
// its original position.
func (c *QACache) Put(e QACacheEntry) {
	if cur, ok := c.entries[e.QuestionID]; ok {
		*cur = e
		return
	}
	c.order = append(c.order, e.QuestionID)
	entry := e
	c.entries[e.QuestionID] = &entry
}

// SetAnswer updates the answer of an existing entry.
func (c *QACache) SetAnswer(id, answer string) bool {
	e, ok := c.entries[id]
	if !ok {
		return false
	}
	e.Answer = answer
	return true
}

// Keys returns question ids in insertion order.
func (c *QACache) Keys() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Entries returns copies of all entries in insertion order.
func (c *QACache) Entries() []QACacheEntry {
	if c == nil {
		return nil
	}
	out := make([]QACacheEntry, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.entries[id])
	}
	return out
}

// Answered counts entries with a non-empty answer.
func (c *QACache) Answered() int {
	n := 0
	if c == nil {
		return n
	}
	for _, e := range c.entries {
		if e.Answer != "" {
			n++
		}
	}
	return n
}
