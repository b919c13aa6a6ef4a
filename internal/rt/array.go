package rt

// ArrayKey is an array key: an integer or a string, never both.
type ArrayKey struct {
	S        string
	I        int64
	IsString bool
}

// IntKey makes an integer key.
func IntKey(i int64) ArrayKey { return ArrayKey{I: i} }

// StringKey makes a string key. Numeric-looking strings canonicalize to
// integer keys, matching the language's array semantics.
func StringKey(s string) ArrayKey {
	if kind, l, _, consumed := ParseNumberPrefix(s); kind == IsLong && consumed == len(s) && canonicalIntString(s, l) {
		return ArrayKey{I: l}
	}
	return ArrayKey{S: s, IsString: true}
}

// canonicalIntString reports whether s is exactly the decimal rendering
// of l. Keys like "01" or "+1" stay string keys.
func canonicalIntString(s string, l int64) bool {
	if l == 0 {
		return s == "0"
	}
	i := 0
	if s[0] == '-' {
		i = 1
	}
	if s[i] == '0' {
		return false
	}
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

type arrayEntry struct {
	key     ArrayKey
	val     Value
	deleted bool
}

// arrayData is the shared backing store. shared > 0 means more than one
// Array handle references it and a write must detach first.
type arrayData struct {
	entries []arrayEntry
	index   map[ArrayKey]int
	nextKey int64
	live    int
	shared  bool
}

// Array is an ordered hash map with integer and string keys. Iteration
// follows insertion order. DeepCopy is copy-on-write: the backing store
// is shared until either side writes.
type Array struct {
	data *arrayData
}

// NewArray makes an empty array.
func NewArray() *Array {
	return &Array{data: &arrayData{index: make(map[ArrayKey]int)}}
}

// Len returns the number of live entries.
func (a *Array) Len() int { return a.data.live }

// Get looks a key up.
func (a *Array) Get(k ArrayKey) (Value, bool) {
	i, ok := a.data.index[k]
	if !ok || a.data.entries[i].deleted {
		return Value{}, false
	}
	return a.data.entries[i].val, true
}

// Set inserts or replaces the entry for k. An insert of an integer key
// advances the next-key counter past it.
func (a *Array) Set(k ArrayKey, v Value) {
	d := a.detach()
	if i, ok := d.index[k]; ok && !d.entries[i].deleted {
		d.entries[i].val = v
		return
	}
	d.index[k] = len(d.entries)
	d.entries = append(d.entries, arrayEntry{key: k, val: v})
	d.live++
	if !k.IsString && k.I >= d.nextKey {
		d.nextKey = k.I + 1
	}
}

// Append inserts v under the next integer key.
func (a *Array) Append(v Value) {
	a.Set(IntKey(a.data.nextKey), v)
}

// Delete removes the entry for k. The next-key counter never rewinds.
func (a *Array) Delete(k ArrayKey) {
	d := a.detach()
	if i, ok := d.index[k]; ok && !d.entries[i].deleted {
		d.entries[i].deleted = true
		d.entries[i].val = Value{}
		delete(d.index, k)
		d.live--
	}
}

// ForEach visits live entries in insertion order. Stops early when f
// returns false.
func (a *Array) ForEach(f func(k ArrayKey, v Value) bool) {
	for _, e := range a.data.entries {
		if e.deleted {
			continue
		}
		if !f(e.key, e.val) {
			return
		}
	}
}

// DeepCopy returns a value-semantics copy. The backing store is shared
// until a write on either handle.
func (a *Array) DeepCopy() *Array {
	a.data.shared = true
	return &Array{data: a.data}
}

// detach unshares the backing store before the first write through this
// handle. Element values are deep-copied so nested arrays keep value
// semantics.
func (a *Array) detach() *arrayData {
	d := a.data
	if !d.shared {
		return d
	}
	nd := &arrayData{
		entries: make([]arrayEntry, 0, d.live),
		index:   make(map[ArrayKey]int, d.live),
		nextKey: d.nextKey,
		live:    d.live,
	}
	for _, e := range d.entries {
		if e.deleted {
			continue
		}
		nd.index[e.key] = len(nd.entries)
		nd.entries = append(nd.entries, arrayEntry{key: e.key, val: e.val.DeepCopy()})
	}
	a.data = nd
	return nd
}
