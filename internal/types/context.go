package types

import (
	"sync"
)

// Context owns the bit-index to Ref table that gives TypeRefMasks meaning.
// One context exists per routine; interning is safe for concurrent use.
// The same semantic type always reuses the same bit within one context.
type Context struct {
	mu    sync.Mutex
	refs  []Ref
	index map[string]int

	// Pre-interned primitive masks. Bit positions for these are stable
	// across every context because NewContext interns them first.
	null, boolean, long, double, str TypeRefMask
}

// NewContext creates a context with the primitive types pre-interned.
func NewContext() *Context {
	c := &Context{
		index: make(map[string]int, 16),
	}
	c.null = c.GetTypeMask(PrimRef{Kind: PrimNull})
	c.boolean = c.GetTypeMask(PrimRef{Kind: PrimBool})
	c.long = c.GetTypeMask(PrimRef{Kind: PrimLong})
	c.double = c.GetTypeMask(PrimRef{Kind: PrimDouble})
	c.str = c.GetTypeMask(PrimRef{Kind: PrimString})
	return c
}

// GetTypeMask interns ref and returns its one-bit mask. Once the context
// runs out of bits every new type collapses to AnyType; precision degrades,
// correctness does not.
func (c *Context) GetTypeMask(ref Ref) TypeRefMask {
	key := ref.Key()
	c.mu.Lock()
	defer c.mu.Unlock()
	if i, ok := c.index[key]; ok {
		return bitMask(i)
	}
	if len(c.refs) >= BitsCount {
		return AnyType
	}
	i := len(c.refs)
	c.refs = append(c.refs, ref)
	c.index[key] = i
	return bitMask(i)
}

// GetRef returns the ref interned at bit index i.
func (c *Context) GetRef(i int) (Ref, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.refs) {
		return nil, false
	}
	return c.refs[i], true
}

// Count returns the number of interned types.
func (c *Context) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.refs)
}

// Types enumerates the refs named by mask's type bits.
func (c *Context) Types(mask TypeRefMask) []Ref {
	c.mu.Lock()
	defer c.mu.Unlock()
	if mask.IsAnyType() {
		return nil
	}
	var out []Ref
	for i := range c.refs {
		if mask.HasBit(i) {
			out = append(out, c.refs[i])
		}
	}
	return out
}

// AddToContext re-interns a mask from a foreign context into this one,
// preserving the flag bits. Used when merging type information across
// routine boundaries (e.g. a field initializer's type into a class-wide
// context).
func (c *Context) AddToContext(mask TypeRefMask, src *Context) TypeRefMask {
	if src == c || src == nil {
		return mask
	}
	result := mask & flagsMask
	if mask.IsAnyType() {
		return result
	}
	for i := 0; i < BitsCount; i++ {
		if !mask.HasBit(i) {
			continue
		}
		ref, ok := src.GetRef(i)
		if !ok {
			// A set bit with no ref means the foreign mask is stale;
			// degrade rather than invent a type.
			return result.WithAny()
		}
		result = result.Union(c.GetTypeMask(ref.Transfer(src, c)))
	}
	return result
}

// Primitive mask accessors. Cheap: the masks are computed once in
// NewContext.

func (c *Context) GetNullTypeMask() TypeRefMask   { return c.null }
func (c *Context) GetBoolTypeMask() TypeRefMask   { return c.boolean }
func (c *Context) GetLongTypeMask() TypeRefMask   { return c.long }
func (c *Context) GetDoubleTypeMask() TypeRefMask { return c.double }
func (c *Context) GetStringTypeMask() TypeRefMask { return c.str }

// GetNumberTypeMask is long|double.
func (c *Context) GetNumberTypeMask() TypeRefMask {
	return c.long.Union(c.double)
}

// GetArrayTypeMask returns the mask of an array with unknown element types.
func (c *Context) GetArrayTypeMask() TypeRefMask {
	return c.GetTypeMask(ArrayRef{Elem: AnyType, Key_: ArrayKeyAny})
}

// IsObjectOnly reports whether every type named by mask is an object.
func (c *Context) IsObjectOnly(mask TypeRefMask) bool {
	if mask.IsVoid() || mask.IsAnyType() {
		return false
	}
	for _, ref := range c.Types(mask) {
		if !ref.IsObject() {
			return false
		}
	}
	return true
}

// IsArrayOnly reports whether every type named by mask is an array.
func (c *Context) IsArrayOnly(mask TypeRefMask) bool {
	if mask.IsVoid() || mask.IsAnyType() {
		return false
	}
	for _, ref := range c.Types(mask) {
		if !ref.IsArray() {
			return false
		}
	}
	return true
}
