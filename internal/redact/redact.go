package redact

// Redact produces a new tree, structurally identical to the input, in which
// every object key is replaced by its canonical form and every member whose
// canonical key is in set has its entire value replaced by the Marker
// string. Redaction does not recurse under a redacted key: the whole subtree
// is discarded. Arrays are never matched against the set directly; their
// elements are redacted recursively. Scalars are copied unchanged.
//
// The operation is idempotent: redacted subtrees are plain strings, so a
// second pass with the same set returns an equal tree. The input is never
// mutated. Like DiscoverKeys, traversal uses an explicit work stack.
func (s *Sanitizer) Redact(root *Value, set KeySet) *Value {
	if root == nil {
		return nil
	}
	type frame struct {
		src *Value
		dst *Value
	}
	out := new(Value)
	stack := []frame{{src: root, dst: out}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch f.src.Kind {
		case Object:
			f.dst.Kind = Object
			f.dst.Obj = make([]Member, len(f.src.Obj))
			for i, m := range f.src.Obj {
				child := new(Value)
				f.dst.Obj[i] = Member{Key: s.Sanitize(m.Key), Value: child}
				if set.Has(f.dst.Obj[i].Key) {
					child.Kind = String
					child.Str = Marker
					continue
				}
				if m.Value != nil {
					stack = append(stack, frame{src: m.Value, dst: child})
				}
			}
		case Array:
			f.dst.Kind = Array
			f.dst.Arr = make([]*Value, len(f.src.Arr))
			for i, el := range f.src.Arr {
				child := new(Value)
				f.dst.Arr[i] = child
				if el != nil {
					stack = append(stack, frame{src: el, dst: child})
				}
			}
		default:
			*f.dst = *f.src
		}
	}
	return out
}
