package redact

// DiscoverKeys returns the set of every distinct canonical key appearing
// anywhere in the tree, at any depth. Keys composed entirely of decimal
// digits are excluded: they are array indices in disguise, not field names.
//
// Traversal uses an explicit work stack so adversarially nested uploads
// cannot exhaust the goroutine stack.
func (s *Sanitizer) DiscoverKeys(root *Value) KeySet {
	keys := make(KeySet)
	if root == nil {
		return keys
	}
	stack := []*Value{root}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if v == nil {
			continue
		}
		switch v.Kind {
		case Object:
			for _, m := range v.Obj {
				ck := s.Sanitize(m.Key)
				if !allDigits(ck) {
					keys.Add(ck)
				}
				stack = append(stack, m.Value)
			}
		case Array:
			stack = append(stack, v.Arr...)
		}
	}
	return keys
}
