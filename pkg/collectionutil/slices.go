package collectionutil

// FlattenUnique appends each unique item in each list, in the order in which it first appears.
//
// Examples:
//   - FlattenUnique([]string{"a", "b"}, []string{"c", "b"}) => []string{"a", "b", "c"}
//   - FlattenUnique([]string{"a", "a"}, nil) => []string{"a"}
func FlattenUnique[E comparable](slices ...[]E) []E {
	seen := make(map[E]struct{})

	var result []E
	for _, slice := range slices {
		for _, elem := range slice {
			if _, ok := seen[elem]; ok {
				continue
			}
			seen[elem] = struct{}{}
			result = append(result, elem)
		}
	}
	return result
}
