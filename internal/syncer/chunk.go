package syncer

// SplitChunks splits items into consecutive chunks of at most size
// elements, preserving order. A size below one is treated as one.
func SplitChunks[T any](items []T, size int) [][]T {
	if size < 1 {
		size = 1
	}

	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
