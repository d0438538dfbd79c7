// Package ordering keeps sibling rows in a unique integer order.
package ordering

import "sort"

// NextAvailableOrder returns the smallest non-negative integer not in existing.
func NextAvailableOrder(existing []int) int {
	used := make(map[int]struct{}, len(existing))
	for _, v := range existing {
		used[v] = struct{}{}
	}
	next := 0
	for {
		if _, ok := used[next]; !ok {
			return next
		}
		next++
	}
}

// FindDuplicates returns each value that appears more than once, ascending.
func FindDuplicates(orders []int) []int {
	seen := make(map[int]int, len(orders))
	for _, v := range orders {
		seen[v]++
	}
	var dups []int
	for v, n := range seen {
		if n > 1 {
			dups = append(dups, v)
		}
	}
	sort.Ints(dups)
	return dups
}

func Contiguous(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
