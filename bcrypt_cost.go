//go:build !race

package eventsync

func passwordHashCost() int {
	return 14
}
