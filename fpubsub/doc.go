// Package fpubsub contains the multicast state channel:
// a push-fed value container with a live current-value snapshot,
// consumable by any number of independent readers at once.
//
// It fills the same role the single-writer, many-reader pubsub
// pattern usually does in-application, except that readers here
// hold explicit cursors instead of chasing a linked list,
// and the container keeps a synchronously readable current value.
package fpubsub
