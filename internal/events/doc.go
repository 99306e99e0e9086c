// Package events carries queue lifecycle notifications between the encoder
// and its consumers: job started/finished markers and the once-per-drain
// queue-finished event with the accumulated failure list.
package events
