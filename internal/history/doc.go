// Package history provides the bounded message window kept by each
// conversation session. Once full, every push drops the oldest entry.
package history
