// Package pointindex implements a dynamic bounding-box tree for 2D and 3D
// point sets, with range, radius and k-nearest-neighbor queries that can be
// issued concurrently from many goroutines during a simulation step.
//
// Basic usage:
//
//	cfg := pointindex.DefaultConfig()
//	cfg.Dims = 2
//	ix, err := pointindex.BulkLoad([]pointindex.Entry{
//		{ID: 1, Point: pointindex.P2(0, 0)},
//		{ID: 2, Point: pointindex.P2(1, 0)},
//	}, cfg)
//	neighbors, err := ix.Within(pointindex.P2(0, 0), 1.5)
//	// neighbors[i].ID, neighbors[i].Distance, ordered by distance then ID
//
// Mutations (Insert, Remove, Move, Reload) take the index's write lock, so
// no query ever observes a partially updated tree. Queries take the read
// lock and may run in parallel with each other.
//
// # Batch queries
//
// BatchWithin, BatchNearest and BatchSelect split their inputs across
// Config.Workers goroutines under a single read lock. Results are returned
// in input order regardless of scheduling:
//
//	sets, err := ix.BatchWithin(centers, h)
//	// sets[i] holds the neighbors of centers[i]
//
// # Errors
//
// Caller mistakes are reported as ErrInvalidGeometry or
// ErrDuplicateIdentifier before any state is modified. ErrStructuralFault
// means the tree itself is broken; rebuild it from Entries with BulkLoad.
package pointindex
