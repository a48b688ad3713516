// Package larmerge is a cluster-merging toolkit for liquid-argon TPC reconstruction:
// it takes the small clusters of a first clustering pass and folds them into
// track- and shower-sized objects, never merging across detector volumes it should not.
//
// 🚀 What is larmerge?
//
//	An event-at-a-time library plus a CLI that brings together:
//		• Detector model: hits, views, volume identifiers and extents
//		• Cluster store: creation, merge-and-delete, availability, hit ownership
//		• Geometry: closest/endpoint distances, principal axes, gap compatibility
//		• Association: threshold and best-seed matrices between clusters
//		• Volume veto: overlap-aware or strict cross-volume filtering
//		• Resolution: disjoint merge groups from a directed association matrix
//		• Merge driver: fixed-point merging, growing and extension loops
//		• Consolidation: moving stray hits from short clusters onto long tracks
//		• Near-gap stitching: joining particle-flow objects across the cathode gap
//
// Under the hood, everything is organized under these subpackages:
//
//	detector/     hits, vectors, views and volume identifiers
//	cluster/      Cluster type and thread-safe Store
//	geometry/     distances, PCA (gonum) and volume extents
//	association/  association Matrix and Builder
//	volume/       cross-volume classification and Filter
//	resolve/      seed → group resolution
//	merge/        Driver, variants and the Source contract
//	consolidate/  track consolidation stage
//	pfo/          particle-flow objects and their Store
//	neargap/      near-gap PFO stitching
//	eventio/      YAML event fixtures and results
//	pipeline/     ordered stages over one event
//	config/, logging/, metrics/  YAML configuration, zap loggers, Prometheus collectors
//	cmd/larmerge  cobra CLI
//
// Quick ASCII example:
//
//	    ●●●●   ●●●●            ●●●●
//	    └─ 1 ─┘└─ 2 ─┘         └─ 3 ─┘
//
//	clusters 1 and 2 lie within the merge distance and become one; 3 stays alone.
//
//	go install github.com/larreco/larmerge/cmd/larmerge@latest
package larmerge
