// Package eventio reads events from YAML fixtures into cluster and PFO stores and writes
// the reconstructed result back out.
//
// A fixture file holds one YAML document per event:
//
//	event_id: run1-evt7        # optional, a UUID is generated when missing
//	hits:
//	  - id: 1
//	    position: {x: 0.0, y: 0.0, z: 1.5}
//	    energy: 1.0
//	    view: W                # U, V, W, 3D, custom
//	    volume: {tpc: 0, sub: 1}   # omit for untagged hits
//	clusters:
//	  - label: c1
//	    hits: [1, 2, 3]
//	    available: false       # default true
//	pfos:
//	  - label: p1
//	    clusters: [c1]
//	    parent: p0
//	    vertices: [{position: {x: 0, y: 0, z: 0}}]
//
// Labels are optional; generated labels are "c<n>" and "p<n>" by position. Results are
// written as one YAML document per event, in input order.
package eventio
