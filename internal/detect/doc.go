// Package detect defines the beat detection domain: the Event record produced
// by every backend, the Detector interface backends implement, and helpers
// for ordering and measure numbering.
//
// Backends live under internal/services and are selected by configuration;
// this package has no knowledge of how any of them work.
package detect
