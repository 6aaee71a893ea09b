// Package envelope provides volume automation math: decibel/linear gain
// conversion and sampling of sparse envelope points into evenly spaced gain
// values for the render stage.
package envelope
