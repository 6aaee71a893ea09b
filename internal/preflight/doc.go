// Package preflight provides readiness checks for the binaries and
// filesystem paths an export depends on.
//
// These checks run in two contexts:
//   - The render pipeline's validating phase checks the output directory
//     before any process spawns, so a doomed export fails immediately.
//   - The CLI "mixdown config check" command uses the individual check
//     functions to display environment health.
package preflight
