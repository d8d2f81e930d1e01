// Package analysis measures how the fixed-step schemes behave.
//
//   - [LocalError] and [GlobalError]: distance from a known exact solution
//   - [ObservedOrder]: convergence study over successive step halvings
//   - [NewPhasePortrait]: 2D phase space view of a sampled trajectory
//
// A scheme of order p has local error O(dt^(p+1)) and global error O(dt^p),
// so halving dt should divide the error by roughly 2^(p+1) or 2^p:
//
//	study, err := analysis.ObservedOrder(stepper, f, 0, y0, 0.1, 3, exact, analysis.Local)
//	fmt.Println(study[len(study)-1].Order)
package analysis
