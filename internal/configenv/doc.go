// Package configenv models the results of a configure run: the source and
// object roots, the preprocessor defines and the substitution variables
// that the backend consumes when it regenerates build files.
//
// Configure records its results in an HCL file (config.status.hcl by
// default); LoadResults reads it back and Save writes it.
package configenv
