// Package frontend turns the source tree's build description into the
// definitions the backend consumes.
//
// Every source directory carries a build.hcl file. The Reader walks them
// starting at topsrcdir, following dirs, parallel_dirs and test_dirs, and
// the Emitter maps each parsed file onto typed Definitions. Both stages are
// lazy: nothing is read until the backend ranges over the final sequence,
// and that sequence can be ranged over only once.
package frontend
