// Package backend materializes the build definitions produced by the
// frontend into files in the object directory.
//
// RecursiveMakeBackend writes one backend.mk per source directory and
// performs the autoconf-style substitutions requested by the build files.
// Writes are skipped when the content on disk is already current, and every
// file that does change is recorded in the returned Summary together with a
// unified diff.
package backend
