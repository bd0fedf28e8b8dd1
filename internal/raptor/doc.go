// Package raptor generates the test configuration the raptor browser
// extension loads at startup.
package raptor
