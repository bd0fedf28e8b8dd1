// Package logging owns the process's log configuration. A Manager is built
// once by the entry point and handed to whatever needs a logger; loggers
// obtained before terminal output is configured are silent until
// AddTerminalLogging is called, after which they follow the chosen level and
// mode.
package logging
