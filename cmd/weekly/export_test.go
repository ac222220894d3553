package main

// ExitCode exposes exitCode to the external test package.
var ExitCode = exitCode
