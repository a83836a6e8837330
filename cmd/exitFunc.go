package cmd

import "os"

// exitFunc terminates the process with the code Execute settles on. Tests
// replace it to observe the code.
var exitFunc = os.Exit
