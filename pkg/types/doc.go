/*
Package types holds the small set of types shared across relay packages.

  - ExitCode: process exit status computed by the daemon after every loop
    has joined (0 ok, 1 connect failure, 2 pipeline closed).
  - ConnectError: a startup failure on the input or output socket. It is
    always fatal; the daemon never retries, that is left to clients.

	var cerr *types.ConnectError
	if errors.As(err, &cerr) {
		return types.ExitConnect
	}
*/
package types
