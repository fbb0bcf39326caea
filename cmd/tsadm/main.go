// Command tsadm manages a Tailscale tailnet from the command line. It is a
// thin wrapper around the tailscale client library, mainly useful as a
// worked example of configuring credentials and token persistence.
package main

func main() {
	Execute()
}
