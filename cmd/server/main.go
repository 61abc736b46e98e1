package main

import "github.com/conectados420/storefront/cmd/server/cmd"

func main() {
	cmd.Execute()
}
