package main

func main() {
	cli := NewViperCLI()

	if err := cli.Execute(); err != nil {
		fatal(err)
	}
}
