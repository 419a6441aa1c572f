package main

import cmd "github.com/shohabby/manga-uploader/cmd/uploader"

func main() {
	cmd.Execute()
}
