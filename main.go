/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/studynotion/apiserver/cmd"

func main() {
	cmd.Execute()
}
