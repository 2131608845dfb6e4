package main

import "os"

func readROM(path string) ([]byte, error) {
	return os.ReadFile(path)
}
