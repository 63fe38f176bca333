package main

import (
	"encoding/json"
	"fmt"
	"os"
)

func readSeed(path string) ([]seedItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var records []seedItem
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return records, nil
}
