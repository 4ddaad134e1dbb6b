package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/synthdata"
)

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func main() {
	var n int
	var seed int64
	var outDir string
	flag.IntVar(&n, "n", 80, "number of patients to generate")
	flag.Int64Var(&seed, "seed", 42, "random seed")
	flag.StringVar(&outDir, "out", "data", "output directory")
	flag.Parse()

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	patients, notes := synthdata.NewGenerator(seed).Generate(n)

	patientsPath := filepath.Join(outDir, "patients.json")
	if err := writeJSON(patientsPath, patients); err != nil {
		log.Fatalf("Failed to write patients: %v", err)
	}

	notesPath := filepath.Join(outDir, "clinical_notes.json")
	if err := writeJSON(notesPath, notes); err != nil {
		log.Fatalf("Failed to write notes: %v", err)
	}

	log.Printf("Wrote %d patients to %s", len(patients), patientsPath)
	log.Printf("Wrote %d notes to %s", len(notes), notesPath)
}
