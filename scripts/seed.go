package main

import (
	"context"
	"log"
	"os"

	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/adapters/database"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/adapters/search"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/application/services"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/entities"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/synthdata"
	"github.com/zatekoja/Trialeligibilityscreening/backend/pkg/config"
)

func floatPtr(v float64) *float64 { return &v }

// trialCatalog is a fixed set of plausible type 2 diabetes trials covering
// every criterion kind the engine evaluates.
func trialCatalog() []*entities.Trial {
	return []*entities.Trial{
		{
			ID:         "T2D-001",
			Title:      "Adjunct Therapy for Inadequately Controlled T2D on Metformin",
			Phase:      "Phase 3",
			Conditions: []string{"type 2 diabetes"},
			IsActive:   true,
			Inclusion: entities.CriteriaSet{
				"age_years":       {Kind: entities.CriterionRange, Min: floatPtr(18), Max: floatPtr(75)},
				"hba1c_percent":   {Kind: entities.CriterionRange, Min: floatPtr(7), Max: floatPtr(10)},
				"bmi":             {Kind: entities.CriterionRange, Min: floatPtr(23), Max: floatPtr(45)},
				"diagnoses_any":   {Kind: entities.CriterionSetAny, Terms: []string{"type 2 diabetes"}},
				"medications_all": {Kind: entities.CriterionSetAll, Terms: []string{"metformin"}},
			},
			Exclusion: entities.CriteriaSet{
				"pregnant":       {Kind: entities.CriterionBoolFlag, Flag: true},
				"type1_diabetes": {Kind: entities.CriterionBoolFlag, Flag: true},
				"egfr":           {Kind: entities.CriterionRange, Max: floatPtr(45)},
			},
		},
		{
			ID:         "T2D-002",
			Title:      "Cardiovascular Outcomes of a GLP-1 Receptor Agonist in T2D",
			Phase:      "Phase 3",
			Conditions: []string{"type 2 diabetes", "cardiovascular disease"},
			IsActive:   true,
			Inclusion: entities.CriteriaSet{
				"age_years":     {Kind: entities.CriterionRange, Min: floatPtr(40)},
				"hba1c_percent": {Kind: entities.CriterionRange, Min: floatPtr(6.5), Max: floatPtr(11)},
				"diagnoses_any": {Kind: entities.CriterionSetAny, Terms: []string{"type 2 diabetes"}},
			},
			Exclusion: entities.CriteriaSet{
				"pregnant":                   {Kind: entities.CriterionBoolFlag, Flag: true},
				"type1_diabetes":             {Kind: entities.CriterionBoolFlag, Flag: true},
				"recent_mi_or_stroke_months": {Kind: entities.CriterionEventWindow, Max: floatPtr(6)},
			},
		},
		{
			ID:         "T2D-003",
			Title:      "Renal Protection With SGLT2 Inhibition in Diabetic Kidney Disease",
			Phase:      "Phase 2",
			Conditions: []string{"type 2 diabetes", "chronic kidney disease"},
			IsActive:   true,
			Inclusion: entities.CriteriaSet{
				"age_years":     {Kind: entities.CriterionRange, Min: floatPtr(18)},
				"egfr":          {Kind: entities.CriterionRange, Min: floatPtr(25), Max: floatPtr(75)},
				"uacr_mg_g":     {Kind: entities.CriterionRange, Min: floatPtr(200)},
				"diagnoses_any": {Kind: entities.CriterionSetAny, Terms: []string{"type 2 diabetes"}},
			},
			Exclusion: entities.CriteriaSet{
				"pregnant":          {Kind: entities.CriterionBoolFlag, Flag: true},
				"type1_diabetes":    {Kind: entities.CriterionBoolFlag, Flag: true},
				"dialysis":          {Kind: entities.CriterionBoolFlag, Flag: true},
				"kidney_transplant": {Kind: entities.CriterionBoolFlag, Flag: true},
			},
		},
		{
			ID:         "T2D-004",
			Title:      "Weight Management in T2D With Obesity",
			Phase:      "Phase 2",
			Conditions: []string{"type 2 diabetes", "obesity"},
			IsActive:   true,
			Inclusion: entities.CriteriaSet{
				"age_years":     {Kind: entities.CriterionRange, Min: floatPtr(18), Max: floatPtr(70)},
				"bmi":           {Kind: entities.CriterionRange, Min: floatPtr(30)},
				"hba1c_percent": {Kind: entities.CriterionRange, Min: floatPtr(6.5), Max: floatPtr(10.5)},
				"diagnoses_any": {Kind: entities.CriterionSetAny, Terms: []string{"type 2 diabetes"}},
			},
			Exclusion: entities.CriteriaSet{
				"pregnant":        {Kind: entities.CriterionBoolFlag, Flag: true},
				"eating_disorder": {Kind: entities.CriterionBoolFlag, Flag: true},
			},
		},
		{
			ID:         "T2D-005",
			Title:      "First-Line Monotherapy in Recently Diagnosed T2D",
			Phase:      "Phase 4",
			Conditions: []string{"type 2 diabetes"},
			IsActive:   true,
			Inclusion: entities.CriteriaSet{
				"age_years":     {Kind: entities.CriterionRange, Min: floatPtr(18), Max: floatPtr(80)},
				"hba1c_percent": {Kind: entities.CriterionRange, Min: floatPtr(6.5), Max: floatPtr(9)},
				"diagnoses_any": {Kind: entities.CriterionSetAny, Terms: []string{"type 2 diabetes"}},
			},
			Exclusion: entities.CriteriaSet{
				"pregnant":                {Kind: entities.CriterionBoolFlag, Flag: true},
				"type1_diabetes":          {Kind: entities.CriterionBoolFlag, Flag: true},
				"severe_renal_impairment": {Kind: entities.CriterionBoolFlag, Flag: true},
				"medications_any":         {Kind: entities.CriterionSetAny, Terms: []string{"insulin"}},
			},
		},
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	var searchRepo *search.TypesenseAdapter
	if err == nil {
		searchRepo = search.NewTypesenseAdapter(tsClient)
		searchRepo.InitSchema(context.Background())
	}

	patientRepo := database.NewPatientAdapter(pgClient)
	noteRepo := database.NewNoteAdapter(pgClient)
	trialRepo := database.NewTrialAdapter(pgClient)

	patientService := services.NewPatientService(patientRepo, noteRepo)
	var trialService *services.TrialService
	if searchRepo != nil {
		trialService = services.NewTrialService(trialRepo, searchRepo)
	} else {
		trialService = services.NewTrialService(trialRepo, nil)
	}

	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				clinical_notes,
				patients,
				trials
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
	}

	// 1. Seed trials
	trials := trialCatalog()
	for _, trial := range trials {
		if err := trialService.Create(ctx, trial); err != nil {
			log.Printf("Warning: Failed to seed trial %s: %v", trial.ID, err)
		}
	}
	log.Printf("Seeded %d trials", len(trials))

	// 2. Seed synthetic patients with notes
	patients, notes := synthdata.NewGenerator(42).Generate(80)
	noteByPatient := map[string]*entities.ClinicalNote{}
	for _, note := range notes {
		noteByPatient[note.PatientID] = note
	}

	seeded := 0
	for _, patient := range patients {
		if err := patientService.Create(ctx, patient, noteByPatient[patient.ID]); err != nil {
			log.Printf("Warning: Failed to seed patient %s: %v", patient.ID, err)
			continue
		}
		seeded++
	}
	log.Printf("Seeded %d patients with clinical notes", seeded)

	log.Println("Seeding complete")
}
