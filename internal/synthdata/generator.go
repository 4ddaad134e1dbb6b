// Package synthdata generates synthetic type 2 diabetes patients and
// clinical notes for local testing and seeding. Generation is deterministic
// for a given seed.
package synthdata

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"

	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/entities"
)

var (
	sexes         = []entities.Sex{entities.SexFemale, entities.SexMale}
	smokingStatus = []string{"never", "former", "current"}
	baseDiagnoses = []string{"type 2 diabetes", "hypertension", "dyslipidemia", "obesity", "ckd", "asthma"}
	addOnMeds     = []string{"dpp-4 inhibitor", "sglt2 inhibitor", "glp-1 receptor agonist"}
	bpMeds        = []string{"ace inhibitor", "arb"}
)

// Generator produces synthetic patients and notes from a seeded source.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator with a fixed seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Generate returns n patients with matching clinical notes.
func (g *Generator) Generate(n int) ([]*entities.Patient, []*entities.ClinicalNote) {
	patients := make([]*entities.Patient, 0, n)
	notes := make([]*entities.ClinicalNote, 0, n)
	for i := 1; i <= n; i++ {
		patients = append(patients, g.makePatient(i))
	}
	for _, p := range patients {
		notes = append(notes, &entities.ClinicalNote{
			PatientID: p.ID,
			Note:      g.makeNote(p),
		})
	}
	return patients, notes
}

// triangular samples a triangular distribution on [lo, hi] with the given mode.
func (g *Generator) triangular(lo, hi, mode float64) float64 {
	u := g.rng.Float64()
	c := (mode - lo) / (hi - lo)
	if u < c {
		return lo + math.Sqrt(u*(hi-lo)*(mode-lo))
	}
	return hi - math.Sqrt((1-u)*(hi-lo)*(hi-mode))
}

func (g *Generator) missing(p float64) bool {
	return g.rng.Float64() < p
}

func (g *Generator) makePatient(i int) *entities.Patient {
	pid := fmt.Sprintf("P%04d", i)

	// Ages skew toward middle adulthood.
	age := int(g.triangular(18, 85, 55))
	sex := sexes[g.rng.Intn(len(sexes))]
	hba1c := math.Round(g.triangular(5.8, 12.5, 7.6)*10) / 10
	bmi := math.Round(g.triangular(20, 55, 32)*10) / 10
	egfr := math.Trunc(g.triangular(15, 120, 85))
	uacr := math.Trunc(math.Pow(10, 0.7+g.rng.Float64()*(3.2-0.7)))
	smoking := smokingStatus[g.rng.Intn(len(smokingStatus))]

	// Pregnancy only for women of childbearing age, and rare.
	pregnant := false
	if sex == entities.SexFemale && age >= 18 && age <= 50 {
		pregnant = g.rng.Float64() < 0.06
	}

	diagnoses := []string{"type 2 diabetes"}
	for _, d := range baseDiagnoses {
		if d != "type 2 diabetes" && g.rng.Float64() < 0.35 {
			diagnoses = append(diagnoses, d)
		}
	}

	// A small share of patients turn out to be type 1.
	if g.rng.Float64() < 0.03 {
		diagnoses = []string{"type 1 diabetes"}
	}
	type1 := contains(diagnoses, "type 1 diabetes")

	meds := []string{}
	if !type1 && g.rng.Float64() < 0.78 {
		meds = append(meds, "metformin")
	}
	insulinP := 0.25
	if type1 {
		insulinP = 0.7
	}
	if g.rng.Float64() < insulinP {
		meds = append(meds, "insulin")
	}
	for _, m := range addOnMeds {
		if g.rng.Float64() < 0.22 {
			meds = append(meds, m)
		}
	}
	if contains(diagnoses, "dyslipidemia") && g.rng.Float64() < 0.75 {
		meds = append(meds, "statin")
	}
	if contains(diagnoses, "hypertension") && g.rng.Float64() < 0.6 {
		meds = append(meds, bpMeds[g.rng.Intn(len(bpMeds))])
	}
	meds = dedupeSorted(meds)

	var metforminStable *float64
	if contains(meds, "metformin") {
		v := math.Trunc(g.triangular(1, 36, 10))
		metforminStable = &v
	}

	var recentEvent *float64
	if g.rng.Float64() < 0.08 {
		v := math.Trunc(g.triangular(1, 60, 18))
		recentEvent = &v
	}

	severeRenal := egfr < 30
	dialysis := severeRenal && g.rng.Float64() < 0.05
	kidneyTransplant := g.rng.Float64() < 0.01
	eatingDisorder := g.rng.Float64() < 0.03

	const pMissing = 0.08
	patient := &entities.Patient{
		ID:                     pid,
		Type1Diabetes:          &type1,
		SevereRenalImpairment:  &severeRenal,
		Dialysis:               &dialysis,
		KidneyTransplant:       &kidneyTransplant,
		EatingDisorder:         &eatingDisorder,
		RecentMIOrStrokeMonths: recentEvent,
	}
	if !g.missing(pMissing) {
		patient.AgeYears = &age
	}
	if !g.missing(0.03) {
		patient.Sex = &sex
	}
	if !g.missing(0.02) {
		patient.Diagnoses = diagnoses
	}
	if !g.missing(pMissing) {
		patient.HbA1cPercent = &hba1c
	}
	if !g.missing(pMissing) {
		patient.BMI = &bmi
	}
	if !g.missing(pMissing) {
		patient.EGFR = &egfr
	}
	if !g.missing(0.12) {
		patient.UACRMgG = &uacr
	}
	if !g.missing(0.05) {
		patient.SmokingStatus = &smoking
	}
	if !g.missing(pMissing) {
		patient.Pregnant = &pregnant
	}
	if !g.missing(pMissing) {
		patient.Medications = meds
	}
	if metforminStable != nil && g.missing(0.15) {
		patient.MetforminStableMonths = nil
	} else {
		patient.MetforminStableMonths = metforminStable
	}
	if recentEvent != nil && g.missing(0.2) {
		patient.RecentMIOrStrokeMonths = nil
	}

	return patient
}

// makeNote builds an unstructured note that may omit or soften details the
// structured record carries, to exercise the explanation layer.
func (g *Generator) makeNote(p *entities.Patient) string {
	lines := []string{fmt.Sprintf("Patient %s seen in endocrinology clinic for diabetes follow-up.", p.ID)}

	if p.AgeYears != nil {
		lines = append(lines, fmt.Sprintf("Age: %d years.", *p.AgeYears))
	}
	if p.Sex != nil {
		lines = append(lines, fmt.Sprintf("Sex: %s.", *p.Sex))
	}
	switch {
	case contains(p.Diagnoses, "type 2 diabetes"):
		lines = append(lines, "Diagnosis: Type 2 diabetes mellitus, long-standing.")
	case contains(p.Diagnoses, "type 1 diabetes"):
		lines = append(lines, "Diagnosis: Type 1 diabetes mellitus.")
	default:
		lines = append(lines, "Diabetes type not clearly documented in this note.")
	}

	if p.HbA1cPercent != nil {
		lines = append(lines, fmt.Sprintf("Most recent HbA1c: %.1f%%.", *p.HbA1cPercent))
	} else {
		lines = append(lines, "HbA1c not available in chart today.")
	}
	if p.BMI != nil {
		lines = append(lines, fmt.Sprintf("BMI around %.1f kg/m2.", *p.BMI))
	}
	if p.EGFR != nil {
		lines = append(lines, fmt.Sprintf("Renal function: eGFR %.0f mL/min/1.73m2.", *p.EGFR))
	} else {
		lines = append(lines, "Renal labs pending (eGFR unknown).")
	}

	if len(p.Medications) > 0 {
		lines = append(lines, "Current meds: "+strings.Join(p.Medications, ", ")+".")
	} else {
		lines = append(lines, "Medication list not available in this note.")
	}

	switch {
	case p.Pregnant != nil && *p.Pregnant:
		lines = append(lines, "Pregnancy: currently pregnant; needs OB coordination.")
	case p.Pregnant != nil && p.Sex != nil && *p.Sex == entities.SexFemale &&
		p.AgeYears != nil && *p.AgeYears >= 18 && *p.AgeYears <= 50:
		if g.rng.Float64() < 0.15 {
			lines = append(lines, "Pregnancy status: not discussed today.")
		} else {
			lines = append(lines, "Pregnancy: denies pregnancy.")
		}
	default:
		if g.rng.Float64() < 0.1 {
			lines = append(lines, "Pregnancy status unknown.")
		}
	}

	if contains(p.Diagnoses, "hypertension") {
		lines = append(lines, "Comorbidity: hypertension (controlled).")
	}
	if contains(p.Diagnoses, "dyslipidemia") {
		lines = append(lines, "Comorbidity: dyslipidemia.")
	}
	if contains(p.Diagnoses, "ckd") {
		lines = append(lines, "Comorbidity: CKD noted (stage unspecified).")
	}

	if p.RecentMIOrStrokeMonths != nil {
		lines = append(lines, fmt.Sprintf("History: MI/stroke about %.0f months ago.", *p.RecentMIOrStrokeMonths))
	}

	return strings.Join(lines, " ")
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func dedupeSorted(in []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
