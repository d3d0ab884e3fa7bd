package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ripixel/fitplan-server/pkg/domain/file_generators"
	"github.com/ripixel/fitplan-server/pkg/types"
)

func main() {
	inputFile := flag.String("input", "", "Path to input JSON file (Program)")
	outputDir := flag.String("output", ".", "Directory for the generated files")
	week := flag.Int("week", 1, "Program week to export as FIT workouts")
	workbook := flag.Bool("xlsx", true, "Also write the program workbook")
	flag.Parse()

	if *inputFile == "" {
		flag.Usage()
		os.Exit(1)
	}

	// 1. Read JSON
	data, err := os.ReadFile(*inputFile)
	if err != nil {
		log.Fatalf("Failed to read input file: %v", err)
	}

	// 2. Unmarshal
	var program types.Program
	if err := json.Unmarshal(data, &program); err != nil {
		log.Fatalf("Failed to parse JSON: %v", err)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	// 3. Generate FIT workouts for the requested week
	var tmpl *types.WeeklyTemplate
	for i := range program.Weeks {
		if program.Weeks[i].WeekNumber == *week {
			tmpl = &program.Weeks[i]
			break
		}
	}
	if tmpl == nil {
		log.Fatalf("Program has no week %d", *week)
	}
	for _, day := range tmpl.TrainingDays {
		fitData, err := file_generators.GenerateWorkoutFit(day, time.Now())
		if err != nil {
			log.Fatalf("Failed to generate FIT workout for %s: %v", day.DayOfWeek, err)
		}
		out := filepath.Join(*outputDir, fmt.Sprintf("week%d-%s.fit", *week, strings.ToLower(day.DayOfWeek)))
		if err := os.WriteFile(out, fitData, 0644); err != nil {
			log.Fatalf("Failed to write output file: %v", err)
		}
		fmt.Printf("Wrote %s (%d bytes)\n", out, len(fitData))
	}

	// 4. Workbook
	if *workbook {
		xlsx, err := file_generators.GenerateProgramWorkbook(&program)
		if err != nil {
			log.Fatalf("Failed to generate workbook: %v", err)
		}
		out := filepath.Join(*outputDir, "program.xlsx")
		if err := os.WriteFile(out, xlsx, 0644); err != nil {
			log.Fatalf("Failed to write workbook: %v", err)
		}
		fmt.Printf("Wrote %s (%d bytes)\n", out, len(xlsx))
	}
}
