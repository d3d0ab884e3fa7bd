package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/muktihari/fit/decoder"
	"github.com/muktihari/fit/profile/mesgdef"
	"github.com/muktihari/fit/profile/typedef"
	"github.com/muktihari/fit/proto"
)

func main() {
	inputPath := flag.String("input", "", "Path to FIT workout file")
	verbose := flag.Bool("detailed-dump", false, "Print every field of every message")
	flag.Parse()

	if *inputPath == "" {
		fmt.Println("Please provide input file with -input")
		os.Exit(1)
	}

	data, err := os.ReadFile(*inputPath)
	if err != nil {
		fmt.Printf("Failed to read file: %v\n", err)
		os.Exit(1)
	}

	fitDec := decoder.New(bytes.NewReader(data))
	fitData, err := fitDec.Decode()
	if err != nil {
		fmt.Printf("Failed to decode FIT file: %v\n", err)
		os.Exit(1)
	}

	var steps []*mesgdef.WorkoutStep
	for i := range fitData.Messages {
		msg := &fitData.Messages[i]
		if *verbose {
			dump(msg)
		}
		switch msg.Num {
		case typedef.MesgNumFileId:
			fid := mesgdef.NewFileId(msg)
			fmt.Printf("File type: %v, created %s\n", fid.Type, fid.TimeCreated.Format("2006-01-02 15:04"))
		case typedef.MesgNumWorkout:
			wkt := mesgdef.NewWorkout(msg)
			fmt.Printf("Workout: %q (%v), %d steps\n", wkt.WktName, wkt.Sport, wkt.NumValidSteps)
		case typedef.MesgNumWorkoutStep:
			steps = append(steps, mesgdef.NewWorkoutStep(msg))
		}
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "#\tStep\tIntensity\tDuration\tCategory\tNotes")
	fmt.Fprintln(w, "-\t----\t---------\t--------\t--------\t-----")
	for _, s := range steps {
		fmt.Fprintf(w, "%d\t%s\t%v\t%s\t%v\t%s\n",
			s.MessageIndex, stepName(s), s.Intensity, duration(s), s.ExerciseCategory, s.Notes)
	}
	w.Flush()
}

func stepName(s *mesgdef.WorkoutStep) string {
	if s.DurationType == typedef.WktStepDurationRepeatUntilStepsCmplt {
		return fmt.Sprintf("repeat from #%d", s.DurationValue)
	}
	return s.WktStepName
}

func duration(s *mesgdef.WorkoutStep) string {
	switch s.DurationType {
	case typedef.WktStepDurationReps:
		return fmt.Sprintf("%d reps", s.DurationValue)
	case typedef.WktStepDurationTime:
		return fmt.Sprintf("%ds", s.DurationValue/1000)
	case typedef.WktStepDurationRepeatUntilStepsCmplt:
		return fmt.Sprintf("x%d", s.TargetValue)
	default:
		return "open"
	}
}

func dump(msg *proto.Message) {
	for _, field := range msg.Fields {
		fmt.Printf("Mesg %v: %q (Num: %d) = %v\n", msg.Num, field.Name, field.Num, field.Value)
	}
}
