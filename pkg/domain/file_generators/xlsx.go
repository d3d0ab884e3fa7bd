package file_generators

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ripixel/fitplan-server/pkg/types"
)

// Workbook sheet names. Weekly sheets are named "Week N".
const (
	SheetOverview  = "Overview"
	SheetNutrition = "Nutrition"
	SheetHabits    = "Habits"
)

var weekHeaders = []interface{}{"Day", "Session", "Focus", "Exercise", "Category", "Sets", "Reps", "Rest", "RPE", "%1RM", "Target", "Notes"}

var mealHeaders = []interface{}{"Meal", "Name", "Calories", "Protein", "Carbs", "Fat", "Prep", "Ingredients"}

// WeekSheetName is the sheet holding a week's sessions.
func WeekSheetName(week int) string {
	return fmt.Sprintf("Week %d", week)
}

// GenerateProgramWorkbook renders a program as an XLSX workbook: an
// overview with the phase layout, one sheet per week, nutrition and habits.
func GenerateProgramWorkbook(p *types.Program) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("program cannot be nil")
	}

	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#2F5597"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetOverview); err != nil {
		return nil, err
	}
	if err := writeOverview(f, p, header); err != nil {
		return nil, fmt.Errorf("overview sheet: %w", err)
	}
	for _, w := range p.Weeks {
		if err := writeWeek(f, w, header); err != nil {
			return nil, fmt.Errorf("week %d sheet: %w", w.WeekNumber, err)
		}
	}
	if p.Nutrition != nil {
		if err := writeNutrition(f, p.Nutrition, header); err != nil {
			return nil, fmt.Errorf("nutrition sheet: %w", err)
		}
	}
	if len(p.Habits) > 0 {
		if err := writeHabits(f, p.Habits, header); err != nil {
			return nil, fmt.Errorf("habits sheet: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeOverview(f *excelize.File, p *types.Program, header int) error {
	sheet := SheetOverview
	rows := [][]interface{}{
		{"Program", p.Name},
		{"Goal", p.Goal},
		{"Discipline", p.Discipline},
		{"Start", p.StartDate.Format("2006-01-02")},
		{"Weeks", p.DurationWeeks},
		{"Days per week", p.DaysPerWeek},
		{"Strategy", p.Strategy},
		{"Rationale", p.Rationale},
	}
	for i, row := range rows {
		if err := setRow(f, sheet, 1, i+1, row); err != nil {
			return err
		}
	}

	row := len(rows) + 2
	if err := setRow(f, sheet, 1, row, []interface{}{"Phase", "Weeks", "Intensity %", "RPE"}); err != nil {
		return err
	}
	if err := styleRow(f, sheet, row, 4, header); err != nil {
		return err
	}
	for _, ph := range p.Periodization.Phases {
		row++
		intensity := ""
		if len(ph.IntensityRange) == 2 {
			intensity = fmt.Sprintf("%g-%g", ph.IntensityRange[0], ph.IntensityRange[1])
		}
		if err := setRow(f, sheet, 1, row, []interface{}{string(ph.Name), fmt.Sprintf("%d-%d", ph.StartWeek, ph.EndWeek), intensity, ph.RPETarget}); err != nil {
			return err
		}
	}

	f.SetColWidth(sheet, "A", "A", 18)
	f.SetColWidth(sheet, "B", "B", 40)
	return nil
}

func writeWeek(f *excelize.File, w types.WeeklyTemplate, header int) error {
	sheet := WeekSheetName(w.WeekNumber)
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	title := sheet
	if w.DeloadWeek {
		title += " (Deload)"
	}
	if err := f.SetCellValue(sheet, "A1", title); err != nil {
		return err
	}
	if len(w.RestDays) > 0 {
		if err := f.SetCellValue(sheet, "D1", "Rest: "+strings.Join(w.RestDays, ", ")); err != nil {
			return err
		}
	}
	if err := setRow(f, sheet, 1, 2, weekHeaders); err != nil {
		return err
	}
	if err := styleRow(f, sheet, 2, len(weekHeaders), header); err != nil {
		return err
	}

	row := 3
	for _, day := range w.TrainingDays {
		for _, ex := range day.Exercises {
			if err := setRow(f, sheet, 1, row, []interface{}{
				day.DayOfWeek, day.Title, day.Focus,
				ex.Name, string(ex.Category), ex.Sets, ex.Reps, ex.Rest,
				optional(ex.RPE), optional(ex.PercentageOfMax), optional(ex.TargetWeight), ex.Notes,
			}); err != nil {
				return err
			}
			row++
		}
	}

	f.SetColWidth(sheet, "A", "C", 14)
	f.SetColWidth(sheet, "D", "D", 28)
	f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      2,
		TopLeftCell: "A3",
		ActivePane:  "bottomLeft",
	})
	return nil
}

func writeNutrition(f *excelize.File, n *types.NutritionPlan, header int) error {
	sheet := SheetNutrition
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	summary := [][]interface{}{
		{"Calories", n.CalorieTarget},
		{"Protein (g)", n.Macros.Protein},
		{"Carbs (g)", n.Macros.Carbs},
		{"Fat (g)", n.Macros.Fat},
	}
	for i, row := range summary {
		if err := setRow(f, sheet, 1, i+1, row); err != nil {
			return err
		}
	}

	row := len(summary) + 2
	if err := setRow(f, sheet, 1, row, mealHeaders); err != nil {
		return err
	}
	if err := styleRow(f, sheet, row, len(mealHeaders), header); err != nil {
		return err
	}
	for _, slot := range types.MealSlots {
		m := n.MealPlan.Slot(slot)
		if m == nil {
			continue
		}
		row++
		if err := setRow(f, sheet, 1, row, []interface{}{
			string(slot), m.Name, m.Calories, m.Protein, m.Carbs, m.Fat, m.PrepTime, strings.Join(m.Ingredients, ", "),
		}); err != nil {
			return err
		}
	}
	f.SetColWidth(sheet, "A", "B", 22)
	return nil
}

func writeHabits(f *excelize.File, habits []types.Habit, header int) error {
	sheet := SheetHabits
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := setRow(f, sheet, 1, 1, []interface{}{"Habit", "Target", "Frequency"}); err != nil {
		return err
	}
	if err := styleRow(f, sheet, 1, 3, header); err != nil {
		return err
	}
	for i, h := range habits {
		if err := setRow(f, sheet, 1, i+2, []interface{}{h.Name, h.Target, h.Frequency}); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, col, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func styleRow(f *excelize.File, sheet string, row, cols, style int) error {
	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(cols, row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, first, last, style)
}

func optional(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
