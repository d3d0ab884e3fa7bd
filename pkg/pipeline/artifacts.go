package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	filegen "github.com/ripixel/fitplan-server/pkg/domain/file_generators"
	apperrors "github.com/ripixel/fitplan-server/pkg/errors"
	"github.com/ripixel/fitplan-server/pkg/types"
)

// maxUploads bounds concurrent artifact uploads.
const maxUploads = 4

// exportArtifacts uploads the program workbook and one FIT workout per
// training day of the first week. It returns the objects written; on error
// the list holds whatever completed.
func (p *Pipeline) exportArtifacts(ctx context.Context, prog *types.Program) ([]string, error) {
	type artifact struct {
		name   string
		render func() ([]byte, error)
	}
	artifacts := []artifact{{
		name:   "program.xlsx",
		render: func() ([]byte, error) { return filegen.GenerateProgramWorkbook(prog) },
	}}
	if len(prog.Weeks) > 0 {
		w := prog.Weeks[0]
		for _, day := range w.TrainingDays {
			day := day
			artifacts = append(artifacts, artifact{
				name:   fmt.Sprintf("week%d-%s.fit", w.WeekNumber, day.DayOfWeek),
				render: func() ([]byte, error) { return filegen.GenerateWorkoutFit(day, prog.CreatedAt) },
			})
		}
	}

	written := make([]string, len(artifacts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxUploads)
	for i, a := range artifacts {
		i, a := i, a
		g.Go(func() error {
			data, err := a.render()
			if err != nil {
				return apperrors.ErrArtifactFailed.WithMessage("render " + a.name).WithCause(err)
			}
			object := objectPath(prog, a.name)
			if err := p.store.Write(gctx, p.bucket, object, data); err != nil {
				return err
			}
			written[i] = object
			return nil
		})
	}
	err := g.Wait()

	var out []string
	for _, o := range written {
		if o != "" {
			out = append(out, o)
		}
	}
	p.logger.Info("Artifacts exported", "program_id", prog.ID, "bucket", p.bucket, "objects", len(out))
	return out, err
}
