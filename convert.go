package lidarformat

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hupe1980/lidarformat/format"
	"golang.org/x/sync/errgroup"
)

// ConvertJob is one input/output pair for ConvertAll.
type ConvertJob struct {
	Input  string
	Output string
}

// ConvertResult describes a finished conversion.
type ConvertResult struct {
	Points   int
	Format   format.ID
	DataPath string
	// Bytes is the size of the written data file.
	Bytes int64
}

// Convert loads input and saves it to output, inferring the output format
// from its extension.
func (s *Store) Convert(input, output string) (ConvertResult, error) {
	c, err := s.ReadContainer(input)
	if err != nil {
		return ConvertResult{}, err
	}
	if err := s.Save(c, output); err != nil {
		return ConvertResult{}, err
	}

	id, dataPath := format.Infer(output)
	res := ConvertResult{Points: c.Len(), Format: id, DataPath: dataPath}
	if info, err := s.fs.Stat(dataPath); err == nil {
		res.Bytes = info.Size()
	}
	return res, nil
}

// ConvertAll runs the jobs concurrently, at most limit at a time (no limit
// when limit <= 0). It stops starting new jobs after the first failure or
// when ctx is done, and returns the first error. Results are in job order;
// entries of jobs that did not complete are zero.
func (s *Store) ConvertAll(ctx context.Context, jobs []ConvertJob, limit int) ([]ConvertResult, error) {
	start := time.Now()
	results := make([]ConvertResult, len(jobs))
	var failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, job := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := s.Convert(job.Input, job.Output)
			if err != nil {
				failed.Add(1)
				return fmt.Errorf("convert %s to %s: %w", job.Input, job.Output, err)
			}
			results[i] = res
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	s.logger.LogConvert(len(jobs), int(failed.Load()), time.Since(start))
	return results, err
}
