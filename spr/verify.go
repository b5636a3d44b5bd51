package spr

import (
	"context"
	"sort"
	"sync"

	"github.com/remeh/sizedwaitgroup"
)

// Failure pairs a sprite id with the reason its record could not be decoded.
type Failure struct {
	ID  uint32
	Err error
}

// Report summarizes a Verify run.
type Report struct {
	Checked  int
	Failures []Failure
}

// Verify decodes every sprite in s using at most workers goroutines and
// reports the records that fail. Cancelling ctx stops scheduling new work;
// the report then covers only the sprites checked so far.
func Verify(ctx context.Context, s *Sprites, workers int) Report {
	if workers < 1 {
		workers = 1
	}
	decoders := sync.Pool{
		New: func() any { return NewDecoder(s) },
	}

	var (
		mu  sync.Mutex
		rep Report
	)
	swg := sizedwaitgroup.New(workers)
	for _, id := range s.IDs() {
		if ctx.Err() != nil {
			break
		}
		if err := swg.AddWithContext(ctx); err != nil {
			break
		}
		go func(id uint32) {
			defer swg.Done()
			d := decoders.Get().(*Decoder)
			_, err := d.Decode(id)
			decoders.Put(d)

			mu.Lock()
			rep.Checked++
			if err != nil {
				rep.Failures = append(rep.Failures, Failure{ID: id, Err: err})
			}
			mu.Unlock()
		}(id)
	}
	swg.Wait()

	sort.Slice(rep.Failures, func(i, j int) bool {
		return rep.Failures[i].ID < rep.Failures[j].ID
	})
	return rep
}
