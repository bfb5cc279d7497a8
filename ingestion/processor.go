// Copyright 2025 Palletic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingestion

import (
	"context"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/palletic/warevec/core"
	"github.com/palletic/warevec/document"
)

// encodeTimeout bounds a single record's build-and-embed step.
const encodeTimeout = 30 * time.Second

// encodeBatch builds and embeds every record in the batch on the worker
// pool. Failed items are dropped and counted; the returned points keep
// the batch order.
func (p *Pipeline) encodeBatch(ctx context.Context, pool *ants.Pool, batch []core.MaterialRecord) ([]core.IndexedPoint, int) {
	results := make([]*core.IndexedPoint, len(batch))

	var wg sync.WaitGroup
	for i := range batch {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()

			point, err := p.encodeItem(ctx, &batch[i])
			if err != nil {
				p.logger.Warn("skipping material",
					"materialNo", batch[i].MaterialNo, "err", err)
				return
			}
			results[i] = point
		})
		if err != nil {
			// Submission failed, so the task never runs. Count the
			// item as failed and balance the wait group here.
			wg.Done()
			p.logger.Warn("skipping material",
				"materialNo", batch[i].MaterialNo, "err", err)
		}
	}
	wg.Wait()

	points := make([]core.IndexedPoint, 0, len(batch))
	for _, r := range results {
		if r != nil {
			points = append(points, *r)
		}
	}
	return points, len(batch) - len(points)
}

// encodeItem turns one material record into an indexed point.
func (p *Pipeline) encodeItem(ctx context.Context, material *core.MaterialRecord) (*core.IndexedPoint, error) {
	if err := core.ValidateMaterial(material); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, encodeTimeout)
	defer cancel()

	doc := document.Build(material)
	vector, err := p.embedder.EmbedPassage(ctx, doc.Text)
	if err != nil {
		return nil, err
	}

	return &core.IndexedPoint{
		ID:      material.PointID(),
		Vector:  vector,
		Payload: doc.Payload,
	}, nil
}
