package audit

import (
	"context"
	"encoding/json"
	"io"

	"wardenhq/sentinel/pkg/gerr"
	"wardenhq/sentinel/pkg/store"
)

// ExportNDJSON streams every record matching q to w as newline-delimited
// JSON, one object per line, grounded on
// pkg/evidence/export/json.go's ExportStream channel-draining loop
// (narrowed from a bracketed JSON array to NDJSON per spec.md §6, since a
// pruning export must be appendable and resumable without re-parsing a
// whole array).
func (r *Recorder) ExportNDJSON(ctx context.Context, q store.AuditQuery, w io.Writer) (int, error) {
	recordsCh, errCh := r.store.StreamExport(ctx, q)

	enc := json.NewEncoder(w)
	count := 0
	for {
		select {
		case <-ctx.Done():
			return count, ctx.Err()
		case rec, ok := <-recordsCh:
			if !ok {
				if err := <-errCh; err != nil {
					return count, gerr.New(gerr.CodeInvalidRequest, "export stream failed", nil).Wrap(err)
				}
				return count, nil
			}
			if err := enc.Encode(rec); err != nil {
				return count, gerr.New(gerr.CodeInvalidRequest, "failed to encode audit record", nil).Wrap(err)
			}
			count++
		}
	}
}
