package journal

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/didi/gendry/builder"
)

const runTableName = "scrape_run_tab"

// Run is one recorded batch scrape over a single system.
type Run struct {
	ID        int64
	SystemID  string
	Provider  string
	Processed int
	Created   int
	Skipped   int
	Failed    int
	StartTime int64
	EndTime   int64
	Items     []ItemOutcome
}

// ItemOutcome is the per-file outcome kept in the run's ext_info payload.
type ItemOutcome struct {
	FileName string `json:"fileName"`
	Status   string `json:"status"`
}

type runExtInfo struct {
	Items []ItemOutcome `json:"items,omitempty"`
}

// RecordRun appends one run to the journal and fills in its assigned id.
func (j *Journal) RecordRun(ctx context.Context, run *Run) error {
	extJSON, err := json.Marshal(runExtInfo{Items: run.Items})
	if err != nil {
		return fmt.Errorf("marshal run ext info: %w", err)
	}

	payload := []map[string]interface{}{{
		"system_id":  run.SystemID,
		"provider":   run.Provider,
		"processed":  run.Processed,
		"created":    run.Created,
		"skipped":    run.Skipped,
		"failed":     run.Failed,
		"start_time": run.StartTime,
		"end_time":   run.EndTime,
		"ext_info":   string(extJSON),
	}}
	insertSQL, insertArgs, err := builder.BuildInsert(runTableName, payload)
	if err != nil {
		return err
	}

	res, err := j.db.ExecContext(ctx, insertSQL, insertArgs...)
	if err != nil {
		return fmt.Errorf("insert scrape run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read scrape run id: %w", err)
	}
	run.ID = id
	return nil
}

// ListRuns returns recorded runs newest first, optionally filtered by system.
// A non-positive limit returns every matching run.
func (j *Journal) ListRuns(ctx context.Context, systemID string, limit int) ([]Run, error) {
	where := map[string]interface{}{
		"_orderby": "id desc",
	}
	if systemID != "" {
		where["system_id"] = systemID
	}
	if limit > 0 {
		where["_limit"] = []uint{uint(limit)}
	}

	selectSQL, args, err := builder.BuildSelect(runTableName, where, []string{
		"id", "system_id", "provider", "processed", "created", "skipped",
		"failed", "start_time", "end_time", "ext_info",
	})
	if err != nil {
		return nil, err
	}

	rows, err := j.db.QueryContext(ctx, selectSQL, args...)
	if err != nil {
		return nil, fmt.Errorf("query scrape runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var extInfo string
		if err := rows.Scan(&run.ID, &run.SystemID, &run.Provider,
			&run.Processed, &run.Created, &run.Skipped, &run.Failed,
			&run.StartTime, &run.EndTime, &extInfo); err != nil {
			return nil, fmt.Errorf("scan scrape run: %w", err)
		}
		var ext runExtInfo
		if err := json.Unmarshal([]byte(extInfo), &ext); err != nil {
			return nil, fmt.Errorf("decode run ext info: %w", err)
		}
		run.Items = ext.Items
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// PurgeBefore deletes runs that finished before the given epoch second and
// reports how many were removed.
func (j *Journal) PurgeBefore(ctx context.Context, endTime int64) (int64, error) {
	where := map[string]interface{}{"end_time <": endTime}
	deleteSQL, args, err := builder.BuildDelete(runTableName, where)
	if err != nil {
		return 0, err
	}
	res, err := j.db.ExecContext(ctx, deleteSQL, args...)
	if err != nil {
		return 0, fmt.Errorf("purge scrape runs: %w", err)
	}
	return res.RowsAffected()
}
