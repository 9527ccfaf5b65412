package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"werss-client/internal/client/app"
	"werss-client/internal/client/capture"
)

const (
	recordNavigate   = "navigate"
	recordClick      = "click"
	recordInput      = "input"
	recordVisibility = "visibility"
)

var replayKinds = []string{recordNavigate, recordClick, recordInput, recordVisibility}

// replayRecord 录制文件中的一行
type replayRecord struct {
	Type   string           `json:"type"`
	Path   string           `json:"path,omitempty"`
	Target *capture.Element `json:"target,omitempty"`
	Hidden bool             `json:"hidden,omitempty"`

	line int
}

func (r replayRecord) validate() error {
	switch r.Type {
	case recordNavigate:
		if strings.TrimSpace(r.Path) == "" {
			return fmt.Errorf("navigate record without path")
		}
	case recordClick, recordInput:
		if r.Target == nil {
			return fmt.Errorf("%s record without target", r.Type)
		}
	case recordVisibility:
	default:
		return fmt.Errorf("unknown record type %q", r.Type)
	}
	return nil
}

// readReplay 解析 JSON lines 录制，跳过空行与 # 注释
func readReplay(r io.Reader) ([]replayRecord, error) {
	var records []replayRecord
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var rec replayRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		if err := rec.validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		rec.line = n
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read recording: %w", err)
	}
	return records, nil
}

// replay 依次把记录交给客户端，返回各类型计数
func replay(ctx context.Context, a *app.App, records []replayRecord) (map[string]int, error) {
	stats := make(map[string]int, len(replayKinds))
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		switch rec.Type {
		case recordNavigate:
			if _, err := a.Navigate(ctx, rec.Path); err != nil {
				return stats, fmt.Errorf("line %d: navigate %s: %w", rec.line, rec.Path, err)
			}
		case recordClick:
			a.Click(rec.Target)
		case recordInput:
			a.Input(rec.Target)
		case recordVisibility:
			a.SetHidden(rec.Hidden)
		}
		stats[rec.Type]++
	}
	return stats, nil
}
