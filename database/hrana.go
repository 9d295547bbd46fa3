package database

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rpupo63/consulting-site-backend/errs"
)

// A minimal client for the libSQL "Hrana over HTTP" v2 pipeline endpoint.
// Each call sends one pipeline without a baton, so every call runs on a fresh
// stream and nothing is held open between calls.

const timestampLayout = "2006-01-02 15:04:05.999999999-07:00"

type hranaValue struct {
	Type   string          `json:"type"`
	Value  json.RawMessage `json:"value,omitempty"`
	Base64 string          `json:"base64,omitempty"`
}

type hranaStmt struct {
	SQL      string       `json:"sql"`
	Args     []hranaValue `json:"args,omitempty"`
	WantRows bool         `json:"want_rows"`
}

type hranaCondition struct {
	Type  string           `json:"type"`
	Step  *int             `json:"step,omitempty"`
	Cond  *hranaCondition  `json:"cond,omitempty"`
	Conds []hranaCondition `json:"conds,omitempty"`
}

type hranaBatchStep struct {
	Condition *hranaCondition `json:"condition,omitempty"`
	Stmt      hranaStmt       `json:"stmt"`
}

type hranaBatch struct {
	Steps []hranaBatchStep `json:"steps"`
}

type hranaRequest struct {
	Type  string      `json:"type"`
	Stmt  *hranaStmt  `json:"stmt,omitempty"`
	Batch *hranaBatch `json:"batch,omitempty"`
}

type hranaPipelineRequest struct {
	Baton    *string        `json:"baton"`
	Requests []hranaRequest `json:"requests"`
}

type hranaCol struct {
	Name     *string `json:"name"`
	Decltype *string `json:"decltype,omitempty"`
}

type hranaStmtResult struct {
	Cols             []hranaCol     `json:"cols"`
	Rows             [][]hranaValue `json:"rows"`
	AffectedRowCount int64          `json:"affected_row_count"`
}

type hranaError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (e *hranaError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

type hranaBatchResult struct {
	StepResults []*hranaStmtResult `json:"step_results"`
	StepErrors  []*hranaError      `json:"step_errors"`
}

type hranaResponse struct {
	Type   string          `json:"type"`
	Result json.RawMessage `json:"result,omitempty"`
}

type hranaStreamResult struct {
	Type     string         `json:"type"`
	Response *hranaResponse `json:"response,omitempty"`
	Error    *hranaError    `json:"error,omitempty"`
}

type hranaPipelineResponse struct {
	Baton   *string             `json:"baton"`
	Results []hranaStreamResult `json:"results"`
}

type hranaClient struct {
	endpoint string
	token    string
	http     *http.Client
}

func newHranaClient(url, token string, httpClient *http.Client) *hranaClient {
	url = strings.TrimRight(url, "/")
	if rest, ok := strings.CutPrefix(url, "libsql://"); ok {
		url = "https://" + rest
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &hranaClient{endpoint: url + "/v2/pipeline", token: token, http: httpClient}
}

func stmt(sql string, args ...any) hranaStmt {
	values := make([]hranaValue, 0, len(args))
	for _, arg := range args {
		values = append(values, encodeValue(arg))
	}
	return hranaStmt{SQL: sql, Args: values, WantRows: true}
}

func encodeValue(v any) hranaValue {
	switch v := v.(type) {
	case nil:
		return hranaValue{Type: "null"}
	case *string:
		if v == nil {
			return hranaValue{Type: "null"}
		}
		return encodeValue(*v)
	case *time.Time:
		if v == nil {
			return hranaValue{Type: "null"}
		}
		return encodeValue(*v)
	case string:
		raw, _ := json.Marshal(v)
		return hranaValue{Type: "text", Value: raw}
	case time.Time:
		return encodeValue(v.UTC().Format(timestampLayout))
	case bool:
		if v {
			return encodeValue(int64(1))
		}
		return encodeValue(int64(0))
	case int:
		return encodeValue(int64(v))
	case int64:
		raw, _ := json.Marshal(strconv.FormatInt(v, 10))
		return hranaValue{Type: "integer", Value: raw}
	case float64:
		raw, _ := json.Marshal(v)
		return hranaValue{Type: "float", Value: raw}
	case []byte:
		return hranaValue{Type: "blob", Base64: base64.StdEncoding.EncodeToString(v)}
	}
	return encodeValue(fmt.Sprint(v))
}

func decodeValue(v hranaValue) (any, error) {
	switch v.Type {
	case "null", "":
		return nil, nil
	case "integer":
		var s string
		if err := json.Unmarshal(v.Value, &s); err != nil {
			return nil, fmt.Errorf("decoding integer: %w", err)
		}
		return strconv.ParseInt(s, 10, 64)
	case "float":
		var f float64
		if err := json.Unmarshal(v.Value, &f); err != nil {
			return nil, fmt.Errorf("decoding float: %w", err)
		}
		return f, nil
	case "text":
		var s string
		if err := json.Unmarshal(v.Value, &s); err != nil {
			return nil, fmt.Errorf("decoding text: %w", err)
		}
		return s, nil
	case "blob":
		return base64.StdEncoding.DecodeString(v.Base64)
	}
	return nil, fmt.Errorf("unknown value type %q", v.Type)
}

// execute runs each statement on its own, in order, and returns one result set
// per statement. The first failing statement's error is returned.
func (c *hranaClient) execute(ctx context.Context, stmts ...hranaStmt) ([]*resultSet, error) {
	requests := make([]hranaRequest, 0, len(stmts)+1)
	for i := range stmts {
		requests = append(requests, hranaRequest{Type: "execute", Stmt: &stmts[i]})
	}
	requests = append(requests, hranaRequest{Type: "close"})

	results, err := c.pipeline(ctx, requests)
	if err != nil {
		return nil, err
	}

	sets := make([]*resultSet, 0, len(stmts))
	for i := range stmts {
		res := results[i]
		if res.Error != nil {
			return nil, res.Error
		}
		if res.Type == "error" {
			return nil, &hranaError{Message: fmt.Sprintf("statement %d failed", i)}
		}
		var stmtResult hranaStmtResult
		if res.Response == nil || json.Unmarshal(res.Response.Result, &stmtResult) != nil {
			return nil, fmt.Errorf("malformed execute result for statement %d", i)
		}
		set, err := newResultSet(stmtResult)
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	return sets, nil
}

// transaction runs stmts atomically as one batch: BEGIN, every statement
// conditioned on the previous step, COMMIT, and ROLLBACK unless the commit ran.
// Foreign keys are enabled on the stream first.
func (c *hranaClient) transaction(ctx context.Context, stmts ...hranaStmt) ([]*resultSet, error) {
	steps := make([]hranaBatchStep, 0, len(stmts)+3)
	steps = append(steps, hranaBatchStep{Stmt: hranaStmt{SQL: "BEGIN"}})
	for _, s := range stmts {
		steps = append(steps, hranaBatchStep{Condition: okCondition(len(steps) - 1), Stmt: s})
	}
	commit := len(steps)
	steps = append(steps, hranaBatchStep{Condition: okCondition(commit - 1), Stmt: hranaStmt{SQL: "COMMIT"}})
	steps = append(steps, hranaBatchStep{
		Condition: &hranaCondition{Type: "not", Cond: okCondition(commit)},
		Stmt:      hranaStmt{SQL: "ROLLBACK"},
	})

	pragma := hranaStmt{SQL: "PRAGMA foreign_keys = ON"}
	results, err := c.pipeline(ctx, []hranaRequest{
		{Type: "execute", Stmt: &pragma},
		{Type: "batch", Batch: &hranaBatch{Steps: steps}},
		{Type: "close"},
	})
	if err != nil {
		return nil, err
	}
	if results[0].Error != nil {
		return nil, results[0].Error
	}
	if results[1].Error != nil {
		return nil, results[1].Error
	}

	var batch hranaBatchResult
	if results[1].Response == nil || json.Unmarshal(results[1].Response.Result, &batch) != nil {
		return nil, errors.New("malformed batch result")
	}
	for _, stepErr := range batch.StepErrors {
		if stepErr != nil {
			return nil, stepErr
		}
	}
	if commit >= len(batch.StepResults) || batch.StepResults[commit] == nil {
		return nil, errors.New("transaction did not commit")
	}

	sets := make([]*resultSet, 0, len(stmts))
	for i := range stmts {
		step := batch.StepResults[i+1]
		if step == nil {
			return nil, fmt.Errorf("statement %d did not run", i)
		}
		set, err := newResultSet(*step)
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	return sets, nil
}

func okCondition(step int) *hranaCondition {
	return &hranaCondition{Type: "ok", Step: &step}
}

// pipeline posts the requests and returns one result per request. Transport
// failures and 5xx answers are StorageUnavailable.
func (c *hranaClient) pipeline(ctx context.Context, requests []hranaRequest) ([]hranaStreamResult, error) {
	payload, err := json.Marshal(hranaPipelineRequest{Requests: requests})
	if err != nil {
		return nil, fmt.Errorf("encoding pipeline: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building pipeline request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errs.NewStorageUnavailable("remote database unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.NewStorageUnavailable("reading remote database response", err)
	}
	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, errs.NewStorageUnavailable(fmt.Sprintf("remote database answered %d", resp.StatusCode), errors.New(string(body)))
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("remote database answered %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded hranaPipelineResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decoding pipeline response: %w", err)
	}
	if len(decoded.Results) != len(requests) {
		return nil, fmt.Errorf("pipeline returned %d results for %d requests", len(decoded.Results), len(requests))
	}
	return decoded.Results, nil
}

// resultSet is a decoded statement result addressed by column name.
type resultSet struct {
	columns  map[string]int
	rows     [][]any
	affected int64
}

func newResultSet(r hranaStmtResult) (*resultSet, error) {
	set := &resultSet{columns: make(map[string]int, len(r.Cols)), affected: r.AffectedRowCount}
	for i, col := range r.Cols {
		if col.Name != nil {
			set.columns[*col.Name] = i
		}
	}
	for _, row := range r.Rows {
		values := make([]any, len(row))
		for i, v := range row {
			decoded, err := decodeValue(v)
			if err != nil {
				return nil, err
			}
			values[i] = decoded
		}
		set.rows = append(set.rows, values)
	}
	return set, nil
}

func (s *resultSet) records() []record {
	out := make([]record, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, record{columns: s.columns, values: row})
	}
	return out
}

type record struct {
	columns map[string]int
	values  []any
}

func (r record) value(col string) any {
	i, ok := r.columns[col]
	if !ok || i >= len(r.values) {
		return nil
	}
	return r.values[i]
}

func (r record) str(col string) string {
	switch v := r.value(col).(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func (r record) optStr(col string) *string {
	if r.value(col) == nil {
		return nil
	}
	s := r.str(col)
	return &s
}

func (r record) int(col string) int64 {
	switch v := r.value(col).(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}

func (r record) bool(col string) bool {
	return r.int(col) != 0
}

func (r record) time(col string) time.Time {
	t := r.optTime(col)
	if t == nil {
		return time.Time{}
	}
	return *t
}

func (r record) optTime(col string) *time.Time {
	s := r.str(col)
	if s == "" {
		return nil
	}
	for _, layout := range []string{timestampLayout, time.RFC3339Nano, "2006-01-02 15:04:05.999999999", "2006-01-02T15:04:05.999999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
