package services

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// PointRank is the AI's placement of one bullet point.
type PointRank struct {
	Order int     `json:"order"`
	Score float64 `json:"score"`
}

// ValidatedOrdering is a suggestion that passed every shape and type check.
// Point ids stay strings (they are the keys the provider used) but are
// guaranteed to be non-negative integers.
type ValidatedOrdering struct {
	JobOrder    map[uint]int                  `json:"job_order"`
	PointOrders map[uint]map[string]PointRank `json:"point_orders"`
}

// Empty reports whether either half of the ordering has nothing usable.
func (v ValidatedOrdering) Empty() bool {
	if len(v.JobOrder) == 0 {
		return true
	}
	for _, points := range v.PointOrders {
		if len(points) > 0 {
			return false
		}
	}
	return true
}

// PointCount returns the number of point placements across all jobs.
func (v ValidatedOrdering) PointCount() int {
	n := 0
	for _, points := range v.PointOrders {
		n += len(points)
	}
	return n
}

const maxFragment = 200

// ParseSuggestion extracts the first complete JSON object from a model reply
// and validates it. Any failure rejects the whole reply: the returned ordering
// is then empty and the error is an *AppError of kind MALFORMED_JSON,
// MISSING_FIELD or TYPE_COERCION_FAILURE.
func ParseSuggestion(raw string) (ValidatedOrdering, error) {
	obj, ok := extractJSONObject(stripCodeFence(raw))
	if !ok {
		return ValidatedOrdering{}, parseError(ErrMalformedJSON, "no JSON object found in reply", raw, nil)
	}

	dec := json.NewDecoder(strings.NewReader(obj))
	dec.UseNumber()
	var top map[string]any
	if err := dec.Decode(&top); err != nil {
		return ValidatedOrdering{}, parseError(ErrMalformedJSON, "reply is not valid JSON", obj, err)
	}

	rawJobs, ok := top["job_order"]
	if !ok {
		return ValidatedOrdering{}, parseError(ErrMissingField, "missing job_order", obj, nil)
	}
	rawPoints, ok := top["point_orders"]
	if !ok {
		return ValidatedOrdering{}, parseError(ErrMissingField, "missing point_orders", obj, nil)
	}

	jobOrder, err := parseJobOrder(rawJobs)
	if err != nil {
		return ValidatedOrdering{}, err
	}
	pointOrders, err := parsePointOrders(rawPoints)
	if err != nil {
		return ValidatedOrdering{}, err
	}

	return ValidatedOrdering{JobOrder: jobOrder, PointOrders: pointOrders}, nil
}

func parseJobOrder(v any) (map[uint]int, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, parseError(ErrTypeCoercion, "job_order is not an object", fragmentOf(v), nil)
	}
	out := make(map[uint]int, len(m))
	for key, val := range m {
		id, err := parseID(key)
		if err != nil {
			return nil, parseError(ErrTypeCoercion, "job_order key is not a job id", key, err)
		}
		if _, dup := out[id]; dup {
			return nil, parseError(ErrTypeCoercion, fmt.Sprintf("job_order lists job %d more than once", id), key, nil)
		}
		rank, err := toInt(val)
		if err != nil {
			return nil, parseError(ErrTypeCoercion, fmt.Sprintf("job_order[%s] is not an integer", key), fragmentOf(val), err)
		}
		out[id] = rank
	}
	return out, nil
}

func parsePointOrders(v any) (map[uint]map[string]PointRank, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, parseError(ErrTypeCoercion, "point_orders is not an object", fragmentOf(v), nil)
	}
	out := make(map[uint]map[string]PointRank, len(m))
	for jobKey, jobVal := range m {
		jobID, err := parseID(jobKey)
		if err != nil {
			return nil, parseError(ErrTypeCoercion, "point_orders key is not a job id", jobKey, err)
		}
		if _, dup := out[jobID]; dup {
			return nil, parseError(ErrTypeCoercion, fmt.Sprintf("point_orders lists job %d more than once", jobID), jobKey, nil)
		}
		points, ok := jobVal.(map[string]any)
		if !ok {
			return nil, parseError(ErrTypeCoercion, fmt.Sprintf("point_orders[%s] is not an object", jobKey), fragmentOf(jobVal), nil)
		}
		ranks := make(map[string]PointRank, len(points))
		for pointKey, pointVal := range points {
			pointID, err := parseID(pointKey)
			if err != nil {
				return nil, parseError(ErrTypeCoercion, fmt.Sprintf("point_orders[%s] key is not a point id", jobKey), pointKey, err)
			}
			canonical := strconv.FormatUint(uint64(pointID), 10)
			if _, dup := ranks[canonical]; dup {
				return nil, parseError(ErrTypeCoercion, fmt.Sprintf("point_orders[%s] lists point %d more than once", jobKey, pointID), pointKey, nil)
			}
			rank, err := parsePointRank(jobKey, pointKey, pointVal)
			if err != nil {
				return nil, err
			}
			ranks[canonical] = rank
		}
		out[jobID] = ranks
	}
	return out, nil
}

func parsePointRank(jobKey, pointKey string, v any) (PointRank, error) {
	path := fmt.Sprintf("point_orders[%s][%s]", jobKey, pointKey)
	m, ok := v.(map[string]any)
	if !ok {
		return PointRank{}, parseError(ErrTypeCoercion, path+" is not an object", fragmentOf(v), nil)
	}
	rawOrder, ok := m["order"]
	if !ok {
		return PointRank{}, parseError(ErrMissingField, path+" missing order", fragmentOf(v), nil)
	}
	rawScore, ok := m["score"]
	if !ok {
		return PointRank{}, parseError(ErrMissingField, path+" missing score", fragmentOf(v), nil)
	}
	order, err := toInt(rawOrder)
	if err != nil {
		return PointRank{}, parseError(ErrTypeCoercion, path+".order is not an integer", fragmentOf(rawOrder), err)
	}
	score, err := toFloat(rawScore)
	if err != nil {
		return PointRank{}, parseError(ErrTypeCoercion, path+".score is not a number", fragmentOf(rawScore), err)
	}
	if score < 0 || score > 1 {
		return PointRank{}, parseError(ErrTypeCoercion, path+".score is outside [0,1]", fragmentOf(rawScore), nil)
	}
	return PointRank{Order: order, Score: score}, nil
}

// parseID accepts the decimal form of a non-negative integer id.
func parseID(s string) (uint, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(n), nil
}

// toInt accepts JSON numbers with an integral value and numeric strings.
func toInt(v any) (int, error) {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			if n < math.MinInt || n > math.MaxInt {
				return 0, fmt.Errorf("%s is out of range", x)
			}
			return int(n), nil
		}
		f, err := x.Float64()
		if err != nil {
			return 0, err
		}
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("%s is not integral", x)
		}
		// float64(math.MaxInt) rounds up to 2^63, so the upper bound is exclusive.
		if f < math.MinInt || f >= math.MaxInt {
			return 0, fmt.Errorf("%s is out of range", x)
		}
		return int(f), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, err
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unexpected %T", v)
	}
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case json.Number:
		return x.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	default:
		return 0, fmt.Errorf("unexpected %T", v)
	}
}

func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimLeft(trimmed, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
		trimmed = strings.TrimSpace(trimmed)
	}
	if strings.HasSuffix(trimmed, "```") {
		trimmed = strings.TrimSuffix(trimmed, "```")
		trimmed = strings.TrimSpace(trimmed)
	}
	return trimmed
}

// extractJSONObject returns the first balanced {...} span, skipping braces
// inside JSON strings.
func extractJSONObject(text string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escape := false
	for i, r := range text {
		if start == -1 {
			if r == '{' {
				start = i
				depth = 1
			}
			continue
		}
		if inString {
			if escape {
				escape = false
				continue
			}
			if r == '\\' {
				escape = true
				continue
			}
			if r == '"' {
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

func parseError(kind ErrorKind, msg, fragment string, err error) *AppError {
	return &AppError{Kind: kind, Message: msg, Fragment: truncate(fragment, maxFragment), Err: err}
}

func fragmentOf(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// truncate cuts s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
