package customtool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cast"
	"github.com/yosida95/uritemplate/v3"
)

// Dispatch executes cfg against params, selecting HTTP or script mode
// by which of Endpoint/Script is set, and returns the normalized
// result shape of spec.md §4.5. It never returns a Go error for an
// execution failure — those are encoded into the returned value's
// status field, per spec.md §7's propagation policy.
func Dispatch(ctx context.Context, cfg Config, params map[string]any) any {
	filled := FillDefaults(cfg, params)

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if cfg.TimeoutSeconds <= 0 {
		timeout = defaultTimeoutSeconds * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var raw string
	var err error
	switch {
	case cfg.Endpoint != "":
		raw, err = dispatchHTTP(ctx, cfg, filled)
	case cfg.Script != "":
		raw, err = dispatchScript(ctx, cfg, filled)
	default:
		err = fmt.Errorf("custom tool %q declares neither endpoint nor script", cfg.Name)
	}

	if err != nil {
		return Result{Status: "error", Error: err.Error()}
	}
	return normalize(raw)
}

// normalize attempts to JSON-parse raw output, returning it verbatim
// on success and wrapping it as {status: "ok", output: raw} on
// failure (spec.md §4.5 "Result normalization").
func normalize(raw string) any {
	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
		return parsed
	}
	return Result{Status: "ok", Output: raw}
}

func dispatchHTTP(ctx context.Context, cfg Config, params map[string]any) (string, error) {
	endpoint, consumed := expandEndpointTemplate(cfg.Endpoint, params)
	remaining := make(map[string]any, len(params))
	for k, v := range params {
		if !consumed[k] {
			remaining[k] = v
		}
	}

	method := strings.ToUpper(cfg.Method)
	if method == "" {
		method = http.MethodPost
	}

	var body io.Reader
	headers := map[string]string{}

	if method == http.MethodGet {
		u, err := url.Parse(endpoint)
		if err != nil {
			return "", fmt.Errorf("parsing endpoint: %w", err)
		}
		q := u.Query()
		for k, v := range remaining {
			q.Set(k, cast.ToString(v))
		}
		u.RawQuery = q.Encode()
		endpoint = u.String()
	} else {
		payload, err := json.Marshal(remaining)
		if err != nil {
			return "", fmt.Errorf("encoding parameters: %w", err)
		}
		body = bytes.NewReader(payload)
		headers["Content-Type"] = "application/json"
	}

	for k, v := range cfg.Headers {
		headers[k] = v
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxCapturedOutput))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		truncated := string(respBody)
		if len(truncated) > 500 {
			truncated = truncated[:500]
		}
		return "", fmt.Errorf("HTTP %d %s: %s", resp.StatusCode, http.StatusText(resp.StatusCode), truncated)
	}
	return string(respBody), nil
}

// expandEndpointTemplate expands {param} placeholders embedded in
// endpoint using uritemplate, returning the expanded URL and the set
// of parameter names it consumed so they are not also encoded into
// the query string or body.
func expandEndpointTemplate(endpoint string, params map[string]any) (string, map[string]bool) {
	tmpl, err := uritemplate.New(endpoint)
	if err != nil {
		return endpoint, nil
	}

	varnames := tmpl.Varnames()
	if len(varnames) == 0 {
		return endpoint, nil
	}

	values := uritemplate.Values{}
	consumed := make(map[string]bool, len(varnames))
	for _, name := range varnames {
		v, ok := params[name]
		if !ok {
			continue
		}
		values.Set(name, uritemplate.String(cast.ToString(v)))
		consumed[name] = true
	}

	expanded, err := tmpl.Expand(values)
	if err != nil {
		return endpoint, nil
	}
	return expanded, consumed
}

func dispatchScript(ctx context.Context, cfg Config, params map[string]any) (string, error) {
	fields := strings.Fields(cfg.Script)
	if len(fields) == 0 {
		return "", fmt.Errorf("custom tool %q has an empty script", cfg.Name)
	}
	command, baseArgs := fields[0], fields[1:]

	// Deterministic argv/env ordering so tests (and callers) see a
	// stable invocation.
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)

	args := append([]string{}, baseArgs...)
	env := os.Environ()
	for _, k := range names {
		v := params[k]
		if v == nil {
			continue
		}
		args = append(args, fmt.Sprintf("--%s=%s", k, cast.ToString(v)))
		env = append(env, fmt.Sprintf("TOOL_PARAM_%s=%s", strings.ToUpper(k), cast.ToString(v)))
	}

	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &limitedWriter{w: &stdout, limit: maxCapturedOutput}
	cmd.Stderr = &limitedWriter{w: &stderr, limit: maxCapturedOutput}

	runErr := cmd.Run()
	if runErr != nil && stdout.Len() == 0 && stderr.Len() == 0 {
		return "", fmt.Errorf("running %s: %w", command, runErr)
	}

	out := strings.TrimSpace(stdout.String())
	errOut := strings.TrimSpace(stderr.String())

	if out == "" && errOut != "" {
		return errOut, nil
	}
	if out == "" {
		return "(no output)", nil
	}
	return out, nil
}

// limitedWriter caps how many bytes are retained, so a runaway child
// process cannot grow captured output past the 1 MiB ceiling
// (spec.md §4.5). Bytes past the cap are dropped without an error or
// a truncation marker.
type limitedWriter struct {
	w     io.Writer
	limit int
	n     int
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	if l.n >= l.limit {
		return len(p), nil // silently discard past the cap
	}
	remaining := l.limit - l.n
	if len(p) > remaining {
		p = p[:remaining]
	}
	n, err := l.w.Write(p)
	l.n += n
	return len(p), err
}

// CapDescription renders the output cap for diagnostics/help text.
func CapDescription() string {
	return humanize.IBytes(maxCapturedOutput) + " captured output cap"
}
