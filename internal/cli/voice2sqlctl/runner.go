package voice2sqlctl

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Stdout     io.Writer
	Stderr     io.Writer
}

type request struct {
	method      string
	path        string
	body        io.Reader
	contentType string
}

func Run(ctx context.Context, args []string, defaults Options) int {
	stdout := defaults.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := defaults.Stderr
	if stderr == nil {
		stderr = io.Discard
	}

	fs := flag.NewFlagSet("voice2sqlctl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	baseURL := fs.String("base-url", firstNonEmpty(defaults.BaseURL, "http://localhost:8001"), "voice2sql API base URL")
	timeout := fs.Duration("timeout", durationOr(defaults.Timeout, 30*time.Second), "HTTP timeout (e.g. 30s)")
	voice := fs.Bool("voice", false, "send the query text as a voice transcript")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		writeUsage(stderr)
		return 2
	}

	client := defaults.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: *timeout}
	}

	command := strings.TrimSpace(fs.Arg(0))
	operands := fs.Args()[1:]
	req, err := buildRequest(command, operands, *voice)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "%v\n\n", err)
		writeUsage(stderr)
		return 2
	}

	endpoint := strings.TrimRight(*baseURL, "/") + req.path
	code, responseBody, err := doRequest(ctx, client, req, endpoint)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "request failed: %v\n", err)
		return 1
	}

	if code >= 400 {
		_, _ = fmt.Fprintf(stderr, "http %d: %s\n", code, strings.TrimSpace(string(responseBody)))
		return 1
	}

	if pretty, ok := prettyJSON(responseBody); ok {
		_, _ = fmt.Fprintln(stdout, pretty)
		return 0
	}
	if len(responseBody) > 0 {
		_, _ = fmt.Fprintln(stdout, string(responseBody))
	}
	return 0
}

func buildRequest(command string, operands []string, voice bool) (request, error) {
	switch command {
	case "health":
		return request{method: http.MethodGet, path: "/v1/health"}, nil
	case "ready":
		return request{method: http.MethodGet, path: "/v1/ready"}, nil
	case "tables":
		return request{method: http.MethodGet, path: "/v1/tables"}, nil
	case "results":
		return request{method: http.MethodGet, path: "/v1/results"}, nil
	case "query":
		text := strings.TrimSpace(strings.Join(operands, " "))
		if text == "" {
			return request{}, fmt.Errorf("query requires text")
		}
		field := "query"
		if voice {
			field = "voice"
		}
		body, err := json.Marshal(map[string]string{field: text})
		if err != nil {
			return request{}, err
		}
		return request{method: http.MethodPost, path: "/v1/query", body: bytes.NewReader(body), contentType: "application/json"}, nil
	case "ingest":
		if len(operands) == 0 {
			return request{}, fmt.Errorf("ingest requires at least one file")
		}
		body, contentType, err := multipartFiles("files", operands)
		if err != nil {
			return request{}, err
		}
		return request{method: http.MethodPost, path: "/v1/ingest", body: body, contentType: contentType}, nil
	case "transcribe":
		if len(operands) != 1 {
			return request{}, fmt.Errorf("transcribe requires exactly one audio file")
		}
		body, contentType, err := multipartFiles("audio", operands)
		if err != nil {
			return request{}, err
		}
		return request{method: http.MethodPost, path: "/v1/transcribe", body: body, contentType: contentType}, nil
	default:
		return request{}, fmt.Errorf("unknown command %q", command)
	}
}

func multipartFiles(field string, paths []string) (io.Reader, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("read %s: %w", path, err)
		}
		part, err := writer.CreateFormFile(field, filepath.Base(path))
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(data); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}

func doRequest(ctx context.Context, client *http.Client, in request, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, in.method, url, in.body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if in.contentType != "" {
		req.Header.Set("Content-Type", in.contentType)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

func prettyJSON(raw []byte) (string, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", false
	}
	var anyValue any
	if err := json.Unmarshal(raw, &anyValue); err != nil {
		return "", false
	}
	formatted, err := json.MarshalIndent(anyValue, "", "  ")
	if err != nil {
		return "", false
	}
	return string(formatted), true
}

func writeUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "usage: voice2sqlctl [flags] <command> [args]")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "commands:")
	_, _ = fmt.Fprintln(w, "  health                 GET /v1/health")
	_, _ = fmt.Fprintln(w, "  ready                  GET /v1/ready")
	_, _ = fmt.Fprintln(w, "  tables                 GET /v1/tables")
	_, _ = fmt.Fprintln(w, "  results                GET /v1/results")
	_, _ = fmt.Fprintln(w, "  query <text...>        POST /v1/query")
	_, _ = fmt.Fprintln(w, "  ingest <file...>       POST /v1/ingest")
	_, _ = fmt.Fprintln(w, "  transcribe <audio>     POST /v1/transcribe")
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return b
}

func durationOr(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}
