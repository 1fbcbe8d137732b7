// Package importer brings existing instruction files into the rules
// directory. Markdown is copied as is; HTML pages, local or fetched over
// HTTP, are converted to markdown with their title kept as the rule
// description.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// FetchTimeout bounds fetching a remote source.
const FetchTimeout = 30 * time.Second

// ErrExists is returned when the target rule already exists and Force is unset.
var ErrExists = errors.New("rule already exists")

// Options configures an import.
type Options struct {
	// RulesDir is the directory the rule is written to
	RulesDir string
	// Name overrides the rule name derived from the source
	Name string
	// Force overwrites an existing rule
	Force bool
	// Client fetches remote sources (optional)
	Client *http.Client
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Result describes an imported rule.
type Result struct {
	Source    string
	Path      string
	Converted bool // source was HTML
}

// Pre-compiled regex patterns.
var (
	reNonWord           = regexp.MustCompile(`[^\w\s-]`)
	reSpacesUnderscores = regexp.MustCompile(`[\s_]+`)
	reMultipleHyphens   = regexp.MustCompile(`-+`)
	reAnchorLinks       = regexp.MustCompile(`\s*\[#\]\(#[\w-]*\)`)
	reExcessiveNewlines = regexp.MustCompile(`\n{4,}`)
)

// Import reads src, a file path or http(s) URL, and writes it to the rules
// directory as <name>.md.
func Import(ctx context.Context, src string, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	raw, base, err := read(ctx, src, opts.Client)
	if err != nil {
		return nil, err
	}

	name := opts.Name
	if name == "" {
		name = slugify(strings.TrimSuffix(base, path.Ext(base)))
	}
	name = strings.TrimSuffix(name, ".md")
	if name == "" {
		return nil, fmt.Errorf("cannot derive a rule name from %s; pass one explicitly", src)
	}

	target := filepath.Join(opts.RulesDir, filepath.FromSlash(name)+".md")
	if _, err := os.Stat(target); err == nil && !opts.Force {
		return nil, fmt.Errorf("%w: %s (use --force to overwrite)", ErrExists, target)
	}

	result := &Result{Source: src, Path: target}
	content := raw
	if isHTML(base, raw) {
		content, err = convertHTML(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to convert %s: %w", src, err)
		}
		result.Converted = true
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create rules directory: %w", err)
	}
	if err := os.WriteFile(target, []byte(content), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", target, err)
	}

	logger.Info("imported rule", "source", src, "path", target, "converted", result.Converted)
	return result, nil
}

// read returns the source contents and the base name used to derive the rule name.
func read(ctx context.Context, src string, client *http.Client) (string, string, error) {
	if u, err := url.Parse(src); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		body, err := fetchPage(ctx, client, src)
		if err != nil {
			return "", "", err
		}
		base := path.Base(u.Path)
		if base == "/" || base == "." {
			base = u.Hostname()
		}
		return body, base, nil
	}

	data, err := os.ReadFile(src) //nolint:gosec // G304: path is supplied by the user
	if err != nil {
		return "", "", fmt.Errorf("failed to read %s: %w", src, err)
	}
	return string(data), filepath.Base(src), nil
}

// fetchPage fetches content from a URL.
func fetchPage(ctx context.Context, client *http.Client, pageURL string) (string, error) {
	if client == nil {
		client = &http.Client{Timeout: FetchTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "rulesets-import/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: unexpected status: %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(body), nil
}

func isHTML(base, content string) bool {
	switch strings.ToLower(path.Ext(base)) {
	case ".html", ".htm":
		return true
	case ".md", ".markdown":
		return false
	}
	head := strings.ToLower(strings.TrimSpace(content))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}

// convertHTML converts the main content of a page to markdown and records
// the page title as the rule description.
func convertHTML(content string) (string, error) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("parse HTML: %w", err)
	}

	body := doc
	for _, tag := range []string{"article", "main", "body"} {
		if n := findElement(doc, tag); n != nil {
			body = n
			break
		}
	}

	md, err := htmltomarkdown.ConvertString(renderNode(body))
	if err != nil {
		return "", err
	}
	md = cleanMarkdown(md)

	title := ""
	if n := findElement(doc, "title"); n != nil {
		title = getTextContent(n)
	}
	if title == "" {
		if n := findElement(body, "h1"); n != nil {
			title = getTextContent(n)
		}
	}
	if title == "" {
		return md + "\n", nil
	}

	header, err := yaml.Marshal(map[string]any{"description": title})
	if err != nil {
		return "", err
	}
	return "---\n" + string(header) + "---\n\n" + md + "\n", nil
}

// slugify converts text to a safe rule name. Accents are folded so
// "Règles" becomes "regles" rather than "rgles".
func slugify(text string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(fold, text); err == nil {
		text = folded
	}
	text = strings.ToLower(strings.TrimSpace(text))
	text = reNonWord.ReplaceAllString(text, "")
	text = reSpacesUnderscores.ReplaceAllString(text, "-")
	text = reMultipleHyphens.ReplaceAllString(text, "-")
	return strings.Trim(text, "-")
}

// cleanMarkdown removes heading anchor links, collapses long runs of blank
// lines and trims trailing whitespace.
func cleanMarkdown(content string) string {
	content = reAnchorLinks.ReplaceAllString(content, "")
	content = reExcessiveNewlines.ReplaceAllString(content, "\n\n\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// findElement finds the first element with the given tag name.
func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// getTextContent returns the text content of a node and its children.
func getTextContent(n *html.Node) string {
	var sb strings.Builder
	var getText func(*html.Node)
	getText = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			getText(c)
		}
	}
	getText(n)
	return strings.TrimSpace(sb.String())
}

// renderNode renders an HTML node back to string.
func renderNode(n *html.Node) string {
	var sb strings.Builder
	if err := html.Render(&sb, n); err != nil {
		return ""
	}
	return sb.String()
}
