package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sambabib/shaiscan/pkg/lockfile"
	"github.com/sambabib/shaiscan/pkg/logger"
	"github.com/sambabib/shaiscan/pkg/scanner"
)

const (
	defaultGitHubAPIURL = "https://api.github.com"
	defaultGitHubRawURL = "https://raw.githubusercontent.com"
)

var (
	githubURLPattern   = regexp.MustCompile(`(?i)^(?:https?://)?(?:www\.)?github\.com/([^/]+)/([^/\s#?]+?)(?:\.git)?(?:/tree/([^/\s#?]+))?/?$`)
	githubShortPattern = regexp.MustCompile(`^([^/\s]+)/([^/\s#@]+?)(?:@([^/\s]+))?$`)
)

// RepoInfo identifies a GitHub repository and the branch to read.
type RepoInfo struct {
	Owner  string
	Repo   string
	Branch string // empty until resolved when not given in the input
}

// URL returns the repository's web address.
func (r RepoInfo) URL() string {
	return fmt.Sprintf("https://github.com/%s/%s", r.Owner, r.Repo)
}

// ParseGitHubInput accepts owner/repo, owner/repo@branch or a github.com URL,
// optionally ending in .git or /tree/<branch>.
func ParseGitHubInput(input string) (RepoInfo, error) {
	input = strings.TrimSpace(input)
	if m := githubURLPattern.FindStringSubmatch(input); m != nil {
		return RepoInfo{Owner: m[1], Repo: strings.TrimSuffix(m[2], ".git"), Branch: m[3]}, nil
	}
	if m := githubShortPattern.FindStringSubmatch(input); m != nil {
		return RepoInfo{Owner: m[1], Repo: m[2], Branch: m[3]}, nil
	}
	return RepoInfo{}, fmt.Errorf("invalid GitHub repository format: %q (expected owner/repo, owner/repo@branch, or https://github.com/owner/repo)", input)
}

// GitHubClient reads files from GitHub repositories.
type GitHubClient struct {
	HTTPClient *http.Client
	APIURL     string // Allow overriding the API URL for testing
	RawURL     string // Allow overriding the raw content URL for testing
}

// NewGitHubClient creates a client against the public GitHub hosts.
func NewGitHubClient(timeout time.Duration) *GitHubClient {
	return &GitHubClient{HTTPClient: newHTTPClient(timeout)}
}

func (c *GitHubClient) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *GitHubClient) apiURL() string {
	if c.APIURL != "" {
		return strings.TrimRight(c.APIURL, "/")
	}
	return defaultGitHubAPIURL
}

func (c *GitHubClient) rawURL() string {
	if c.RawURL != "" {
		return strings.TrimRight(c.RawURL, "/")
	}
	return defaultGitHubRawURL
}

// DefaultBranch asks the GitHub API for the repository's default branch,
// falling back to main when the API does not name one.
func (c *GitHubClient) DefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	body, err := get(ctx, c.client(), fmt.Sprintf("%s/repos/%s/%s", c.apiURL(), owner, repo), "application/vnd.github+json")
	if errors.Is(err, ErrNotFound) {
		return "", fmt.Errorf("repository %s/%s: %w", owner, repo, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get repository info: %w", err)
	}

	var info struct {
		DefaultBranch string `json:"default_branch"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return "", fmt.Errorf("invalid repository info for %s/%s: %w", owner, repo, err)
	}
	if info.DefaultBranch == "" {
		return "main", nil
	}
	return info.DefaultBranch, nil
}

// FetchFile returns the content of path on branch. A missing file reports
// ok == false with no error.
func (c *GitHubClient) FetchFile(ctx context.Context, owner, repo, branch, path string) (content string, ok bool, err error) {
	url := fmt.Sprintf("%s/%s/%s/%s/%s", c.rawURL(), owner, repo, branch, path)
	body, err := get(ctx, c.client(), url, "application/vnd.github.v3.raw")
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(body), true, nil
}

// FetchRepository resolves input to a repository and fetches every package
// file it holds, in parallel. Sources are labelled with the repository URL
// followed by the file name. It fails with ErrNoPackageFiles when none exist.
func (c *GitHubClient) FetchRepository(ctx context.Context, input string) (RepoInfo, scanner.Sources, error) {
	info, err := ParseGitHubInput(input)
	if err != nil {
		return RepoInfo{}, nil, err
	}
	logger.Infof("Fetching from GitHub: %s/%s", info.Owner, info.Repo)

	if info.Branch == "" {
		logger.Debugf("Detecting default branch of %s/%s", info.Owner, info.Repo)
		if info.Branch, err = c.DefaultBranch(ctx, info.Owner, info.Repo); err != nil {
			return info, nil, err
		}
	}
	logger.Infof("Branch: %s", info.Branch)

	type fetched struct {
		content string
		ok      bool
	}
	results := make([]fetched, len(lockfile.Formats))

	g, gctx := errgroup.WithContext(ctx)
	for i, format := range lockfile.Formats {
		i, format := i, format
		g.Go(func() error {
			content, ok, err := c.FetchFile(gctx, info.Owner, info.Repo, info.Branch, format.FileName())
			if err != nil {
				return fmt.Errorf("failed to fetch %s: %w", format.FileName(), err)
			}
			results[i] = fetched{content: content, ok: ok}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return info, nil, err
	}

	sources := scanner.Sources{}
	var found []string
	for i, format := range lockfile.Formats {
		if !results[i].ok {
			continue
		}
		sources[format] = scanner.Source{
			Label:   info.URL() + "/" + format.FileName(),
			Content: results[i].content,
		}
		found = append(found, format.FileName())
	}
	if len(found) == 0 {
		return info, nil, fmt.Errorf("%s/%s: %w", info.Owner, info.Repo, ErrNoPackageFiles)
	}

	logger.Infof("Found: %s", strings.Join(found, ", "))
	return info, sources, nil
}
