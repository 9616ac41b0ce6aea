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

	"github.com/sambabib/shaiscan/pkg/logger"
)

const defaultNpmRegistryURL = "https://registry.npmjs.org"

var (
	scopedPackagePattern  = regexp.MustCompile(`^(@[^/]+/[^@]+)(?:@(.+))?$`)
	regularPackagePattern = regexp.MustCompile(`^([^@]+)(?:@(.+))?$`)
)

// ParseNpmPackageInput splits name[@version] into its parts. Scoped names keep
// their leading @. The version is empty when none is given.
func ParseNpmPackageInput(input string) (name, version string, err error) {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "@") {
		if m := scopedPackagePattern.FindStringSubmatch(input); m != nil {
			return m[1], m[2], nil
		}
	}
	if m := regularPackagePattern.FindStringSubmatch(input); m != nil {
		return m[1], m[2], nil
	}
	return "", "", fmt.Errorf("invalid npm package format: %q", input)
}

// PackageInfo describes the published package a manifest was built from.
type PackageInfo struct {
	Name        string
	Version     string
	Description string
	NpmURL      string
}

// NpmClient reads package metadata from an npm registry.
type NpmClient struct {
	HTTPClient  *http.Client
	RegistryURL string // Allow overriding the registry URL for testing
}

// NewNpmClient creates a client for registryURL, or the public registry when
// it is empty.
func NewNpmClient(registryURL string, timeout time.Duration) *NpmClient {
	return &NpmClient{HTTPClient: newHTTPClient(timeout), RegistryURL: registryURL}
}

// registryManifest is the per-version document served by the registry. The
// dependency sections stay raw so their member order survives.
type registryManifest struct {
	Name                 string          `json:"name"`
	Version              string          `json:"version"`
	Description          string          `json:"description"`
	Dependencies         json.RawMessage `json:"dependencies"`
	DevDependencies      json.RawMessage `json:"devDependencies"`
	PeerDependencies     json.RawMessage `json:"peerDependencies"`
	OptionalDependencies json.RawMessage `json:"optionalDependencies"`
}

// FetchPackage fetches name@version (latest when version is empty) and
// returns a package.json document holding its four dependency sections.
func (c *NpmClient) FetchPackage(ctx context.Context, name, version string) (PackageInfo, string, error) {
	registryURL := c.RegistryURL
	if registryURL == "" {
		registryURL = defaultNpmRegistryURL
	}
	registryURL = strings.TrimRight(registryURL, "/")

	tag := version
	if tag == "" {
		tag = "latest"
	}
	encodedName := strings.Replace(name, "/", "%2F", 1)

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	logger.Infof("Fetching from npm: %s@%s", name, tag)
	body, err := get(ctx, client, fmt.Sprintf("%s/%s/%s", registryURL, encodedName, tag), "application/json")
	if errors.Is(err, ErrNotFound) {
		return PackageInfo{}, "", fmt.Errorf("package %s@%s: %w", name, tag, ErrNotFound)
	}
	if err != nil {
		return PackageInfo{}, "", fmt.Errorf("npm registry error: %w", err)
	}

	var m registryManifest
	if err := json.Unmarshal(body, &m); err != nil {
		return PackageInfo{}, "", fmt.Errorf("invalid registry response for %s@%s: %w", name, tag, err)
	}

	doc := struct {
		Name                 string          `json:"name"`
		Version              string          `json:"version"`
		Dependencies         json.RawMessage `json:"dependencies"`
		DevDependencies      json.RawMessage `json:"devDependencies"`
		PeerDependencies     json.RawMessage `json:"peerDependencies"`
		OptionalDependencies json.RawMessage `json:"optionalDependencies"`
	}{
		Name:                 m.Name,
		Version:              m.Version,
		Dependencies:         orEmptyObject(m.Dependencies),
		DevDependencies:      orEmptyObject(m.DevDependencies),
		PeerDependencies:     orEmptyObject(m.PeerDependencies),
		OptionalDependencies: orEmptyObject(m.OptionalDependencies),
	}
	manifest, err := json.Marshal(doc)
	if err != nil {
		return PackageInfo{}, "", fmt.Errorf("failed to build manifest for %s: %w", name, err)
	}

	logger.Infof("Version: %s", m.Version)
	info := PackageInfo{
		Name:        m.Name,
		Version:     m.Version,
		Description: m.Description,
		NpmURL:      "https://www.npmjs.com/package/" + name,
	}
	return info, string(manifest), nil
}

func orEmptyObject(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return json.RawMessage("{}")
	}
	return raw
}
