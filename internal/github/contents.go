// internal/github/contents.go
package github

import (
	"context"
	"encoding/json"
	"path"
	"regexp"
	"sort"
	"strings"

	"showcase-sync/internal/apperrors"
	"showcase-sync/internal/model"
)

// screenshotDirs are probed in order; the first directory containing at
// least one image wins and later candidates are not queried.
var screenshotDirs = []string{
	".github/screenshots",
	"screenshots",
	"assets/screenshots",
	".wordpress-org",
}

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// wordpressPackages are the composer package names that declare a
// WordPress core requirement.
var wordpressPackages = []string{
	"wordpress/wordpress",
	"johnpbloch/wordpress",
	"roots/wordpress",
}

// headerFields maps canonical requirement keys to the plugin header labels
// that declare them.
var headerFields = map[string]string{
	"php":          "Requires PHP",
	"wordpress":    "Requires at least",
	"tested_up_to": "Tested up to",
	"version":      "Version",
}

// GetReadmeRaw returns the decoded README content, or nil when the repo has
// no README or the request fails.
func (c *Client) GetReadmeRaw(ctx context.Context, org, name string) []byte {
	readme, resp, err := c.gh.Repositories.GetReadme(ctx, org, name, nil)
	c.trackRate(ctx, resp)
	if err != nil {
		c.logger.Debug("No readme", "repo", name, "error", err)
		return nil
	}

	content, err := readme.GetContent()
	if err != nil {
		c.logger.Debug("Failed to decode readme", "repo", name, "error", err)
		return nil
	}
	return []byte(content)
}

// GetScreenshots probes the screenshot directory candidates and returns the
// images of the first one that has any, sorted by filename in natural order.
func (c *Client) GetScreenshots(ctx context.Context, org, name string) []model.Screenshot {
	for _, dir := range screenshotDirs {
		_, listing, resp, err := c.gh.Repositories.GetContents(ctx, org, name, dir, nil)
		c.trackRate(ctx, resp)
		if err != nil || listing == nil {
			continue
		}

		var screenshots []model.Screenshot
		for _, file := range listing {
			if !imageExtensions[strings.ToLower(path.Ext(file.GetName()))] {
				continue
			}
			screenshots = append(screenshots, model.Screenshot{
				Filename:    file.GetName(),
				DownloadURL: file.GetDownloadURL(),
				RepoPath:    file.GetPath(),
			})
		}

		if len(screenshots) > 0 {
			sort.Slice(screenshots, func(i, j int) bool {
				return naturalLess(screenshots[i].Filename, screenshots[j].Filename)
			})
			return screenshots
		}
	}

	return nil
}

type composerManifest struct {
	Require map[string]string `json:"require"`
	Extra   struct {
		WordPress map[string]string `json:"wordpress"`
	} `json:"extra"`
}

// GetComposerRequirements extracts version constraints from composer.json.
// Returns nil when the manifest is absent, unparseable, or declares nothing
// recognized.
func (c *Client) GetComposerRequirements(ctx context.Context, org, name string) map[string]string {
	content := c.getFileContent(ctx, org, name, "composer.json")
	if content == "" {
		return nil
	}

	var manifest composerManifest
	if err := json.Unmarshal([]byte(content), &manifest); err != nil {
		perr := &apperrors.ParseError{Source: "composer.json", Err: err}
		c.logger.Debug("Skipping manifest", "repo", name, "error", perr)
		return nil
	}

	requirements := make(map[string]string)

	if php, ok := manifest.Require["php"]; ok {
		requirements["php"] = php
	}
	for _, pkg := range wordpressPackages {
		if wp, ok := manifest.Require[pkg]; ok {
			requirements["wordpress"] = wp
			break
		}
	}
	for key, value := range manifest.Extra.WordPress {
		requirements[strings.ToLower(key)] = value
	}

	if len(requirements) == 0 {
		return nil
	}
	return requirements
}

// GetPluginHeader probes the conventional main-file names for a plugin
// header comment block and extracts recognized key: value lines from the
// first file that declares any.
func (c *Client) GetPluginHeader(ctx context.Context, org, name string) map[string]string {
	candidates := []string{
		name + ".php",
		"plugin.php",
		"index.php",
	}

	for _, filename := range candidates {
		content := c.getFileContent(ctx, org, name, filename)
		if content == "" {
			continue
		}

		header := make(map[string]string)
		for key, label := range headerFields {
			re := regexp.MustCompile(`(?i)\*\s*` + regexp.QuoteMeta(label) + `:\s*(.+)`)
			if m := re.FindStringSubmatch(content); m != nil {
				header[key] = strings.TrimSpace(m[1])
			}
		}

		if len(header) > 0 {
			return header
		}
	}

	return nil
}

// getFileContent fetches and decodes a single file, returning "" on any
// failure.
func (c *Client) getFileContent(ctx context.Context, org, name, filePath string) string {
	file, _, resp, err := c.gh.Repositories.GetContents(ctx, org, name, filePath, nil)
	c.trackRate(ctx, resp)
	if err != nil || file == nil {
		return ""
	}

	content, err := file.GetContent()
	if err != nil {
		c.logger.Debug("Failed to decode file", "repo", name, "path", filePath, "error", err)
		return ""
	}
	return content
}
