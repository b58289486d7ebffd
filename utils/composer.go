package utils

import (
	"encoding/base64"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"leadform/models"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)

// ComposeMessage renders a message template against a lead's answer map.
// Supported placeholders: {{form_name}}, {{name}}/{{nome}} (resolved via the
// name-field heuristic) and {{<any data key>}}, matched case-insensitively.
// Unmatched placeholders resolve to the empty string.
func ComposeMessage(template string, data map[string]interface{}, formName string) string {
	return placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		key := strings.TrimSpace(placeholderRe.FindStringSubmatch(match)[1])
		lower := strings.ToLower(key)

		switch lower {
		case "form_name":
			return formName
		case "name", "nome":
			if name, ok := FindName(data); ok {
				return name
			}
		}

		for dataKey, value := range data {
			if strings.ToLower(dataKey) == lower {
				return models.ValueToString(value)
			}
		}
		return ""
	})
}

// MediaOptions carries the deployment context needed to make a media
// reference transportable to an external provider.
type MediaOptions struct {
	// Directory backing the engine's own upload storage
	UploadDir string
	// Public base URL substituted for host-relative or private-host links
	PublicBaseURL string
}

// MediaPayload is a provider-ready media reference: either a base64 inline
// payload or a publicly reachable URL.
type MediaPayload struct {
	Media    string
	FileName string
	MimeType string
	Inline   bool
}

// ResolveMedia converts a configured media reference into something an
// external messaging provider can fetch or receive. Local uploads are read
// from disk and inlined as base64; host-relative or private-host URLs are
// rewritten onto the public base URL; anything else passes through unchanged.
func ResolveMedia(rawURL, mimeType string, opts MediaOptions) (MediaPayload, error) {
	payload := MediaPayload{
		Media:    rawURL,
		FileName: filepath.Base(rawURL),
		MimeType: mimeType,
	}

	if localPath, ok := uploadPath(rawURL, opts); ok {
		content, err := os.ReadFile(localPath)
		if err != nil {
			return MediaPayload{}, fmt.Errorf("failed to read upload %s: %w", localPath, err)
		}
		payload.Media = base64.StdEncoding.EncodeToString(content)
		payload.FileName = filepath.Base(localPath)
		payload.Inline = true
		return payload, nil
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return payload, nil
	}

	if parsed.Host == "" && strings.HasPrefix(parsed.Path, "/") {
		payload.Media = opts.PublicBaseURL + parsed.Path
		return payload, nil
	}

	if isPrivateHost(parsed.Hostname()) {
		payload.Media = opts.PublicBaseURL + parsed.Path
		return payload, nil
	}

	return payload, nil
}

// uploadPath maps a reference to the engine's own upload storage onto the
// local filesystem, rejecting traversal outside the upload directory.
func uploadPath(rawURL string, opts MediaOptions) (string, bool) {
	if opts.UploadDir == "" {
		return "", false
	}

	ref := rawURL
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Host != "" {
		ref = parsed.Path
	}

	const marker = "/uploads/"
	idx := strings.Index(ref, marker)
	if idx == -1 {
		return "", false
	}

	name := filepath.Clean(ref[idx+len(marker):])
	if name == "." || strings.HasPrefix(name, "..") || filepath.IsAbs(name) {
		return "", false
	}
	return filepath.Join(opts.UploadDir, name), true
}

func isPrivateHost(host string) bool {
	if host == "" {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate()
}
