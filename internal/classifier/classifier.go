package classifier

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"contentsummarizer/internal/domain"

	"mvdan.cc/xurls/v2"
)

type Reason string

const (
	ReasonEmpty  Reason = "empty"
	ReasonFormat Reason = "format"
)

// ValidationError reports a URL that cannot be processed at all.
type ValidationError struct {
	Reason Reason
	Input  string
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonEmpty:
		return "URL cannot be empty"
	default:
		return "Invalid URL format"
	}
}

var (
	strictURLRe = xurls.Strict()

	youtubeURLRes = []*regexp.Regexp{
		regexp.MustCompile(`(https?://)?(www\.)?(youtube|youtu|youtube-nocookie)\.(com|be)/`),
		regexp.MustCompile(`(https?://)?(www\.)?youtu\.be/`),
		regexp.MustCompile(`(https?://)?(www\.)?youtube\.com/watch\?v=`),
		regexp.MustCompile(`(https?://)?(www\.)?youtube\.com/embed/`),
		regexp.MustCompile(`(https?://)?(www\.)?youtube\.com/v/`),
	}

	videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
)

var ErrNoVideoID = errors.New("video ID is not found")

// Classify validates raw and reports which loader path applies to it.
func Classify(raw string) (domain.ContentType, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &ValidationError{Reason: ReasonEmpty, Input: raw}
	}

	if !wellFormed(raw) {
		return "", &ValidationError{Reason: ReasonFormat, Input: raw}
	}

	if IsYouTube(raw) {
		return domain.ContentTypeYouTube, nil
	}

	return domain.ContentTypeWebsite, nil
}

// Validate is Classify in (valid, type, message) form.
func Validate(raw string) (bool, domain.ContentType, string) {
	contentType, err := Classify(raw)
	if err != nil {
		return false, "", err.Error()
	}
	return true, contentType, ""
}

func IsYouTube(raw string) bool {
	for _, re := range youtubeURLRes {
		if re.MatchString(raw) {
			return true
		}
	}
	return false
}

// VideoID extracts the video ID from the supported YouTube URL shapes.
func VideoID(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parse URL: %w", err)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	var id string

	switch {
	case host == "youtu.be":
		id = segments[0]
	case u.Query().Get("v") != "":
		id = u.Query().Get("v")
	case len(segments) >= 2:
		switch segments[0] {
		case "embed", "v", "shorts", "live":
			id = segments[1]
		}
	}

	if !videoIDRe.MatchString(id) {
		return "", ErrNoVideoID
	}

	return id, nil
}

// Domain returns the host part of raw for display.
func Domain(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "Unknown"
	}
	return u.Host
}

// wellFormed requires raw to open with a scheme-qualified URL. The match may end
// early on trailing punctuation or quotes, so the parsed URL decides the rest.
func wellFormed(raw string) bool {
	if strings.ContainsFunc(raw, unicode.IsSpace) {
		return false
	}

	if loc := strictURLRe.FindStringIndex(raw); loc == nil || loc[0] != 0 {
		return false
	}

	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	host := u.Hostname()

	return host == "localhost" || strings.Contains(host, ".") || strings.Contains(host, ":")
}
