package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"

	"contentsummarizer/internal/classifier"
	"contentsummarizer/internal/domain"
)

// YouTube loading runs two strategies in a fixed order:
//  1. with video info: watch page ytInitialPlayerResponse, metadata plus caption track
//  2. transcript only: ANDROID Innertube /player, caption track, no metadata
//
// The second runs at most once and only after the first failed.

const (
	strategyWithVideoInfo  = "with video info"
	strategyTranscriptOnly = "transcript only"

	ytAndroidVersion = "20.10.38"
	ytAndroidUA      = "com.google.android.youtube/" + ytAndroidVersion + " (Linux; U; Android 11) gzip"

	ytInitialPlayerResponseMarker = "ytInitialPlayerResponse = "
)

type youtubeStrategy func(ctx context.Context, videoID string) ([]domain.Document, error)

type attempt struct {
	strategy string
	docs     []domain.Document
	err      error
}

func (a attempt) succeeded() bool {
	return a.err == nil
}

func (l *Loader) loadYouTube(ctx context.Context, rawURL string) ([]domain.Document, error) {
	// A missing video ID fails each strategy in turn without any request.
	videoID, idErr := classifier.VideoID(rawURL)

	primary := l.run(ctx, strategyWithVideoInfo, l.withVideoInfo, videoID, idErr)
	if primary.succeeded() {
		return primary.docs, nil
	}

	l.log.WarnContext(ctx, "YouTube load with video info failed, trying transcript only",
		"error", primary.err,
		"videoID", videoID)

	if l.recorder != nil {
		l.recorder.RecordYouTubeFallback()
	}

	fallback := l.run(ctx, strategyTranscriptOnly, l.transcriptOnly, videoID, idErr)
	if fallback.succeeded() {
		return fallback.docs, nil
	}

	return nil, &LoadError{
		ContentType: domain.ContentTypeYouTube,
		URL:         rawURL,
		Err: fmt.Errorf("%s: %w (%s: %w)",
			fallback.strategy, fallback.err, primary.strategy, primary.err),
	}
}

func (l *Loader) run(
	ctx context.Context,
	name string,
	strategy youtubeStrategy,
	videoID string,
	idErr error,
) attempt {
	if idErr != nil {
		return attempt{strategy: name, err: idErr}
	}

	docs, err := strategy(ctx, videoID)
	return attempt{strategy: name, docs: docs, err: err}
}

func (l *Loader) fetchWithVideoInfo(ctx context.Context, videoID string) ([]domain.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.watchURL(videoID), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", DefaultHeaders["User-Agent"])
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	body, err := l.doYouTube(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetch watch page: %w", err)
	}

	idx := bytes.Index(body, []byte(ytInitialPlayerResponseMarker))
	if idx < 0 {
		return nil, errors.New("ytInitialPlayerResponse is not found in watch page")
	}

	raw := extractJSONObject(body[idx+len(ytInitialPlayerResponseMarker):])
	if raw == nil {
		return nil, errors.New("ytInitialPlayerResponse is malformed")
	}

	var player playerResponse
	if err = json.Unmarshal(raw, &player); err != nil {
		return nil, fmt.Errorf("decode ytInitialPlayerResponse: %w", err)
	}

	text, err := l.transcriptFromPlayer(ctx, &player)
	if err != nil {
		return nil, err
	}

	doc, err := domain.NewDocument(text, player.metadata(l.watchURL(videoID)))
	if err != nil {
		return nil, fmt.Errorf("build document: %w", err)
	}

	return []domain.Document{doc}, nil
}

func (l *Loader) fetchTranscriptOnly(ctx context.Context, videoID string) ([]domain.Document, error) {
	payload, err := json.Marshal(innertubeRequest{
		VideoID: videoID,
		Context: innertubeContext{
			Client: innertubeClient{
				ClientName:        "ANDROID",
				ClientVersion:     ytAndroidVersion,
				AndroidSdkVersion: 30,
				Hl:                "en",
				Gl:                "US",
			},
		},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	})
	if err != nil {
		return nil, fmt.Errorf("encode player request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		l.youtubeBaseURL+"/youtubei/v1/player?prettyPrint=false",
		bytes.NewReader(payload),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", ytAndroidUA)
	req.Header.Set("X-Youtube-Client-Name", "3")
	req.Header.Set("X-Youtube-Client-Version", ytAndroidVersion)

	body, err := l.doYouTube(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("innertube player: %w", err)
	}

	var player playerResponse
	if err = json.Unmarshal(body, &player); err != nil {
		return nil, fmt.Errorf("decode player response: %w", err)
	}

	text, err := l.transcriptFromPlayer(ctx, &player)
	if err != nil {
		return nil, err
	}

	doc, err := domain.NewDocument(text, map[string]string{
		"source": l.watchURL(videoID),
	})
	if err != nil {
		return nil, fmt.Errorf("build document: %w", err)
	}

	return []domain.Document{doc}, nil
}

func (l *Loader) transcriptFromPlayer(ctx context.Context, player *playerResponse) (string, error) {
	if player.Captions == nil {
		if player.PlayabilityStatus != nil && player.PlayabilityStatus.Reason != "" {
			return "", fmt.Errorf("%w: %s", errNoCaptions, player.PlayabilityStatus.Reason)
		}
		return "", errNoCaptions
	}

	tracks := player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) == 0 {
		return "", errNoCaptions
	}

	track, ok := pickBestTrack(tracks, l.languages)
	if !ok {
		return "", errors.New("all caption tracks require a PoToken")
	}

	return l.fetchTimedText(ctx, track.BaseURL)
}

func (l *Loader) fetchTimedText(ctx context.Context, baseURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", DefaultHeaders["User-Agent"])

	body, err := l.doYouTube(ctx, req)
	if err != nil {
		return "", fmt.Errorf("fetch timedtext: %w", err)
	}

	var tt timedText
	if err = xml.Unmarshal(body, &tt); err != nil {
		return "", fmt.Errorf("parse timedtext XML: %w", err)
	}

	text := tt.plainText()
	if text == "" {
		return "", errors.New("transcript is empty")
	}

	return text, nil
}

func (l *Loader) doYouTube(ctx context.Context, req *http.Request) ([]byte, error) {
	resp, err := l.youtubeClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if err = resp.Body.Close(); err != nil {
			l.log.ErrorContext(ctx, "Failed to close response body",
				"error", err,
				"url", req.URL.String(),
				"operation", "doYouTube")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, unexpectedStatus(resp)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return body, nil
}

func (l *Loader) watchURL(videoID string) string {
	return l.youtubeBaseURL + "/watch?v=" + videoID
}

// needsPoToken reports whether a caption track can only be fetched by a browser.
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// pickBestTrack prefers manual tracks in langs, then generated ones, then any English track.
func pickBestTrack(tracks []captionTrack, langs []string) (captionTrack, bool) {
	usable := make([]captionTrack, 0, len(tracks))
	for _, t := range tracks {
		if !needsPoToken(t.BaseURL) {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return captionTrack{}, false
	}

	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang && t.Kind != "asr" {
				return t, true
			}
		}
	}

	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang {
				return t, true
			}
		}
	}

	for _, t := range usable {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return t, true
		}
	}

	return usable[0], true
}

// extractJSONObject returns the balanced JSON object at the start of data.
func extractJSONObject(data []byte) []byte {
	if len(data) == 0 || data[0] != '{' {
		return nil
	}

	depth := 0
	inString := false
	escaped := false

	for i, c := range data {
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return data[:i+1]
			}
		}
	}

	return nil
}

func (tt *timedText) plainText() string {
	var sb strings.Builder

	write := func(fragment string) {
		fragment = strings.Join(strings.Fields(html.UnescapeString(fragment)), " ")
		if fragment == "" {
			return
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(fragment)
	}

	for _, line := range tt.Lines {
		write(line.Text)
	}

	for _, p := range tt.Paragraphs {
		if len(p.Segments) == 0 {
			write(p.Text)
			continue
		}
		write(strings.Join(p.Segments, ""))
	}

	return sb.String()
}
